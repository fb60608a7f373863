package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/chukul/eventsctl/internal/realtime"
	"github.com/chukul/eventsctl/internal/signer"
	"golang.org/x/term"
)

const (
	dataPrefix      = ">>"
	subscribePrefix = "<<"
	errorPrefix     = "!!"
	otherPrefix     = "--"
)

// Printer renders session output. On a terminal keep-alives share one
// rewritten line; elsewhere a run of keep-alives is summarized once it ends.
type Printer struct {
	mu       sync.Mutex
	out      io.Writer
	inline   bool
	channels map[string]string
	run      int
}

var _ realtime.Presenter = (*Printer)(nil)

// NewPrinter writes to out, rewriting lines in place when out is a terminal.
func NewPrinter(out io.Writer) *Printer {
	inline := false
	if f, ok := out.(*os.File); ok {
		inline = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{out: out, inline: inline, channels: map[string]string{}}
}

func (p *Printer) Subscribed(id, channel string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endRun()
	p.channels[id] = channel
	p.line(subscribeStyle, fmt.Sprintf("%s subscribe %s (%s)", subscribePrefix, channel, id))
}

func (p *Printer) Frame(f realtime.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if f.Kind == realtime.FrameKeepAlive {
		p.run = f.KeepAlives
		if p.inline {
			fmt.Fprintf(p.out, "\r%s", dimStyle.Render(fmt.Sprintf("%s keep-alive x%d", otherPrefix, p.run)))
		}
		return
	}
	p.endRun()

	switch f.Kind {
	case realtime.FrameData:
		p.line(dataStyle, fmt.Sprintf("%s %s%s", dataPrefix, p.channelLabel(f.ID), compact(f.Event)))
	case realtime.FrameError:
		p.line(errorStyle, fmt.Sprintf("%s %s", errorPrefix, compact(f.Raw)))
	default:
		p.line(dimStyle, fmt.Sprintf("%s %s", otherPrefix, compact(f.Raw)))
	}
}

func (p *Printer) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endRun()
	p.line(errorStyle, fmt.Sprintf("%s %v", errorPrefix, err))
}

// Flush terminates a pending keep-alive run.
func (p *Printer) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endRun()
}

func (p *Printer) endRun() {
	if p.run == 0 {
		return
	}
	if p.inline {
		fmt.Fprintln(p.out)
	} else {
		fmt.Fprintf(p.out, "%s keep-alive x%d\n", otherPrefix, p.run)
	}
	p.run = 0
}

func (p *Printer) channelLabel(id string) string {
	if len(p.channels) < 2 {
		return ""
	}
	if ch, ok := p.channels[id]; ok {
		return ch + " "
	}
	return ""
}

func (p *Printer) line(style interface{ Render(...string) string }, s string) {
	if p.inline {
		s = style.Render(s)
	}
	fmt.Fprintln(p.out, s)
}

func compact(v interface{}) string {
	s, err := signer.Compact(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
