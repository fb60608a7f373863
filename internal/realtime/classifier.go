package realtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

var ErrMalformedFrame = errors.New("malformed frame")

// FrameKind is the classification of an inbound frame.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameData
	FrameKeepAlive
	FrameError
)

func (k FrameKind) String() string {
	switch k {
	case FrameData:
		return "data"
	case FrameKeepAlive:
		return "keep-alive"
	case FrameError:
		return "error"
	default:
		return "unknown"
	}
}

// Frame is a decoded inbound frame.
type Frame struct {
	Kind FrameKind
	Type string
	ID   string

	// Event is the decoded payload of a data frame.
	Event interface{}
	// Raw is the whole decoded frame object.
	Raw map[string]interface{}
	// KeepAlives is the number of consecutive keep-alives including this frame.
	KeepAlives int
}

// Classifier decodes frames and tracks the keep-alive run. It is not safe for
// concurrent use; the session calls it from a single goroutine.
type Classifier struct {
	keepAlives int
}

// Classify decodes one inbound frame. Malformed frames return an error
// wrapping ErrMalformedFrame and leave the keep-alive counter untouched.
func (c *Classifier) Classify(data []byte) (Frame, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	typ, _ := raw["type"].(string)
	if typ == "" {
		return Frame{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	id, _ := raw["id"].(string)

	f := Frame{Type: typ, ID: id, Raw: raw}
	switch {
	case typ == MsgKeepAlive:
		c.keepAlives++
		f.Kind = FrameKeepAlive

	case typ == MsgData:
		event, err := decodeEvent(raw["event"])
		if err != nil {
			return Frame{}, err
		}
		c.keepAlives = 0
		f.Kind = FrameData
		f.Event = event

	case strings.HasSuffix(typ, MsgError):
		c.keepAlives = 0
		f.Kind = FrameError

	default:
		c.keepAlives = 0
		f.Kind = FrameUnknown
	}
	f.KeepAlives = c.keepAlives
	return f, nil
}

// decodeEvent parses the event field, which is itself a JSON document encoded
// as a string.
func decodeEvent(v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: data event is %T, want string", ErrMalformedFrame, v)
	}
	var event interface{}
	if err := json.Unmarshal([]byte(s), &event); err != nil {
		return nil, fmt.Errorf("%w: data event: %v", ErrMalformedFrame, err)
	}
	return event, nil
}
