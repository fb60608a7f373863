package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/chukul/eventsctl/internal/realtime"
	"github.com/tj/assert"
)

func classify(t *testing.T, c *realtime.Classifier, raw string) realtime.Frame {
	t.Helper()
	f, err := c.Classify([]byte(raw))
	assert.NoError(t, err)
	return f
}

func TestPrinterCoalescesKeepAlives(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	var c realtime.Classifier

	p.Subscribed("sub-1", "/default/*")
	p.Frame(classify(t, &c, `{"type":"ka"}`))
	p.Frame(classify(t, &c, `{"type":"ka"}`))
	p.Frame(classify(t, &c, `{"type":"ka"}`))
	p.Frame(classify(t, &c, `{"type":"data","id":"sub-1","event":"{\"message\":\"hi\"}"}`))
	p.Frame(classify(t, &c, `{"type":"ka"}`))
	p.Flush()

	want := "<< subscribe /default/* (sub-1)\n" +
		"-- keep-alive x3\n" +
		`>> {"message":"hi"}` + "\n" +
		"-- keep-alive x1\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinterInlineRewrite(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{out: &buf, inline: true, channels: map[string]string{}}
	var c realtime.Classifier

	p.Frame(classify(t, &c, `{"type":"ka"}`))
	p.Frame(classify(t, &c, `{"type":"ka"}`))
	p.Error(errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "\r")
	assert.Contains(t, out, "keep-alive x1")
	assert.Contains(t, out, "keep-alive x2")
	assert.Contains(t, out, "boom")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestPrinterFrames(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	var c realtime.Classifier

	p.Subscribed("a", "/one")
	p.Subscribed("b", "/two")
	buf.Reset()

	p.Frame(classify(t, &c, `{"type":"data","id":"b","event":"\"<tag>\""}`))
	p.Frame(classify(t, &c, `{"type":"subscribe_error","id":"a"}`))
	p.Frame(classify(t, &c, `{"type":"connection_ack"}`))

	want := `>> /two "<tag>"` + "\n" +
		`!! {"id":"a","type":"subscribe_error"}` + "\n" +
		`-- {"type":"connection_ack"}` + "\n"
	assert.Equal(t, want, buf.String())
}
