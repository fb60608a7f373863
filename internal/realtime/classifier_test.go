package realtime

import (
	"errors"
	"testing"

	"github.com/tj/assert"
)

func TestClassifierKeepAliveCounter(t *testing.T) {
	var c Classifier
	frames := []string{
		`{"type":"ka"}`,
		`{"type":"ka"}`,
		`{"type":"data","id":"1","event":"{\"a\":1}"}`,
		`{"type":"ka"}`,
	}
	want := []int{1, 2, 0, 1}

	for i, raw := range frames {
		f, err := c.Classify([]byte(raw))
		assert.NoError(t, err)
		assert.Equal(t, want[i], f.KeepAlives, "frame %d", i)
	}
}

func TestClassifierData(t *testing.T) {
	var c Classifier
	f, err := c.Classify([]byte(`{"type":"data","id":"sub-1","event":"{\"message\":\"hi\",\"n\":2}"}`))
	assert.NoError(t, err)
	assert.Equal(t, FrameData, f.Kind)
	assert.Equal(t, "sub-1", f.ID)
	assert.Equal(t, map[string]interface{}{"message": "hi", "n": float64(2)}, f.Event)
}

func TestClassifierOtherTypesReset(t *testing.T) {
	tests := []struct {
		raw  string
		kind FrameKind
	}{
		{`{"type":"error","errors":[{"errorType":"UnauthorizedException"}]}`, FrameError},
		{`{"type":"subscribe_error","id":"1"}`, FrameError},
		{`{"type":"subscribe_success","id":"1"}`, FrameUnknown},
		{`{"type":"connection_ack","connectionTimeoutMs":300000}`, FrameUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			var c Classifier
			_, err := c.Classify([]byte(`{"type":"ka"}`))
			assert.NoError(t, err)

			f, err := c.Classify([]byte(tc.raw))
			assert.NoError(t, err)
			assert.Equal(t, tc.kind, f.Kind)
			assert.Equal(t, 0, f.KeepAlives)
			assert.NotNil(t, f.Raw)
		})
	}
}

func TestClassifierMalformed(t *testing.T) {
	tests := []string{
		`not json`,
		`{"id":"1"}`,
		`{"type":""}`,
		`["ka"]`,
		`{"type":"data","event":"{broken"}`,
		`{"type":"data","event":{"already":"decoded"}}`,
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			var c Classifier
			_, err := c.Classify([]byte(`{"type":"ka"}`))
			assert.NoError(t, err)

			_, err = c.Classify([]byte(raw))
			assert.True(t, errors.Is(err, ErrMalformedFrame))

			// counter untouched, next frame still classifies
			f, err := c.Classify([]byte(`{"type":"ka"}`))
			assert.NoError(t, err)
			assert.Equal(t, 2, f.KeepAlives)
		})
	}
}

func TestProtocolMessages(t *testing.T) {
	assert.Equal(t, `{"type":"connection_init"}`, string(InitMessage()))
	assert.Equal(t, `{"type":"unsubscribe","id":"abc"}`, string(UnsubscribeMessage("abc")))

	msg, err := SubscribeMessage("abc", "/default/*", map[string]string{"host": "h"})
	assert.NoError(t, err)
	assert.Equal(t, `{"type":"subscribe","id":"abc","channel":"/default/*","authorization":{"host":"h"}}`, string(msg))

	_, err = SubscribeMessage("", "/default/*", nil)
	assert.Error(t, err)
}
