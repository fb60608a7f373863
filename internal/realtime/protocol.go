// Package realtime implements the AppSync Events WebSocket subscription protocol.
package realtime

import (
	"fmt"

	"github.com/chukul/eventsctl/internal/signer"
	"github.com/goccy/go-json"
)

// Message types of the AppSync Events realtime protocol.
const (
	MsgConnectionInit   = "connection_init"
	MsgConnectionAck    = "connection_ack"
	MsgConnectionError  = "connection_error"
	MsgKeepAlive        = "ka"
	MsgSubscribe        = "subscribe"
	MsgSubscribeSuccess = "subscribe_success"
	MsgSubscribeError   = "subscribe_error"
	MsgUnsubscribe      = "unsubscribe"
	MsgData             = "data"
	MsgError            = "error"
)

// Message is an outbound client message.
type Message struct {
	Type          string           `json:"type"`
	ID            string           `json:"id,omitempty"`
	Channel       string           `json:"channel,omitempty"`
	Authorization signer.HeaderSet `json:"authorization,omitempty"`
}

// InitMessage returns the connection_init frame.
func InitMessage() []byte {
	b, _ := json.Marshal(Message{Type: MsgConnectionInit})
	return b
}

// SubscribeMessage returns a subscribe frame for channel.
func SubscribeMessage(id, channel string, auth signer.HeaderSet) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("subscribe to %v: empty id", channel)
	}
	b, err := json.Marshal(Message{
		Type:          MsgSubscribe,
		ID:            id,
		Channel:       channel,
		Authorization: auth,
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling subscribe message: %w", err)
	}
	return b, nil
}

// UnsubscribeMessage returns an unsubscribe frame for id.
func UnsubscribeMessage(id string) []byte {
	b, _ := json.Marshal(Message{Type: MsgUnsubscribe, ID: id})
	return b
}
