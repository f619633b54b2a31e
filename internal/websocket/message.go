package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewErrorMessage builds a serialized error message for a client.
func NewErrorMessage(text string) []byte {
	msg, _ := json.Marshal(Message{Action: "error", Payload: text})
	return msg
}
