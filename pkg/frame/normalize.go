package frame

import (
	"encoding/json"
)

// DefaultThreadKey is used when a frame does not name a thread.
const DefaultThreadKey = "default"

// Record is the canonical form of one inbound frame.
type Record struct {
	// ThreadKey buckets messages into conversation threads.
	ThreadKey string
	// Text is the message body. Never empty: unparseable frames carry
	// their raw bytes here instead of being dropped.
	Text string
	// Bidirectional marks messages whose thread replies should be routed
	// back to the originating connection.
	Bidirectional bool
	// ChannelID optionally overrides the default destination channel.
	ChannelID string
}

// wirePayload is the preferred JSON shape on the socket.
type wirePayload struct {
	Thread        string `json:"thread"`
	Message       string `json:"message"`
	Bidirectional bool   `json:"isBidirectional"`
	ChannelID     string `json:"channelId"`
}

// Normalize converts a raw frame into exactly one Record.
//
// A JSON object with a "message" field maps onto the canonical schema; a bare
// JSON string becomes a default-thread text message. Everything else,
// including objects missing the required "message" field, degrades to plain
// text carrying the original bytes. No input produces zero records.
func Normalize(raw []byte) Record {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return Record{ThreadKey: DefaultThreadKey, Text: s}
	}

	var p wirePayload
	if err := json.Unmarshal(raw, &p); err == nil && p.Message != "" {
		key := p.Thread
		if key == "" {
			key = DefaultThreadKey
		}
		return Record{
			ThreadKey:     key,
			Text:          p.Message,
			Bidirectional: p.Bidirectional,
			ChannelID:     p.ChannelID,
		}
	}

	return Record{ThreadKey: DefaultThreadKey, Text: string(raw)}
}
