package websocket

import (
	"encoding/json"
	"time"

	"lostfound/internal/domain/entity"
	"lostfound/pkg/logger"
)

const (
	MessageTypeSnapshot = "snapshot"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
	MessageTypeError    = "error"
)

// WSMessage is the envelope for client-initiated messages and control replies.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// SnapshotFrame carries the full contents of a collection.
type SnapshotFrame struct {
	Type       string           `json:"type"`
	Collection string           `json:"collection"`
	Items      []*entity.Report `json:"items"`
	Count      int              `json:"count"`
	Timestamp  string           `json:"timestamp"`
}

func NewSnapshotFrame(collection string, reports []*entity.Report) SnapshotFrame {
	if reports == nil {
		reports = []*entity.Report{}
	}
	return SnapshotFrame{
		Type:       MessageTypeSnapshot,
		Collection: collection,
		Items:      reports,
		Count:      len(reports),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

func NewErrorFrame(message string) WSMessage {
	return WSMessage{
		Type:      MessageTypeError,
		Data:      map[string]string{"error": message},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// HandleClientMessage answers application-level pings. Streams are read-only,
// so anything else is rejected.
func (c *Client) HandleClientMessage(messageBytes []byte) {
	var msg WSMessage
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		logger.Debug("WebSocket: bad message from client %s: %v", c.ID, err)
		c.SendError("Invalid message format")
		return
	}

	switch msg.Type {
	case MessageTypePing:
		c.enqueue(WSMessage{
			Type:      MessageTypePong,
			Data:      map[string]string{"status": "alive"},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	default:
		c.SendError("Unknown message type")
	}
}
