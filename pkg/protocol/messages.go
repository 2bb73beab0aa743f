// Package protocol defines the WebSocket message types shared between the
// gateway and its clients.
package protocol

import (
	"time"

	"github.com/Kauxtubh/pinecone"
)

// StatsFrame is one message on the /ws/stats stream. The gateway pushes a
// frame on connect and then on every stats interval tick.
type StatsFrame struct {
	Timestamp time.Time                      `json:"ts"`
	Indexes   map[string]pinecone.IndexStats `json:"indexes"`
}
