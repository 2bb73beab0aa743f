package tui

import (
	"github.com/Kauxtubh/pinecone/pkg/client"
	"github.com/Kauxtubh/pinecone/pkg/protocol"
)

// BubbleTea message types produced by the stats subscription

// ConnectedMsg signals a successful stats subscription
type ConnectedMsg struct {
	Stream *client.StatsStream
}

// StatsMsg delivers one live stats frame
type StatsMsg struct {
	Frame *protocol.StatsFrame
}

// DisconnectedMsg signals a dropped stats subscription
type DisconnectedMsg struct {
	Err error
}

// RetryMsg fires when the reconnect backoff elapses
type RetryMsg struct {
	Attempt int
}
