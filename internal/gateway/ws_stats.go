package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/Kauxtubh/pinecone"
	"github.com/Kauxtubh/pinecone/pkg/protocol"
)

// handleStatsSocket handles GET /ws/stats. It pushes a protocol.StatsFrame
// immediately on connect and then on every stats interval until the
// client goes away.
func (g *Gateway) handleStatsSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Printf("[Gateway] WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	g.logger.Printf("[Gateway] Stats client connected: %s", r.RemoteAddr)

	// Reader goroutine: the stream is one-way, but reading is what
	// surfaces close frames and dropped connections.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(g.config.StatsInterval())
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(g.collectStats(r.Context())); err != nil {
			g.logger.Printf("[Gateway] Stats client gone: %s", r.RemoteAddr)
			return
		}

		select {
		case <-done:
			g.logger.Printf("[Gateway] Stats client disconnected: %s", r.RemoteAddr)
			return
		case <-ticker.C:
		}
	}
}

// collectStats snapshots the stats of every index for one frame.
func (g *Gateway) collectStats(ctx context.Context) protocol.StatsFrame {
	frame := protocol.StatsFrame{
		Timestamp: time.Now(),
		Indexes:   make(map[string]pinecone.IndexStats),
	}

	for _, desc := range g.db.ListIndexes(ctx) {
		stats, err := g.db.DescribeIndexStats(ctx, desc.Name)
		if err != nil {
			continue
		}
		frame.Indexes[desc.Name] = *stats
	}

	return frame
}
