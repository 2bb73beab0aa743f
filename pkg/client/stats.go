package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/Kauxtubh/pinecone/pkg/protocol"
)

// StatsStream is an open /ws/stats subscription. Read frames with Next and
// Close when done; Close also unblocks a pending Next.
type StatsStream struct {
	conn *websocket.Conn
}

// SubscribeStats opens the live stats socket.
func (c *Client) SubscribeStats(ctx context.Context) (*StatsStream, error) {
	wsURL, err := c.statsSocketURL()
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("failed to dial stats socket: %w", err)
	}
	return &StatsStream{conn: conn}, nil
}

// Next blocks until the server pushes the next frame.
func (s *StatsStream) Next() (*protocol.StatsFrame, error) {
	var frame protocol.StatsFrame
	if err := s.conn.ReadJSON(&frame); err != nil {
		return nil, fmt.Errorf("failed to read stats frame: %w", err)
	}
	return &frame, nil
}

// Close shuts the subscription down.
func (s *StatsStream) Close() error {
	return s.conn.Close()
}

func (c *Client) statsSocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q in base URL", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/stats"
	return u.String(), nil
}
