package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Kauxtubh/pinecone"
)

// CreateIndexRequest names a new index. An empty Metric defaults to cosine
// on the server.
type CreateIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric,omitempty"`
}

// CreateIndex creates an index and returns its description.
func (c *Client) CreateIndex(ctx context.Context, req CreateIndexRequest) (*pinecone.IndexDescription, error) {
	var desc pinecone.IndexDescription
	if err := c.do(ctx, http.MethodPost, "/indexes", req, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// ListIndexes returns every index, sorted by name.
func (c *Client) ListIndexes(ctx context.Context) ([]pinecone.IndexDescription, error) {
	var resp struct {
		Indexes []pinecone.IndexDescription `json:"indexes"`
	}
	if err := c.do(ctx, http.MethodGet, "/indexes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Indexes, nil
}

// DescribeIndex returns one index's description.
func (c *Client) DescribeIndex(ctx context.Context, name string) (*pinecone.IndexDescription, error) {
	var desc pinecone.IndexDescription
	if err := c.do(ctx, http.MethodGet, indexPath(name), nil, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// DeleteIndex removes an index and everything in it.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, indexPath(name), nil, nil)
}

// IndexStats returns vector counts per namespace.
func (c *Client) IndexStats(ctx context.Context, name string) (*pinecone.IndexStats, error) {
	var stats pinecone.IndexStats
	if err := c.do(ctx, http.MethodGet, indexPath(name)+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func indexPath(name string) string {
	return "/indexes/" + url.PathEscape(name)
}
