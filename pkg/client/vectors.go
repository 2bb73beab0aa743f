package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Kauxtubh/pinecone"
	"github.com/Kauxtubh/pinecone/storage"
)

// UpsertRequest writes vectors into one namespace. An empty Namespace is the
// default namespace.
type UpsertRequest struct {
	Namespace string           `json:"namespace,omitempty"`
	Vectors   []storage.Record `json:"vectors"`
}

// Upsert inserts or overwrites vectors and returns how many were written.
func (c *Client) Upsert(ctx context.Context, index string, req UpsertRequest) (int, error) {
	var resp struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	if err := c.do(ctx, http.MethodPost, indexPath(index)+"/vectors/upsert", req, &resp); err != nil {
		return 0, err
	}
	return resp.UpsertedCount, nil
}

// QueryRequest is one similarity search. Filter uses the metadata filter
// syntax ($eq, $in, $and and friends) as a plain JSON object.
type QueryRequest struct {
	Namespace       string                 `json:"namespace,omitempty"`
	Vector          []float32              `json:"vector"`
	TopK            int                    `json:"topK"`
	Filter          map[string]interface{} `json:"filter,omitempty"`
	IncludeValues   bool                   `json:"includeValues,omitempty"`
	IncludeMetadata bool                   `json:"includeMetadata,omitempty"`
}

// Query returns the TopK most similar vectors, best first.
func (c *Client) Query(ctx context.Context, index string, req QueryRequest) (*pinecone.QueryResponse, error) {
	var resp pinecone.QueryResponse
	if err := c.do(ctx, http.MethodPost, indexPath(index)+"/query", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteRequest removes vectors by id, or with DeleteAll the whole
// namespace container.
type DeleteRequest struct {
	Namespace string   `json:"namespace,omitempty"`
	IDs       []string `json:"ids,omitempty"`
	DeleteAll bool     `json:"deleteAll,omitempty"`
}

// DeleteVectors removes vectors. Unknown ids are skipped, not errors.
func (c *Client) DeleteVectors(ctx context.Context, index string, req DeleteRequest) error {
	return c.do(ctx, http.MethodPost, indexPath(index)+"/vectors/delete", req, nil)
}

// Fetch looks up vectors by id. Ids that do not exist are simply absent from
// the result.
func (c *Client) Fetch(ctx context.Context, index, namespace string, ids []string) (map[string]storage.Record, error) {
	params := url.Values{}
	if namespace != "" {
		params.Set("namespace", namespace)
	}
	for _, id := range ids {
		params.Add("ids", id)
	}

	var resp struct {
		Vectors   map[string]storage.Record `json:"vectors"`
		Namespace string                    `json:"namespace"`
	}
	path := indexPath(index) + "/vectors/fetch?" + params.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Vectors, nil
}
