package ucrm

import (
	"context"

	"github.com/danutsss/invoice-xml-export/internal/types"
)

// ClientSource fetches client records by id.
type ClientSource interface {
	Client(ctx context.Context, id int) (*types.Client, error)
}

// CachedClientSource remembers clients for the lifetime of one export.
// It is not safe for concurrent use; create one per export.
type CachedClientSource struct {
	source  ClientSource
	clients map[int]*types.Client
}

// NewCachedClientSource wraps source with a per-export cache.
func NewCachedClientSource(source ClientSource) *CachedClientSource {
	return &CachedClientSource{
		source:  source,
		clients: make(map[int]*types.Client),
	}
}

// Client returns the cached client or fetches it. Failures are not cached.
func (c *CachedClientSource) Client(ctx context.Context, id int) (*types.Client, error) {
	if client, ok := c.clients[id]; ok {
		return client, nil
	}

	client, err := c.source.Client(ctx, id)
	if err != nil {
		return nil, err
	}

	c.clients[id] = client
	return client, nil
}
