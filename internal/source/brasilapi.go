package source

import (
	"context"

	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/pkg/brasilapi"
)

// BrasilAPI serves detail lookups from the free BrasilAPI endpoint.
type BrasilAPI struct {
	client brasilapi.Client
}

// NewBrasilAPI wraps a BrasilAPI client as a DetailLookup.
func NewBrasilAPI(client brasilapi.Client) *BrasilAPI {
	return &BrasilAPI{client: client}
}

// Lookup implements DetailLookup.
func (b *BrasilAPI) Lookup(ctx context.Context, taxID string) (*model.RawCompany, error) {
	c, err := b.client.CNPJ(ctx, taxID)
	if err != nil || c == nil {
		return nil, err
	}
	raw := brasilapi.ToRawCompany(c)
	return &raw, nil
}
