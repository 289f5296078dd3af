package company

import "context"

// ListFilter narrows ListCompanies results.
type ListFilter struct {
	// District matches case-insensitively as a substring.
	District  string    `json:"district,omitempty"`
	CRMStatus CRMStatus `json:"status,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Offset    int       `json:"offset,omitempty"`
}

// Store defines persistence for the client ledger.
type Store interface {
	// GetCompany returns nil, nil when no record exists for taxID.
	GetCompany(ctx context.Context, taxID string) (*Company, error)
	// UpsertCompany inserts c or replaces its projection and snapshot.
	// CRM status and created_at of an existing row are preserved.
	UpsertCompany(ctx context.Context, c *Company) error
	ListCompanies(ctx context.Context, filter ListFilter) ([]Company, error)

	// CRM
	SetCRMStatus(ctx context.Context, taxID string, status CRMStatus) error
	AddInteraction(ctx context.Context, in *Interaction) error
	ListInteractions(ctx context.Context, taxID string) ([]Interaction, error)
}
