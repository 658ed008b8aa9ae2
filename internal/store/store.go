// Package store persists leads in the shared relational lead store.
package store

import (
	"context"

	"github.com/bduble/aiventa-crm-sub000/internal/model"
)

// LeadFilter controls filtering, sorting, and pagination for lead queries.
type LeadFilter struct {
	Source   *string
	Query    *string // matches name and vehicle_interest
	SortBy   string  // "created_at" or "name"
	SortDesc bool
	Limit    int
	Offset   int
}

// Store is the lead persistence interface. The ingestion pipeline is a
// pure writer/reader: insert plus the candidate prefilter; the query and
// response-touch operations serve the rest of the CRM.
type Store interface {
	// InsertLead writes a new lead, stamping ID and CreatedAt when unset.
	InsertLead(ctx context.Context, lead *model.Lead) error

	// GetLeads retrieves leads matching the filter.
	GetLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)

	// GetLeadByID retrieves a single lead.
	GetLeadByID(ctx context.Context, id string) (*model.Lead, error)

	// FindCandidates returns leads whose email, last name, or phone
	// equals the given non-empty values (logical OR prefilter).
	FindCandidates(ctx context.Context, email, lastName, phone string) ([]model.Lead, error)

	// TouchLeadResponse records a lead-side response on an existing lead.
	TouchLeadResponse(ctx context.Context, id, channel string) error

	// TouchStaffResponse records a staff-side response on an existing lead.
	TouchStaffResponse(ctx context.Context, id, channel string) error

	Close() error
}
