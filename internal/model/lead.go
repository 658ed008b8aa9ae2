package model

import (
	"strings"
	"time"
)

// SourceADF is the origin tag stamped on every lead created by the
// ingestion pipeline. It is set once at insert time and never updated.
const SourceADF = "adf"

// Lead is the persisted prospect record shared with the rest of the CRM.
// The ingestion pipeline is insert-only: it never updates or deletes rows.
type Lead struct {
	ID              string
	Name            string
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Source          string
	VehicleInterest string
	TradeVehicle    string
	CreatedAt       time.Time

	// Response tracking is written by the follow-up workflow, never by
	// the ingestion pipeline.
	LastLeadResponseAt       *time.Time
	LastLeadResponseChannel  string
	LastStaffResponseAt      *time.Time
	LastStaffResponseChannel string
}

// Prospect is one customer inquiry decoded from an ADF payload. It lives
// only long enough to be checked against existing leads and either becomes
// exactly one Lead row or is discarded.
type Prospect struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	VehicleInterest string
	TradeVehicle    string
}

// NewLead builds the Lead row for a prospect that passed the duplicate
// check. ID and CreatedAt are stamped by the store at insert time.
func NewLead(p Prospect) Lead {
	return Lead{
		Name:            strings.TrimSpace(p.FirstName + " " + p.LastName),
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		Phone:           p.Phone,
		Source:          SourceADF,
		VehicleInterest: p.VehicleInterest,
		TradeVehicle:    p.TradeVehicle,
	}
}
