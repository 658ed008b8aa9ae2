// Package dedup decides whether an incoming prospect already exists as a
// lead, using partial-field agreement rather than exact-key lookup.
package dedup

import (
	"context"
	"fmt"

	"github.com/bduble/aiventa-crm-sub000/internal/model"
)

// duplicateThreshold is the number of agreeing identity fields (of email,
// last name, phone) that marks a prospect as a duplicate. Requiring two
// independent signals tolerates single-field noise like a shared household
// email while still catching re-submissions. The value is a product
// decision; do not tune it casually.
const duplicateThreshold = 2

// CandidateFinder narrows the existing lead set to plausible matches.
// store.Store satisfies it.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, email, lastName, phone string) ([]model.Lead, error)
}

// Matcher scores prospects against candidate leads.
type Matcher struct {
	finder CandidateFinder
}

// NewMatcher creates a matcher over the given candidate source.
func NewMatcher(finder CandidateFinder) *Matcher {
	return &Matcher{finder: finder}
}

// IsDuplicate reports whether the prospect matches an existing lead on at
// least two of email, last name, and phone. A failed candidate lookup is
// returned as an error: guessing either way would risk silent duplication
// or silent loss, so the caller must skip the prospect instead.
func (m *Matcher) IsDuplicate(ctx context.Context, p model.Prospect) (bool, error) {
	candidates, err := m.finder.FindCandidates(ctx, p.Email, p.LastName, p.Phone)
	if err != nil {
		return false, fmt.Errorf("looking up duplicate candidates: %w", err)
	}

	for _, lead := range candidates {
		if matchScore(lead, p) >= duplicateThreshold {
			return true, nil
		}
	}
	return false, nil
}

// matchScore counts agreeing identity fields. An empty field never counts,
// even when both sides are empty.
func matchScore(lead model.Lead, p model.Prospect) int {
	score := 0
	if lead.Email != "" && lead.Email == p.Email {
		score++
	}
	if lead.LastName != "" && lead.LastName == p.LastName {
		score++
	}
	if lead.Phone != "" && lead.Phone == p.Phone {
		score++
	}
	return score
}
