package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bduble/aiventa-crm-sub000/internal/model"
)

type stubFinder struct {
	leads []model.Lead
	err   error
}

func (s *stubFinder) FindCandidates(_ context.Context, email, lastName, phone string) ([]model.Lead, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Lead
	for _, l := range s.leads {
		if (email != "" && l.Email == email) ||
			(lastName != "" && l.LastName == lastName) ||
			(phone != "" && l.Phone == phone) {
			out = append(out, l)
		}
	}
	return out, nil
}

func TestIsDuplicateEmailAndLastName(t *testing.T) {
	finder := &stubFinder{leads: []model.Lead{
		{Email: "jane@example.com", LastName: "Doe", Phone: "555-0101"},
	}}
	m := NewMatcher(finder)

	dup, err := m.IsDuplicate(context.Background(), model.Prospect{
		Email:    "jane@example.com",
		LastName: "Doe",
		Phone:    "555-9999",
	})
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestIsDuplicatePhoneAndLastName(t *testing.T) {
	finder := &stubFinder{leads: []model.Lead{
		{Email: "other@example.com", LastName: "Doe", Phone: "555-0101"},
	}}
	m := NewMatcher(finder)

	dup, err := m.IsDuplicate(context.Background(), model.Prospect{
		Email:    "jane@example.com",
		LastName: "Doe",
		Phone:    "555-0101",
	})
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestIsDuplicateSingleFieldIsNotEnough(t *testing.T) {
	finder := &stubFinder{leads: []model.Lead{
		{Email: "jane@example.com", LastName: "Smith", Phone: "555-2222"},
	}}
	m := NewMatcher(finder)

	dup, err := m.IsDuplicate(context.Background(), model.Prospect{
		Email:    "jane@example.com",
		LastName: "Doe",
		Phone:    "555-0101",
	})
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestIsDuplicateEmptyFieldsNeverMatch(t *testing.T) {
	// An existing lead with empty email and phone must not accumulate
	// matches against a prospect that also left them empty.
	finder := &stubFinder{leads: []model.Lead{
		{Email: "", LastName: "Doe", Phone: ""},
	}}
	m := NewMatcher(finder)

	dup, err := m.IsDuplicate(context.Background(), model.Prospect{
		Email:    "",
		LastName: "Doe",
		Phone:    "",
	})
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestIsDuplicateNoCandidates(t *testing.T) {
	m := NewMatcher(&stubFinder{})

	dup, err := m.IsDuplicate(context.Background(), model.Prospect{
		Email:    "new@example.com",
		LastName: "New",
		Phone:    "555-3333",
	})
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestIsDuplicateLookupErrorSurfaces(t *testing.T) {
	lookupErr := errors.New("connection refused")
	m := NewMatcher(&stubFinder{err: lookupErr})

	dup, err := m.IsDuplicate(context.Background(), model.Prospect{Email: "x@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, lookupErr)
	assert.False(t, dup)
}
