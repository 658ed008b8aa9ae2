package store_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bduble/aiventa-crm-sub000/internal/model"
	"github.com/bduble/aiventa-crm-sub000/internal/store"
	"github.com/bduble/aiventa-crm-sub000/tests/testutil"
)

func newLead(first, last, email, phone string) model.Lead {
	return model.NewLead(model.Prospect{
		FirstName:       first,
		LastName:        last,
		Email:           email,
		Phone:           phone,
		VehicleInterest: "2024 Ford F-150",
	})
}

func TestInsertLeadStampsIDAndCreatedAt(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	lead := newLead("Jane", "Doe", "jane@example.com", "555-0101")
	require.NoError(t, s.InsertLead(ctx, &lead))

	assert.NotEmpty(t, lead.ID)
	assert.False(t, lead.CreatedAt.IsZero())
	assert.Equal(t, model.SourceADF, lead.Source)
}

func TestInsertLeadRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	lead := newLead("Jane", "Doe", "jane@example.com", "555-0101")
	lead.TradeVehicle = "2018 Honda Civic"
	require.NoError(t, s.InsertLead(ctx, &lead))

	got, err := s.GetLeadByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "555-0101", got.Phone)
	assert.Equal(t, model.SourceADF, got.Source)
	assert.Equal(t, "2024 Ford F-150", got.VehicleInterest)
	assert.Equal(t, "2018 Honda Civic", got.TradeVehicle)
	assert.Nil(t, got.LastLeadResponseAt)
	assert.Nil(t, got.LastStaffResponseAt)
}

func TestGetLeadByIDMissing(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetLeadByID(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFindCandidatesMatchesAnyField(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	jane := newLead("Jane", "Doe", "jane@example.com", "555-0101")
	john := newLead("John", "Smith", "john@example.com", "555-0202")
	require.NoError(t, s.InsertLead(ctx, &jane))
	require.NoError(t, s.InsertLead(ctx, &john))

	// Email matches one, last name the other.
	got, err := s.FindCandidates(ctx, "jane@example.com", "Smith", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.FindCandidates(ctx, "", "", "555-0202")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, john.ID, got[0].ID)
}

func TestFindCandidatesAllEmptyReturnsNothing(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	anon := newLead("", "", "", "")
	require.NoError(t, s.InsertLead(ctx, &anon))

	got, err := s.FindCandidates(ctx, "", "", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetLeadsFilterAndSort(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, l := range []model.Lead{
		newLead("Alice", "Adams", "alice@example.com", ""),
		newLead("Bob", "Brown", "bob@example.com", ""),
		newLead("Carol", "Clark", "carol@example.com", ""),
	} {
		lead := l
		require.NoError(t, s.InsertLead(ctx, &lead))
	}

	source := model.SourceADF
	got, err := s.GetLeads(ctx, store.LeadFilter{Source: &source, SortBy: "name", SortDesc: true})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Carol Clark", got[0].Name)
	assert.Equal(t, "Alice Adams", got[2].Name)

	query := "F-150"
	got, err = s.GetLeads(ctx, store.LeadFilter{Query: &query, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	other := "webform"
	got, err = s.GetLeads(ctx, store.LeadFilter{Source: &other})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTouchResponses(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	lead := newLead("Jane", "Doe", "jane@example.com", "")
	require.NoError(t, s.InsertLead(ctx, &lead))

	require.NoError(t, s.TouchLeadResponse(ctx, lead.ID, "email"))
	require.NoError(t, s.TouchStaffResponse(ctx, lead.ID, "phone"))

	got, err := s.GetLeadByID(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLeadResponseAt)
	assert.Equal(t, "email", got.LastLeadResponseChannel)
	require.NotNil(t, got.LastStaffResponseAt)
	assert.Equal(t, "phone", got.LastStaffResponseChannel)
}
