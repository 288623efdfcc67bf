package service

import (
	"testing"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft(t *testing.T) *DraftBuilder {
	t.Helper()
	b := NewDraftBuilder(StaticSession{UserID: 99})
	b.SetOrigin("HQ-1", 1)
	b.SetDestination("HQ-2", 4)
	b.UpsertItem(7, 3)
	return b
}

func TestDraftUpsertItemRoundTripIsNoop(t *testing.T) {
	b := NewDraftBuilder(StaticSession{UserID: 99})

	b.UpsertItem(7, 1)
	require.Len(t, b.Items(), 1)

	b.UpsertItem(7, -1)
	assert.Empty(t, b.Items(), "a +1/-1 round trip must leave no line behind")
}

func TestDraftUpsertItemAbsentFloorsAtOne(t *testing.T) {
	b := NewDraftBuilder(StaticSession{UserID: 99})

	// A decrement on an absent product still creates the line at quantity 1.
	b.UpsertItem(7, -3)

	items := b.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestDraftUpsertItemMergesQuantities(t *testing.T) {
	b := NewDraftBuilder(StaticSession{UserID: 99})

	b.UpsertItem(7, 2)
	b.UpsertItem(7, 3)
	b.UpsertItem(9, 1)

	items := b.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(7), items[0].ProductID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 6, b.TotalQuantity())
}

func TestDraftSetItemQuantity(t *testing.T) {
	b := NewDraftBuilder(StaticSession{UserID: 99})

	b.SetItemQuantity(7, 4)
	require.Len(t, b.Items(), 1)

	// Zero removes regardless of prior quantity.
	b.SetItemQuantity(7, 0)
	assert.Empty(t, b.Items())

	// Zero on an absent line is a no-op, not an error.
	b.SetItemQuantity(12, 0)
	assert.Empty(t, b.Items())

	b.SetItemQuantity(12, -5)
	assert.Empty(t, b.Items())
}

func TestDraftCanSubmit(t *testing.T) {
	b := NewDraftBuilder(StaticSession{UserID: 99})
	assert.False(t, b.CanSubmit(), "empty draft")

	b.SetOrigin("HQ-1", 1)
	assert.False(t, b.CanSubmit(), "destination missing")

	b.SetDestination("HQ-2", 4)
	assert.False(t, b.CanSubmit(), "no items")

	b.UpsertItem(7, 3)
	assert.True(t, b.CanSubmit())
}

func TestDraftCanSubmitRejectsSameWarehouse(t *testing.T) {
	b := NewDraftBuilder(StaticSession{UserID: 99})
	b.SetOrigin("HQ-1", 3)
	// Different sede ids resolving to the same warehouse are still invalid.
	b.SetDestination("HQ-2", 3)
	b.UpsertItem(7, 1)

	assert.False(t, b.CanSubmit())
	_, err := b.BuildRequest()
	assert.ErrorIs(t, err, ErrDraftSameRoute)
}

func TestDraftCanSubmitAllowsSameSedeDifferentWarehouse(t *testing.T) {
	b := NewDraftBuilder(StaticSession{UserID: 99})
	b.SetOrigin("HQ-1", 1)
	b.SetDestination("HQ-1", 2)
	b.UpsertItem(7, 1)

	assert.True(t, b.CanSubmit())
}

func TestDraftCanSubmitRequiresUser(t *testing.T) {
	b := NewDraftBuilder(nil)
	b.SetOrigin("HQ-1", 1)
	b.SetDestination("HQ-2", 4)
	b.UpsertItem(7, 1)

	assert.False(t, b.CanSubmit())
	_, err := b.BuildRequest()
	assert.ErrorIs(t, err, ErrDraftNoUser)

	b.SetUser(42)
	assert.True(t, b.CanSubmit())
}

func TestDraftBuildRequestMatchesLines(t *testing.T) {
	b := validDraft(t)
	b.UpsertItem(9, 2)
	b.SetObservation("  reposición semanal  ")

	require.True(t, b.CanSubmit())
	req, err := b.BuildRequest()
	require.NoError(t, err, "a submittable draft must always build")

	assert.Equal(t, "HQ-1", req.OriginHeadquartersID)
	assert.Equal(t, int64(1), req.OriginWarehouseID)
	assert.Equal(t, "HQ-2", req.DestinationHeadquartersID)
	assert.Equal(t, int64(4), req.DestinationWarehouseID)
	assert.Equal(t, int64(99), req.UserID)
	require.NotNil(t, req.Observation)
	assert.Equal(t, "reposición semanal", *req.Observation)
	assert.Equal(t, []dto.ItemTransferenciaRequest{
		{ProductID: 7, Quantity: 3},
		{ProductID: 9, Quantity: 2},
	}, req.Items)
}

func TestDraftBuildRequestEmptyObservationIsNull(t *testing.T) {
	b := validDraft(t)
	b.SetObservation("   ")

	req, err := b.BuildRequest()
	require.NoError(t, err)
	assert.Nil(t, req.Observation)
}

func TestDraftResetReseedsUser(t *testing.T) {
	b := validDraft(t)
	b.SetUser(7)

	b.Reset()

	assert.Empty(t, b.Items())
	assert.False(t, b.CanSubmit())

	b.SetOrigin("HQ-1", 1)
	b.SetDestination("HQ-2", 4)
	b.UpsertItem(3, 1)
	req, err := b.BuildRequest()
	require.NoError(t, err)
	assert.Equal(t, int64(99), req.UserID, "reset must re-seed from the session context")
}

func TestDraftResetFallsBackToDefaultUser(t *testing.T) {
	b := NewDraftBuilder(StaticSession{})
	b.SetOrigin("HQ-1", 1)
	b.SetDestination("HQ-2", 4)
	b.UpsertItem(3, 1)

	req, err := b.BuildRequest()
	require.NoError(t, err)
	assert.Equal(t, DefaultUserID, req.UserID)
}

func TestDraftLoadRequestRoundTrip(t *testing.T) {
	obs := "urgente"
	in := dto.SolicitarTransferenciaRequest{
		OriginHeadquartersID:      "HQ-1",
		OriginWarehouseID:         1,
		DestinationHeadquartersID: "HQ-2",
		DestinationWarehouseID:    4,
		UserID:                    50,
		Observation:               &obs,
		Items: []dto.ItemTransferenciaRequest{
			{ProductID: 7, Quantity: 3, Series: []string{"S-1", "S-2", "S-3"}},
			{ProductID: 9, Quantity: 0}, // zero-quantity lines must not survive
		},
	}

	b := NewDraftBuilder(StaticSession{UserID: 99})
	b.LoadRequest(in)

	req, err := b.BuildRequest()
	require.NoError(t, err)
	assert.Equal(t, int64(50), req.UserID)
	require.Len(t, req.Items, 1)
	assert.Equal(t, int64(7), req.Items[0].ProductID)
	assert.Equal(t, []string{"S-1", "S-2", "S-3"}, req.Items[0].Series)
	require.NotNil(t, req.Observation)
	assert.Equal(t, "urgente", *req.Observation)
}

func TestDraftLoadRequestMergesDuplicateLines(t *testing.T) {
	in := dto.SolicitarTransferenciaRequest{
		OriginHeadquartersID:      "HQ-1",
		OriginWarehouseID:         1,
		DestinationHeadquartersID: "HQ-2",
		DestinationWarehouseID:    4,
		UserID:                    50,
		Items: []dto.ItemTransferenciaRequest{
			{ProductID: 7, Quantity: 3},
			{ProductID: 9, Quantity: 1},
			{ProductID: 7, Quantity: 2}, // same product again: quantities merge
		},
	}

	b := NewDraftBuilder(StaticSession{UserID: 99})
	b.LoadRequest(in)

	items := b.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(7), items[0].ProductID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, int64(9), items[1].ProductID)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, 6, b.TotalQuantity())
}
