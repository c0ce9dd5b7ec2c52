package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbardin/equiprent/internal/domain"
)

func TestAvailabilityService_FreeUnits(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	avail := f.svc.Availability()

	free, err := avail.FreeUnits(ctx, f.listing.ID, day(1), day(10))
	require.NoError(t, err)
	assert.Equal(t, 5, free, "no bookings yet")

	_, err = f.svc.Book(ctx, f.renter.ID, f.listing.ID, 3, day(4), day(6))
	require.NoError(t, err)

	free, err = avail.FreeUnits(ctx, f.listing.ID, day(1), day(10))
	require.NoError(t, err)
	assert.Equal(t, 2, free)

	// A disjoint window is unaffected.
	free, err = avail.FreeUnits(ctx, f.listing.ID, day(7), day(10))
	require.NoError(t, err)
	assert.Equal(t, 5, free)

	// Touching the booked window's last day charges the full quantity.
	free, err = avail.FreeUnits(ctx, f.listing.ID, day(6), day(10))
	require.NoError(t, err)
	assert.Equal(t, 2, free)
}

// TestAvailabilityService_ConservativeOverlap verifies the worst-case rule:
// a partially overlapping booking charges its full quantity against the whole
// requested window, with no sub-range slicing.
func TestAvailabilityService_ConservativeOverlap(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	avail := f.svc.Availability()

	_, err := f.svc.Book(ctx, f.renter.ID, f.listing.ID, 2, day(1), day(3))
	require.NoError(t, err)

	// The request [3,8] only shares day 3 with the booking, but both units
	// are charged for the whole window.
	free, err := avail.FreeUnits(ctx, f.listing.ID, day(3), day(8))
	require.NoError(t, err)
	assert.Equal(t, 0, free)
}

func TestAvailabilityService_CancelledBookingsExcluded(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	avail := f.svc.Availability()

	b, err := f.svc.Book(ctx, f.renter.ID, f.listing.ID, 1, day(1), day(5))
	require.NoError(t, err)

	free, err := avail.FreeUnits(ctx, f.listing.ID, day(2), day(3))
	require.NoError(t, err)
	assert.Equal(t, 0, free)

	_, err = f.svc.Cancel(ctx, f.identity(f.renter), b.ID)
	require.NoError(t, err)

	free, err = avail.FreeUnits(ctx, f.listing.ID, day(2), day(3))
	require.NoError(t, err)
	assert.Equal(t, 1, free, "cancelled booking must not hold capacity")
}

func TestAvailabilityService_ListingNotFound(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.Availability().FreeUnits(context.Background(), uuid.New(), day(1), day(2))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAvailabilityService_IsFree(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	avail := f.svc.Availability()

	ok, err := avail.IsFree(ctx, f.listing.ID, 3, day(1), day(2))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = avail.IsFree(ctx, f.listing.ID, 4, day(1), day(2))
	require.NoError(t, err)
	assert.False(t, ok)
}
