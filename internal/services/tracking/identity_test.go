package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/stretchr/testify/require"
)

func TestIdentityChain_Order(t *testing.T) {
	o := &models.Order{
		OrderNumber:         "BF-1",
		ProviderOrderID:     strPtr("sd-1"),
		CourierAssignmentID: strPtr("as-1"),
		CourierID:           strPtr("c-1"),
	}

	t.Run("assignment by provider order", func(t *testing.T) {
		store := &fakeStore{
			assignmentsByProvider: map[string]*models.CourierAssignment{"sd-1": {Assigned: true, CourierName: "Pedro"}},
			couriers:              map[string]*models.Courier{"c-1": {Name: "Roster"}},
		}
		id := DefaultIdentityChain(store, time.Second).Resolve(context.Background(), o)
		require.Equal(t, "Pedro", id.Name)
		require.Equal(t, []string{"assignment_by_provider"}, store.calls)
	})

	t.Run("unassigned assignment is skipped", func(t *testing.T) {
		store := &fakeStore{
			assignmentsByProvider: map[string]*models.CourierAssignment{"sd-1": {Assigned: false, CourierName: "Pedro"}},
			assignmentsByID:       map[string]*models.CourierAssignment{"as-1": {Assigned: true, CourierName: "Inés", CourierPhone: strPtr("+52 2")}},
		}
		id := DefaultIdentityChain(store, time.Second).Resolve(context.Background(), o)
		require.Equal(t, "Inés", id.Name)
		require.Equal(t, "+52 2", id.Phone)
	})

	t.Run("roster last", func(t *testing.T) {
		store := &fakeStore{
			couriers: map[string]*models.Courier{"c-1": {Name: "Rita", Rating: floatPtr(4.5)}},
		}
		id := DefaultIdentityChain(store, time.Second).Resolve(context.Background(), o)
		require.Equal(t, "Rita", id.Name)
		require.InDelta(t, 4.5, *id.Rating, 1e-9)
		require.Equal(t, []string{"assignment_by_provider", "assignment_by_id", "courier_by_id"}, store.calls)
	})

	t.Run("errors are skipped", func(t *testing.T) {
		store := &fakeStore{
			courierErr: errors.New("timeout"),
			couriers:   map[string]*models.Courier{"c-1": {Name: "Rita"}},
		}
		id := DefaultIdentityChain(store, time.Second).Resolve(context.Background(), o)
		require.Equal(t, "Rita", id.Name)
	})

	t.Run("nothing found", func(t *testing.T) {
		id := DefaultIdentityChain(&fakeStore{}, time.Second).Resolve(context.Background(), o)
		require.Nil(t, id)
	})
}

func TestIdentityChain_SkipsStrategiesWithoutKeys(t *testing.T) {
	store := &fakeStore{}
	id := DefaultIdentityChain(store, time.Second).Resolve(context.Background(), &models.Order{OrderNumber: "BF-9"})
	require.Nil(t, id)
	require.Empty(t, store.calls)
}
