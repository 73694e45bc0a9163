package tracking

import (
	"testing"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/stretchr/testify/require"
)

func baseSnapshot() Snapshot {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o := &models.Order{
		ID:          "3f7a",
		OrderNumber: "BF-1001",
		Status:      models.OrderStatusAssigned,
		CreatedAt:   created,
		AssignedAt:  timePtr(created.Add(3 * time.Minute)),
		Customer:    models.Contact{Name: "Carla", Address: "Av. Juarez 10"},
		Business:    models.Contact{Name: "Birria Flores", Address: "Calle 5"},
		Items:       []models.LineItem{{Name: "Taco", Quantity: 3, UnitPrice: 20}},
		Total:       floatPtr(100),
	}
	return BuildSnapshot(o, DefaultDeliveryFee)
}

func TestReconcile_NoProvider_UsesSnapshot(t *testing.T) {
	s := baseSnapshot()
	r := Reconcile(ReconcileInput{Snapshot: s})

	require.Equal(t, models.OrderStatusAssigned, r.Status)
	require.Nil(t, r.Courier)
	require.Nil(t, r.ETAMinutes)
	require.Nil(t, r.Location)
	require.Equal(t, s.Timeline, r.Timeline)
	require.True(t, r.Facts.IsEmpty())
	require.Equal(t, "BF-1001", r.Facts.OrderNumber)
}

func TestReconcile_DetailWins(t *testing.T) {
	s := baseSnapshot()
	s.Courier = &Identity{Name: "Old"}
	d := &models.ProviderOrderDetail{
		OrderID:      "sd-88",
		Status:       models.OrderStatusStarted,
		Courier:      &models.ProviderCourier{ID: 42, Name: "Luis", PhoneNumber: "+52 1", Rating: floatPtr(4.9)},
		Customer:     &models.Contact{Name: "Carla M.", Address: "Av. Juarez 10B"},
		Business:     &models.Contact{},
		TrackingLink: "https://track.example/t/tok-1",
		Activity: models.ProviderActivity{
			PlacementTime: "2026-03-01T10:00:00Z",
			StartTime:     "2026-03-01 10:09:00",
			DeliveryTime:  "garbage",
		},
		Proof: models.ProviderProof{ImageURLs: []string{"", "https://cdn/a.jpg"}, SignaturePath: "https://cdn/sig.png"},
	}

	r := Reconcile(ReconcileInput{Snapshot: s, Detail: d})

	require.Equal(t, models.OrderStatusStarted, r.Status)
	require.Equal(t, "Luis", r.Courier.Name)
	require.Equal(t, int64(42), *r.Courier.ProviderCourierID)
	require.Equal(t, "Carla M.", r.Customer.Name)
	// пустой блок business не перекрывает persistent
	require.Equal(t, "Birria Flores", r.Business.Name)
	require.Equal(t, []string{"https://cdn/a.jpg", "https://cdn/sig.png"}, r.Proof)
	require.Len(t, r.Timeline, 2)
	require.Equal(t, StageStarted, r.Timeline[0].Stage)
	require.Equal(t, StagePlaced, r.Timeline[1].Stage)

	// items и сумма только из persistent
	require.Equal(t, s.Items, r.Items)
	require.InDelta(t, 40.0, r.DeliveryFee, 1e-9)

	require.Equal(t, int64(42), *r.Facts.ProviderCourierID)
	require.Equal(t, "Luis", r.Facts.CourierName)
	require.Equal(t, "https://track.example/t/tok-1", r.Facts.TrackingLink)
	require.Equal(t, "sd-88", r.Facts.ProviderOrderID)
}

func TestReconcile_SentinelCourierIgnored(t *testing.T) {
	s := baseSnapshot()
	fallback := &Identity{Name: "Roster Rita"}

	for _, c := range []*models.ProviderCourier{
		{ID: models.UnassignedCourierID, Name: "Nobody"},
		{ID: 0, Name: "Zero"},
		{ID: 7, Name: ""},
	} {
		r := Reconcile(ReconcileInput{
			Snapshot: s,
			Detail:   &models.ProviderOrderDetail{Status: models.OrderStatusNotAssigned, Courier: c},
			Fallback: fallback,
		})
		require.Equal(t, "Roster Rita", r.Courier.Name, "courier %+v", c)
		require.False(t, r.Facts.HasCourier())
		require.Nil(t, r.Facts.ProviderCourierID)
	}
}

func TestReconcile_PersistentCourierBeatsFallback(t *testing.T) {
	s := baseSnapshot()
	s.Courier = &Identity{Name: "Stored"}
	r := Reconcile(ReconcileInput{Snapshot: s, Fallback: &Identity{Name: "Roster"}})
	require.Equal(t, "Stored", r.Courier.Name)
}

func TestReconcile_ETAOnlyFromProgress(t *testing.T) {
	s := baseSnapshot()
	d := &models.ProviderOrderDetail{Status: models.OrderStatusStarted, ETATime: "15"}

	r := Reconcile(ReconcileInput{Snapshot: s, Detail: d})
	require.Nil(t, r.ETAMinutes)

	r = Reconcile(ReconcileInput{Snapshot: s, Detail: d, Progress: &models.ProviderProgress{
		Location:   &models.Coordinate{Latitude: 19.1, Longitude: -103.7},
		ETAMinutes: intPtr(12),
	}})
	require.Equal(t, 12, *r.ETAMinutes)
	require.Equal(t, 19.1, r.Location.Latitude)

	r = Reconcile(ReconcileInput{Snapshot: s, Progress: &models.ProviderProgress{ETAMinutes: intPtr(-1)}})
	require.Nil(t, r.ETAMinutes)
}

func TestReconcile_UnparseableActivityKeepsPersistentTimeline(t *testing.T) {
	s := baseSnapshot()
	d := &models.ProviderOrderDetail{Activity: models.ProviderActivity{PlacementTime: "yesterday"}}
	r := Reconcile(ReconcileInput{Snapshot: s, Detail: d})
	require.Equal(t, s.Timeline, r.Timeline)
	require.Equal(t, models.OrderStatusAssigned, r.Status)
}

func TestNeedsFallbackIdentity(t *testing.T) {
	s := baseSnapshot()
	require.True(t, NeedsFallbackIdentity(s, nil))
	require.True(t, NeedsFallbackIdentity(s, &models.ProviderOrderDetail{Courier: &models.ProviderCourier{ID: -1}}))
	require.False(t, NeedsFallbackIdentity(s, &models.ProviderOrderDetail{Courier: &models.ProviderCourier{ID: 3, Name: "A"}}))

	s.Courier = &Identity{Name: "Stored"}
	require.False(t, NeedsFallbackIdentity(s, nil))
}
