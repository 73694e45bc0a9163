package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
)

// FakeClient is a deterministic stand-in for the dispatch provider, used for local runs
// without a provider account. The same identifier always yields the same answer.
type FakeClient struct {
	now func() time.Time
}

func New() *FakeClient { return &FakeClient{now: time.Now} }

var fakeStatuses = []string{
	models.OrderStatusNotAssigned,
	models.OrderStatusAssigned,
	models.OrderStatusStarted,
	models.OrderStatusPickedUp,
	models.OrderStatusAlreadyDelivered,
}

func (f *FakeClient) FetchOrderDetail(ctx context.Context, identifier string) (*models.ProviderOrderDetail, error) {
	v := hash(identifier)
	stage := int(v % uint32(len(fakeStatuses)))
	now := f.now().UTC().Truncate(time.Minute)
	placed := now.Add(-time.Duration(10*(stage+1)) * time.Minute)

	d := &models.ProviderOrderDetail{
		OrderID:      fmt.Sprintf("%d", v%100000),
		OrderNumber:  identifier,
		Status:       fakeStatuses[stage],
		TrackingLink: fmt.Sprintf("https://fake.dispatch.local/track/%08x", v),
		Courier:      &models.ProviderCourier{ID: models.UnassignedCourierID},
	}
	d.Activity.PlacementTime = placed.Format(time.RFC3339)
	if stage >= 1 {
		d.Courier = &models.ProviderCourier{ID: int64(v%900 + 100), Name: "Fake Courier"}
		d.Activity.AssignedTime = placed.Add(5 * time.Minute).Format(time.RFC3339)
	}
	if stage >= 2 {
		d.Activity.StartTime = placed.Add(7 * time.Minute).Format(time.RFC3339)
	}
	if stage >= 3 {
		d.Activity.PickedUpTime = placed.Add(9 * time.Minute).Format(time.RFC3339)
	}
	if stage >= 4 {
		d.Activity.DeliveryTime = placed.Add(10 * time.Minute).Format(time.RFC3339)
	}
	return d, nil
}

func (f *FakeClient) FetchProgress(ctx context.Context, trackingToken string) (*models.ProviderProgress, error) {
	v := hash(trackingToken)
	eta := int(v%30) + 1
	return &models.ProviderProgress{
		Location: &models.Coordinate{
			Latitude:  19.24 + float64(v%100)/10000,
			Longitude: -103.72 + float64(v%77)/10000,
		},
		ETAMinutes: &eta,
	}, nil
}

func hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
