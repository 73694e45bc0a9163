package tracking

import (
	"sort"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
)

// DefaultDeliveryFee is charged when the order record carries no delivery fee.
const DefaultDeliveryFee = 40.0

// Lifecycle stages, in lifecycle order. The order breaks timestamp ties.
const (
	StagePlaced    = "ORDER_PLACED"
	StageAssigned  = "ASSIGNED"
	StageStarted   = "STARTED"
	StagePickedUp  = "PICKED_UP"
	StageArrived   = "ARRIVED"
	StageDelivered = "DELIVERED"
)

var stageRank = map[string]int{
	StagePlaced:    0,
	StageAssigned:  1,
	StageStarted:   2,
	StagePickedUp:  3,
	StageArrived:   4,
	StageDelivered: 5,
}

var stageDescriptions = map[string]string{
	StagePlaced:    "Order placed",
	StageAssigned:  "Courier assigned",
	StageStarted:   "Courier on the way",
	StagePickedUp:  "Order picked up",
	StageArrived:   "Courier arrived",
	StageDelivered: "Order delivered",
}

// TimelineEvent is a timeline entry before serialization.
type TimelineEvent struct {
	Stage       string
	At          time.Time
	Description string
}

// Identity is a best-effort courier identity.
type Identity struct {
	ProviderCourierID *int64
	Name              string
	Phone             string
	Photo             string
	Rating            *float64
}

// Snapshot is the tracking state derived from the persistent record alone.
type Snapshot struct {
	Order *models.Order

	OrderNumber string
	Status      string
	Customer    models.Contact
	Business    models.Contact
	Courier     *Identity
	Items       []models.LineItem
	DeliveryFee float64
	Total       float64
	CreatedAt   time.Time
	Timeline    []TimelineEvent
	Proof       []string
}

// BuildSnapshot converts an order record into a snapshot. No I/O.
func BuildSnapshot(o *models.Order, defaultFee float64) Snapshot {
	s := Snapshot{
		Order:       o,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Customer:    o.Customer,
		Business:    o.Business,
		Items:       o.Items,
		DeliveryFee: defaultFee,
		CreatedAt:   o.CreatedAt,
		Timeline:    persistentTimeline(o),
	}
	if s.Items == nil {
		s.Items = []models.LineItem{}
	}
	if o.DeliveryFee != nil {
		s.DeliveryFee = *o.DeliveryFee
	}
	if o.Total != nil {
		s.Total = *o.Total
	}
	if o.CourierName != nil && *o.CourierName != "" {
		s.Courier = &Identity{
			ProviderCourierID: o.ProviderCourierID,
			Name:              *o.CourierName,
			Phone:             deref(o.CourierPhone),
			Photo:             deref(o.CourierPhoto),
		}
	}
	for _, p := range o.ProofOfDelivery {
		if p != "" {
			s.Proof = append(s.Proof, p)
		}
	}
	return s
}

func persistentTimeline(o *models.Order) []TimelineEvent {
	stamps := []struct {
		stage string
		at    *time.Time
	}{
		{StagePlaced, nonZero(o.CreatedAt)},
		{StageAssigned, o.AssignedAt},
		{StageStarted, o.StartedAt},
		{StagePickedUp, o.PickedUpAt},
		{StageDelivered, o.DeliveredAt},
	}
	var out []TimelineEvent
	for _, st := range stamps {
		if st.at == nil || st.at.IsZero() {
			continue
		}
		out = append(out, newEvent(st.stage, *st.at))
	}
	sortTimeline(out)
	return out
}

func newEvent(stage string, at time.Time) TimelineEvent {
	return TimelineEvent{Stage: stage, At: at.UTC(), Description: stageDescriptions[stage]}
}

// sortTimeline orders events newest first; equal timestamps put the later stage first.
func sortTimeline(evs []TimelineEvent) {
	sort.SliceStable(evs, func(i, j int) bool {
		if !evs[i].At.Equal(evs[j].At) {
			return evs[i].At.After(evs[j].At)
		}
		return stageRank[evs[i].Stage] > stageRank[evs[j].Stage]
	})
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
