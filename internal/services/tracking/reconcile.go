package tracking

import (
	"strings"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
)

// ReconcileInput: the persistent snapshot plus whatever the provider returned.
// Detail and Progress are nil when the call failed or was skipped; Fallback is nil
// when the fallback chain was not consulted or found nothing.
type ReconcileInput struct {
	Snapshot Snapshot
	Detail   *models.ProviderOrderDetail
	Progress *models.ProviderProgress
	Fallback *Identity
}

// Reconciled is the merged tracking state plus the facts worth writing back.
type Reconciled struct {
	OrderNumber string
	Status      string
	Customer    models.Contact
	Business    models.Contact
	Courier     *Identity
	Location    *models.Coordinate
	ETAMinutes  *int
	Items       []models.LineItem
	DeliveryFee float64
	Total       float64
	CreatedAt   time.Time
	Timeline    []TimelineEvent
	Proof       []string

	Facts models.OrderFacts
}

// Reconcile applies the field priority table. For every field the first available
// source wins; partial objects are never merged.
//
//	status             detail -> persistent
//	courier            detail (assigned) -> persistent name -> fallback chain
//	coordinate, ETA    progress only
//	customer/business  detail -> persistent
//	timeline           detail activity log -> persistent timestamps
//	proof of delivery  detail images+signature -> persistent
func Reconcile(in ReconcileInput) Reconciled {
	s := in.Snapshot
	d := in.Detail

	out := Reconciled{
		OrderNumber: s.OrderNumber,
		Status:      s.Status,
		Customer:    s.Customer,
		Business:    s.Business,
		Courier:     s.Courier,
		Items:       s.Items,
		DeliveryFee: s.DeliveryFee,
		Total:       s.Total,
		CreatedAt:   s.CreatedAt,
		Timeline:    s.Timeline,
		Proof:       s.Proof,
	}
	if s.Order != nil {
		out.Facts.OrderID = s.Order.ID
	}
	out.Facts.OrderNumber = s.OrderNumber

	if d != nil {
		if st := strings.TrimSpace(d.Status); st != "" {
			out.Status = st
		}
		if d.Courier.IsAssigned() {
			id := d.Courier.ID
			out.Courier = &Identity{
				ProviderCourierID: &id,
				Name:              d.Courier.Name,
				Phone:             d.Courier.PhoneNumber,
				Photo:             d.Courier.Photo,
				Rating:            d.Courier.Rating,
			}
			out.Facts.ProviderCourierID = &id
			out.Facts.CourierName = d.Courier.Name
			out.Facts.CourierPhone = d.Courier.PhoneNumber
			out.Facts.CourierPhoto = d.Courier.Photo
		}
		if !d.Customer.IsEmpty() {
			out.Customer = *d.Customer
		}
		if !d.Business.IsEmpty() {
			out.Business = *d.Business
		}
		if tl := activityTimeline(d.Activity); len(tl) > 0 {
			out.Timeline = tl
		}
		if proof := providerProof(d.Proof); len(proof) > 0 {
			out.Proof = proof
		}
		out.Facts.TrackingLink = strings.TrimSpace(d.TrackingLink)
		out.Facts.ProviderOrderID = strings.TrimSpace(d.OrderID)
	}

	if out.Courier == nil && in.Fallback != nil && in.Fallback.Name != "" {
		out.Courier = in.Fallback
	}

	// ETA и координаты только из progress; статичное etaTime из detail не читаем.
	if p := in.Progress; p != nil {
		if p.Location != nil {
			loc := *p.Location
			out.Location = &loc
		}
		if p.ETAMinutes != nil && *p.ETAMinutes >= 0 {
			eta := *p.ETAMinutes
			out.ETAMinutes = &eta
		}
	}

	return out
}

// NeedsFallbackIdentity reports whether the fallback chain has to run: neither the
// provider detail nor the persistent record names a courier.
func NeedsFallbackIdentity(s Snapshot, d *models.ProviderOrderDetail) bool {
	if s.Courier != nil {
		return false
	}
	return d == nil || !d.Courier.IsAssigned()
}

var activityLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
}

func parseActivityTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range activityLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func activityTimeline(a models.ProviderActivity) []TimelineEvent {
	named := []struct {
		stage string
		raw   string
	}{
		{StagePlaced, a.PlacementTime},
		{StageAssigned, a.AssignedTime},
		{StageStarted, a.StartTime},
		{StagePickedUp, a.PickedUpTime},
		{StageArrived, a.ArrivedTime},
		{StageDelivered, a.DeliveryTime},
	}
	var out []TimelineEvent
	for _, n := range named {
		t, ok := parseActivityTime(n.raw)
		if !ok {
			continue
		}
		out = append(out, newEvent(n.stage, t))
	}
	sortTimeline(out)
	return out
}

func providerProof(p models.ProviderProof) []string {
	var out []string
	for _, u := range p.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	if sig := strings.TrimSpace(p.SignaturePath); sig != "" {
		out = append(out, sig)
	}
	return out
}
