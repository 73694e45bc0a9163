package tracking

import (
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
)

// ToView renders the reconciled state in the wire shape.
func ToView(r Reconciled) models.TrackingView {
	v := models.TrackingView{
		OrderNumber: r.OrderNumber,
		Status:      r.Status,
		Customer:    r.Customer,
		Business: models.BusinessContact{
			Name:      r.Business.Name,
			Address:   r.Business.Address,
			Latitude:  r.Business.Latitude,
			Longitude: r.Business.Longitude,
		},
		OrderItems:      r.Items,
		DeliveryFee:     r.DeliveryFee,
		TotalCost:       r.Total,
		ProofOfDelivery: r.Proof,
		Timeline:        make([]models.TimelineEntry, 0, len(r.Timeline)),
		EstimatedTime:   r.ETAMinutes,
		DriverLocation:  r.Location,
	}
	if v.OrderItems == nil {
		v.OrderItems = []models.LineItem{}
	}
	if v.ProofOfDelivery == nil {
		v.ProofOfDelivery = []string{}
	}

	if c := r.Courier; c != nil && c.Name != "" {
		v.Driver = &models.Driver{
			Name:        c.Name,
			PhoneNumber: c.Phone,
			Photo:       c.Photo,
			Rating:      c.Rating,
		}
	}

	for _, ev := range r.Timeline {
		v.Timeline = append(v.Timeline, models.TimelineEntry{
			Status:      ev.Stage,
			Timestamp:   formatTime(ev.At),
			Description: ev.Description,
		})
	}

	// timeline отсортирован от новых к старым
	if n := len(r.Timeline); n > 0 {
		v.PlacementTime = formatTime(r.Timeline[n-1].At)
		if models.IsDeliveredStatus(r.Status) {
			d := formatTime(r.Timeline[0].At)
			v.DeliveryTime = &d
		}
	} else if !r.CreatedAt.IsZero() {
		v.PlacementTime = formatTime(r.CreatedAt)
	}

	return v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
