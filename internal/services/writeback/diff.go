package writeback

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/BearBump/OrderTrack/internal/models"
)

// Diff keeps only the facts the order record does not have yet. Courier identity goes
// through when the provider courier id or name differs; tracking link and provider order
// id only fill empty columns.
func Diff(o *models.Order, f models.OrderFacts) models.OrderFacts {
	out := models.OrderFacts{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
	}

	if f.HasCourier() && courierChanged(o, f) {
		out.ProviderCourierID = f.ProviderCourierID
		out.CourierName = f.CourierName
		out.CourierPhone = f.CourierPhone
		out.CourierPhoto = f.CourierPhoto
	}
	if f.TrackingLink != "" && empty(o.TrackingLink) {
		out.TrackingLink = f.TrackingLink
	}
	if f.ProviderOrderID != "" && empty(o.ProviderOrderID) {
		out.ProviderOrderID = f.ProviderOrderID
	}
	return out
}

func courierChanged(o *models.Order, f models.OrderFacts) bool {
	if f.ProviderCourierID != nil && (o.ProviderCourierID == nil || *o.ProviderCourierID != *f.ProviderCourierID) {
		return true
	}
	return empty(o.CourierName) || *o.CourierName != f.CourierName
}

func empty(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// Fingerprint identifies a fact set so overlapping polls submit it once.
func Fingerprint(f models.OrderFacts) string {
	h := fnv.New64a()
	courierID := ""
	if f.ProviderCourierID != nil {
		courierID = fmt.Sprint(*f.ProviderCourierID)
	}
	for _, part := range []string{f.OrderNumber, courierID, f.CourierName, f.CourierPhone, f.CourierPhoto, f.TrackingLink, f.ProviderOrderID} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func dedupeKey(f models.OrderFacts) string {
	return "writeback:" + f.OrderNumber + ":" + Fingerprint(f)
}
