package messages

import "time"

// OrderFactsLearned is published by track-api when a tracking read discovers facts
// the persistent order record does not have yet.
type OrderFactsLearned struct {
	OrderID     string    `json:"order_id,omitempty"`
	OrderNumber string    `json:"order_number"`
	LearnedAt   time.Time `json:"learned_at"`

	Courier *CourierFact `json:"courier,omitempty"`

	TrackingLink    string `json:"tracking_link,omitempty"`
	ProviderOrderID string `json:"provider_order_id,omitempty"`
}

type CourierFact struct {
	ProviderCourierID *int64 `json:"provider_courier_id,omitempty"`
	Name              string `json:"name"`
	Phone             string `json:"phone,omitempty"`
	Photo             string `json:"photo,omitempty"`
}
