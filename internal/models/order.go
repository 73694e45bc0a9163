package models

import "time"

// Статусы заказа в словаре провайдера доставки (можно расширять).
const (
	OrderStatusNotAssigned      = "NOT_ASSIGNED"
	OrderStatusAssigned         = "ASSIGNED"
	OrderStatusStarted          = "STARTED"
	OrderStatusPickedUp         = "PICKED_UP"
	OrderStatusDelivered        = "DELIVERED"
	OrderStatusAlreadyDelivered = "ALREADY_DELIVERED"
	OrderStatusCompleted        = "COMPLETED"
	OrderStatusFailedDelivery   = "FAILED_DELIVERY"
)

// IsDeliveredStatus reports whether status is one of the terminal "delivered" variants.
func IsDeliveredStatus(status string) bool {
	switch status {
	case OrderStatusDelivered, OrderStatusAlreadyDelivered, OrderStatusCompleted:
		return true
	}
	return false
}

type Contact struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PhoneNumber string  `json:"phoneNumber,omitempty"`
}

// IsEmpty is true when the block carries neither a name nor an address.
func (c *Contact) IsEmpty() bool {
	return c == nil || (c.Name == "" && c.Address == "")
}

type LineItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Order is the persistent order record maintained by the webhook pipeline.
type Order struct {
	ID                  string
	OrderNumber         string
	ProviderOrderID     *string
	ProviderOrderNumber *string
	TrackingLink        *string
	Status              string

	CourierID           *string
	CourierAssignmentID *string
	ProviderCourierID   *int64
	CourierName         *string
	CourierPhone        *string
	CourierPhoto        *string

	Customer Contact
	Business Contact
	Items    []LineItem

	DeliveryFee *float64
	Total       *float64

	CreatedAt   time.Time
	AssignedAt  *time.Time
	StartedAt   *time.Time
	PickedUpAt  *time.Time
	DeliveredAt *time.Time

	ProofOfDelivery []string

	UpdatedAt time.Time
}

// CourierAssignment is a secondary record linking a provider order to a courier.
type CourierAssignment struct {
	ID              string
	ProviderOrderID string
	Assigned        bool
	CourierName     string
	CourierPhone    *string
	CourierPhoto    *string
}

// Courier is an entry of the courier roster.
type Courier struct {
	ID     string
	Name   string
	Phone  *string
	Photo  *string
	Rating *float64
}

// OrderFacts is a set of facts learned during a tracking read, to be written back.
// Empty fields mean "nothing learned".
type OrderFacts struct {
	OrderID     string
	OrderNumber string

	ProviderCourierID *int64
	CourierName       string
	CourierPhone      string
	CourierPhoto      string

	TrackingLink    string
	ProviderOrderID string
}

// HasCourier reports whether a courier identity was learned.
func (f OrderFacts) HasCourier() bool {
	return f.CourierName != ""
}

// IsEmpty reports whether nothing at all was learned.
func (f OrderFacts) IsEmpty() bool {
	return !f.HasCourier() && f.TrackingLink == "" && f.ProviderOrderID == ""
}
