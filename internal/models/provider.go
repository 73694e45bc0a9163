package models

// UnassignedCourierID is the provider's assigned-courier id for "nobody assigned yet".
const UnassignedCourierID int64 = -1

type ProviderCourier struct {
	ID          int64
	Name        string
	PhoneNumber string
	Photo       string
	Rating      *float64
}

// IsAssigned is false for nil, the unassigned sentinel, a zero id or a nameless courier.
func (c *ProviderCourier) IsAssigned() bool {
	if c == nil {
		return false
	}
	if c.ID == UnassignedCourierID || c.ID == 0 {
		return false
	}
	return c.Name != ""
}

type ProviderCosting struct {
	DeliveryFee *float64
	Total       *float64
}

// ProviderActivity holds raw activity-log timestamps as the provider reports them.
type ProviderActivity struct {
	PlacementTime string
	AssignedTime  string
	StartTime     string
	PickedUpTime  string
	ArrivedTime   string
	DeliveryTime  string
}

type ProviderProof struct {
	ImageURLs     []string
	SignaturePath string
}

// ProviderOrderDetail is the provider's current view of an order. Never persisted verbatim.
type ProviderOrderDetail struct {
	OrderID      string
	OrderNumber  string
	Status       string
	Courier      *ProviderCourier
	Customer     *Contact
	Business     *Contact
	Costing      ProviderCosting
	Activity     ProviderActivity
	Proof        ProviderProof
	TrackingLink string
	// ETATime is documented by the provider as always empty; nothing reads it.
	ETATime string
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ProviderProgress is the live courier position and ETA for a tracking token.
type ProviderProgress struct {
	Location   *Coordinate
	ETAMinutes *int
}
