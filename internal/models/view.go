package models

type Driver struct {
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phoneNumber,omitempty"`
	Photo       string   `json:"photo,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

type TimelineEntry struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
}

// TrackingView is the response contract of GetTracking.
type TrackingView struct {
	OrderNumber     string          `json:"orderNumber"`
	Status          string          `json:"status"`
	Customer        Contact         `json:"customer"`
	Business        BusinessContact `json:"business"`
	Driver          *Driver         `json:"driver,omitempty"`
	DriverLocation  *Coordinate     `json:"driverLocation,omitempty"`
	EstimatedTime   *int            `json:"estimatedTime,omitempty"`
	OrderItems      []LineItem      `json:"orderItems"`
	DeliveryFee     float64         `json:"deliveryFee"`
	TotalCost       float64         `json:"totalCost"`
	PlacementTime   string          `json:"placementTime"`
	DeliveryTime    *string         `json:"deliveryTime"`
	ProofOfDelivery []string        `json:"proofOfDelivery"`
	Timeline        []TimelineEntry `json:"timeline"`
}

// BusinessContact is the pickup block; the wire shape carries no phone for it.
type BusinessContact struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
