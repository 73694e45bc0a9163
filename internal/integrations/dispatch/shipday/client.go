package shipday

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/OrderTrack/internal/integrations/dispatch"
	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/pkg/errors"
)

const defaultBaseURL = "https://api.shipday.com"

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// flexString accepts both JSON strings and numbers (order and courier ids come as either).
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(b))
	return nil
}

type respContact struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	PhoneNumber string   `json:"phoneNumber"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type respCarrier struct {
	ID           *int64   `json:"id"`
	Name         string   `json:"name"`
	PhoneNumber  string   `json:"phoneNumber"`
	CarrierPhoto string   `json:"carrierPhoto"`
	Rating       *float64 `json:"rating"`
}

type respOrder struct {
	OrderID         flexString   `json:"orderId"`
	OrderNumber     flexString   `json:"orderNumber"`
	Customer        *respContact `json:"customer"`
	Restaurant      *respContact `json:"restaurant"`
	AssignedCarrier *respCarrier `json:"assignedCarrier"`
	Costing         struct {
		TotalCost   *float64 `json:"totalCost"`
		DeliveryFee *float64 `json:"deliveryFee"`
	} `json:"costing"`
	ActivityLog struct {
		PlacementTime string `json:"placementTime"`
		AssignedTime  string `json:"assignedTime"`
		StartTime     string `json:"startTime"`
		PickedUpTime  string `json:"pickedUpTime"`
		ArrivedTime   string `json:"arrivedTime"`
		DeliveryTime  string `json:"deliveryTime"`
	} `json:"activityLog"`
	ProofOfDelivery *struct {
		ImageURLs     []*string `json:"imageUrls"`
		SignaturePath *string   `json:"signaturePath"`
	} `json:"proofOfDelivery"`
	TrackingLink string `json:"trackingLink"`
	OrderStatus  struct {
		OrderState string `json:"orderState"`
	} `json:"orderStatus"`
	ETATime string `json:"etaTime"`
}

type respProgress struct {
	DynamicData struct {
		EstimatedTimeInMinutes json.RawMessage `json:"estimatedTimeInMinutes"`
		DetailData             struct {
			CarrierLocation *struct {
				Latitude  *float64 `json:"latitude"`
				Longitude *float64 `json:"longitude"`
			} `json:"carrierLocation"`
		} `json:"detailData"`
	} `json:"dynamicData"`
}

// FetchOrderDetail calls GET /orders/{identifier}. The provider answers with an array of
// matches (or a single object); the first one wins.
func (c *Client) FetchOrderDetail(ctx context.Context, identifier string) (*models.ProviderOrderDetail, error) {
	body, err := c.get(ctx, "/orders/"+url.PathEscape(identifier))
	if err != nil {
		return nil, err
	}

	var ro respOrder
	trimmed := bytes.TrimSpace(body)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var list []respOrder
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, errors.Wrap(err, "decode order list")
		}
		if len(list) == 0 {
			return nil, errors.Wrap(dispatch.ErrMalformed, "empty order list")
		}
		ro = list[0]
	default:
		if err := json.Unmarshal(trimmed, &ro); err != nil {
			return nil, errors.Wrap(err, "decode order")
		}
	}

	return toDetail(ro), nil
}

// FetchProgress calls GET /order/progress/{trackingToken}.
func (c *Client) FetchProgress(ctx context.Context, trackingToken string) (*models.ProviderProgress, error) {
	body, err := c.get(ctx, "/order/progress/"+url.PathEscape(trackingToken))
	if err != nil {
		return nil, err
	}

	var rp respProgress
	if err := json.Unmarshal(body, &rp); err != nil {
		return nil, errors.Wrap(err, "decode progress")
	}

	out := &models.ProviderProgress{}
	if loc := rp.DynamicData.DetailData.CarrierLocation; loc != nil && loc.Latitude != nil && loc.Longitude != nil {
		if validCoordinate(*loc.Latitude, *loc.Longitude) {
			out.Location = &models.Coordinate{Latitude: *loc.Latitude, Longitude: *loc.Longitude}
		}
	}
	if m, ok := parseMinutes(rp.DynamicData.EstimatedTimeInMinutes); ok {
		out.ETAMinutes = &m
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Authorization", "Basic "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode/100 != 2 {
		msg := strings.TrimSpace(string(b))
		if len(msg) > 256 {
			msg = msg[:256]
		}
		return nil, &dispatch.StatusError{Code: resp.StatusCode, Body: msg}
	}
	return b, nil
}

func toDetail(ro respOrder) *models.ProviderOrderDetail {
	d := &models.ProviderOrderDetail{
		OrderID:      string(ro.OrderID),
		OrderNumber:  string(ro.OrderNumber),
		Status:       strings.TrimSpace(ro.OrderStatus.OrderState),
		Customer:     toContact(ro.Customer),
		Business:     toContact(ro.Restaurant),
		TrackingLink: strings.TrimSpace(ro.TrackingLink),
		ETATime:      ro.ETATime,
		Costing: models.ProviderCosting{
			DeliveryFee: ro.Costing.DeliveryFee,
			Total:       ro.Costing.TotalCost,
		},
		Activity: models.ProviderActivity{
			PlacementTime: ro.ActivityLog.PlacementTime,
			AssignedTime:  ro.ActivityLog.AssignedTime,
			StartTime:     ro.ActivityLog.StartTime,
			PickedUpTime:  ro.ActivityLog.PickedUpTime,
			ArrivedTime:   ro.ActivityLog.ArrivedTime,
			DeliveryTime:  ro.ActivityLog.DeliveryTime,
		},
	}
	if ro.AssignedCarrier != nil && ro.AssignedCarrier.ID != nil {
		d.Courier = &models.ProviderCourier{
			ID:          *ro.AssignedCarrier.ID,
			Name:        strings.TrimSpace(ro.AssignedCarrier.Name),
			PhoneNumber: ro.AssignedCarrier.PhoneNumber,
			Photo:       ro.AssignedCarrier.CarrierPhoto,
			Rating:      ro.AssignedCarrier.Rating,
		}
	}
	if p := ro.ProofOfDelivery; p != nil {
		for _, u := range p.ImageURLs {
			if u != nil && strings.TrimSpace(*u) != "" {
				d.Proof.ImageURLs = append(d.Proof.ImageURLs, strings.TrimSpace(*u))
			}
		}
		if p.SignaturePath != nil {
			d.Proof.SignaturePath = strings.TrimSpace(*p.SignaturePath)
		}
	}
	return d
}

func toContact(rc *respContact) *models.Contact {
	if rc == nil {
		return nil
	}
	c := &models.Contact{
		Name:        strings.TrimSpace(rc.Name),
		Address:     strings.TrimSpace(rc.Address),
		PhoneNumber: rc.PhoneNumber,
	}
	if rc.Latitude != nil {
		c.Latitude = *rc.Latitude
	}
	if rc.Longitude != nil {
		c.Longitude = *rc.Longitude
	}
	if c.IsEmpty() {
		return nil
	}
	return c
}

func validCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// parseMinutes accepts a JSON number or a numeric string; negatives and garbage are rejected.
func parseMinutes(raw json.RawMessage) (int, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return int(math.Round(f)), true
}
