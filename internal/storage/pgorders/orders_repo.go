package pgorders

import (
	"context"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const orderColumns = `
  id::text, order_number, provider_order_id, provider_order_number, tracking_link, status,
  courier_id, courier_assignment_id, provider_courier_id, courier_name, courier_phone, courier_photo,
  customer, business, items,
  delivery_fee::float8, total::float8,
  created_at, assigned_at, started_at, picked_up_at, delivered_at,
  proof_of_delivery, updated_at`

// FindOrdersByNumber returns at most limit orders with the given order number.
func (s *Storage) FindOrdersByNumber(ctx context.Context, orderNumber string, limit int) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx, `SELECT`+orderColumns+`
FROM orders
WHERE order_number = $1
ORDER BY created_at ASC
LIMIT $2
`, orderNumber, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select orders by number")
	}
	return scanOrders(rows)
}

// FindOrdersByProviderOrderID returns at most limit orders carrying the provider order id.
func (s *Storage) FindOrdersByProviderOrderID(ctx context.Context, providerOrderID string, limit int) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx, `SELECT`+orderColumns+`
FROM orders
WHERE provider_order_id = $1
ORDER BY created_at ASC
LIMIT $2
`, providerOrderID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select orders by provider id")
	}
	return scanOrders(rows)
}

// GetOrderByID looks an order up by storage key. Returns (nil, nil) when missing.
func (s *Storage) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	rows, err := s.db.Query(ctx, `SELECT`+orderColumns+`
FROM orders
WHERE id = $1::uuid
`, id)
	if err != nil {
		return nil, errors.Wrap(err, "select order by id")
	}
	out, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// InsertOrder stores an order the way the webhook pipeline does. Used for seeding.
func (s *Storage) InsertOrder(ctx context.Context, o *models.Order) error {
	now := time.Now().UTC()
	items := o.Items
	if items == nil {
		items = []models.LineItem{}
	}
	proof := o.ProofOfDelivery
	if proof == nil {
		proof = []string{}
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO orders (
  id, order_number, provider_order_id, provider_order_number, tracking_link, status,
  courier_id, courier_assignment_id, provider_courier_id, courier_name, courier_phone, courier_photo,
  customer, business, items, delivery_fee, total,
  created_at, assigned_at, started_at, picked_up_at, delivered_at,
  proof_of_delivery, updated_at
)
VALUES ($1::uuid,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
`,
		o.ID, o.OrderNumber, o.ProviderOrderID, o.ProviderOrderNumber, o.TrackingLink, o.Status,
		o.CourierID, o.CourierAssignmentID, o.ProviderCourierID, o.CourierName, o.CourierPhone, o.CourierPhoto,
		o.Customer, o.Business, items, o.DeliveryFee, o.Total,
		o.CreatedAt.UTC(), o.AssignedAt, o.StartedAt, o.PickedUpAt, o.DeliveredAt,
		proof, now,
	)
	return errors.Wrap(err, "insert order")
}

// ApplyOrderFacts writes learned facts onto the order identified by facts.OrderNumber.
// Empty facts never overwrite stored values of the same courier. A different provider
// courier id replaces the whole courier block, so phone and photo of the previous
// courier are dropped. Tracking link and provider order id are only filled when
// missing, and the row is untouched when nothing would change.
// Returns whether a row was updated.
func (s *Storage) ApplyOrderFacts(ctx context.Context, f models.OrderFacts) (bool, error) {
	tag, err := s.db.Exec(ctx, `
UPDATE orders
SET
  provider_courier_id = COALESCE($2::bigint, provider_courier_id),
  courier_name = CASE
    WHEN $2::bigint IS NOT NULL AND provider_courier_id IS DISTINCT FROM $2::bigint THEN NULLIF($3::text, '')
    ELSE COALESCE(NULLIF($3::text, ''), courier_name) END,
  courier_phone = CASE
    WHEN $2::bigint IS NOT NULL AND provider_courier_id IS DISTINCT FROM $2::bigint THEN NULLIF($4::text, '')
    ELSE COALESCE(NULLIF($4::text, ''), courier_phone) END,
  courier_photo = CASE
    WHEN $2::bigint IS NOT NULL AND provider_courier_id IS DISTINCT FROM $2::bigint THEN NULLIF($5::text, '')
    ELSE COALESCE(NULLIF($5::text, ''), courier_photo) END,
  tracking_link = CASE
    WHEN COALESCE(tracking_link, '') = '' THEN COALESCE(NULLIF($6::text, ''), tracking_link)
    ELSE tracking_link END,
  provider_order_id = CASE
    WHEN COALESCE(provider_order_id, '') = '' THEN COALESCE(NULLIF($7::text, ''), provider_order_id)
    ELSE provider_order_id END,
  updated_at = now()
WHERE order_number = $1
  AND (
    ($2::bigint IS NOT NULL AND provider_courier_id IS DISTINCT FROM $2::bigint)
    OR (NULLIF($3::text, '') IS NOT NULL AND courier_name IS DISTINCT FROM $3::text)
    OR (NULLIF($4::text, '') IS NOT NULL AND courier_phone IS DISTINCT FROM $4::text)
    OR (NULLIF($5::text, '') IS NOT NULL AND courier_photo IS DISTINCT FROM $5::text)
    OR (NULLIF($6::text, '') IS NOT NULL AND COALESCE(tracking_link, '') = '')
    OR (NULLIF($7::text, '') IS NOT NULL AND COALESCE(provider_order_id, '') = '')
  )
`, f.OrderNumber, f.ProviderCourierID, f.CourierName, f.CourierPhone, f.CourierPhoto, f.TrackingLink, f.ProviderOrderID)
	if err != nil {
		return false, errors.Wrap(err, "apply order facts")
	}
	return tag.RowsAffected() > 0, nil
}

func scanOrders(rows pgx.Rows) ([]*models.Order, error) {
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		var o models.Order
		var proof []string
		var items []models.LineItem
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.ProviderOrderID, &o.ProviderOrderNumber, &o.TrackingLink, &o.Status,
			&o.CourierID, &o.CourierAssignmentID, &o.ProviderCourierID, &o.CourierName, &o.CourierPhone, &o.CourierPhoto,
			&o.Customer, &o.Business, &items,
			&o.DeliveryFee, &o.Total,
			&o.CreatedAt, &o.AssignedAt, &o.StartedAt, &o.PickedUpAt, &o.DeliveredAt,
			&proof, &o.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		o.Items = items
		o.ProofOfDelivery = proof
		out = append(out, &o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
