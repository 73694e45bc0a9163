package pgorders

import (
	"context"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// GetAssignmentByProviderOrderID returns the newest courier assignment for a provider
// order, or (nil, nil).
func (s *Storage) GetAssignmentByProviderOrderID(ctx context.Context, providerOrderID string) (*models.CourierAssignment, error) {
	row := s.db.QueryRow(ctx, `
SELECT id, COALESCE(provider_order_id, ''), assigned, courier_name, courier_phone, courier_photo
FROM courier_assignments
WHERE provider_order_id = $1
ORDER BY created_at DESC
LIMIT 1
`, providerOrderID)
	return scanAssignment(row)
}

// GetAssignmentByID returns a courier assignment by its internal id, or (nil, nil).
func (s *Storage) GetAssignmentByID(ctx context.Context, id string) (*models.CourierAssignment, error) {
	row := s.db.QueryRow(ctx, `
SELECT id, COALESCE(provider_order_id, ''), assigned, courier_name, courier_phone, courier_photo
FROM courier_assignments
WHERE id = $1
`, id)
	return scanAssignment(row)
}

// GetCourierByID returns a roster entry, or (nil, nil).
func (s *Storage) GetCourierByID(ctx context.Context, id string) (*models.Courier, error) {
	var c models.Courier
	err := s.db.QueryRow(ctx, `
SELECT id, name, phone, photo, rating
FROM couriers
WHERE id = $1
`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Photo, &c.Rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select courier")
	}
	return &c, nil
}

func (s *Storage) InsertCourierAssignment(ctx context.Context, a *models.CourierAssignment) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO courier_assignments (id, provider_order_id, assigned, courier_name, courier_phone, courier_photo)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
`, a.ID, a.ProviderOrderID, a.Assigned, a.CourierName, a.CourierPhone, a.CourierPhoto)
	return errors.Wrap(err, "insert courier assignment")
}

func (s *Storage) InsertCourier(ctx context.Context, c *models.Courier) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO couriers (id, name, phone, photo, rating)
VALUES ($1, $2, $3, $4, $5)
`, c.ID, c.Name, c.Phone, c.Photo, c.Rating)
	return errors.Wrap(err, "insert courier")
}

func scanAssignment(row pgx.Row) (*models.CourierAssignment, error) {
	var a models.CourierAssignment
	err := row.Scan(&a.ID, &a.ProviderOrderID, &a.Assigned, &a.CourierName, &a.CourierPhone, &a.CourierPhoto)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select courier assignment")
	}
	return &a, nil
}
