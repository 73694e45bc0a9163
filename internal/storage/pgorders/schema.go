package pgorders

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS orders (
  id UUID PRIMARY KEY,
  order_number TEXT NOT NULL,
  provider_order_id TEXT NULL,
  provider_order_number TEXT NULL,
  tracking_link TEXT NULL,
  status TEXT NOT NULL,
  courier_id TEXT NULL,
  courier_assignment_id TEXT NULL,
  provider_courier_id BIGINT NULL,
  courier_name TEXT NULL,
  courier_phone TEXT NULL,
  courier_photo TEXT NULL,
  customer JSONB NOT NULL DEFAULT '{}'::jsonb,
  business JSONB NOT NULL DEFAULT '{}'::jsonb,
  items JSONB NOT NULL DEFAULT '[]'::jsonb,
  delivery_fee NUMERIC NULL,
  total NUMERIC NULL,
  created_at TIMESTAMPTZ NOT NULL,
  assigned_at TIMESTAMPTZ NULL,
  started_at TIMESTAMPTZ NULL,
  picked_up_at TIMESTAMPTZ NULL,
  delivered_at TIMESTAMPTZ NULL,
  proof_of_delivery JSONB NOT NULL DEFAULT '[]'::jsonb,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (order_number)
)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_provider_order_id ON orders(provider_order_id)`,
		`
CREATE TABLE IF NOT EXISTS courier_assignments (
  id TEXT PRIMARY KEY,
  provider_order_id TEXT NULL,
  assigned BOOLEAN NOT NULL DEFAULT FALSE,
  courier_name TEXT NOT NULL DEFAULT '',
  courier_phone TEXT NULL,
  courier_photo TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_courier_assignments_provider_order_id ON courier_assignments(provider_order_id)`,
		`
CREATE TABLE IF NOT EXISTS couriers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT NULL,
  photo TEXT NULL,
  rating DOUBLE PRECISION NULL
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
