// Package dbtest opens an in-memory sqlite database carrying the service
// schema, for repository and service tests.
package dbtest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE channels (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  token TEXT NOT NULL UNIQUE,
  is_default INTEGER NOT NULL DEFAULT 0,
  seller_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE sellers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT UNIQUE,
  timezone TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
	`CREATE TABLE customers (
  id TEXT PRIMARY KEY,
  user_id TEXT UNIQUE,
  email TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE customer_groups (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  seller_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE customer_group_members (
  customer_id TEXT NOT NULL,
  customer_group_id TEXT NOT NULL,
  PRIMARY KEY (customer_id, customer_group_id)
);`,
	`CREATE TABLE product_variants (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  sku TEXT NOT NULL,
  unit_type TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE product_variant_channels (
  product_variant_id TEXT NOT NULL,
  channel_id TEXT NOT NULL,
  PRIMARY KEY (product_variant_id, channel_id)
);`,
	`CREATE TABLE offers (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  status TEXT NOT NULL,
  valid_from DATETIME NOT NULL,
  valid_until DATETIME,
  allow_late_orders INTEGER NOT NULL DEFAULT 1,
  notes TEXT,
  internal_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE offer_channels (
  offer_id TEXT NOT NULL,
  channel_id TEXT NOT NULL,
  PRIMARY KEY (offer_id, channel_id)
);`,
	`CREATE TABLE offer_customer_groups (
  offer_id TEXT NOT NULL,
  customer_group_id TEXT NOT NULL,
  PRIMARY KEY (offer_id, customer_group_id)
);`,
	`CREATE TABLE offer_fulfillment_options (
  offer_id TEXT NOT NULL,
  fulfillment_option_id TEXT NOT NULL,
  PRIMARY KEY (offer_id, fulfillment_option_id)
);`,
	`CREATE TABLE offer_line_items (
  id TEXT PRIMARY KEY,
  offer_id TEXT NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
  product_variant_id TEXT NOT NULL,
  price INTEGER NOT NULL,
  price_includes_tax INTEGER NOT NULL DEFAULT 0,
  pricing_mode TEXT NOT NULL,
  price_tiers TEXT,
  quantity_limit_mode TEXT NOT NULL,
  quantity_limit INTEGER,
  auto_confirm INTEGER NOT NULL DEFAULT 0,
  notes TEXT,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE fulfillment_options (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  description TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  sort_order INTEGER NOT NULL DEFAULT 0,
  recurrence TEXT,
  fulfillment_start_date DATETIME,
  fulfillment_end_date DATETIME,
  fulfillment_time_description TEXT,
  deadline_offset_hours INTEGER,
  seller_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE fulfillment_option_channels (
  fulfillment_option_id TEXT NOT NULL,
  channel_id TEXT NOT NULL,
  PRIMARY KEY (fulfillment_option_id, channel_id)
);`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  customer_id TEXT,
  session_token TEXT,
  channel_id TEXT NOT NULL,
  state TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  aggregate_order_id TEXT,
  offer_id TEXT,
  fulfillment_option_id TEXT,
  shipping_lines TEXT,
  placed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_orders_active_customer ON orders (customer_id) WHERE active = 1 AND customer_id IS NOT NULL;`,
	`CREATE UNIQUE INDEX ux_orders_active_session ON orders (session_token) WHERE active = 1 AND session_token IS NOT NULL;`,
	`CREATE TABLE order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_variant_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  seller_channel_id TEXT,
  offer_line_item_id TEXT,
  line_status TEXT,
  selected_case_quantity INTEGER,
  agreed_unit_price INTEGER,
  buyer_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	`CREATE TABLE outbox_dead_letters (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME NOT NULL
);`,
}

// Open returns a private in-memory database with every table created.
// The database name is derived from the test name so parallel packages
// never share state.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
