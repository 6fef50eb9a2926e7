package sqlite

import (
	"context"
	"database/sql"
)

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Money columns are TEXT so decimal strings round-trip exactly.
// Timestamps are local wall-clock TEXT (see timeLayout) and compare lexically.
const schema = `
CREATE TABLE IF NOT EXISTS units (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    city TEXT NOT NULL DEFAULT '',
    payment_type TEXT NOT NULL,
    cleaning_fee TEXT
);

CREATE TABLE IF NOT EXISTS financial_configs (
    code TEXT PRIMARY KEY,
    default_tax_percentage TEXT,
    default_commission_percentage TEXT
);

CREATE TABLE IF NOT EXISTS bookings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    unit_id INTEGER NOT NULL,
    confirmation_code TEXT NOT NULL DEFAULT '',
    guest_name TEXT NOT NULL DEFAULT '',
    city TEXT NOT NULL DEFAULT '',
    guests INTEGER NOT NULL DEFAULT 0,
    check_in TEXT NOT NULL,
    check_out TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    payment_method TEXT NOT NULL DEFAULT '',
    guest_type TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    days INTEGER NOT NULL DEFAULT 0,
    is_paid INTEGER,
    payout TEXT,
    cleaning_fee TEXT,
    tax_percent TEXT,
    tax_amount TEXT,
    commission_percent TEXT,
    commission_base TEXT,
    net_payout TEXT NOT NULL DEFAULT '0',
    commission_value TEXT NOT NULL DEFAULT '0',
    client_income TEXT NOT NULL DEFAULT '0',
    o2_total TEXT NOT NULL DEFAULT '0',
    room_fee TEXT NOT NULL DEFAULT '0',
    notes TEXT NOT NULL DEFAULT '',
    check_in_notes TEXT NOT NULL DEFAULT '',
    check_out_notes TEXT NOT NULL DEFAULT '',
    last_updated_via TEXT NOT NULL DEFAULT '',
    last_updated_at INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (unit_id) REFERENCES units(id)
);

CREATE TABLE IF NOT EXISTS booking_month_slices (
    booking_id INTEGER NOT NULL,
    unit_id INTEGER NOT NULL,
    city TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    payment_method TEXT NOT NULL DEFAULT '',
    guest_type TEXT NOT NULL DEFAULT '',
    year_month TEXT NOT NULL,
    month_start TEXT NOT NULL,
    month_end TEXT NOT NULL,
    nights_total INTEGER NOT NULL,
    nights_in_month INTEGER NOT NULL,
    room_fee_in_month TEXT NOT NULL,
    payout_in_month TEXT NOT NULL,
    tax_in_month TEXT NOT NULL,
    net_payout_in_month TEXT NOT NULL,
    cleaning_fee_in_month TEXT NOT NULL,
    o2_commission_in_month TEXT NOT NULL,
    owner_payout_in_month TEXT NOT NULL,
    commission_base_in_month TEXT NOT NULL,
    PRIMARY KEY (booking_id, year_month),
    FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS hk_cleanings (
    id TEXT PRIMARY KEY,
    unit_id INTEGER NOT NULL,
    city TEXT NOT NULL DEFAULT '',
    checkout_date TEXT NOT NULL,
    cleaning_type TEXT NOT NULL,
    status TEXT NOT NULL,
    booking_id INTEGER NOT NULL DEFAULT 0,
    o2_collected_fee TEXT,
    cleaning_cost TEXT,
    created_at INTEGER NOT NULL,
    UNIQUE (unit_id, checkout_date, cleaning_type)
);

CREATE TABLE IF NOT EXISTS hk_unit_cleaning_rates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    unit_id INTEGER NOT NULL,
    city TEXT NOT NULL DEFAULT '',
    amount TEXT NOT NULL,
    effective_from TEXT NOT NULL,
    effective_to TEXT,
    notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS slice_refresh_jobs (
    id TEXT PRIMARY KEY,
    booking_id INTEGER NOT NULL,
    check_in TEXT NOT NULL,
    check_out TEXT NOT NULL,
    status TEXT NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    next_attempt_at INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookings_unit_stay ON bookings(unit_id, check_in, check_out);
CREATE INDEX IF NOT EXISTS idx_slices_year_month ON booking_month_slices(year_month);
CREATE INDEX IF NOT EXISTS idx_slices_unit_month ON booking_month_slices(unit_id, year_month);
CREATE INDEX IF NOT EXISTS idx_hk_cleanings_booking ON hk_cleanings(booking_id);
CREATE INDEX IF NOT EXISTS idx_rates_unit_city ON hk_unit_cleaning_rates(unit_id, city, effective_from);
CREATE INDEX IF NOT EXISTS idx_refresh_due ON slice_refresh_jobs(status, next_attempt_at);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
