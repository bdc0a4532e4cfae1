package database

import (
	"context"
	"database/sql"
)

// schema is the single listings table. run_id is nullable so that legacy
// rows without a natural key can coexist until the migrate-run-ids endpoint
// backfills them; the UNIQUE index still rejects duplicate non-NULL values.
// The (start_date, end_date) and category indexes back the date-range and
// type queries of the public API.
const schema = `
CREATE TABLE IF NOT EXISTS listings (
    id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    run_id         VARCHAR(512)    NULL,
    title          VARCHAR(255)    NOT NULL,
    venue_name     VARCHAR(255)    NOT NULL,
    venue_address  VARCHAR(512)    NULL,
    category       VARCHAR(32)     NOT NULL,
    start_date     DATE            NOT NULL,
    end_date       DATE            NULL,
    description    TEXT            NULL,
    ticket_url     VARCHAR(1024)   NULL,
    price_from     DECIMAL(8,2)    NULL,
    schedule       JSON            NULL,
    lottery_url    VARCHAR(1024)   NULL,
    lottery_price  DECIMAL(8,2)    NULL,
    rush_url       VARCHAR(1024)   NULL,
    rush_price     DECIMAL(8,2)    NULL,
    created_at     TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uq_listings_run_id (run_id),
    KEY idx_listings_dates (start_date, end_date),
    KEY idx_listings_category (category)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSchema creates the listings table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
