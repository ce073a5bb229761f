package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"market-scanner/models"
)

// PostgresGateway persists validated listings to PostgreSQL, keyed on
// (platform, external_id) so repeated scans update rather than duplicate.
type PostgresGateway struct {
	db *sql.DB
}

// NewPostgresGateway opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use gateway.
func NewPostgresGateway(dsn string) (*PostgresGateway, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	g := &PostgresGateway{db: db}
	if err := g.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return g, nil
}

func (g *PostgresGateway) migrate() error {
	_, err := g.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id            SERIAL PRIMARY KEY,
			area          VARCHAR(100) NOT NULL,
			property_type VARCHAR(50)  NOT NULL DEFAULT '',
			external_id   VARCHAR(255) NOT NULL,
			platform      VARCHAR(50)  NOT NULL,
			title         TEXT         NOT NULL,
			current_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			price_type    VARCHAR(20)  NOT NULL,
			url           TEXT         NOT NULL DEFAULT '',
			bedrooms      INT          NOT NULL DEFAULT 0,
			bathrooms     INT          NOT NULL DEFAULT 0,
			max_guests    INT          NOT NULL DEFAULT 0,
			rating        NUMERIC(4,2) NOT NULL DEFAULT 0,
			review_count  INT          NOT NULL DEFAULT 0,
			amenities     TEXT[]       NOT NULL DEFAULT '{}',
			scan_date     TIMESTAMPTZ  NOT NULL,
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			UNIQUE (platform, external_id)
		);

		CREATE INDEX IF NOT EXISTS idx_listings_area     ON listings(area);
		CREATE INDEX IF NOT EXISTS idx_listings_price    ON listings(current_price);
		CREATE INDEX IF NOT EXISTS idx_listings_platform ON listings(platform);
		CREATE INDEX IF NOT EXISTS idx_listings_scan     ON listings(scan_date);
	`)
	return err
}

// Upsert inserts the listing or, when (platform, external_id) already
// exists, refreshes the mutable columns. xmax = 0 distinguishes a fresh
// insert from an updated row.
func (g *PostgresGateway) Upsert(ctx context.Context, l *models.Listing) (bool, error) {
	var created bool
	err := g.db.QueryRowContext(ctx, `
		INSERT INTO listings (
			area, property_type, external_id, platform, title,
			current_price, price_type, url, bedrooms, bathrooms,
			max_guests, rating, review_count, amenities, scan_date
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (platform, external_id) DO UPDATE SET
			area          = EXCLUDED.area,
			property_type = EXCLUDED.property_type,
			title         = EXCLUDED.title,
			current_price = EXCLUDED.current_price,
			price_type    = EXCLUDED.price_type,
			url           = EXCLUDED.url,
			bedrooms      = EXCLUDED.bedrooms,
			bathrooms     = EXCLUDED.bathrooms,
			max_guests    = EXCLUDED.max_guests,
			rating        = EXCLUDED.rating,
			review_count  = EXCLUDED.review_count,
			amenities     = EXCLUDED.amenities,
			scan_date     = EXCLUDED.scan_date,
			updated_at    = NOW()
		RETURNING (xmax = 0) AS inserted
	`,
		l.Area, string(l.PropertyType), l.ExternalID, string(l.Platform), l.Title,
		l.CurrentPrice, string(l.PriceType), l.URL, l.Bedrooms, l.Bathrooms,
		l.MaxGuests, l.Rating, l.ReviewCount, pq.Array(l.Amenities), l.ScanDate,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("postgres: upsert %s: %w", l.IdentityKey(), err)
	}
	return created, nil
}

func (g *PostgresGateway) Close() error {
	return g.db.Close()
}
