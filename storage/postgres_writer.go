package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"propfinder/models"
)

// PostgresStore persists scored listings to PostgreSQL with upsert-by-id
// semantics. It also serves the historical (delisted) pool consumed by the
// relisting detector.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
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

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id                      TEXT PRIMARY KEY,
			source                  VARCHAR(50)      NOT NULL,
			url                     TEXT             NOT NULL,
			price_original          NUMERIC(14,2)    NOT NULL DEFAULT 0,
			currency                VARCHAR(10)      NOT NULL DEFAULT 'USD',
			price_usd               NUMERIC(14,2)    NOT NULL DEFAULT 0,
			price_per_area          NUMERIC(12,2)    NOT NULL DEFAULT 0,
			area_total              NUMERIC(10,2)    NOT NULL DEFAULT 0,
			area_covered            NUMERIC(10,2)    NOT NULL DEFAULT 0,
			rooms                   INT              NOT NULL DEFAULT 0,
			floor                   INT,
			address_raw             TEXT             NOT NULL DEFAULT '',
			address_normalized      TEXT             NOT NULL DEFAULT '',
			neighborhood            TEXT             NOT NULL DEFAULT '',
			lat                     DOUBLE PRECISION,
			lng                     DOUBLE PRECISION,
			title                   TEXT             NOT NULL DEFAULT '',
			description             TEXT             NOT NULL DEFAULT '',
			first_seen              TIMESTAMPTZ      NOT NULL,
			last_seen               TIMESTAMPTZ      NOT NULL,
			status                  VARCHAR(20)      NOT NULL DEFAULT 'active',
			original_id             TEXT             NOT NULL DEFAULT '',
			price_delta_pct         DOUBLE PRECISION,
			microzone_mean          DOUBLE PRECISION NOT NULL DEFAULT 0,
			microzone_std           DOUBLE PRECISION NOT NULL DEFAULT 0,
			microzone_median        DOUBLE PRECISION NOT NULL DEFAULT 0,
			microzone_count         INT              NOT NULL DEFAULT 0,
			microzone_mean_per_area DOUBLE PRECISION NOT NULL DEFAULT 0,
			zscore                  DOUBLE PRECISION NOT NULL DEFAULT 0,
			zscore_per_area         DOUBLE PRECISION NOT NULL DEFAULT 0,
			opportunity_score       INT              NOT NULL DEFAULT 0,
			opportunity_reasons     TEXT[]           NOT NULL DEFAULT '{}',
			keywords_detected       TEXT[]           NOT NULL DEFAULT '{}',
			days_online             INT              NOT NULL DEFAULT 0,
			is_opportunity          BOOLEAN          NOT NULL DEFAULT FALSE
		);

		CREATE INDEX IF NOT EXISTS idx_listings_status       ON listings(status);
		CREATE INDEX IF NOT EXISTS idx_listings_score        ON listings(opportunity_score);
		CREATE INDEX IF NOT EXISTS idx_listings_neighborhood ON listings(neighborhood);
	`)
	return err
}

const upsertListing = `
	INSERT INTO listings (
		id, source, url, price_original, currency, price_usd, price_per_area,
		area_total, area_covered, rooms, floor,
		address_raw, address_normalized, neighborhood, lat, lng,
		title, description, first_seen, last_seen, status,
		original_id, price_delta_pct,
		microzone_mean, microzone_std, microzone_median, microzone_count,
		microzone_mean_per_area, zscore, zscore_per_area,
		opportunity_score, opportunity_reasons, keywords_detected,
		days_online, is_opportunity
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
		$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35
	)
	ON CONFLICT (id) DO UPDATE SET
		url = EXCLUDED.url,
		price_original = EXCLUDED.price_original,
		currency = EXCLUDED.currency,
		price_usd = EXCLUDED.price_usd,
		price_per_area = EXCLUDED.price_per_area,
		area_total = EXCLUDED.area_total,
		area_covered = EXCLUDED.area_covered,
		rooms = EXCLUDED.rooms,
		floor = EXCLUDED.floor,
		address_raw = EXCLUDED.address_raw,
		address_normalized = EXCLUDED.address_normalized,
		neighborhood = EXCLUDED.neighborhood,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		last_seen = EXCLUDED.last_seen,
		status = EXCLUDED.status,
		original_id = EXCLUDED.original_id,
		price_delta_pct = EXCLUDED.price_delta_pct,
		microzone_mean = EXCLUDED.microzone_mean,
		microzone_std = EXCLUDED.microzone_std,
		microzone_median = EXCLUDED.microzone_median,
		microzone_count = EXCLUDED.microzone_count,
		microzone_mean_per_area = EXCLUDED.microzone_mean_per_area,
		zscore = EXCLUDED.zscore,
		zscore_per_area = EXCLUDED.zscore_per_area,
		opportunity_score = EXCLUDED.opportunity_score,
		opportunity_reasons = EXCLUDED.opportunity_reasons,
		keywords_detected = EXCLUDED.keywords_detected,
		days_online = EXCLUDED.days_online,
		is_opportunity = EXCLUDED.is_opportunity
`

// Upsert writes the batch inside one transaction, keyed on id. first_seen is
// preserved for rows that already exist.
func (ps *PostgresStore) Upsert(listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertListing)
	if err != nil {
		return fmt.Errorf("postgres: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range listings {
		l := &listings[i]
		_, err := stmt.Exec(
			l.ID, l.Source, l.URL, l.PriceOriginal, l.Currency, l.PriceUSD, l.PricePerArea,
			l.AreaTotal, l.AreaCovered, l.Rooms, nullInt(l.Floor),
			l.AddressRaw, l.AddressNormalized, l.Neighborhood, nullFloat(l.Lat), nullFloat(l.Lng),
			l.Title, l.Description, l.FirstSeen, l.LastSeen, string(l.Status),
			l.OriginalID, nullFloat(l.PriceDeltaPct),
			l.MicrozoneMean, l.MicrozoneStd, l.MicrozoneMedian, l.MicrozoneCount,
			l.MicrozoneMeanPerArea, l.Zscore, l.ZscorePerArea,
			l.OpportunityScore, pq.Array(l.OpportunityReasons), pq.Array(l.KeywordsDetected),
			l.DaysOnline, l.IsOpportunity,
		)
		if err != nil {
			return fmt.Errorf("postgres: upsert %s: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

const selectListing = `
	SELECT id, source, url, price_original, currency, price_usd, price_per_area,
		area_total, area_covered, rooms, floor,
		address_raw, address_normalized, neighborhood, lat, lng,
		title, description, first_seen, last_seen, status,
		original_id, price_delta_pct,
		microzone_mean, microzone_std, microzone_median, microzone_count,
		microzone_mean_per_area, zscore, zscore_per_area,
		opportunity_score, opportunity_reasons, keywords_detected,
		days_online, is_opportunity
	FROM listings
`

// FetchAll retrieves every stored listing.
func (ps *PostgresStore) FetchAll() ([]models.Listing, error) {
	return ps.fetch(selectListing + " ORDER BY opportunity_score DESC, id")
}

// FetchHistorical retrieves the delisted pool fed to the relisting detector.
func (ps *PostgresStore) FetchHistorical() ([]models.Listing, error) {
	return ps.fetch(selectListing + " WHERE status = 'delisted' ORDER BY last_seen DESC")
}

func (ps *PostgresStore) fetch(query string) ([]models.Listing, error) {
	rows, err := ps.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var (
			l        models.Listing
			status   string
			floor    sql.NullInt64
			lat, lng sql.NullFloat64
			delta    sql.NullFloat64
			reasons  pq.StringArray
			keywords pq.StringArray
		)
		if err := rows.Scan(
			&l.ID, &l.Source, &l.URL, &l.PriceOriginal, &l.Currency, &l.PriceUSD, &l.PricePerArea,
			&l.AreaTotal, &l.AreaCovered, &l.Rooms, &floor,
			&l.AddressRaw, &l.AddressNormalized, &l.Neighborhood, &lat, &lng,
			&l.Title, &l.Description, &l.FirstSeen, &l.LastSeen, &status,
			&l.OriginalID, &delta,
			&l.MicrozoneMean, &l.MicrozoneStd, &l.MicrozoneMedian, &l.MicrozoneCount,
			&l.MicrozoneMeanPerArea, &l.Zscore, &l.ZscorePerArea,
			&l.OpportunityScore, &reasons, &keywords,
			&l.DaysOnline, &l.IsOpportunity,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}

		l.Status = models.Status(status)
		if floor.Valid {
			v := int(floor.Int64)
			l.Floor = &v
		}
		if lat.Valid {
			l.Lat = &lat.Float64
		}
		if lng.Valid {
			l.Lng = &lng.Float64
		}
		if delta.Valid {
			l.PriceDeltaPct = &delta.Float64
		}
		l.OpportunityReasons = reasons
		l.KeywordsDetected = keywords

		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// FetchIDs returns the set of all stored listing ids. The caller uses it to
// compute which listings vanished from the current batch.
func (ps *PostgresStore) FetchIDs() (map[string]struct{}, error) {
	rows, err := ps.db.Query("SELECT id FROM listings WHERE status != 'delisted'")
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// MarkDelisted flips the given listings to delisted, moving them into the
// historical pool for future relisting detection.
func (ps *PostgresStore) MarkDelisted(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := ps.db.Exec(
		"UPDATE listings SET status = 'delisted', last_seen = NOW() WHERE id = ANY($1)",
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("postgres: mark delisted: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
