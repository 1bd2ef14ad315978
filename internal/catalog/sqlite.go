package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRepository reads vendors, menus and discount codes from a SQLite
// database managed by file migrations.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// an in-memory database lives on a single connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type vendorRow struct {
	id     int64
	vendor Vendor
}

// Load builds a Catalog from the database. Settings that have no table keep
// their built-in values.
func (r *SQLiteRepository) Load(ctx context.Context) (*Catalog, error) {
	rows, err := r.loadVendors(ctx)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		items, err := r.loadItems(ctx, rows[i].id)
		if err != nil {
			return nil, err
		}
		rows[i].vendor.Items = items

		if rows[i].vendor.Fee.Kind == FeeArea {
			areas, err := r.loadAreas(ctx, rows[i].id)
			if err != nil {
				return nil, err
			}
			rows[i].vendor.Fee.Areas = areas
		}
	}

	discounts, err := r.loadDiscounts(ctx)
	if err != nil {
		return nil, err
	}

	settings := DefaultSettings()
	settings.Discounts = discounts

	vendors := make([]Vendor, len(rows))
	for i, row := range rows {
		vendors[i] = row.vendor
	}
	return New(vendors, settings)
}

func (r *SQLiteRepository) loadVendors(ctx context.Context) ([]vendorRow, error) {
	query := `
		SELECT id, name, fee_kind, flat_fee, other_fee, base_fee, step_fee
		FROM vendors
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer rows.Close()

	var vendors []vendorRow
	for rows.Next() {
		var (
			row  vendorRow
			kind string
		)
		err := rows.Scan(
			&row.id,
			&row.vendor.Name,
			&kind,
			&row.vendor.Fee.Flat,
			&row.vendor.Fee.Other,
			&row.vendor.Fee.Base,
			&row.vendor.Fee.Step,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		row.vendor.Fee.Kind = FeeKind(kind)
		vendors = append(vendors, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return vendors, nil
}

func (r *SQLiteRepository) loadItems(ctx context.Context, vendorID int64) ([]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, price FROM menu_items WHERE vendor_id = $1 ORDER BY position`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var it domain.MenuItem
		if err := rows.Scan(&it.Name, &it.Price); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) loadAreas(ctx context.Context, vendorID int64) ([]AreaFee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, fee FROM vendor_areas WHERE vendor_id = $1 ORDER BY position`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendor areas: %w", err)
	}
	defer rows.Close()

	var areas []AreaFee
	for rows.Next() {
		var a AreaFee
		if err := rows.Scan(&a.Name, &a.Fee); err != nil {
			return nil, fmt.Errorf("failed to scan vendor area: %w", err)
		}
		areas = append(areas, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return areas, nil
}

func (r *SQLiteRepository) loadDiscounts(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, amount FROM discount_codes`)
	if err != nil {
		return nil, fmt.Errorf("failed to query discount codes: %w", err)
	}
	defer rows.Close()

	discounts := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			code   string
			amount decimal.Decimal
		)
		if err := rows.Scan(&code, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan discount code: %w", err)
		}
		discounts[code] = amount
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return discounts, nil
}
