package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"mortgage-qualification-engine/internal/models"
	"mortgage-qualification-engine/internal/services/matcher"
)

const packageColumns = `id, bank, property_type, min_loan_size, package_name, lockin_period,
			rates, features, subsidies, remarks, last_updated, category`

// PackageRepository handles mortgage package database operations.
type PackageRepository struct {
	db *DB
}

// NewPackageRepository creates a new package repository.
func NewPackageRepository(db *DB) *PackageRepository {
	return &PackageRepository{db: db}
}

// BuildEligibleQuery renders the catalog filter as SQL.
// Private is "not tagged HDB" and anything other than Fixed is "not tagged Fixed".
func BuildEligibleQuery(q matcher.CatalogQuery) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(packageColumns)
	sb.WriteString("\n\t\tFROM mortgage_packages\n\t\tWHERE min_loan_size <= $1")

	if q.PropertyType == models.PropertyTypeHDB {
		sb.WriteString("\n\t\t\tAND property_type ILIKE '%HDB%'")
	} else {
		sb.WriteString("\n\t\t\tAND property_type NOT ILIKE '%HDB%'")
	}

	if q.RatePreference == models.RatePreferenceFixed {
		sb.WriteString("\n\t\t\tAND category ILIKE '%Fixed%'")
	} else {
		sb.WriteString("\n\t\t\tAND category NOT ILIKE '%Fixed%'")
	}

	return sb.String(), []interface{}{q.MaxMinLoanSize}
}

// FindEligible returns the unranked packages a user qualifies for.
func (r *PackageRepository) FindEligible(ctx context.Context, q matcher.CatalogQuery) ([]*models.MortgagePackage, error) {
	query, args := BuildEligibleQuery(q)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mortgage packages: %w", err)
	}
	defer rows.Close()

	return collectPackages(rows)
}

// List returns every package ordered by bank and name.
func (r *PackageRepository) List(ctx context.Context) ([]*models.MortgagePackage, error) {
	query := "SELECT " + packageColumns + `
		FROM mortgage_packages
		ORDER BY bank, package_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query mortgage packages: %w", err)
	}
	defer rows.Close()

	return collectPackages(rows)
}

// Count returns the number of packages in the catalog.
func (r *PackageRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM mortgage_packages").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count mortgage packages: %w", err)
	}
	return count, nil
}

const upsertPackageSQL = `
		INSERT INTO mortgage_packages (` + packageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			bank = EXCLUDED.bank,
			property_type = EXCLUDED.property_type,
			min_loan_size = EXCLUDED.min_loan_size,
			package_name = EXCLUDED.package_name,
			lockin_period = EXCLUDED.lockin_period,
			rates = EXCLUDED.rates,
			features = EXCLUDED.features,
			subsidies = EXCLUDED.subsidies,
			remarks = EXCLUDED.remarks,
			last_updated = EXCLUDED.last_updated,
			category = EXCLUDED.category`

// BulkUpsert writes packages in one transaction and returns how many were written.
func (r *PackageRepository) BulkUpsert(ctx context.Context, packages []*models.MortgagePackage) (int, error) {
	written := 0

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		for _, p := range packages {
			lastUpdated := p.LastUpdated
			if lastUpdated.IsZero() {
				lastUpdated = now
			}

			_, err := tx.Exec(ctx, upsertPackageSQL,
				p.ID,
				p.Bank,
				p.PropertyType,
				p.MinLoanSize,
				p.PackageName,
				p.LockinPeriod,
				p.Rates,
				p.Features,
				p.Subsidies,
				p.Remarks,
				lastUpdated,
				p.Category,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert package %s: %w", p.ID, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return written, nil
}

func collectPackages(rows pgx.Rows) ([]*models.MortgagePackage, error) {
	packages := make([]*models.MortgagePackage, 0)
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mortgage package: %w", err)
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mortgage packages: %w", err)
	}
	return packages, nil
}

// scanPackage scans a row into a MortgagePackage. pgx.Rows satisfies pgx.Row.
func scanPackage(row pgx.Row) (*models.MortgagePackage, error) {
	var p models.MortgagePackage
	var lockin *string

	err := row.Scan(
		&p.ID,
		&p.Bank,
		&p.PropertyType,
		&p.MinLoanSize,
		&p.PackageName,
		&lockin,
		&p.Rates,
		&p.Features,
		&p.Subsidies,
		&p.Remarks,
		&p.LastUpdated,
		&p.Category,
	)
	if err != nil {
		return nil, err
	}

	if lockin != nil {
		p.LockinPeriod = *lockin
	}

	return &p, nil
}
