package repository

import (
	"database/sql"

	"studio-recon/internal/domain"
	"studio-recon/pkg/logger"
)

const productColumns = `
	id, description, category, tax_rate, ledger_code, handling,
	handling_periods, handling_start, handling_end, approved,
	first_seen, last_seen, tx_count, created_at, updated_at
`

func (s *PostgresStore) GetProduct(description string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE description = $1`

	var p domain.Product
	err := s.db.QueryRow(query, description).Scan(
		&p.ID, &p.Description, &p.Category, &p.TaxRate, &p.LedgerCode,
		&p.Handling, &p.HandlingPeriods, &p.HandlingStart, &p.HandlingEnd,
		&p.Approved, &p.FirstSeen, &p.LastSeen, &p.TxCount, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get product")
		return nil, err
	}

	return &p, nil
}

func (s *PostgresStore) ListProducts() ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY description`

	rows, err := s.db.Query(query)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list products")
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		err := rows.Scan(
			&p.ID, &p.Description, &p.Category, &p.TaxRate, &p.LedgerCode,
			&p.Handling, &p.HandlingPeriods, &p.HandlingStart, &p.HandlingEnd,
			&p.Approved, &p.FirstSeen, &p.LastSeen, &p.TxCount, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan product")
			continue
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// UpsertProduct writes a product record keyed on description. Concurrent
// writers for the same description resolve last-writer-wins.
func (s *PostgresStore) UpsertProduct(product *domain.Product) error {
	query := `
		INSERT INTO products (
			description, category, tax_rate, ledger_code, handling,
			handling_periods, handling_start, handling_end, approved,
			first_seen, last_seen, tx_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (description) DO UPDATE SET
			category         = EXCLUDED.category,
			tax_rate         = EXCLUDED.tax_rate,
			ledger_code      = EXCLUDED.ledger_code,
			handling         = EXCLUDED.handling,
			handling_periods = EXCLUDED.handling_periods,
			handling_start   = EXCLUDED.handling_start,
			handling_end     = EXCLUDED.handling_end,
			approved         = EXCLUDED.approved,
			last_seen        = EXCLUDED.last_seen,
			tx_count         = EXCLUDED.tx_count,
			updated_at       = NOW()
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRow(
		query,
		product.Description,
		product.Category,
		product.TaxRate,
		product.LedgerCode,
		product.Handling,
		product.HandlingPeriods,
		product.HandlingStart,
		product.HandlingEnd,
		product.Approved,
		product.FirstSeen,
		product.LastSeen,
		product.TxCount,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).WithField("description", product.Description).Error("Failed to upsert product")
		return err
	}

	return nil
}

func (s *PostgresStore) DeleteProduct(id int64) error {
	result, err := s.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to delete product")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}
