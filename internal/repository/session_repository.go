package repository

import (
	"database/sql"
	"fmt"

	"studio-recon/internal/domain"
	"studio-recon/pkg/logger"
)

func (s *PostgresStore) CreateSession(session *domain.Session) error {
	query := `
		INSERT INTO sessions (
			id, period, feed_a_total, feed_b_gross, feed_b_fee, feed_b_net,
			non_reconcilable_total, matched_count, unmatched_count, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := s.db.QueryRow(
		query,
		session.ID,
		session.Period,
		session.FeedATotal,
		session.FeedBGross,
		session.FeedBFee,
		session.FeedBNet,
		session.NonReconcilableTotal,
		session.MatchedCount,
		session.UnmatchedCount,
		session.Status,
	).Scan(&session.CreatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create session")
		return err
	}

	return nil
}

func (s *PostgresStore) GetSession(id string) (*domain.Session, error) {
	query := `
		SELECT id, period, feed_a_total, feed_b_gross, feed_b_fee, feed_b_net,
			   non_reconcilable_total, matched_count, unmatched_count, status, created_at
		FROM sessions
		WHERE id = $1
	`

	var session domain.Session
	err := s.db.QueryRow(query, id).Scan(
		&session.ID,
		&session.Period,
		&session.FeedATotal,
		&session.FeedBGross,
		&session.FeedBFee,
		&session.FeedBNet,
		&session.NonReconcilableTotal,
		&session.MatchedCount,
		&session.UnmatchedCount,
		&session.Status,
		&session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get session")
		return nil, err
	}

	return &session, nil
}

func (s *PostgresStore) ListSessions() ([]domain.Session, error) {
	query := `
		SELECT id, period, feed_a_total, feed_b_gross, feed_b_fee, feed_b_net,
			   non_reconcilable_total, matched_count, unmatched_count, status, created_at
		FROM sessions
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list sessions")
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var session domain.Session
		err := rows.Scan(
			&session.ID,
			&session.Period,
			&session.FeedATotal,
			&session.FeedBGross,
			&session.FeedBFee,
			&session.FeedBNet,
			&session.NonReconcilableTotal,
			&session.MatchedCount,
			&session.UnmatchedCount,
			&session.Status,
			&session.CreatedAt,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan session")
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func (s *PostgresStore) PutComparisons(sessionID string, records []domain.Comparison) error {
	return s.bulkInsert(
		"comparisons",
		`INSERT INTO comparisons (
			session_id, identity, feed_a_total, feed_b_gross, feed_b_fee,
			feed_b_net, difference, status, items, dates, tx_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		len(records),
		func(i int) []interface{} {
			r := records[i]
			return []interface{}{
				sessionID, r.Identity, r.FeedATotal, r.FeedBGross, r.FeedBFee,
				r.FeedBNet, r.Difference, r.Status, r.Items, r.Dates, r.TxCount,
			}
		},
	)
}

func (s *PostgresStore) GetComparisons(sessionID string) ([]domain.Comparison, error) {
	query := `
		SELECT id, session_id, identity, feed_a_total, feed_b_gross, feed_b_fee,
			   feed_b_net, difference, status, items, dates, tx_count
		FROM comparisons
		WHERE session_id = $1
		ORDER BY id
	`

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query comparisons")
		return nil, err
	}
	defer rows.Close()

	var records []domain.Comparison
	for rows.Next() {
		var r domain.Comparison
		err := rows.Scan(
			&r.ID, &r.SessionID, &r.Identity, &r.FeedATotal, &r.FeedBGross,
			&r.FeedBFee, &r.FeedBNet, &r.Difference, &r.Status, &r.Items,
			&r.Dates, &r.TxCount,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan comparison")
			continue
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func (s *PostgresStore) PutCategorySummaries(sessionID string, records []domain.CategorySummary) error {
	return s.bulkInsert(
		"category_summaries",
		`INSERT INTO category_summaries (
			session_id, category, tx_count, amount, tax, tax_rate, ledger_code, share
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		len(records),
		func(i int) []interface{} {
			r := records[i]
			return []interface{}{
				sessionID, r.Category, r.TxCount, r.Amount, r.Tax, r.TaxRate,
				r.LedgerCode, r.Share,
			}
		},
	)
}

func (s *PostgresStore) GetCategorySummaries(sessionID string) ([]domain.CategorySummary, error) {
	query := `
		SELECT id, session_id, category, tx_count, amount, tax, tax_rate, ledger_code, share
		FROM category_summaries
		WHERE session_id = $1
		ORDER BY id
	`

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query category summaries")
		return nil, err
	}
	defer rows.Close()

	var records []domain.CategorySummary
	for rows.Next() {
		var r domain.CategorySummary
		err := rows.Scan(
			&r.ID, &r.SessionID, &r.Category, &r.TxCount, &r.Amount, &r.Tax,
			&r.TaxRate, &r.LedgerCode, &r.Share,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan category summary")
			continue
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func (s *PostgresStore) PutCategoryItems(sessionID, category string, items []domain.CategoryItem) error {
	return s.bulkInsert(
		"category_items",
		`INSERT INTO category_items (
			session_id, category, description, amount, tx_count, dates
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		len(items),
		func(i int) []interface{} {
			r := items[i]
			return []interface{}{sessionID, category, r.Description, r.Amount, r.TxCount, r.Dates}
		},
	)
}

func (s *PostgresStore) GetCategoryItems(sessionID, category string) ([]domain.CategoryItem, error) {
	query := `
		SELECT id, session_id, category, description, amount, tx_count, dates
		FROM category_items
		WHERE session_id = $1 AND category = $2
		ORDER BY id
	`

	rows, err := s.db.Query(query, sessionID, category)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query category items")
		return nil, err
	}
	defer rows.Close()

	var records []domain.CategoryItem
	for rows.Next() {
		var r domain.CategoryItem
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Category, &r.Description, &r.Amount, &r.TxCount, &r.Dates); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan category item")
			continue
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func (s *PostgresStore) PutChannelSummaries(sessionID string, records []domain.ChannelSummary) error {
	return s.bulkInsert(
		"channel_summaries",
		`INSERT INTO channel_summaries (
			session_id, channel, tx_count, amount, share, settles_via_feed_b
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		len(records),
		func(i int) []interface{} {
			r := records[i]
			return []interface{}{sessionID, r.Channel, r.TxCount, r.Amount, r.Share, r.SettlesViaFeedB}
		},
	)
}

func (s *PostgresStore) GetChannelSummaries(sessionID string) ([]domain.ChannelSummary, error) {
	query := `
		SELECT id, session_id, channel, tx_count, amount, share, settles_via_feed_b
		FROM channel_summaries
		WHERE session_id = $1
		ORDER BY id
	`

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query channel summaries")
		return nil, err
	}
	defer rows.Close()

	var records []domain.ChannelSummary
	for rows.Next() {
		var r domain.ChannelSummary
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Channel, &r.TxCount, &r.Amount, &r.Share, &r.SettlesViaFeedB); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan channel summary")
			continue
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// bulkInsert writes a derived-record batch in a single transaction with a
// prepared statement. Batches are small (one per session), so no chunking.
func (s *PostgresStore) bulkInsert(table, query string, count int, args func(int) []interface{}) error {
	if count == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(query)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("table", table).Error("Failed to prepare statement")
		return err
	}
	defer stmt.Close()

	for i := 0; i < count; i++ {
		if _, err := stmt.Exec(args(i)...); err != nil {
			logger.GetLogger().WithError(err).WithField("table", table).Error("Failed to insert record")
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit transaction")
		return err
	}

	return nil
}
