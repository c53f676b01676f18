package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"studio-recon/internal/domain"
	"studio-recon/pkg/logger"
)

// pendingPayload is the serialized body of a suspended run: the parsed rows
// of both feeds plus the candidate list shown to the operator.
type pendingPayload struct {
	BookingRows    []domain.BookingRow       `json:"booking_rows"`
	SettlementRows []domain.SettlementRow    `json:"settlement_rows"`
	Candidates     []domain.NewItemCandidate `json:"candidates"`
}

func (s *PostgresStore) SavePending(pending *domain.PendingReconciliation) error {
	payload, err := json.Marshal(pendingPayload{
		BookingRows:    pending.BookingRows,
		SettlementRows: pending.SettlementRows,
		Candidates:     pending.Candidates,
	})
	if err != nil {
		return fmt.Errorf("failed to encode pending payload: %w", err)
	}

	query := `
		INSERT INTO pending_reconciliations (id, period, payload, new_item_count, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err = s.db.QueryRow(
		query,
		pending.ID,
		pending.Period,
		payload,
		pending.NewItemCount,
		pending.Status,
	).Scan(&pending.CreatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to save pending reconciliation")
		return err
	}

	return nil
}

func (s *PostgresStore) GetPending(id string) (*domain.PendingReconciliation, error) {
	query := `
		SELECT id, period, payload, new_item_count, status, created_at
		FROM pending_reconciliations
		WHERE id = $1
	`

	var pending domain.PendingReconciliation
	var payload []byte
	err := s.db.QueryRow(query, id).Scan(
		&pending.ID,
		&pending.Period,
		&payload,
		&pending.NewItemCount,
		&pending.Status,
		&pending.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrPendingNotFound
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get pending reconciliation")
		return nil, err
	}

	var body pendingPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to decode pending payload")
		return nil, fmt.Errorf("failed to decode pending payload: %w", err)
	}
	pending.BookingRows = body.BookingRows
	pending.SettlementRows = body.SettlementRows
	pending.Candidates = body.Candidates

	return &pending, nil
}

// DeletePending removes a pending record. Deleting an already-removed id is
// reported as ErrPendingNotFound so resume stays idempotent against repeated
// delivery.
func (s *PostgresStore) DeletePending(id string) error {
	result, err := s.db.Exec(`DELETE FROM pending_reconciliations WHERE id = $1`, id)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to delete pending reconciliation")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrPendingNotFound
	}

	return nil
}

// ListPending returns pending records newest first, without their row
// payloads; listings drive the review queue screen, which only needs counts.
func (s *PostgresStore) ListPending() ([]domain.PendingReconciliation, error) {
	query := `
		SELECT id, period, new_item_count, status, created_at
		FROM pending_reconciliations
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list pending reconciliations")
		return nil, err
	}
	defer rows.Close()

	var pendings []domain.PendingReconciliation
	for rows.Next() {
		var pending domain.PendingReconciliation
		if err := rows.Scan(&pending.ID, &pending.Period, &pending.NewItemCount, &pending.Status, &pending.CreatedAt); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan pending reconciliation")
			continue
		}
		pendings = append(pendings, pending)
	}

	return pendings, rows.Err()
}
