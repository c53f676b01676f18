package repository

import (
	"database/sql"
	"fmt"

	"gopkg.in/yaml.v3"

	"studio-recon/internal/domain"
	"studio-recon/pkg/logger"
)

// Rule overrides are stored as one YAML document in a single-row table, so
// operators can export, hand-edit, and re-import the set as a whole.

func (s *PostgresStore) GetRuleOverrides() ([]domain.CategoryRule, error) {
	var raw string
	err := s.db.QueryRow(`SELECT rules FROM category_rule_overrides WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get rule overrides")
		return nil, err
	}

	var rules []domain.CategoryRule
	if err := yaml.Unmarshal([]byte(raw), &rules); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to decode rule overrides")
		return nil, fmt.Errorf("failed to decode rule overrides: %w", err)
	}

	return rules, nil
}

func (s *PostgresStore) SaveRuleOverrides(rules []domain.CategoryRule) error {
	raw, err := yaml.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to encode rule overrides: %w", err)
	}

	query := `
		INSERT INTO category_rule_overrides (id, rules) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET rules = EXCLUDED.rules, updated_at = NOW()
	`
	if _, err := s.db.Exec(query, string(raw)); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to save rule overrides")
		return err
	}

	return nil
}

func (s *PostgresStore) ResetRuleOverrides() error {
	if _, err := s.db.Exec(`DELETE FROM category_rule_overrides WHERE id = 1`); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to reset rule overrides")
		return err
	}
	return nil
}
