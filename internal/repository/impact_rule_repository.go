package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edubright/gamesync-api/internal/models"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
)

// ImpactRuleRepository reads the static per-game impact configuration.
type ImpactRuleRepository struct {
	db *sqlx.DB
}

// NewImpactRuleRepository constructs a new repository.
func NewImpactRuleRepository(db *sqlx.DB) *ImpactRuleRepository {
	return &ImpactRuleRepository{db: db}
}

// FindByGameName returns the decoded rule for a game, or nil when no
// rule is configured. A row with malformed JSON surfaces as
// CONFIG_PARSE_ERROR, which aborts the engine run that asked for it.
func (r *ImpactRuleRepository) FindByGameName(ctx context.Context, gameName string) (*models.ImpactRule, error) {
	query := `SELECT id, game_name, subjects_boost, skills_boost, add_strengths, add_areas_on_low_score, recommendations
FROM game_impacts WHERE game_name = $1`
	var row models.ImpactRuleRow
	if err := r.db.GetContext(ctx, &row, query, gameName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find impact rule: %w", err)
	}
	return decodeImpactRule(row)
}

func decodeImpactRule(row models.ImpactRuleRow) (*models.ImpactRule, error) {
	rule := &models.ImpactRule{GameName: row.GameName}

	fields := []struct {
		name string
		raw  []byte
		dest interface{}
	}{
		{"subjects_boost", row.SubjectsBoost, &rule.SubjectsBoost},
		{"skills_boost", row.SkillsBoost, &rule.SkillsBoost},
		{"add_strengths", row.AddStrengths, &rule.AddStrengths},
		{"add_areas_on_low_score", row.AddAreasOnLowScore, &rule.AddAreasOnLowScore},
		{"recommendations", row.Recommendations, &rule.Recommendations},
	}
	for _, field := range fields {
		if len(field.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(field.raw, field.dest); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrConfigParse.Code, appErrors.ErrConfigParse.Status,
				fmt.Sprintf("impact rule %s: malformed %s", row.GameName, field.name))
		}
	}

	return rule, nil
}
