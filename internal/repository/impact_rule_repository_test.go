package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/edubright/gamesync-api/pkg/errors"
)

func impactRuleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "game_name", "subjects_boost", "skills_boost", "add_strengths", "add_areas_on_low_score", "recommendations"})
}

func TestImpactRuleRepositoryFindByGameName(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewImpactRuleRepository(db)

	rows := impactRuleRows().AddRow("rule-1", "Math Blaster",
		[]byte(`{"Math": 5}`),
		[]byte(`{"logic": 3}`),
		[]byte(`["problem solving"]`),
		[]byte(`["numeracy"]`),
		[]byte(`["Number Ninja"]`))
	mock.ExpectQuery(regexp.QuoteMeta("FROM game_impacts WHERE game_name = $1")).
		WithArgs("Math Blaster").
		WillReturnRows(rows)

	rule, err := repo.FindByGameName(context.Background(), "Math Blaster")
	require.NoError(t, err)
	assert.Equal(t, 5.0, rule.SubjectsBoost["Math"])
	assert.Equal(t, 3.0, rule.SkillsBoost["logic"])
	assert.Equal(t, []string{"problem solving"}, rule.AddStrengths)
	assert.Equal(t, []string{"numeracy"}, rule.AddAreasOnLowScore)
	assert.Equal(t, []string{"Number Ninja"}, rule.Recommendations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImpactRuleRepositoryAbsentRuleIsNil(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewImpactRuleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM game_impacts WHERE game_name = $1")).
		WithArgs("Unknown Game").
		WillReturnError(sql.ErrNoRows)

	rule, err := repo.FindByGameName(context.Background(), "Unknown Game")
	require.NoError(t, err)
	assert.Nil(t, rule)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImpactRuleRepositoryMalformedColumn(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewImpactRuleRepository(db)

	rows := impactRuleRows().AddRow("rule-1", "Math Blaster",
		[]byte(`{"Math": "not a number"}`), nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM game_impacts WHERE game_name = $1")).
		WithArgs("Math Blaster").
		WillReturnRows(rows)

	_, err := repo.FindByGameName(context.Background(), "Math Blaster")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfigParse.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImpactRuleRepositoryEmptyColumnsDecodeToZeroValues(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewImpactRuleRepository(db)

	rows := impactRuleRows().AddRow("rule-1", "Quiet Game", nil, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM game_impacts WHERE game_name = $1")).
		WithArgs("Quiet Game").
		WillReturnRows(rows)

	rule, err := repo.FindByGameName(context.Background(), "Quiet Game")
	require.NoError(t, err)
	assert.Empty(t, rule.SubjectsBoost)
	assert.Empty(t, rule.AddStrengths)
	assert.NoError(t, mock.ExpectationsWereMet())
}
