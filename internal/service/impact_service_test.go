package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edubright/gamesync-api/internal/models"
	"github.com/edubright/gamesync-api/internal/repository"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
)

type mockRuleReader struct {
	rules map[string]*models.ImpactRule
	err   error
}

func (m *mockRuleReader) FindByGameName(ctx context.Context, gameName string) (*models.ImpactRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rules[gameName], nil
}

type grantedTrait struct {
	Kind  models.TraitKind
	Trait string
	Note  string
}

type mockTraitWriter struct {
	granted []grantedTrait
	revoked []grantedTrait
}

func (m *mockTraitWriter) Grant(ctx context.Context, studentID string, kind models.TraitKind, trait, note string) error {
	m.granted = append(m.granted, grantedTrait{Kind: kind, Trait: trait, Note: note})
	return nil
}

func (m *mockTraitWriter) Revoke(ctx context.Context, studentID string, kind models.TraitKind, trait string) error {
	m.revoked = append(m.revoked, grantedTrait{Kind: kind, Trait: trait})
	return nil
}

type adjustment struct {
	Key   string
	Delta float64
}

type mockSubjectWriter struct {
	adjustments []adjustment
}

func (m *mockSubjectWriter) Adjust(ctx context.Context, studentID, subject string, delta float64) error {
	m.adjustments = append(m.adjustments, adjustment{Key: subject, Delta: delta})
	return nil
}

type mockSkillStore struct {
	adjustments []adjustment
	scores      []models.SkillScore
}

func (m *mockSkillStore) Adjust(ctx context.Context, studentID, skill string, delta float64) error {
	m.adjustments = append(m.adjustments, adjustment{Key: skill, Delta: delta})
	return nil
}

func (m *mockSkillStore) ListByStudent(ctx context.Context, studentID string) ([]models.SkillScore, error) {
	return m.scores, nil
}

type mockActivityWriter struct {
	activities []models.RecentActivity
}

func (m *mockActivityWriter) Insert(ctx context.Context, activity *models.RecentActivity) error {
	m.activities = append(m.activities, *activity)
	return nil
}

type mockImpactStudentStore struct {
	student   *models.Student
	statusSet string
}

func (m *mockImpactStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return m.student, nil
}

func (m *mockImpactStudentStore) SetProgress(ctx context.Context, studentID, status string, lastActive time.Time) error {
	m.statusSet = status
	return nil
}

type mockGameReader struct {
	games map[string]*models.Game
}

func (m *mockGameReader) FindByName(ctx context.Context, name string) (*models.Game, error) {
	return m.games[name], nil
}

type mockRecommendationWriter struct {
	recs []models.RecommendedGame
}

func (m *mockRecommendationWriter) Insert(ctx context.Context, rec *models.RecommendedGame) error {
	m.recs = append(m.recs, *rec)
	return nil
}

type mockBadgeWriter struct {
	badges []string
}

func (m *mockBadgeWriter) Award(ctx context.Context, studentID, badge string) error {
	m.badges = append(m.badges, badge)
	return nil
}

type mockActionPlanStore struct {
	templates []models.ActionPlanTemplateRow
	inserted  []models.ActionPlan
	completed []string
}

func (m *mockActionPlanStore) InsertIfAbsent(ctx context.Context, plan *models.ActionPlan) error {
	m.inserted = append(m.inserted, *plan)
	return nil
}

func (m *mockActionPlanStore) MarkCompleted(ctx context.Context, studentID, goal string) error {
	m.completed = append(m.completed, goal)
	return nil
}

func (m *mockActionPlanStore) Templates(ctx context.Context) ([]models.ActionPlanTemplateRow, error) {
	return m.templates, nil
}

type mockRecentPlayReader struct {
	recent       []repository.RecentPlay
	performances []models.StudentGamePerformance
}

func (m *mockRecentPlayReader) RecentPlays(ctx context.Context, studentID string, limit int) ([]repository.RecentPlay, error) {
	return m.recent, nil
}

func (m *mockRecentPlayReader) InsertPerformance(ctx context.Context, perf *models.StudentGamePerformance) error {
	m.performances = append(m.performances, *perf)
	return nil
}

type impactFixture struct {
	svc             *ImpactService
	rules           *mockRuleReader
	traits          *mockTraitWriter
	subjects        *mockSubjectWriter
	skills          *mockSkillStore
	activities      *mockActivityWriter
	students        *mockImpactStudentStore
	games           *mockGameReader
	recommendations *mockRecommendationWriter
	badges          *mockBadgeWriter
	plans           *mockActionPlanStore
	plays           *mockRecentPlayReader
}

func newImpactFixture(rule *models.ImpactRule, avgScore float64) *impactFixture {
	f := &impactFixture{
		rules:           &mockRuleReader{rules: map[string]*models.ImpactRule{}},
		traits:          &mockTraitWriter{},
		subjects:        &mockSubjectWriter{},
		skills:          &mockSkillStore{},
		activities:      &mockActivityWriter{},
		students:        &mockImpactStudentStore{student: &models.Student{ID: "student-1", Name: "Ada", AvgScore: avgScore}},
		games:           &mockGameReader{games: map[string]*models.Game{}},
		recommendations: &mockRecommendationWriter{},
		badges:          &mockBadgeWriter{},
		plans:           &mockActionPlanStore{},
		plays:           &mockRecentPlayReader{},
	}
	if rule != nil {
		f.rules.rules[rule.GameName] = rule
		f.games.games[rule.GameName] = &models.Game{ID: "game-1", Name: rule.GameName}
	}
	f.svc = NewImpactService(
		f.rules, f.traits, f.subjects, f.skills, f.activities,
		f.students, f.games, f.recommendations, f.badges, f.plans,
		f.plays, nil, zap.NewNop(),
	)
	return f
}

func baseRule() *models.ImpactRule {
	return &models.ImpactRule{
		GameName:           "Math Blaster",
		SubjectsBoost:      map[string]float64{"Math": 5},
		SkillsBoost:        map[string]float64{"logic": 3},
		AddStrengths:       []string{"problem solving"},
		AddAreasOnLowScore: []string{"numeracy"},
	}
}

func TestImpactServiceNoRuleIsNoop(t *testing.T) {
	f := newImpactFixture(nil, 60)

	err := f.svc.Apply(context.Background(), "student-1", "Unknown Game", 80)
	require.NoError(t, err)
	assert.Empty(t, f.traits.granted)
	assert.Empty(t, f.activities.activities)
	assert.Empty(t, f.students.statusSet)
}

func TestImpactServiceHighScoreGrantsStrengths(t *testing.T) {
	f := newImpactFixture(baseRule(), 60)

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 65)
	require.NoError(t, err)

	require.Len(t, f.traits.granted, 1)
	assert.Equal(t, models.TraitStrength, f.traits.granted[0].Kind)
	assert.Equal(t, "problem solving", f.traits.granted[0].Trait)
	assert.Equal(t, "High score in Math Blaster", f.traits.granted[0].Note)
	require.Len(t, f.traits.revoked, 1)
	assert.Equal(t, models.TraitDevelopmentArea, f.traits.revoked[0].Kind)
	assert.Equal(t, "numeracy", f.traits.revoked[0].Trait)
}

func TestImpactServiceLowScoreGrantsDevelopmentAreas(t *testing.T) {
	f := newImpactFixture(baseRule(), 60)

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 64)
	require.NoError(t, err)

	require.Len(t, f.traits.granted, 1)
	assert.Equal(t, models.TraitDevelopmentArea, f.traits.granted[0].Kind)
	assert.Equal(t, "numeracy", f.traits.granted[0].Trait)
	assert.Equal(t, "Low score in Math Blaster", f.traits.granted[0].Note)
	require.Len(t, f.traits.revoked, 1)
	assert.Equal(t, models.TraitStrength, f.traits.revoked[0].Kind)
}

func TestImpactServiceScoreAdjustments(t *testing.T) {
	f := newImpactFixture(baseRule(), 60)

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 70)
	require.NoError(t, err)

	require.Len(t, f.subjects.adjustments, 1)
	assert.Equal(t, adjustment{Key: "Math", Delta: 5}, f.subjects.adjustments[0])
	require.Len(t, f.skills.adjustments, 1)
	assert.Equal(t, adjustment{Key: "logic", Delta: 3}, f.skills.adjustments[0])
}

func TestImpactServiceActivityAlwaysRecorded(t *testing.T) {
	f := newImpactFixture(baseRule(), 90)

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 30)
	require.NoError(t, err)

	require.NotEmpty(t, f.activities.activities)
	assert.Equal(t, models.ActivityGame, f.activities.activities[0].Type)
	assert.Equal(t, "Math Blaster played", f.activities.activities[0].Title)
}

func TestImpactServiceRecommendationsOnlyBelowAverage(t *testing.T) {
	rule := baseRule()
	rule.Recommendations = []string{"Number Ninja"}
	f := newImpactFixture(rule, 60)
	f.games.games["Number Ninja"] = &models.Game{ID: "game-2", Name: "Number Ninja"}

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 55)
	require.NoError(t, err)
	require.Len(t, f.recommendations.recs, 1)
	assert.Equal(t, "game-2", f.recommendations.recs[0].GameID)
	assert.Equal(t, "Low score in Math Blaster", f.recommendations.recs[0].Reason)

	above := newImpactFixture(rule, 60)
	above.games.games["Number Ninja"] = &models.Game{ID: "game-2", Name: "Number Ninja"}
	err = above.svc.Apply(context.Background(), "student-1", "Math Blaster", 75)
	require.NoError(t, err)
	assert.Empty(t, above.recommendations.recs)
}

func TestImpactServiceRecommendationReasonAboveThreshold(t *testing.T) {
	rule := baseRule()
	rule.Recommendations = []string{"Number Ninja"}
	f := newImpactFixture(rule, 90)
	f.games.games["Number Ninja"] = &models.Game{ID: "game-2", Name: "Number Ninja"}

	// Score above the 75 wording cutoff but still under the average.
	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 80)
	require.NoError(t, err)
	require.Len(t, f.recommendations.recs, 1)
	assert.Equal(t, "High score in Math Blaster", f.recommendations.recs[0].Reason)
}

func TestImpactServiceUnknownRecommendedGameSkipped(t *testing.T) {
	rule := baseRule()
	rule.Recommendations = []string{"Not In Catalog"}
	f := newImpactFixture(rule, 60)

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 50)
	require.NoError(t, err)
	assert.Empty(t, f.recommendations.recs)
}

func TestImpactServiceBadgeAtOrAboveAverage(t *testing.T) {
	f := newImpactFixture(baseRule(), 60)

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 60)
	require.NoError(t, err)

	require.Len(t, f.badges.badges, 1)
	assert.Equal(t, "Math Blaster", f.badges.badges[0])
	var achievement *models.RecentActivity
	for i := range f.activities.activities {
		if f.activities.activities[i].Type == models.ActivityAchievement {
			achievement = &f.activities.activities[i]
		}
	}
	require.NotNil(t, achievement)
	assert.Equal(t, "Badge Earned", achievement.Title)
}

func TestImpactServiceNoBadgeBelowAverage(t *testing.T) {
	f := newImpactFixture(baseRule(), 60)

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 59)
	require.NoError(t, err)
	assert.Empty(t, f.badges.badges)
}

func TestImpactServiceProgressStatus(t *testing.T) {
	cases := []struct {
		name  string
		score float64
		avg   float64
		want  string
	}{
		{"above average is advanced", 66, 60, models.ProgressAdvanced},
		{"below average but passing is on track", 55, 60, models.ProgressOnTrack},
		{"under forty always needs support", 39, 60, models.ProgressNeedSupport},
		{"under forty wins even above average", 39, 30, models.ProgressNeedSupport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newImpactFixture(baseRule(), tc.avg)
			err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", tc.score)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.students.statusSet)
		})
	}
}

func TestImpactServiceActionPlanTriggerOnWeakSkill(t *testing.T) {
	f := newImpactFixture(baseRule(), 60)
	f.plans.templates = []models.ActionPlanTemplateRow{
		{ID: "tpl-1", Type: "short_term", Goal: "Practice memory drills", Condition: "skill:memory<40"},
	}
	f.skills.scores = []models.SkillScore{{Skill: "memory", Score: 35}}

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 70)
	require.NoError(t, err)

	require.Len(t, f.plans.inserted, 1)
	assert.Equal(t, "Practice memory drills", f.plans.inserted[0].Goal)
	assert.Equal(t, models.ActionPlanOpen, f.plans.inserted[0].Status)
}

func TestImpactServiceActionPlanNoTriggerWhenSkillFine(t *testing.T) {
	f := newImpactFixture(baseRule(), 60)
	f.plans.templates = []models.ActionPlanTemplateRow{
		{ID: "tpl-1", Type: "short_term", Goal: "Practice memory drills", Condition: "skill:memory<40"},
	}
	f.skills.scores = []models.SkillScore{{Skill: "memory", Score: 45}}

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 70)
	require.NoError(t, err)
	assert.Empty(t, f.plans.inserted)
}

func TestImpactServiceActionPlanCompletion(t *testing.T) {
	target := "game:Math Blaster>60"
	f := newImpactFixture(baseRule(), 60)
	f.plans.templates = []models.ActionPlanTemplateRow{
		{ID: "tpl-1", Type: "short_term", Goal: "Beat Math Blaster", Condition: "skill:memory<40", TargetCondition: &target},
	}

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 75)
	require.NoError(t, err)

	require.Len(t, f.plans.completed, 1)
	assert.Equal(t, "Beat Math Blaster", f.plans.completed[0])
}

func TestImpactServiceMalformedTemplateSkipped(t *testing.T) {
	f := newImpactFixture(baseRule(), 60)
	f.plans.templates = []models.ActionPlanTemplateRow{
		{ID: "tpl-bad", Type: "short_term", Goal: "Broken", Condition: "nonsense"},
		{ID: "tpl-ok", Type: "short_term", Goal: "Practice drills", Condition: "skill:memory<40"},
	}
	f.skills.scores = []models.SkillScore{{Skill: "memory", Score: 20}}

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 70)
	require.NoError(t, err)

	require.Len(t, f.plans.inserted, 1)
	assert.Equal(t, "Practice drills", f.plans.inserted[0].Goal)
}

func TestImpactServicePerformanceRecordedLast(t *testing.T) {
	f := newImpactFixture(baseRule(), 60)

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 70)
	require.NoError(t, err)

	require.Len(t, f.plays.performances, 1)
	assert.Equal(t, "game-1", f.plays.performances[0].GameID)
	assert.Equal(t, 70.0, f.plays.performances[0].Score)
}

func TestImpactServiceConfigErrorAborts(t *testing.T) {
	f := newImpactFixture(baseRule(), 60)
	f.rules.err = appErrors.Clone(appErrors.ErrConfigParse, "impact rule Math Blaster: malformed subjects_boost")

	err := f.svc.Apply(context.Background(), "student-1", "Math Blaster", 70)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfigParse.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.traits.granted)
	assert.Empty(t, f.activities.activities)
}
