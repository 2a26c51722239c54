package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edubright/gamesync-api/internal/models"
	"github.com/edubright/gamesync-api/internal/repository"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
)

// The two score thresholds are intentionally distinct: 65 decides
// trait grants and revocations, 75 only flips the recommendation
// reason wording. Do not unify them.
const (
	strengthThreshold       = 65
	recommendationThreshold = 75
)

// needSupportCutoff forces progress back to "Need Support" whatever
// the other branches decided.
const needSupportCutoff = 40

type impactRuleReader interface {
	FindByGameName(ctx context.Context, gameName string) (*models.ImpactRule, error)
}

type traitWriter interface {
	Grant(ctx context.Context, studentID string, kind models.TraitKind, trait, note string) error
	Revoke(ctx context.Context, studentID string, kind models.TraitKind, trait string) error
}

type subjectScoreWriter interface {
	Adjust(ctx context.Context, studentID, subject string, delta float64) error
}

type skillScoreStore interface {
	Adjust(ctx context.Context, studentID, skill string, delta float64) error
	ListByStudent(ctx context.Context, studentID string) ([]models.SkillScore, error)
}

type activityWriter interface {
	Insert(ctx context.Context, activity *models.RecentActivity) error
}

type impactStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	SetProgress(ctx context.Context, studentID, status string, lastActive time.Time) error
}

type impactGameReader interface {
	FindByName(ctx context.Context, name string) (*models.Game, error)
}

type recommendationWriter interface {
	Insert(ctx context.Context, rec *models.RecommendedGame) error
}

type badgeWriter interface {
	Award(ctx context.Context, studentID, badge string) error
}

type actionPlanStore interface {
	InsertIfAbsent(ctx context.Context, plan *models.ActionPlan) error
	MarkCompleted(ctx context.Context, studentID, goal string) error
	Templates(ctx context.Context) ([]models.ActionPlanTemplateRow, error)
}

type recentPlayReader interface {
	RecentPlays(ctx context.Context, studentID string, limit int) ([]repository.RecentPlay, error)
	InsertPerformance(ctx context.Context, perf *models.StudentGamePerformance) error
}

type engineMetrics interface {
	ObserveEngineRun(result string, duration time.Duration)
}

// ImpactService is the rule engine applying the ordered score, trait,
// recommendation and action plan mutations after a completed session.
type ImpactService struct {
	rules           impactRuleReader
	traits          traitWriter
	subjects        subjectScoreWriter
	skills          skillScoreStore
	activities      activityWriter
	students        impactStudentStore
	games           impactGameReader
	recommendations recommendationWriter
	badges          badgeWriter
	plans           actionPlanStore
	plays           recentPlayReader
	metrics         engineMetrics
	logger          *zap.Logger
}

// NewImpactService constructs the engine.
func NewImpactService(
	rules impactRuleReader,
	traits traitWriter,
	subjects subjectScoreWriter,
	skills skillScoreStore,
	activities activityWriter,
	students impactStudentStore,
	games impactGameReader,
	recommendations recommendationWriter,
	badges badgeWriter,
	plans actionPlanStore,
	plays recentPlayReader,
	metrics engineMetrics,
	logger *zap.Logger,
) *ImpactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImpactService{
		rules:           rules,
		traits:          traits,
		subjects:        subjects,
		skills:          skills,
		activities:      activities,
		students:        students,
		games:           games,
		recommendations: recommendations,
		badges:          badges,
		plans:           plans,
		plays:           plays,
		metrics:         metrics,
		logger:          logger,
	}
}

// Apply runs the impact steps for one completed session. The steps
// execute strictly in order: later steps read state written by earlier
// ones. Absence of a rule for the game is a silent no-op. A malformed
// stored rule aborts the whole run with no partial application beyond
// the step that surfaced it.
func (s *ImpactService) Apply(ctx context.Context, studentID, gameName string, score float64) error {
	start := time.Now()
	err := s.apply(ctx, studentID, gameName, score)
	if s.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
			if errors.Is(err, appErrors.ErrConfigParse) || appErrors.FromError(err).Code == appErrors.ErrConfigParse.Code {
				result = "config_error"
			}
		}
		s.metrics.ObserveEngineRun(result, time.Since(start))
	}
	return err
}

func (s *ImpactService) apply(ctx context.Context, studentID, gameName string, score float64) error {
	rule, err := s.rules.FindByGameName(ctx, gameName)
	if err != nil {
		return err
	}
	if rule == nil {
		s.logger.Debug("no impact rule configured", zap.String("game", gameName))
		return nil
	}

	// 1. Trait grant/revoke around the 65 cutoff.
	if score >= strengthThreshold {
		for _, strength := range rule.AddStrengths {
			if err := s.traits.Grant(ctx, studentID, models.TraitStrength, strength, fmt.Sprintf("High score in %s", gameName)); err != nil {
				return err
			}
		}
		for _, area := range rule.AddAreasOnLowScore {
			if err := s.traits.Revoke(ctx, studentID, models.TraitDevelopmentArea, area); err != nil {
				return err
			}
		}
	} else {
		for _, area := range rule.AddAreasOnLowScore {
			if err := s.traits.Grant(ctx, studentID, models.TraitDevelopmentArea, area, fmt.Sprintf("Low score in %s", gameName)); err != nil {
				return err
			}
		}
		for _, strength := range rule.AddStrengths {
			if err := s.traits.Revoke(ctx, studentID, models.TraitStrength, strength); err != nil {
				return err
			}
		}
	}

	// 2. Subject score adjustments.
	for subject, delta := range rule.SubjectsBoost {
		if err := s.subjects.Adjust(ctx, studentID, subject, delta); err != nil {
			return err
		}
	}

	// 3. Skill score adjustments.
	for skill, delta := range rule.SkillsBoost {
		if err := s.skills.Adjust(ctx, studentID, skill, delta); err != nil {
			return err
		}
	}

	// 4. Activity fact, unconditional.
	if err := s.activities.Insert(ctx, &models.RecentActivity{
		Type:        models.ActivityGame,
		Title:       fmt.Sprintf("%s played", gameName),
		Description: fmt.Sprintf("Student %s played %s", studentID, gameName),
	}); err != nil {
		return err
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return err
	}
	if student == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", studentID))
	}

	// 5. Recommendations, only when the score did not beat the
	// student's running average.
	if score <= student.AvgScore {
		for _, name := range rule.Recommendations {
			game, err := s.games.FindByName(ctx, name)
			if err != nil {
				return err
			}
			if game == nil {
				continue
			}
			reason := "High score in"
			if score <= recommendationThreshold {
				reason = "Low score in"
			}
			if err := s.recommendations.Insert(ctx, &models.RecommendedGame{
				StudentID: studentID,
				GameID:    game.ID,
				Reason:    fmt.Sprintf("%s %s", reason, gameName),
			}); err != nil {
				return err
			}
		}
	}

	// 6. Achievement and badge, only at or above the average.
	if score >= student.AvgScore {
		if err := s.activities.Insert(ctx, &models.RecentActivity{
			Type:        models.ActivityAchievement,
			Title:       "Badge Earned",
			Description: fmt.Sprintf("Student %s earned %s badge", studentID, gameName),
		}); err != nil {
			return err
		}
		if err := s.badges.Award(ctx, studentID, gameName); err != nil {
			return err
		}
	}

	// 7. Progress recompute. The <40 check runs last so it always
	// wins over the average comparisons.
	status := models.ProgressNeedSupport
	if score >= student.AvgScore {
		status = models.ProgressAdvanced
	}
	if score <= student.AvgScore && score >= needSupportCutoff {
		status = models.ProgressOnTrack
	}
	if score < needSupportCutoff {
		status = models.ProgressNeedSupport
	}
	if err := s.students.SetProgress(ctx, studentID, status, time.Now().UTC()); err != nil {
		return err
	}

	// 8. Action plan templates.
	if err := s.applyActionPlans(ctx, studentID, gameName, score); err != nil {
		return err
	}

	// 9. Historical fact, always last.
	game, err := s.games.FindByName(ctx, gameName)
	if err != nil {
		return err
	}
	if game != nil {
		if err := s.plays.InsertPerformance(ctx, &models.StudentGamePerformance{
			StudentID: studentID,
			GameID:    game.ID,
			Score:     score,
		}); err != nil {
			return err
		}
	}

	return nil
}

func (s *ImpactService) applyActionPlans(ctx context.Context, studentID, gameName string, score float64) error {
	rows, err := s.plans.Templates(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	skills, err := s.skills.ListByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	recent, err := s.plays.RecentPlays(ctx, studentID, 10)
	if err != nil {
		return err
	}

	for _, row := range rows {
		tpl, err := row.Parse()
		if err != nil {
			// Malformed template conditions are skipped, not errors.
			s.logger.Warn("skipping malformed action plan template",
				zap.String("template_id", row.ID), zap.Error(err))
			continue
		}

		if s.triggerMatches(tpl.Trigger, skills, recent) {
			if err := s.plans.InsertIfAbsent(ctx, &models.ActionPlan{
				StudentID: studentID,
				Type:      tpl.Type,
				Goal:      tpl.Goal,
				Status:    models.ActionPlanOpen,
			}); err != nil {
				return err
			}
		}

		if tpl.Completion != nil &&
			tpl.Completion.Category == models.ConditionGame &&
			tpl.Completion.Key == gameName &&
			score > tpl.Completion.Threshold {
			if err := s.plans.MarkCompleted(ctx, studentID, tpl.Goal); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *ImpactService) triggerMatches(cond models.Condition, skills []models.SkillScore, recent []repository.RecentPlay) bool {
	switch cond.Category {
	case models.ConditionSkill:
		for _, skill := range skills {
			if skill.Skill == cond.Key && skill.Score < cond.Threshold {
				return true
			}
		}
	case models.ConditionGame:
		for _, play := range recent {
			if play.GameName == cond.Key && play.Score < cond.Threshold {
				return true
			}
		}
	}
	return false
}
