package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ImpactRuleRow is the raw stored per-game impact configuration. The
// list and map columns hold JSON exactly as the admin panel writes
// them; Parse turns the row into a typed ImpactRule.
type ImpactRuleRow struct {
	ID                 string `db:"id"`
	GameName           string `db:"game_name"`
	SubjectsBoost      []byte `db:"subjects_boost"`
	SkillsBoost        []byte `db:"skills_boost"`
	AddStrengths       []byte `db:"add_strengths"`
	AddAreasOnLowScore []byte `db:"add_areas_on_low_score"`
	Recommendations    []byte `db:"recommendations"`
}

// ImpactRule is the decoded per-game impact configuration.
type ImpactRule struct {
	GameName           string             `json:"game_name"`
	SubjectsBoost      map[string]float64 `json:"subjects_boost"`
	SkillsBoost        map[string]float64 `json:"skills_boost"`
	AddStrengths       []string           `json:"add_strengths"`
	AddAreasOnLowScore []string           `json:"add_areas_on_low_score"`
	Recommendations    []string           `json:"recommendations"`
}

// Condition categories accepted by action plan templates.
const (
	ConditionSkill = "skill"
	ConditionGame  = "game"
)

// Condition is the typed form of a template condition string such as
// "skill:memory<40" or "game:Math Blaster>80", parsed once at load.
type Condition struct {
	Category   string
	Key        string
	Comparator byte // '<' or '>'
	Threshold  float64
}

// ParseCondition decodes a "category:key<threshold" style condition.
func ParseCondition(raw string) (Condition, error) {
	var comparator byte
	idx := strings.IndexAny(raw, "<>")
	if idx < 0 {
		return Condition{}, fmt.Errorf("condition %q: missing comparator", raw)
	}
	comparator = raw[idx]

	field := raw[:idx]
	category, key, ok := strings.Cut(field, ":")
	if !ok || category == "" || key == "" {
		return Condition{}, fmt.Errorf("condition %q: expected category:key", raw)
	}
	if category != ConditionSkill && category != ConditionGame {
		return Condition{}, fmt.Errorf("condition %q: unknown category %q", raw, category)
	}

	threshold, err := strconv.ParseFloat(strings.TrimSpace(raw[idx+1:]), 64)
	if err != nil {
		return Condition{}, fmt.Errorf("condition %q: bad threshold: %w", raw, err)
	}

	return Condition{Category: category, Key: key, Comparator: comparator, Threshold: threshold}, nil
}

// ActionPlanTemplateRow is the stored template with raw condition
// strings.
type ActionPlanTemplateRow struct {
	ID              string  `db:"id"`
	Type            string  `db:"type"`
	Goal            string  `db:"goal"`
	Condition       string  `db:"condition"`
	TargetCondition *string `db:"target_condition"`
}

// ActionPlanTemplate is the typed template. Trigger is always present;
// Completion is nil when the stored target condition is absent or
// malformed. A malformed trigger disqualifies the whole template.
type ActionPlanTemplate struct {
	ID         string
	Type       string
	Goal       string
	Trigger    Condition
	Completion *Condition
}

// Parse decodes the raw template row. Templates with malformed trigger
// conditions are skipped by the caller, not treated as errors.
func (r ActionPlanTemplateRow) Parse() (ActionPlanTemplate, error) {
	trigger, err := ParseCondition(r.Condition)
	if err != nil {
		return ActionPlanTemplate{}, err
	}
	if trigger.Comparator != '<' {
		return ActionPlanTemplate{}, fmt.Errorf("trigger condition %q: expected '<'", r.Condition)
	}

	tpl := ActionPlanTemplate{ID: r.ID, Type: r.Type, Goal: r.Goal, Trigger: trigger}

	if r.TargetCondition != nil && *r.TargetCondition != "" {
		completion, err := ParseCondition(*r.TargetCondition)
		if err == nil && completion.Comparator == '>' {
			tpl.Completion = &completion
		}
	}

	return tpl, nil
}
