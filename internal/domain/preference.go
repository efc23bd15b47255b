package domain

import (
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

type WorkoutPreferences struct {
	PreferredTime    string   `json:"preferred_time,omitempty"`
	PreferredDays    []string `json:"preferred_days"`
	AvoidedExercises []string `json:"avoided_exercises"`
}

type NutritionPreferences struct {
	DietaryRestrictions []string `json:"dietary_restrictions"`
	Allergies           []string `json:"allergies"`
}

type CommunicationStyle struct {
	PreferredTone string `json:"preferred_tone,omitempty"`
}

type BodyConstraint struct {
	Restrictions []string `json:"restrictions"`
	Severity     Severity `json:"severity"`
}

// PreferenceProfile is the per-user derived preference record.
// It is upserted incrementally as new facts arrive.
type PreferenceProfile struct {
	UserID               uuid.UUID                 `json:"user_id"`
	WorkoutPreferences   WorkoutPreferences        `json:"workout_preferences"`
	NutritionPreferences NutritionPreferences      `json:"nutrition_preferences"`
	CommunicationStyle   CommunicationStyle        `json:"communication_style"`
	Constraints          map[string]BodyConstraint `json:"constraints"`
	Motivators           []string                  `json:"motivators"`
	UpdatedAt            time.Time                 `json:"updated_at"`
}

// NewPreferenceProfile returns an empty profile with every collection initialized.
func NewPreferenceProfile(userID uuid.UUID) *PreferenceProfile {
	p := &PreferenceProfile{UserID: userID}
	p.Normalize()
	return p
}

// Normalize replaces nil collections with empty ones.
func (p *PreferenceProfile) Normalize() {
	if p.WorkoutPreferences.PreferredDays == nil {
		p.WorkoutPreferences.PreferredDays = []string{}
	}
	if p.WorkoutPreferences.AvoidedExercises == nil {
		p.WorkoutPreferences.AvoidedExercises = []string{}
	}
	if p.NutritionPreferences.DietaryRestrictions == nil {
		p.NutritionPreferences.DietaryRestrictions = []string{}
	}
	if p.NutritionPreferences.Allergies == nil {
		p.NutritionPreferences.Allergies = []string{}
	}
	if p.Constraints == nil {
		p.Constraints = map[string]BodyConstraint{}
	}
	if p.Motivators == nil {
		p.Motivators = []string{}
	}
}
