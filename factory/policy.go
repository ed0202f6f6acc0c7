/*
Package factory provides JSON to Go accrual policy conversion.

PURPOSE:
  Converts an HR-editable JSON policy file into a leave.AccrualPolicy.
  The accrual numbers change by agreement, not by release, so they live
  outside the binary.

JSON SCHEMA:
  {
    "id": "uy-2025",
    "name": "Convenio 2025",
    "base_days": 20,
    "days_in_year": 365,
    "seniority": {
      "start_years": 5,
      "step_years": 4
    }
  }

  Omitted numbers fall back to leave.DefaultAccrualPolicy().

USAGE:
  f := factory.NewPolicyFactory()
  policy, err := f.ParsePolicy(jsonString)

  // or, from disk (config LEAVE_POLICY_FILE)
  policy, err := f.LoadPolicyFile("./policy.json")

SEE ALSO:
  - leave/accrual.go: AccrualPolicy and the calculator using it
  - config/config.go: Where the file path comes from
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of an accrual policy.
type PolicyJSON struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name,omitempty"`
	BaseDays   *int           `json:"base_days,omitempty" validate:"omitempty,gte=0,lte=366"`
	DaysInYear *int           `json:"days_in_year,omitempty" validate:"omitempty,gte=365,lte=366"`
	Seniority  *SeniorityJSON `json:"seniority,omitempty"`
}

// SeniorityJSON configures the seniority bonus step function.
type SeniorityJSON struct {
	StartYears *int `json:"start_years,omitempty" validate:"omitempty,gte=0"`
	StepYears  *int `json:"step_years,omitempty" validate:"omitempty,gt=0"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policies to leave.AccrualPolicy.
type PolicyFactory struct {
	validate *validator.Validate
}

func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{validate: validator.New()}
}

// ParsePolicy parses a JSON string into an AccrualPolicy.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (leave.AccrualPolicy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return leave.AccrualPolicy{}, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// LoadPolicyFile reads and parses the policy at path.
func (f *PolicyFactory) LoadPolicyFile(path string) (leave.AccrualPolicy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return leave.AccrualPolicy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return f.ParsePolicy(string(b))
}

// FromJSON overlays pj on the default policy and validates the result.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (leave.AccrualPolicy, error) {
	if err := f.validate.Struct(pj); err != nil {
		return leave.AccrualPolicy{}, fmt.Errorf("invalid policy: %w", err)
	}

	p := leave.DefaultAccrualPolicy()
	if pj.BaseDays != nil {
		p.BaseDays = *pj.BaseDays
	}
	if pj.DaysInYear != nil {
		p.DaysInYear = *pj.DaysInYear
	}
	if s := pj.Seniority; s != nil {
		if s.StartYears != nil {
			p.SeniorityStartYears = *s.StartYears
		}
		if s.StepYears != nil {
			p.SeniorityStepYears = *s.StepYears
		}
	}

	if err := p.Validate(); err != nil {
		return leave.AccrualPolicy{}, err
	}
	return p, nil
}

// ToJSON converts a policy to its fully populated JSON form.
func (f *PolicyFactory) ToJSON(id, name string, p leave.AccrualPolicy) PolicyJSON {
	return PolicyJSON{
		ID:         id,
		Name:       name,
		BaseDays:   &p.BaseDays,
		DaysInYear: &p.DaysInYear,
		Seniority: &SeniorityJSON{
			StartYears: &p.SeniorityStartYears,
			StepYears:  &p.SeniorityStepYears,
		},
	}
}
