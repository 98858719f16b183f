package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// OnboardingStatus tracks the lifecycle of staged onboarding data
type OnboardingStatus string

const (
	OnboardingStatusPending  OnboardingStatus = "pending"
	OnboardingStatusConsumed OnboardingStatus = "consumed"
)

// Program types chosen during onboarding
const (
	ProgramTypeNew    = "new"
	ProgramTypeImport = "import"
)

// ProgramOnboarding stages the configuration of a workspace's first program
// until provisioning consumes it. There is at most one row per workspace.
type ProgramOnboarding struct {
	ID          uint                   `gorm:"primaryKey" json:"id"`
	WorkspaceID uint                   `gorm:"not null;uniqueIndex:uk_program_onboardings_workspace_id" json:"workspace_id"`
	Payload     *ProgramOnboardingData `gorm:"type:jsonb" json:"payload,omitempty"`
	Status      OnboardingStatus       `gorm:"size:20;not null;default:'pending'" json:"status"`
	ConsumedAt  *time.Time             `json:"consumed_at,omitempty"`
	CreatedAt   time.Time              `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time              `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (ProgramOnboarding) TableName() string { return "program_onboardings" }

// IsPending reports whether the row still holds data to provision from
func (o *ProgramOnboarding) IsPending() bool {
	return o.Status == OnboardingStatusPending && !o.Payload.IsEmpty()
}

type ProgramOnboardingFilter struct {
	ID          *uint
	WorkspaceID *uint
	Status      *OnboardingStatus
}

// ProgramOnboardingData is the schema of staged onboarding data
type ProgramOnboardingData struct {
	Name              string              `json:"name" validate:"required,min=1,max=190"`
	Logo              *string             `json:"logo,omitempty" validate:"omitempty,logo_source"`
	Domain            string              `json:"domain" validate:"required,hostname_rfc1123"`
	URL               string              `json:"url" validate:"required,web_url"`
	LinkStructure     LinkStructure       `json:"linkStructure" validate:"required,oneof=short query path"`
	ProgramType       *string             `json:"programType,omitempty" validate:"omitempty,oneof=new import"`
	Rewardful         *RewardfulImport    `json:"rewardful,omitempty"`
	DefaultRewardType string              `json:"defaultRewardType" validate:"required,oneof=sale lead"`
	Type              *string             `json:"type,omitempty" validate:"omitempty,oneof=flat percentage"`
	Amount            *int                `json:"amount,omitempty" validate:"omitempty,gte=0"`
	MaxDuration       *int                `json:"maxDuration,omitempty" validate:"omitempty,gte=0"`
	Partners          []OnboardingPartner `json:"partners,omitempty" validate:"omitempty,max=10,unique=Email,dive"`
	SupportEmail      *string             `json:"supportEmail,omitempty" validate:"omitempty,email"`
	HelpURL           *string             `json:"helpUrl,omitempty" validate:"omitempty,web_url"`
	TermsURL          *string             `json:"termsUrl,omitempty" validate:"omitempty,web_url"`
}

// RewardfulImport identifies a campaign to import from Rewardful
type RewardfulImport struct {
	ID                    string  `json:"id" validate:"required"`
	Affiliates            *int    `json:"affiliates,omitempty" validate:"omitempty,gte=0"`
	Commissions           *int    `json:"commissions,omitempty" validate:"omitempty,gte=0"`
	CommissionPercent     *int    `json:"commission_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	MaxCommissionDuration *int    `json:"max_commission_period,omitempty" validate:"omitempty,gte=0"`
	RewardType            *string `json:"reward_type,omitempty"`
}

// OnboardingPartner is a partner to invite once the program exists
type OnboardingPartner struct {
	Email string  `json:"email" validate:"required,email"`
	Key   *string `json:"key,omitempty" validate:"omitempty,max=190,link_key"`
	Name  *string `json:"name,omitempty" validate:"omitempty,max=190"`
}

// IsEmpty reports whether no onboarding data is present. A NULL column may be
// scanned into a zero value instead of a nil pointer.
func (d *ProgramOnboardingData) IsEmpty() bool {
	return d == nil || reflect.DeepEqual(*d, ProgramOnboardingData{})
}

// ApplyDefaults fills optional selections with their documented defaults
func (d *ProgramOnboardingData) ApplyDefaults() {
	if d.LinkStructure == "" {
		d.LinkStructure = LinkStructureShort
	}
	if d.DefaultRewardType == "" {
		d.DefaultRewardType = RewardEventSale
	}
}

// HasDefaultReward reports whether both a reward type and a non-zero amount
// were supplied.
func (d *ProgramOnboardingData) HasDefaultReward() bool {
	return d.Type != nil && *d.Type != "" && d.Amount != nil && *d.Amount > 0
}

// Value implements the driver.Valuer interface for ProgramOnboardingData.
func (d ProgramOnboardingData) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal onboarding data: %w", err)
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for ProgramOnboardingData.
func (d *ProgramOnboardingData) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into ProgramOnboardingData", value)
	}
	return json.Unmarshal(raw, d)
}

// ErrInvalidOnboardingPatch is returned when a step payload is not a JSON object
var ErrInvalidOnboardingPatch = errors.New("onboarding step must be a JSON object")

// MergeOnboardingData overlays the top-level keys of patch onto base. A null
// value removes the key. base may be nil.
func MergeOnboardingData(base *ProgramOnboardingData, patch json.RawMessage) (*ProgramOnboardingData, error) {
	current := map[string]json.RawMessage{}
	if base != nil {
		b, err := json.Marshal(base)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &current); err != nil {
			return nil, err
		}
	}

	var step map[string]json.RawMessage
	if err := json.Unmarshal(patch, &step); err != nil || step == nil {
		return nil, ErrInvalidOnboardingPatch
	}
	for k, v := range step {
		if string(v) == "null" {
			delete(current, k)
			continue
		}
		current[k] = v
	}

	merged, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	var out ProgramOnboardingData
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOnboardingPatch, err)
	}
	return &out, nil
}
