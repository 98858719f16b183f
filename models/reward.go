package models

import "time"

// Reward events
const (
	RewardEventSale = "sale"
	RewardEventLead = "lead"
)

// Reward types
const (
	RewardTypeFlat       = "flat"
	RewardTypePercentage = "percentage"
)

// Reward is an incentive rule attached to a program. Amount is in cents for
// flat rewards and in percent for percentage rewards.
type Reward struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	ProgramID   string    `gorm:"size:64;not null;index:idx_rewards_program_id" json:"program_id"`
	Event       string    `gorm:"size:20;not null" json:"event"`
	Type        string    `gorm:"size:20;not null" json:"type"`
	Amount      int       `gorm:"not null" json:"amount"`
	MaxDuration *int      `json:"max_duration,omitempty"`
	Default     bool      `gorm:"column:is_default;not null;default:false" json:"default"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Reward) TableName() string { return "rewards" }

type RewardFilter struct {
	ID        *string
	ProgramID *string
	Default   *bool
}
