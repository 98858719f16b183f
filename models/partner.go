package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Partner is an external party that promotes programs
type Partner struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:190;not null" json:"name"`
	Email     string    `gorm:"size:255;not null;uniqueIndex:uk_partners_email" json:"email"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Partner) TableName() string { return "partners" }

type PartnerFilter struct {
	ID    *string
	Email *string
}

// EnrollmentStatus is the state of a partner inside a program
type EnrollmentStatus string

const (
	EnrollmentStatusInvited  EnrollmentStatus = "invited"
	EnrollmentStatusPending  EnrollmentStatus = "pending"
	EnrollmentStatusApproved EnrollmentStatus = "approved"
	EnrollmentStatusDeclined EnrollmentStatus = "declined"
	EnrollmentStatusBanned   EnrollmentStatus = "banned"
)

func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusInvited, EnrollmentStatusPending, EnrollmentStatusApproved,
		EnrollmentStatusDeclined, EnrollmentStatusBanned:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for EnrollmentStatus.
func (s *EnrollmentStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = EnrollmentStatus(v)
	case []byte:
		*s = EnrollmentStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into EnrollmentStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for EnrollmentStatus.
func (s EnrollmentStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid EnrollmentStatus: %s", s)
	}
	return string(s), nil
}

// ProgramEnrollment binds a partner to a program through its tracked link
type ProgramEnrollment struct {
	ID        string           `gorm:"primaryKey;size:64" json:"id"`
	ProgramID string           `gorm:"size:64;not null;uniqueIndex:uk_program_enrollments_program_partner" json:"program_id"`
	PartnerID string           `gorm:"size:64;not null;uniqueIndex:uk_program_enrollments_program_partner;index:idx_program_enrollments_partner_id" json:"partner_id"`
	LinkID    *string          `gorm:"size:64;uniqueIndex:uk_program_enrollments_link_id" json:"link_id,omitempty"`
	RewardID  *string          `gorm:"size:64" json:"reward_id,omitempty"`
	Status    EnrollmentStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt time.Time        `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time        `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (ProgramEnrollment) TableName() string { return "program_enrollments" }

type ProgramEnrollmentFilter struct {
	ID        *string
	ProgramID *string
	PartnerID *string
	Status    *EnrollmentStatus
}
