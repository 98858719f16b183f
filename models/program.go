package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DefaultCookieLength is the attribution window in days for new programs
const DefaultCookieLength = 90

// LinkStructure is the naming strategy for partner tracked URLs
type LinkStructure string

const (
	LinkStructureShort LinkStructure = "short"
	LinkStructureQuery LinkStructure = "query"
	LinkStructurePath  LinkStructure = "path"
)

// Valid checks if the link structure is known.
func (s LinkStructure) Valid() bool {
	switch s {
	case LinkStructureShort, LinkStructureQuery, LinkStructurePath:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for LinkStructure.
func (s *LinkStructure) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = LinkStructure(v)
	case []byte:
		*s = LinkStructure(string(v))
	default:
		return fmt.Errorf("cannot scan %T into LinkStructure", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for LinkStructure.
func (s LinkStructure) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid LinkStructure: %s", s)
	}
	return string(s), nil
}

// Program is an affiliate program owned by a workspace
type Program struct {
	ID              string        `gorm:"primaryKey;size:64" json:"id"`
	WorkspaceID     uint          `gorm:"not null;index:idx_programs_workspace_id" json:"workspace_id"`
	Name            string        `gorm:"size:190;not null" json:"name"`
	Slug            string        `gorm:"size:100;not null;index:idx_programs_slug" json:"slug"`
	Domain          string        `gorm:"size:190;not null" json:"domain"`
	URL             string        `gorm:"type:text;not null" json:"url"`
	CookieLength    int           `gorm:"not null;default:90" json:"cookie_length"`
	DefaultFolderID *string       `gorm:"size:64" json:"default_folder_id,omitempty"`
	LinkStructure   LinkStructure `gorm:"size:20;not null;default:'short'" json:"link_structure"`
	SupportEmail    *string       `gorm:"size:255" json:"support_email,omitempty"`
	HelpURL         *string       `gorm:"type:text" json:"help_url,omitempty"`
	TermsURL        *string       `gorm:"type:text" json:"terms_url,omitempty"`
	Logo            *string       `gorm:"type:text" json:"logo,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Program) TableName() string { return "programs" }

type ProgramFilter struct {
	ID          *string
	WorkspaceID *uint
	Slug        *string
	Domain      *string
}
