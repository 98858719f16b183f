package models

import "time"

// Domain is a hostname registered by a workspace. Only verified, non-archived
// domains can host program links.
type Domain struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"size:190;uniqueIndex:uk_domains_slug;not null" json:"slug"`
	WorkspaceID uint      `gorm:"not null;index:idx_domains_workspace_id" json:"workspace_id"`
	Verified    bool      `gorm:"not null;default:false" json:"verified"`
	Primary     bool      `gorm:"column:is_primary;not null;default:false" json:"primary"`
	Archived    bool      `gorm:"not null;default:false" json:"archived"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Domain) TableName() string { return "domains" }

// Usable reports whether links may be created on the domain
func (d *Domain) Usable() bool {
	return d.Verified && !d.Archived
}

type DomainFilter struct {
	ID          *uint
	Slug        *string
	WorkspaceID *uint
	Verified    *bool
	Archived    *bool
}
