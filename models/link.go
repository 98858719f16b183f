package models

import (
	"fmt"
	"time"
)

// Link is a tracked short link on a workspace domain
type Link struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	WorkspaceID     uint      `gorm:"not null;index:idx_links_workspace_id" json:"workspace_id"`
	Domain          string    `gorm:"size:190;not null;uniqueIndex:uk_links_domain_key" json:"domain"`
	Key             string    `gorm:"size:190;not null;uniqueIndex:uk_links_domain_key" json:"key"`
	URL             string    `gorm:"type:text;not null" json:"url"`
	ShortLink       string    `gorm:"type:text;not null" json:"short_link"`
	ProgramID       *string   `gorm:"size:64;index:idx_links_program_id" json:"program_id,omitempty"`
	PartnerID       *string   `gorm:"size:64;index:idx_links_partner_id" json:"partner_id,omitempty"`
	TrackConversion bool      `gorm:"not null;default:false" json:"track_conversion"`
	FolderID        *string   `gorm:"size:64;index:idx_links_folder_id" json:"folder_id,omitempty"`
	CreatedBy       *uint     `json:"created_by,omitempty"`
	CreatedAt       time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_links_created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Link) TableName() string { return "links" }

// BuildShortLink renders the public short URL for a domain and key
func BuildShortLink(domain, key string) string {
	return fmt.Sprintf("https://%s/%s", domain, key)
}

type LinkFilter struct {
	ID          *string
	WorkspaceID *uint
	Domain      *string
	Key         *string
	ProgramID   *string
	PartnerID   *string
}
