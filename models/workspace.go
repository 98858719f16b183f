// Package models contains the persistent entities of the partner program service
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Workspace is the tenant that owns programs, folders, domains and links
type Workspace struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UUID             uuid.UUID       `gorm:"type:uuid;uniqueIndex:uk_workspaces_uuid;not null" json:"uuid"`
	Slug             string          `gorm:"size:100;uniqueIndex:uk_workspaces_slug;not null" json:"slug"`
	Name             string          `gorm:"size:190;not null" json:"name"`
	Plan             string          `gorm:"size:50;not null;default:'free'" json:"plan"`
	Store            json.RawMessage `gorm:"type:jsonb" json:"store,omitempty"`
	WebhookEnabled   bool            `gorm:"not null;default:false" json:"webhook_enabled"`
	InvoicePrefix    *string         `gorm:"size:32" json:"invoice_prefix,omitempty"`
	DefaultProgramID *string         `gorm:"size:64" json:"default_program_id,omitempty"`
	FoldersUsage     int             `gorm:"not null;default:0" json:"folders_usage"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Workspace) TableName() string { return "workspaces" }

// HasInvoicePrefix reports whether an invoice prefix was already assigned
func (w *Workspace) HasInvoicePrefix() bool {
	return w.InvoicePrefix != nil && *w.InvoicePrefix != ""
}

type WorkspaceFilter struct {
	ID   *uint
	UUID *uuid.UUID
	Slug *string
}

// Workspace member roles
const (
	WorkspaceRoleOwner  = "owner"
	WorkspaceRoleMember = "member"
)

// WorkspaceUser links a user to a workspace
type WorkspaceUser struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WorkspaceID uint      `gorm:"not null;uniqueIndex:uk_workspace_users_workspace_user" json:"workspace_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:uk_workspace_users_workspace_user;index:idx_workspace_users_user_id" json:"user_id"`
	Role        string    `gorm:"size:20;not null;default:'member'" json:"role"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (WorkspaceUser) TableName() string { return "workspace_users" }

type WorkspaceUserFilter struct {
	WorkspaceID *uint
	UserID      *uint
	Role        *string
}
