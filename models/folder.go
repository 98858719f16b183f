package models

import "time"

// Folder access levels
const (
	FolderAccessWrite = "write"
	FolderAccessRead  = "read"
)

// FolderRoleOwner is granted to the user who created a folder
const FolderRoleOwner = "owner"

// Folder groups links inside a workspace. Names are unique per workspace.
type Folder struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:190;not null;uniqueIndex:uk_folders_name_workspace" json:"name"`
	WorkspaceID uint      `gorm:"not null;uniqueIndex:uk_folders_name_workspace;index:idx_folders_workspace_id" json:"workspace_id"`
	AccessLevel string    `gorm:"size:20;not null;default:'write'" json:"access_level"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Folder) TableName() string { return "folders" }

type FolderFilter struct {
	ID          *string
	Name        *string
	WorkspaceID *uint
}

// FolderUser grants a user a role on a folder
type FolderUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FolderID  string    `gorm:"size:64;not null;uniqueIndex:uk_folder_users_folder_user" json:"folder_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uk_folder_users_folder_user" json:"user_id"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (FolderUser) TableName() string { return "folder_users" }
