// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"

	"github.com/amirphl/orochi-partners/logging"
	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/repository"
	"github.com/amirphl/orochi-partners/utils"
)

// ClientMetadata holds client information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// auditEntry is what a flow records about one operation
type auditEntry struct {
	workspaceID uint
	userID      uint
	action      string
	description string
	success     bool
	errMsg      *string
	details     map[string]any
}

func createAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, entry auditEntry, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	var requestID *string
	if metadata != nil {
		if metadata.IPAddress != "" {
			ipAddress = metadata.IPAddress
		}
		userAgent = metadata.UserAgent
		if metadata.RequestID != "" {
			requestID = utils.ToPtr(metadata.RequestID)
		}
	}
	if requestID == nil {
		if v, ok := ctx.Value(utils.RequestIDKey).(string); ok && v != "" {
			requestID = &v
		}
	}

	audit := &models.AuditLog{
		Action:       entry.action,
		Description:  utils.ToPtr(entry.description),
		Success:      utils.ToPtr(entry.success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		RequestID:    requestID,
		ErrorMessage: entry.errMsg,
	}
	if entry.workspaceID != 0 {
		audit.WorkspaceID = utils.ToPtr(entry.workspaceID)
	}
	if entry.userID != 0 {
		audit.UserID = utils.ToPtr(entry.userID)
	}
	if len(entry.details) > 0 {
		if raw, err := json.Marshal(entry.details); err == nil {
			audit.Metadata = raw
		}
	}

	if err := auditRepo.Save(ctx, audit); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("action", entry.action).Msg("failed to write audit log")
		return err
	}
	return nil
}
