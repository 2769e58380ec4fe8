package goAccess

import (
	"io"

	"github.com/MrEthical07/goAccess/internal/audit"
	"go.uber.org/zap"
)

// AuditEvent records one attempted console mutation.
type AuditEvent = audit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// ZapSink logs audit events.
type ZapSink = audit.ZapSink

func NewChannelSink(buffer int) *ChannelSink { return audit.NewChannelSink(buffer) }

func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }

func NewZapSink(logger *zap.Logger) *ZapSink { return audit.NewZapSink(logger) }

const (
	auditEventLogin                = "login"
	auditEventLogout               = "logout"
	auditEventTokenExpired         = "token_expired_logout"
	auditEventTokenRefreshed       = "token_refreshed"
	auditEventProfileUpdated       = "profile_updated"
	auditEventPermissionCreated    = "permission_created"
	auditEventPermissionUpdated    = "permission_updated"
	auditEventPermissionRemoved    = "permission_removed"
	auditEventRoleCreated          = "role_created"
	auditEventRoleUpdated          = "role_updated"
	auditEventRoleDeleted          = "role_deleted"
	auditEventRolePermissions      = "role_permissions_assigned"
	auditEventRoleUserCountChanged = "role_user_count_changed"
	auditEventAccessDenied         = "access_denied"
)
