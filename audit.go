package identity

import (
	"context"
	"time"
)

// Audit event types emitted by the Engine.
const (
	AuditRegister             = "register"
	AuditLogin                = "login"
	AuditLogout               = "logout"
	AuditRefresh              = "refresh"
	AuditPasswordResetRequest = "password_reset_request"
	AuditPasswordResetConfirm = "password_reset_confirm"
	AuditEmailVerify          = "email_verify"
	AuditEmailVerifyResend    = "email_verify_resend"
	AuditStatusChange         = "status_change"
)

func (e *Engine) emitAudit(ctx context.Context, eventType, accountID, email string, success bool, opErr error, metadata map[string]string) {
	if e.auditDispatcher == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		event.Metadata["user_agent"] = ua
	}

	e.auditDispatcher.Emit(ctx, event)
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.auditDispatcher == nil {
		return 0
	}
	return e.auditDispatcher.Dropped()
}
