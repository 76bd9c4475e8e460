package socialauth

import (
	"context"
	"errors"
)

const (
	auditEventRegisterSuccess    = "register_success"
	auditEventRegisterDuplicate  = "register_duplicate"
	auditEventRegisterRejected   = "register_rejected"
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshInvalid     = "refresh_invalid"
	auditEventRefreshExpired     = "refresh_expired"
	auditEventRefreshRateLimited = "refresh_rate_limited"
	auditEventRefreshReuse       = "refresh_reuse_detected"
	auditEventLogout             = "logout"
	auditEventUserRevoked        = "user_sessions_revoked"
	auditEventPasswordUpgraded   = "password_hash_upgraded"
	auditEventRoleCreated        = "role_created"
	auditEventRoleUpdated        = "role_updated"
	auditEventRoleDeleted        = "role_deleted"
	auditEventRoleChangeDenied   = "role_change_denied"
)

// AuditErrorCode is the stable machine-readable error label carried in
// audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrAccountInactive    AuditErrorCode = "account_inactive"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrRefreshInvalid     AuditErrorCode = "refresh_invalid"
	auditErrRefreshExpired     AuditErrorCode = "refresh_expired"
	auditErrRefreshReuse       AuditErrorCode = "refresh_reuse"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrRoleNotFound       AuditErrorCode = "role_not_found"
	auditErrRoleExists         AuditErrorCode = "role_exists"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		ID:        newAuditID(),
		Timestamp: e.config.Now().UTC(),
		Event:     eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.emit(event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountInactive):
		return auditErrAccountInactive
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrLoginRateLimited), errors.Is(err, ErrRefreshRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrRefreshReuse):
		return auditErrRefreshReuse
	case errors.Is(err, ErrRefreshExpired):
		return auditErrRefreshExpired
	case errors.Is(err, ErrRefreshInvalid):
		return auditErrRefreshInvalid
	case errors.Is(err, ErrPermissionDenied):
		return auditErrForbidden
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenSignature),
		errors.Is(err, ErrTokenMalformed):
		return auditErrUnauthorized
	case errors.Is(err, ErrRoleNotFound):
		return auditErrRoleNotFound
	case errors.Is(err, ErrRoleExists):
		return auditErrRoleExists
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	default:
		return auditErrInternal
	}
}
