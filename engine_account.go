package socialauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nexfeed/socialauth/password"
)

// Register creates an account and logs it straight in, returning the same
// token pair Login would. Usernames are stored lowercase; the default role
// from the configuration is always assigned, never caller-chosen.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username == "" || email == "" {
		e.metricInc(MetricRegisterRejected)
		return nil, ErrRegistrationInvalid
	}

	if err := password.ValidateStrength(in.Password); err != nil {
		e.metricInc(MetricRegisterRejected)
		e.emitAudit(ctx, auditEventRegisterRejected, false, "", "", ErrPasswordPolicy, map[string]string{
			"username": username,
		})
		return nil, fmt.Errorf("%w: %s", ErrPasswordPolicy, err)
	}

	hash, err := e.passwordHash.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := e.userProvider.Create(ctx, CreateUserInput{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         e.config.DefaultRole,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", "", ErrAccountExists, map[string]string{
				"username": username,
			})
			return nil, ErrAccountExists
		}
		return nil, err
	}

	result, err := e.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, "", nil, nil)

	return result, nil
}
