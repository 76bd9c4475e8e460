package socialauth

import (
	"context"

	"github.com/nexfeed/socialauth/permission"
)

// ListRoles returns the live role set. Reading roles is not gated; mutation
// is.
func (e *Engine) ListRoles() []permission.Role {
	if e == nil || e.registry == nil {
		return nil
	}
	return e.registry.Roles()
}

// CreateRole adds a role at runtime. The caller's access token must carry
// the role-management permission.
func (e *Engine) CreateRole(ctx context.Context, accessToken string, role permission.Role) error {
	actor, err := e.requireRoleManager(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := e.registry.Create(role); err != nil {
		return err
	}

	e.metricInc(MetricRoleCreated)
	e.emitAudit(ctx, auditEventRoleCreated, true, actor.UserID, actor.SessionID, nil, map[string]string{
		"role": role.Name,
	})

	return nil
}

// UpdateRole replaces a role's description and permission set.
func (e *Engine) UpdateRole(ctx context.Context, accessToken string, role permission.Role) error {
	actor, err := e.requireRoleManager(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := e.registry.Update(role); err != nil {
		return err
	}

	e.metricInc(MetricRoleUpdated)
	e.emitAudit(ctx, auditEventRoleUpdated, true, actor.UserID, actor.SessionID, nil, map[string]string{
		"role": role.Name,
	})

	return nil
}

// DeleteRole removes a role. Tokens already minted for it keep validating
// but resolve to an empty permission set.
func (e *Engine) DeleteRole(ctx context.Context, accessToken, name string) error {
	actor, err := e.requireRoleManager(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := e.registry.Delete(name); err != nil {
		return err
	}

	e.metricInc(MetricRoleDeleted)
	e.emitAudit(ctx, auditEventRoleDeleted, true, actor.UserID, actor.SessionID, nil, map[string]string{
		"role": name,
	})

	return nil
}

// requireRoleManager authenticates the caller and checks the
// role-management grant. An unverifiable token is ErrUnauthorized; a valid
// identity without the grant is ErrPermissionDenied.
func (e *Engine) requireRoleManager(ctx context.Context, accessToken string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	actor, err := e.Validate(ctx, accessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !e.registry.Has(actor.Role, permission.PermManageRoles) {
		e.emitAudit(ctx, auditEventRoleChangeDenied, false, actor.UserID, actor.SessionID, ErrPermissionDenied, nil)
		return nil, ErrPermissionDenied
	}

	return actor, nil
}
