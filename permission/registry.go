package permission

import (
	"errors"
	"sort"
	"sync"
)

// Wildcard grants every permission, present and future. Reserved for
// administrative roles.
const Wildcard = "*"

// Permission names used by the engine and the default role seed. Callers may
// register arbitrary additional strings; these are the vocabulary the social
// backend ships with.
const (
	PermPostCreate    = "post:create"
	PermPostDeleteOwn = "post:delete_own"
	PermPostDeleteAny = "post:delete_any"
	PermCommentCreate = "comment:create"
	PermLikeCreate    = "like:create"
	PermUserBan       = "user:ban"
	PermUserVerify    = "user:verify"
	PermManageRoles   = "role:manage"
)

var (
	// ErrRoleNotFound is returned when the referenced role does not exist.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleExists is returned when creating a role whose name is taken.
	ErrRoleExists = errors.New("role already exists")
	// ErrNoWildcardRole is returned when a registry seed lacks an
	// all-access role.
	ErrNoWildcardRole = errors.New("seed must contain at least one wildcard role")
)

// Role is the external representation of a role record.
type Role struct {
	Name        string
	Description string
	Permissions []string
}

type roleRecord struct {
	description string
	perms       map[string]struct{}
	wildcard    bool
}

// Registry maps role names to permission sets. All methods are safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	roles map[string]*roleRecord
}

// NewRegistry builds a registry from seed roles. The seed must contain at
// least one role holding [Wildcard]; duplicate seed names are rejected.
func NewRegistry(seed []Role) (*Registry, error) {
	r := &Registry{
		roles: make(map[string]*roleRecord, len(seed)),
	}

	hasWildcard := false
	for _, role := range seed {
		if role.Name == "" {
			return nil, errors.New("role name cannot be empty")
		}
		if _, exists := r.roles[role.Name]; exists {
			return nil, errors.New("duplicate seed role: " + role.Name)
		}

		rec := newRecord(role)
		r.roles[role.Name] = rec
		if rec.wildcard {
			hasWildcard = true
		}
	}

	if !hasWildcard {
		return nil, ErrNoWildcardRole
	}

	return r, nil
}

// DefaultRoles returns the stock role seed of the social backend: a wildcard
// admin, a moderation role, and the default member role assigned at
// registration.
func DefaultRoles() []Role {
	return []Role{
		{
			Name:        "admin",
			Description: "Full administrative access",
			Permissions: []string{Wildcard},
		},
		{
			Name:        "moderator",
			Description: "Content moderation",
			Permissions: []string{
				PermPostCreate,
				PermPostDeleteOwn,
				PermPostDeleteAny,
				PermCommentCreate,
				PermLikeCreate,
				PermUserBan,
				PermUserVerify,
			},
		},
		{
			Name:        "user",
			Description: "Standard member",
			Permissions: []string{
				PermPostCreate,
				PermPostDeleteOwn,
				PermCommentCreate,
				PermLikeCreate,
			},
		},
	}
}

// Create adds a new role record. Fails with [ErrRoleExists] when the name is
// already registered.
func (r *Registry) Create(role Role) error {
	if role.Name == "" {
		return errors.New("role name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.roles[role.Name]; exists {
		return ErrRoleExists
	}

	r.roles[role.Name] = newRecord(role)
	return nil
}

// Update replaces the description and permission set of an existing role.
func (r *Registry) Update(role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.roles[role.Name]; !exists {
		return ErrRoleNotFound
	}

	r.roles[role.Name] = newRecord(role)
	return nil
}

// Delete removes a role record. Tokens already minted with that role keep
// verifying but fail every permission check afterwards.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.roles[name]; !exists {
		return ErrRoleNotFound
	}

	delete(r.roles, name)
	return nil
}

// PermissionsOf returns a sorted copy of the role's permission set, with the
// wildcard included verbatim when present.
func (r *Registry) PermissionsOf(name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.roles[name]
	if !ok {
		return nil, ErrRoleNotFound
	}

	perms := make([]string, 0, len(rec.perms)+1)
	if rec.wildcard {
		perms = append(perms, Wildcard)
	}
	for p := range rec.perms {
		perms = append(perms, p)
	}
	sort.Strings(perms)

	return perms, nil
}

// Has reports whether the named role grants perm, either by exact
// case-sensitive match or through the wildcard. An unknown role grants
// nothing.
func (r *Registry) Has(name, perm string) bool {
	if perm == "" {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.roles[name]
	if !ok {
		return false
	}
	if rec.wildcard {
		return true
	}

	_, granted := rec.perms[perm]
	return granted
}

// Exists reports whether the named role is registered.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.roles[name]
	return ok
}

// Roles returns all role records sorted by name.
func (r *Registry) Roles() []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Role, 0, len(r.roles))
	for name, rec := range r.roles {
		perms := make([]string, 0, len(rec.perms)+1)
		if rec.wildcard {
			perms = append(perms, Wildcard)
		}
		for p := range rec.perms {
			perms = append(perms, p)
		}
		sort.Strings(perms)

		out = append(out, Role{
			Name:        name,
			Description: rec.description,
			Permissions: perms,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of registered roles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roles)
}

func newRecord(role Role) *roleRecord {
	rec := &roleRecord{
		description: role.Description,
		perms:       make(map[string]struct{}, len(role.Permissions)),
	}

	for _, p := range role.Permissions {
		if p == Wildcard {
			rec.wildcard = true
			continue
		}
		if p == "" {
			continue
		}
		rec.perms[p] = struct{}{}
	}

	return rec
}
