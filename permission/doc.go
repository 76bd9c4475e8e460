// Package permission provides the role registry used by socialauth
// authorization checks.
//
// # Model
//
// A role is a named record carrying a set of permission strings. Roles are
// administrative data, not a closed enumeration: they can be created, updated,
// and deleted at runtime. Permission strings are opaque, case-sensitive, and
// compared for exact match. A role holding [Wildcard] is granted every
// permission (the administrative role).
//
// # Bootstrapping invariant
//
// [NewRegistry] refuses a seed without at least one wildcard role: role
// mutations are themselves gated on PermManageRoles, so an all-access role
// must exist before any role can be changed.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import socialauth, jwt, or session.
//   - Interpret tokens or make authentication decisions.
package permission
