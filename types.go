package socialauth

import "context"

// UserRecord is the engine's view of an account. Providers own everything
// else about a user; the engine only reads what authentication needs.
type UserRecord struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
}

// CreateUserInput is what a provider needs to persist a new account. The
// password hash is already computed; providers never see plaintext.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

// UserProvider is the persistence boundary for accounts. Implementations
// must return [ErrUserNotFound] for unknown identifiers and
// [ErrAccountExists] for uniqueness violations on Create.
type UserProvider interface {
	// FindByIdentifier resolves a login identifier (email or username) to a
	// user record.
	FindByIdentifier(ctx context.Context, identifier string) (*UserRecord, error)

	// FindByID resolves a stable user id, as carried in tokens and sessions.
	FindByID(ctx context.Context, id string) (*UserRecord, error)

	// Create persists a new account and returns the stored record with
	// its assigned ID.
	Create(ctx context.Context, in CreateUserInput) (*UserRecord, error)

	// UpdatePasswordHash replaces the stored hash, used for transparent
	// parameter upgrades on login.
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// RegisterInput carries a registration request. Username is lowercased by
// the engine before storage.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is the successful outcome of Register, Login, and Refresh: a
// signed access token plus the opaque refresh token that continues the
// lineage.
type LoginResult struct {
	UserID       string
	Username     string
	Role         string
	AccessToken  string
	RefreshToken string
}

// AuthResult is a verified identity as derived from an access token. The
// permission snapshot reflects the role registry at validation time, not at
// token issuance.
type AuthResult struct {
	UserID      string
	Role        string
	SessionID   string
	Permissions []string
}
