package session

// Session is one refresh-token lineage for a user. The RefreshHash is the
// sha256 of the currently valid refresh secret; redeeming rotates it and
// advances Generation.
type Session struct {
	SessionID   string
	UserID      string
	Role        string
	RefreshHash [32]byte
	Generation  int64
	CreatedAt   int64
	ExpiresAt   int64
}
