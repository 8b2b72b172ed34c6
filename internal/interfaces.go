package internal

import "context"

// LinkResolver turns share URLs into direct links and metadata
type LinkResolver interface {
	ResolveLink(ctx context.Context, shareURL string, password *string) (string, error)
	ResolveInfo(ctx context.Context, shareURL string, password *string) (*FileInfo, error)
}

// SessionManager handles authentication and session state
type SessionManager interface {
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Token() (string, bool)
}

// TokenStore persists a session token between process runs
type TokenStore interface {
	LoadToken(account string) (string, bool, error)
	SaveToken(account, token string) error
	DeleteToken(account string) error
	Close() error
}
