package token

import (
	"context"
	"time"
)

// Identity is what the identity provider asserts about a bearer token.
type Identity struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// Repository resolves bearer tokens issued by the identity provider. Token
// issuance lives outside this service; we only validate.
type Repository interface {
	Get(ctx context.Context, token string) (*Identity, error)
	Delete(ctx context.Context, token string) error
}
