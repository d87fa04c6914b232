// Package identity adapts bearer tokens issued by the identity provider into the
// user id and role the services act on. Credentials are never handled here.
package identity

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/Clark-Hu/movielists/internal/domain"
)

const (
	tokenIssuer   = "movielists-identity"
	tokenAudience = "movielists-api"

	keyBytesSize = 32
	keyHexSize   = 64
)

// Identity is the caller resolved from a request. The zero value is anonymous.
type Identity struct {
	UserID string
	Role   domain.Role
}

// Authenticated reports whether the identity carries a user id.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Tokens verifies (and, for tooling and tests, issues) PASETO v4.local tokens.
type Tokens struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
	now func() time.Time
}

// NewTokens creates a token codec from a 64 character hex key.
func NewTokens(keyHex string, ttl time.Duration) (*Tokens, error) {
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("token key must be exactly %d hex characters (%d bytes), got %d", keyHexSize, keyBytesSize, len(keyHex))
	}
	if _, err := hex.DecodeString(keyHex); err != nil {
		return nil, fmt.Errorf("invalid hex string for token key: %w", err)
	}
	key, err := paseto.V4SymmetricKeyFromHex(keyHex)
	if err != nil {
		return nil, fmt.Errorf("create symmetric key: %w", err)
	}
	return &Tokens{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue mints a token for userID with the given role.
func (t *Tokens) Issue(userID string, role domain.Role) (string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return "", fmt.Errorf("user id must be a UUID: %w", err)
	}
	if role == "" {
		role = domain.RoleUser
	}

	now := t.now()
	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(userID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(t.ttl))
	token.SetJti(uuid.NewString())
	if err := token.Set("user_id", userID); err != nil {
		return "", fmt.Errorf("set user_id claim: %w", err)
	}
	if err := token.Set("role", string(role)); err != nil {
		return "", fmt.Errorf("set role claim: %w", err)
	}

	return token.V4Encrypt(t.key, nil), nil
}

// Verify decrypts and validates a token and returns the identity it carries.
func (t *Tokens) Verify(raw string) (Identity, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(t.now()))

	token, err := parser.ParseV4Local(t.key, raw, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	userID, err := token.GetString("user_id")
	if err != nil {
		return Identity{}, fmt.Errorf("read user_id claim: %w", err)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return Identity{}, fmt.Errorf("user_id claim is not a UUID")
	}
	role, err := token.GetString("role")
	if err != nil {
		role = string(domain.RoleUser)
	}

	return Identity{UserID: userID, Role: domain.Role(role)}, nil
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, or the anonymous identity.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(contextKey{}).(Identity)
	return id
}

// UserID returns the caller's user id, empty when anonymous.
func UserID(ctx context.Context) string {
	return FromContext(ctx).UserID
}
