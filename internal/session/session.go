// Package session issues the opaque audit token handed out by POST
// /login. It is not a capability: nothing in the pipeline core validates
// or decodes it back, so it carries no signature.
package session

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// TTL is the lifetime of an issued session token.
const TTL = 3600 * time.Second

// Claims is the payload encoded into a session token.
type Claims struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// Token is the result of issuing a session: the opaque token string plus
// the claim values the caller echoes back in the /login response body.
type Token struct {
	Opaque    string
	TenantID  string
	UserID    string
	ExpiresIn int64
}

// clockNow is overridable in tests; it is the only place the package
// touches wall-clock time.
var clockNow = time.Now

// Issue builds a new opaque session token for the given tenant/user pair,
// defaulting both to "default" when the caller omits them.
func Issue(tenantID, userID string) (Token, error) {
	if tenantID == "" {
		tenantID = "default"
	}
	if userID == "" {
		userID = "default"
	}

	now := clockNow()
	claims := Claims{
		TenantID:  tenantID,
		UserID:    userID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(TTL).Unix(),
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return Token{}, err
	}

	return Token{
		Opaque:    base64.StdEncoding.EncodeToString(raw),
		TenantID:  tenantID,
		UserID:    userID,
		ExpiresIn: int64(TTL.Seconds()),
	}, nil
}

// Decode recovers the claims embedded in an opaque token. It exists for
// logging/audit tooling; the core pipeline never calls it.
func Decode(opaque string) (Claims, error) {
	raw, err := base64.StdEncoding.DecodeString(opaque)
	if err != nil {
		return Claims{}, err
	}
	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return Claims{}, err
	}
	return claims, nil
}
