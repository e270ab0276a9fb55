// Package token provides the fixed OpenID Connect token response served by the
// identity manager stub.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessToken is an unsigned JWT whose claims are
// {"exp": 32503680000, "preferred_username": "test"}.
const DefaultAccessToken = "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9.eyJleHAiOiAzMjUwMzY4MDAwMCwgInByZWZlcnJlZF91c2VybmFtZSI6ICJ0ZXN0In0K.dGVzdAo"

// Response is the token endpoint payload.
type Response struct {
	AccessToken      string `json:"access_token" yaml:"accessToken,omitempty"`
	ExpiresIn        int    `json:"expires_in" yaml:"expiresIn,omitempty"`
	RefreshExpiresIn int    `json:"refresh_expires_in" yaml:"refreshExpiresIn,omitempty"`
	RefreshToken     string `json:"refresh_token" yaml:"refreshToken,omitempty"`
	TokenType        string `json:"token_type" yaml:"tokenType,omitempty"`
	IDToken          string `json:"id_token" yaml:"idToken,omitempty"`
	NotBeforePolicy  int    `json:"not-before-policy" yaml:"notBeforePolicy,omitempty"`
	SessionState     string `json:"session_state" yaml:"sessionState,omitempty"`
	Scope            string `json:"scope" yaml:"scope,omitempty"`
}

// Default returns the payload served when no override is configured.
func Default() Response {
	return Response{
		AccessToken:      DefaultAccessToken,
		ExpiresIn:        300,
		RefreshExpiresIn: 2,
		RefreshToken:     "token2",
		TokenType:        "Bearer",
		IDToken:          "token3",
		NotBeforePolicy:  3,
		SessionState:     "efffca5t4",
		Scope:            "test profile",
	}
}

// Merge returns r with every non-zero field of override applied.
func (r Response) Merge(override Response) Response {
	if override.AccessToken != "" {
		r.AccessToken = override.AccessToken
	}
	if override.ExpiresIn != 0 {
		r.ExpiresIn = override.ExpiresIn
	}
	if override.RefreshExpiresIn != 0 {
		r.RefreshExpiresIn = override.RefreshExpiresIn
	}
	if override.RefreshToken != "" {
		r.RefreshToken = override.RefreshToken
	}
	if override.TokenType != "" {
		r.TokenType = override.TokenType
	}
	if override.IDToken != "" {
		r.IDToken = override.IDToken
	}
	if override.NotBeforePolicy != 0 {
		r.NotBeforePolicy = override.NotBeforePolicy
	}
	if override.SessionState != "" {
		r.SessionState = override.SessionState
	}
	if override.Scope != "" {
		r.Scope = override.Scope
	}
	return r
}

// Claims holds the access token claims clients look at.
type Claims struct {
	Username  string
	ExpiresAt time.Time
}

// ErrNotJWT is returned by ParseClaims for access tokens that are not JWTs.
var ErrNotJWT = errors.New("access token is not a JWT")

// ParseClaims decodes the claims of a JWT access token without verifying its
// signature. The stub never signs tokens; clients under test only decode them.
func ParseClaims(accessToken string) (*Claims, error) {
	var mc jwt.MapClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &mc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	c := &Claims{}
	if name, ok := mc["preferred_username"].(string); ok {
		c.Username = name
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}
	if exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
