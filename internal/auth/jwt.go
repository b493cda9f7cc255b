package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rjsadow/ssehub/internal/plugins"
)

// Claims is the shape of tokens this provider accepts. An upstream issuer
// (outside this repository's scope, per spec §1) mints these; this
// provider only verifies and decodes them.
type Claims struct {
	jwt.RegisteredClaims
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// JWTProvider validates HMAC-signed bearer tokens against a shared
// secret.
type JWTProvider struct {
	secret []byte
}

func init() {
	plugins.RegisterGlobal("jwt", func() plugins.Plugin { return &JWTProvider{} })
}

func (p *JWTProvider) Name() string            { return "jwt" }
func (p *JWTProvider) Type() plugins.PluginType { return plugins.PluginTypeAuth }
func (p *JWTProvider) Version() string         { return "1.0.0" }
func (p *JWTProvider) Description() string     { return "HMAC JWT bearer token authenticator" }

// Initialize reads the required "jwt_secret" config key (at least 32
// bytes), mirroring the minimum-secret-length guard the teacher's JWT
// provider enforces.
func (p *JWTProvider) Initialize(ctx context.Context, config map[string]string) error {
	secret := config["jwt_secret"]
	if len(secret) < 32 {
		return fmt.Errorf("auth/jwt: jwt_secret must be at least 32 characters")
	}
	p.secret = []byte(secret)
	return nil
}

func (p *JWTProvider) Healthy(ctx context.Context) bool { return len(p.secret) > 0 }
func (p *JWTProvider) Close() error                     { return nil }

// Authenticate validates tokenString and maps its claims to a User. An
// empty token is treated as an anonymous, unauthenticated call rather
// than an error.
func (p *JWTProvider) Authenticate(ctx context.Context, tokenString string) (*plugins.AuthResult, error) {
	if tokenString == "" {
		return &plugins.AuthResult{Authenticated: false, Message: "no token provided"}, nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return &plugins.AuthResult{Authenticated: false, Message: "token expired"}, nil
		}
		return &plugins.AuthResult{Authenticated: false, Message: "invalid token"}, nil
	}
	if !token.Valid {
		return &plugins.AuthResult{Authenticated: false, Message: "invalid token"}, nil
	}

	var expiresAt *time.Time
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		expiresAt = &t
	}

	return &plugins.AuthResult{
		Authenticated: true,
		User: &plugins.User{
			ID:    claims.UserID,
			Roles: claims.Roles,
		},
		ExpiresAt: expiresAt,
	}, nil
}

var _ plugins.AuthProvider = (*JWTProvider)(nil)
