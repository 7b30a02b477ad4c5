package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-journeymate/config"
	"github.com/FACorreiaa/go-journeymate/internal/api"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

type contextKey string

const currentUserKey contextKey = "currentUser"

// SignInPath is where the UI sends anonymous users that try a protected action.
const SignInPath = "/signin"

// TokenParser turns a raw bearer token into an identity.
type TokenParser struct {
	cfg    config.JWTConfig
	parser *jwt.Parser
}

func NewTokenParser(cfg config.JWTConfig) *TokenParser {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &TokenParser{cfg: cfg, parser: jwt.NewParser(opts...)}
}

// Parse validates the token with the configured HMAC secret. Without a secret
// the claims are read unverified and the user is marked Unverified; the remote
// API still rejects forged tokens on every call that matters.
func (p *TokenParser) Parse(tokenString string) (*types.CurrentUser, error) {
	claims := &types.Claims{}
	if p.cfg.SecretKey == "" {
		if _, _, err := p.parser.ParseUnverified(tokenString, claims); err != nil {
			return nil, err
		}
		if exp := claims.ExpiresAt; exp != nil && exp.Before(time.Now()) {
			return nil, jwt.ErrTokenExpired
		}
	} else {
		token, err := p.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(p.cfg.SecretKey), nil
		})
		if err != nil {
			return nil, err
		}
		if !token.Valid {
			return nil, jwt.ErrTokenInvalidClaims
		}
	}

	if !api.VerifyAudience(claims.Audience, p.cfg.Audience) {
		return nil, jwt.ErrTokenInvalidAudience
	}
	user := claims.Identity(tokenString)
	if user == nil {
		return nil, errors.New("token carries no user id")
	}
	user.Unverified = p.cfg.SecretKey == ""
	return user, nil
}

// Identify attaches the bearer token's user to the request context. Requests
// without a usable token continue anonymously.
func Identify(logger *slog.Logger, parser *TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := parser.Parse(tokenString)
			if err != nil {
				logger.DebugContext(r.Context(), "Ignoring unusable bearer token",
					slog.String("middleware", "Identify"),
					slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithCurrentUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests. It runs after Identify.
func RequireAuth(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentUserFromContext(r.Context()); !ok {
				logger.WarnContext(r.Context(), "Rejecting anonymous request", slog.String("path", r.URL.Path))
				api.ErrorResponseWith(w, r, http.StatusUnauthorized, "Authentication required",
					map[string]any{"redirect": SignInPath})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithCurrentUser returns a copy of ctx carrying the user.
func WithCurrentUser(ctx context.Context, user *types.CurrentUser) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

// CurrentUserFromContext returns the user placed on the context by Identify.
func CurrentUserFromContext(ctx context.Context) (*types.CurrentUser, bool) {
	user, ok := ctx.Value(currentUserKey).(*types.CurrentUser)
	return user, ok && user != nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
