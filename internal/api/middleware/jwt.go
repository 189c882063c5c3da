package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fieldops.io/fieldops/internal/domain"
)

// ReasonHeader carries an optional free-text reason recorded on audit entries.
const ReasonHeader = "X-Change-Reason"

var (
	// ErrJWTSigningKeyMissing is returned when no key is configured.
	ErrJWTSigningKeyMissing = errors.New("jwt signing key is not configured")
	// ErrActorAmbiguous is returned for tokens naming both a technician and a dispatcher.
	ErrActorAmbiguous = errors.New("token names both a technician and a dispatcher")
	// ErrActorMissing is returned for tokens naming neither.
	ErrActorMissing = errors.New("token names neither a technician nor a dispatcher")
)

// JWTClaims defines the fieldops token claims. Exactly one of TechID and
// DispatcherID is set.
type JWTClaims struct {
	TechID       string `json:"tech_id,omitempty"`
	DispatcherID string `json:"dispatcher_id,omitempty"`
	Name         string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT signing configuration.
type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	ExpiresIn  time.Duration
}

// GenerateToken creates a signed token for a technician or a dispatcher.
func GenerateToken(cfg JWTConfig, techID, dispatcherID, name string) (string, time.Time, error) {
	if len(cfg.SigningKey) == 0 {
		return "", time.Time{}, ErrJWTSigningKeyMissing
	}
	now := time.Now()
	expiresAt := now.Add(cfg.ExpiresIn)

	subject := techID
	if subject == "" {
		subject = dispatcherID
	}
	claims := JWTClaims{
		TechID:       techID,
		DispatcherID: dispatcherID,
		Name:         name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    cfg.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken parses tokenString and checks its signature, issuer and actor claims.
func (cfg JWTConfig) ValidateToken(tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if len(cfg.SigningKey) == 0 {
			return nil, ErrJWTSigningKeyMissing
		}
		return cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	switch {
	case claims.TechID != "" && claims.DispatcherID != "":
		return nil, ErrActorAmbiguous
	case claims.TechID == "" && claims.DispatcherID == "":
		return nil, ErrActorMissing
	}
	return claims, nil
}

// JWTAuth returns a Gin middleware that validates Bearer tokens and stores
// the request's actor in the context.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := cfg.ValidateToken(parts[1])
		if err != nil {
			msg := "invalid token"
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				msg = "token expired"
			case errors.Is(err, ErrActorAmbiguous), errors.Is(err, ErrActorMissing):
				msg = err.Error()
			}
			abortUnauthorized(c, msg)
			return
		}

		actor := domain.ActorContext{
			TechID:       claims.TechID,
			DispatcherID: claims.DispatcherID,
			Reason:       strings.TrimSpace(c.GetHeader(ReasonHeader)),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}
		c.Set(string(ctxKeyActor), actor)
		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"err":  msg,
		"code": "UNAUTHORIZED",
	})
}

// WithActor stores the authenticated actor in ctx.
func WithActor(ctx context.Context, actor domain.ActorContext) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// ActorFrom returns the authenticated actor, or the system actor when the
// request was not authenticated.
func ActorFrom(ctx context.Context) domain.ActorContext {
	if v, ok := ctx.Value(ctxKeyActor).(domain.ActorContext); ok {
		return v
	}
	return domain.ActorContext{}
}
