package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops.io/fieldops/internal/domain"
)

var testJWT = JWTConfig{
	SigningKey: []byte("test-signing-key-1234567890123456"),
	Issuer:     "fieldops",
	ExpiresIn:  time.Hour,
}

func TestJWTConfigValidateToken_Success(t *testing.T) {
	token, _, err := GenerateToken(testJWT, "tech-1", "", "Ana")
	require.NoError(t, err)

	claims, err := testJWT.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "tech-1", claims.TechID)
	assert.Empty(t, claims.DispatcherID)
	assert.Equal(t, "tech-1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.NotBefore)
}

func TestJWTConfigValidateToken_RejectsInvalidIssuer(t *testing.T) {
	token, _, err := GenerateToken(testJWT, "", "disp-1", "Sam")
	require.NoError(t, err)

	other := testJWT
	other.Issuer = "other-issuer"
	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestJWTConfigValidateToken_RejectsNoneSigningMethod(t *testing.T) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{
		TechID: "tech-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "fieldops",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testJWT.ValidateToken(tokenString)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWTConfigValidateToken_ActorClaims(t *testing.T) {
	both, _, err := GenerateToken(testJWT, "tech-1", "disp-1", "")
	require.NoError(t, err)
	_, err = testJWT.ValidateToken(both)
	assert.ErrorIs(t, err, ErrActorAmbiguous)

	neither, _, err := GenerateToken(testJWT, "", "", "")
	require.NoError(t, err)
	_, err = testJWT.ValidateToken(neither)
	assert.ErrorIs(t, err, ErrActorMissing)
}

func TestJWTConfigValidateToken_RequiresSigningKey(t *testing.T) {
	token, _, err := GenerateToken(testJWT, "tech-1", "", "")
	require.NoError(t, err)

	_, err = JWTConfig{Issuer: "fieldops"}.ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJWTSigningKeyMissing)

	_, _, err = GenerateToken(JWTConfig{}, "tech-1", "", "")
	assert.ErrorIs(t, err, ErrJWTSigningKeyMissing)
}

func TestJWTAuth(t *testing.T) {
	valid, _, err := GenerateToken(testJWT, "", "disp-7", "Sam")
	require.NoError(t, err)

	expiredCfg := testJWT
	expiredCfg.ExpiresIn = -time.Minute
	expired, _, err := GenerateToken(expiredCfg, "tech-1", "", "")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantErr    string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing authorization header"},
		{"bad scheme", "Basic abc", http.StatusUnauthorized, "invalid authorization header format"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "token expired"},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized, "invalid token"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.ActorContext
			router := gin.New()
			router.Use(JWTAuth(testJWT))
			router.GET("/jobs", func(c *gin.Context) {
				got = ActorFrom(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			req.Header.Set(ReasonHeader, "customer call")
			req.Header.Set("User-Agent", "dispatch-ui/1.0")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantErr != "" {
				assert.Contains(t, w.Body.String(), tt.wantErr)
				return
			}
			assert.Equal(t, "disp-7", got.DispatcherID)
			assert.Empty(t, got.TechID)
			assert.Equal(t, "customer call", got.Reason)
			assert.Equal(t, "dispatch-ui/1.0", got.UserAgent)
			assert.NotEmpty(t, got.IPAddress)
		})
	}
}

func TestActorFrom_DefaultsToSystem(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, ActorFrom(req.Context()).IsSystem())
}
