package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	BcryptCost = bcrypt.MinCost
	gin.SetMode(gin.TestMode)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.True(t, IsPasswordHash(hash))
	assert.True(t, CheckPassword("secret1", hash))
	assert.False(t, CheckPassword("wrong", hash))

	// legacy plaintext records
	assert.False(t, IsPasswordHash("secret1"))
	assert.True(t, CheckPassword("secret1", "secret1"))
	assert.False(t, CheckPassword("secret2", "secret1"))
	assert.False(t, CheckPassword("", ""))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("k", 42, "sess-1", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("k", token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	id, err := claims.CustomerID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("k", 1, "s", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("k", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	_, err := GenerateToken("", 1, "s", time.Hour)
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2024-03-05")
	require.True(t, ok)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.March, d.Month())

	ts, ok := ParseDate("2024-03-05T10:30:00Z")
	require.True(t, ok)
	assert.Equal(t, 10, ts.Hour())

	_, ok = ParseDate("yesterday")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)

	assert.Equal(t, "2024-03-05", FormatDate(d))
	assert.Equal(t, 3, DaysBetween(d, d.AddDate(0, 0, 3)))
}

func TestValidation(t *testing.T) {
	assert.True(t, ValidatePhone("+1 (555) 123-4567"))
	assert.False(t, ValidatePhone("12ab"))
	assert.True(t, ValidateEmail("ana@example.com"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.0001, 2)
	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	assert.True(t, rl.Allow("10.0.0.2"), "keys are limited independently")
}
