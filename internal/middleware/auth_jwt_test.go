package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inventory/internal/config"
	"inventory/internal/domain/model"
	"inventory/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test_secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	assert.NoError(t, err)
	return s
}

func doRequest(authz string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestAuthJWT_ValidToken(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	now := time.Now()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  int64(7),
		"role": "ADMIN",
		"tv":   3,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Minute).Unix(),
	})

	rec, c := doRequest("Bearer " + token)
	err := middleware.AuthJWT(cfg)(okHandler)(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), c.Get(middleware.CtxUserIDKey))
	assert.Equal(t, model.RoleAdmin, c.Get(middleware.CtxUserRoleKey))
	assert.Equal(t, 3, c.Get(middleware.CtxTokenVersionKey))
}

// roleクレームが既知のロールでなければ401。
func TestAuthJWT_UnknownRoleRejected(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	now := time.Now()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": int64(7), "role": "SUPERUSER", "tv": 0,
		"exp": now.Add(time.Minute).Unix(),
	})

	rec, c := doRequest("Bearer " + token)
	err := middleware.AuthJWT(cfg)(okHandler)(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_MissingHeader(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}

	rec, c := doRequest("")
	err := middleware.AuthJWT(cfg)(okHandler)(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	now := time.Now()

	token := signToken(t, "other_secret", jwt.MapClaims{
		"sub": int64(7), "role": "STAFF", "tv": 0,
		"exp": now.Add(time.Minute).Unix(),
	})

	rec, c := doRequest("Bearer " + token)
	err := middleware.AuthJWT(cfg)(okHandler)(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_ExpiredToken(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	now := time.Now()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": int64(7), "role": "STAFF", "tv": 0,
		"exp": now.Add(-time.Minute).Unix(),
	})

	rec, c := doRequest("Bearer " + token)
	err := middleware.AuthJWT(cfg)(okHandler)(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoleGuard(t *testing.T) {
	//ADMINは通る
	rec, c := doRequest("")
	c.Set(middleware.CtxUserRoleKey, model.RoleAdmin)
	err := middleware.AdminRoleGuard()(okHandler)(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	//STAFFは403
	rec, c = doRequest("")
	c.Set(middleware.CtxUserRoleKey, model.RoleStaff)
	err = middleware.AdminRoleGuard()(okHandler)(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	//roleなしは401
	rec, c = doRequest("")
	err = middleware.AdminRoleGuard()(okHandler)(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
