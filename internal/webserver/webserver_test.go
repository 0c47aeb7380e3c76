package webserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/greenshelf/catalog/config"
	"github.com/greenshelf/catalog/internal/app"
	"github.com/greenshelf/catalog/internal/auth"
	"github.com/greenshelf/catalog/internal/domain"
	"github.com/greenshelf/catalog/internal/testkit"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "webserver-secret"

func newTestApp(t *testing.T) *app.Application {
	t.Helper()
	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	cfg.Auth.Secret = testSecret
	cfg.Auth.BcryptCost = 4
	a := app.NewApplication(&cfg)
	require.NoError(t, a.OverrideDB(testkit.NewDB(t)))
	t.Cleanup(func() { _ = a.Importer().Release(time.Second) })
	return a
}

func newEcho(a app.AppContext) *echo.Echo {
	e := echo.New()
	e.JSONSerializer = &JSONSerializer{}
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, a)
			return next(c)
		}
	})
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"email": CurrentIdentity(c).Email})
	}, JWTAuth())
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("pq: password authentication failed for user postgres")
	})
	return e
}

func get(e *echo.Echo, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errors.Wrap(domain.ErrInvalidInput, "bad"), http.StatusBadRequest, "INVALID_INPUT"},
		{domain.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{errors.Wrap(domain.ErrForbidden, "expired"), http.StatusForbidden, "FORBIDDEN"},
		{errors.Wrapf(domain.ErrNotFound, "product %d", 3), http.StatusNotFound, "NOT_FOUND"},
		{errors.Wrap(domain.ErrConflict, "in use"), http.StatusConflict, "CONFLICT"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		status, code := StatusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestHTTPErrorHandler_HidesInternalDetail(t *testing.T) {
	e := newEcho(newTestApp(t))
	rec := get(e, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"INTERNAL_ERROR","message":"internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "postgres")

	rec = get(e, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"NOT_FOUND"`)
}

func TestJWTAuth(t *testing.T) {
	a := newTestApp(t)
	e := newEcho(a)
	ctx := context.Background()
	user, err := a.Credentials().Register(ctx, "gil@example.com", "long-password")
	require.NoError(t, err)
	token, err := a.Credentials().Login(ctx, "gil@example.com", "long-password")
	require.NoError(t, err)

	rec := get(e, "/me", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gil@example.com")

	rec = get(e, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"UNAUTHENTICATED"`)

	rec = get(e, "/me", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := auth.NewCredentialStore(nil, "someone-else", time.Hour, 4).Verify(token)
	assert.Nil(t, forged)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	otherKey := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	badSig, err := otherKey.SignedString([]byte("someone-else"))
	require.NoError(t, err)
	rec = get(e, "/me", "Bearer "+badSig)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"FORBIDDEN"`)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	rec = get(e, "/me", "Bearer "+expiredToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type signupPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidator_NamesJSONFields(t *testing.T) {
	err := NewValidator().Validate(&signupPayload{Email: "nope", Password: "short"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "password must be at least 8")

	assert.NoError(t, NewValidator().Validate(&signupPayload{Email: "a@b.co", Password: "12345678"}))
}

func TestJSONSerializer_RejectsBadBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	c := e.NewContext(req, httptest.NewRecorder())
	var v signupPayload
	err := (&JSONSerializer{}).Deserialize(c, &v)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadRequest, he.Code)
}
