package webserver

import (
	"github.com/greenshelf/catalog/internal/domain"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// JWTAuth requires a bearer token. A missing or malformed token is answered
// with 401, a bad signature or expired token with 403.
func JWTAuth() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: IdentityKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			identity, err := GetAppContext(c).Credentials().Verify(auth)
			if err != nil {
				c.Set(authErrorKey, err)
				return nil, err
			}
			return identity, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if verr, ok := c.Get(authErrorKey).(error); ok {
				err = verr
			}
			if errors.Is(err, domain.ErrForbidden) {
				return domain.ErrForbidden
			}
			return domain.ErrUnauthenticated
		},
	})
}
