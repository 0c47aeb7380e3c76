package webserver

import (
	"github.com/greenshelf/catalog/internal/app"
	"github.com/greenshelf/catalog/internal/domain"
	"github.com/labstack/echo/v4"
)

const (
	AppContextKey = "appctx"
	IdentityKey   = "identity"
	authErrorKey  = "auth_error"
)

// GetAppContext returns the application injected into every request.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(AppContextKey).(app.AppContext)
}

// CurrentIdentity returns the verified caller, or nil on unauthenticated routes.
func CurrentIdentity(c echo.Context) *domain.Identity {
	identity, _ := c.Get(IdentityKey).(*domain.Identity)
	return identity
}
