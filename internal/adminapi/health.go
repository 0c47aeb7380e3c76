package adminapi

import (
	"net/http"

	"github.com/greenshelf/catalog/internal/webserver"
	"github.com/labstack/echo/v4"
)

func registerHealthRoutes() {
	webserver.ApiGET("/health", health)
}

// @Summary liveness and database check
// @Tags System
// @Success 200 {object} map[string]interface{}
// @Router /api/health [get]
func health(c echo.Context) error {
	appCtx := GetAppContext(c)
	sqlDB, err := appCtx.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		return fail(c, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
	}
	return ok(c, map[string]interface{}{
		"status":         "ok",
		"runningImports": appCtx.Importer().Running(),
	})
}
