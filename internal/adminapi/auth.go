package adminapi

import (
	"strconv"

	"github.com/greenshelf/catalog/internal/webserver"
	"github.com/labstack/echo/v4"
)

type credentialsPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func registerAuthRoutes() {
	webserver.ApiPOST("/register", register)
	webserver.ApiPOST("/login", login)
}

// @Summary register a user
// @Tags Auth
// @Param body body credentialsPayload true "Credentials"
// @Success 201 {object} map[string]string
// @Failure 409 {object} webserver.ErrorBody
// @Router /api/register [post]
func register(c echo.Context) error {
	var payload credentialsPayload
	if err := bindAndValidate(c, &payload); err != nil {
		return handleError(c, err, "Failed to register user")
	}
	user, err := GetAppContext(c).Credentials().Register(c.Request().Context(), payload.Email, payload.Password)
	if err != nil {
		return handleError(c, err, "Failed to register user")
	}
	// snowflake ids exceed the JavaScript safe integer range
	return created(c, map[string]string{"id": strconv.FormatInt(user.ID, 10), "email": user.Email})
}

// @Summary exchange credentials for a session token
// @Tags Auth
// @Param body body credentialsPayload true "Credentials"
// @Success 200 {object} map[string]string
// @Failure 401 {object} webserver.ErrorBody
// @Router /api/login [post]
func login(c echo.Context) error {
	var payload credentialsPayload
	if err := bindAndValidate(c, &payload); err != nil {
		return handleError(c, err, "Failed to login")
	}
	token, err := GetAppContext(c).Credentials().Login(c.Request().Context(), payload.Email, payload.Password)
	if err != nil {
		return handleError(c, err, "Failed to login")
	}
	return ok(c, map[string]string{"token": token})
}
