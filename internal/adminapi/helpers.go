package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/greenshelf/catalog/internal/app"
	"github.com/greenshelf/catalog/internal/domain"
	"github.com/greenshelf/catalog/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Pagination is the paging block of list responses
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// PagedResponse wraps one page of rows
type PagedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

func GetAppContext(c echo.Context) app.AppContext {
	return webserver.GetAppContext(c)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

func paged(c echo.Context, data interface{}, total int64, page, limit int) error {
	return c.JSON(http.StatusOK, PagedResponse{
		Data: data,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: domain.TotalPages(total, limit),
		},
	})
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, webserver.ErrorBody{Error: code, Message: message})
}

// handleError translates a service error. Unclassified errors are logged and
// answered with a generic 500.
func handleError(c echo.Context, err error, action string) error {
	status, code := webserver.StatusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error(action,
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err))
		return fail(c, status, code, action)
	}
	return fail(c, status, code, err.Error())
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(domain.ErrInvalidInput, "%s must be a positive integer", name)
	}
	return id, nil
}

// parsePositiveQuery reads an optional positive integer query parameter.
func parsePositiveQuery(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, errors.Wrapf(domain.ErrInvalidInput, "%s must be a positive integer", name)
	}
	return v, nil
}

func parsePagination(c echo.Context) (page, limit int, err error) {
	if page, err = parsePositiveQuery(c, "page", defaultPage); err != nil {
		return 0, 0, err
	}
	if limit, err = parsePositiveQuery(c, "limit", defaultLimit); err != nil {
		return 0, 0, err
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, nil
}

// bindAndValidate binds the request body and runs the struct validator.
func bindAndValidate(c echo.Context, payload interface{}) error {
	if err := c.Bind(payload); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code != http.StatusBadRequest {
			return err
		}
		return errors.Wrap(domain.ErrInvalidInput, "request body is not valid JSON")
	}
	return c.Validate(payload)
}
