// Package webserver hosts the echo instance that serves the /api routes.
package webserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	_ "github.com/greenshelf/catalog/docs"
	"github.com/greenshelf/catalog/internal/app"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

const apiPrefix = "/api"

type route struct {
	method      string
	path        string
	handler     echo.HandlerFunc
	middlewares []echo.MiddlewareFunc
}

var (
	routesMu sync.Mutex
	routes   []route
)

func addRoute(method, path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	routesMu.Lock()
	defer routesMu.Unlock()
	routes = append(routes, route{method: method, path: path, handler: h, middlewares: m})
}

// ApiGET registers a GET route under /api
func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodGet, path, h, m...)
}

// ApiPOST registers a POST route under /api
func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPost, path, h, m...)
}

// ApiPUT registers a PUT route under /api
func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPut, path, h, m...)
}

// ApiPATCH registers a PATCH route under /api
func ApiPATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPatch, path, h, m...)
}

// ApiDELETE registers a DELETE route under /api
func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodDelete, path, h, m...)
}

type WebServer struct {
	root *echo.Echo
	addr string
}

// NewWebServer builds the echo instance and mounts every registered route.
func NewWebServer(appCtx app.AppContext) *WebServer {
	cfg := appCtx.Config()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.OFF)
	e.JSONSerializer = &JSONSerializer{}
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.Web.CorsOrigins,
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{echo.HeaderContentDisposition},
	}))
	if cfg.Web.MaxUploadMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Web.MaxUploadMB)))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, appCtx)
			return next(c)
		}
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group(apiPrefix)
	routesMu.Lock()
	for _, r := range routes {
		api.Add(r.method, r.path, r.handler, r.middlewares...)
	}
	routesMu.Unlock()

	return &WebServer{
		root: e,
		addr: net.JoinHostPort(cfg.Web.Host, strconv.Itoa(cfg.Web.Port)),
	}
}

func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

// Start blocks serving HTTP until Shutdown is called.
func (s *WebServer) Start() error {
	zap.S().Infof("catalog api listening on %s", s.addr)
	err := s.root.Start(s.addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}
