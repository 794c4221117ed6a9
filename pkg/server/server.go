package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/libraryms/libraryms/pkg/binder"
	"github.com/libraryms/libraryms/pkg/books"
	"github.com/libraryms/libraryms/pkg/borrows"
	"github.com/libraryms/libraryms/pkg/config"
	"github.com/libraryms/libraryms/pkg/envelope"
	"github.com/libraryms/libraryms/pkg/errcodes"
	"github.com/libraryms/libraryms/pkg/testutils"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e, err := newEcho(cfg, db)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(cfg.RequestBodyLimit))

	health.RegisterRoutes(e)
	e.GET("/", root)

	api := e.Group(cfg.APIPrefix)
	books.RegisterRoutesWithGroup(api.Group("/books"), db)
	borrows.RegisterRoutesWithGroup(api.Group("/borrow"), db)

	if cfg.Environment == "test" {
		testutils.RegisterRoutes(e, db)
	}

	h := errcodes.NewHandler()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// Unknown paths and unknown methods on known paths look the same to
		// clients.
		if errors.Is(err, echo.ErrNotFound) || errors.Is(err, echo.ErrMethodNotAllowed) {
			err = routeNotFound(c)
		}
		h.Handle(err, c)
	}

	return e, nil
}

func root(c echo.Context) error {
	return envelope.JSON(c, http.StatusOK, "Library Management System API is running!", nil)
}

func routeNotFound(c echo.Context) error {
	return errcodes.RouteNotFound(c.Request().Method, c.Request().RequestURI)
}
