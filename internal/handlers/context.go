package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-recipe/backend/internal/repositories"
	"github.com/anonto42/nano-recipe/backend/pkg/logging"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the Firebase UID set by the auth middleware
func getUserIDFromContext(c echo.Context) string {
	uid, _ := c.Get("firebaseUID").(string)
	return uid
}

func requireUser(c echo.Context) (string, error) {
	uid := getUserIDFromContext(c)
	if uid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return uid, nil
}

func parseUintParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// lookupError maps a repository error to an HTTP error
func lookupError(err error, notFound string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// logCounterError logs a failed denormalized counter update; the primary write already succeeded
func logCounterError(c echo.Context, err error, id, field string) {
	if err != nil {
		logging.Ctx(c.Request().Context()).Warn().Err(err).
			Str("content_id", id).
			Str("field", field).
			Msg("counter update failed")
	}
}
