package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
)

var errBadID = apperror.NewValidation("invalid id")

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// HTTPErrorHandler renders every error through the response envelope.
// AppErrors keep their status, type and meta; anything else becomes an
// opaque 500. Server-side failures log at error level with the cause,
// client mistakes at warn.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			// Router-level errors: 404 on unknown paths, 405 and the like.
			msg := http.StatusText(httpErr.Code)
			if s, ok := httpErr.Message.(string); ok {
				msg = s
			}
			appErr = &apperror.AppError{Code: httpErr.Code, Type: "http_error", Message: msg}
		} else {
			appErr = apperror.NewInternal(err)
		}
	}

	if appErr.Code >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("path", c.Request().URL.Path),
			slog.Int("status", appErr.Code),
			slog.Any("error", err),
		)
	} else {
		slog.Warn("request rejected",
			slog.String("path", c.Request().URL.Path),
			slog.Int("status", appErr.Code),
			slog.String("type", appErr.Type),
		)
	}

	env := Envelope{
		Success: false,
		Message: appErr.Message,
		Errors:  []errorDetail{{Type: appErr.Type, Message: appErr.Message}},
	}
	if len(appErr.Meta) > 0 {
		env.Data = appErr.Meta
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(appErr.Code)
	} else {
		err = c.JSON(appErr.Code, env)
	}
	if err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
	}
}
