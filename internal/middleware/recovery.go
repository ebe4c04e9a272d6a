package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
)

// Recover converts handler panics into 500 responses. The stack goes to
// the log, never to the client.
func Recover(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic recovered",
					slog.Any("panic", r),
					slog.String("path", c.Request().URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				err = apperror.NewInternal(fmt.Errorf("panic: %v", r))
			}
		}()
		return next(c)
	}
}
