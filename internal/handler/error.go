package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/haatos/shipyard/internal/service"
	"github.com/labstack/echo/v4"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func ErrorHandler(err error, c echo.Context) {
	switch e := err.(type) {
	case *echo.HTTPError:
		c.Logger().Errorf(
			"handler internal error %s [%d]: %+v\n",
			c.Request().URL.Path, e.Code, e.Internal,
		)
		if err := c.JSON(e.Code, echo.Map{"message": e.Message}); err != nil {
			log.Printf("err returning json: %+v\n", err)
		}
	default:
		status, message := serviceErrorStatus(e)
		if status == http.StatusInternalServerError {
			c.Logger().Errorf("handler error: %+v\n", e)
		}
		if err := c.JSON(status, echo.Map{"message": message}); err != nil {
			log.Printf("err returning json: %+v\n", err)
		}
	}
}

// serviceErrorStatus maps the service error taxonomy onto status codes so
// every call site reports failures the same way.
func serviceErrorStatus(err error) (int, string) {
	var notFound *service.ErrNotFound
	if errors.As(err, &notFound) {
		return http.StatusNotFound, notFound.Error()
	}
	var invalidArg *service.ErrInvalidArgument
	if errors.As(err, &invalidArg) {
		return http.StatusBadRequest, invalidArg.Error()
	}
	var precondition *service.ErrPreconditionFailed
	if errors.As(err, &precondition) {
		return http.StatusPreconditionFailed, precondition.Error()
	}
	return http.StatusInternalServerError, "something went terribly wrong"
}

func isUniqueConstraintError(err error) bool {
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func isForeignKeyConstraintError(err error) bool {
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_TRIGGER ||
			sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

func newError(c echo.Context, err error, status int, message string) error {
	e := echo.NewHTTPError(status, message)
	if err != nil {
		e = e.WithInternal(err)
	}
	return e
}
