package presenter

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"

	"github.com/foodielens/dishbook"
	"github.com/foodielens/dishbook/internal/domain"
)

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequestMessage(c echo.Context, msg string, fields ...string) error {
	return c.JSON(http.StatusBadRequest, dishbook.ErrorResponse{Error: msg, Fields: fields})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, dishbook.ErrorResponse{Error: msg})
}

func Unavailable(c echo.Context, msg string) error {
	return c.JSON(http.StatusServiceUnavailable, dishbook.ErrorResponse{Error: msg})
}

// Error maps a usecase error onto its status code and body.
func Error(c echo.Context, err error) error {
	var verr domain.ValidationError
	var perr domain.PersistenceError

	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, dishbook.ErrorResponse{
			Error:  err.Error(),
			Fields: verr.Fields,
		})
	case errors.As(err, &perr):
		logError(c, "record not persisted", err)
		return c.JSON(http.StatusServiceUnavailable, dishbook.ErrorResponse{
			Error: "asset saved but record not recorded",
			Asset: dishbook.ComposeAssetRef(perr.Asset),
		})
	case errors.Is(err, domain.ErrUpload):
		logError(c, "asset upload failed", err)
		return c.JSON(http.StatusBadGateway, dishbook.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return NotFound(c, err.Error())
	default:
		return InternalError(c, err)
	}
}

func InternalError(c echo.Context, err error) error {
	logError(c, "internal error", err)
	return c.JSON(http.StatusInternalServerError, dishbook.ErrorResponse{Error: err.Error()})
}

func logError(c echo.Context, msg string, err error) {
	ctx := c.Request().Context()
	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("path", c.Path()),
		slog.String("module", "rest"),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		attrs = append(attrs, slog.String("traceID", sc.TraceID().String()))
	}
	slog.ErrorContext(ctx, msg, attrs...)
}
