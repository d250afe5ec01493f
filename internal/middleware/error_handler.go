package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"payflow/internal/dto"
	"payflow/internal/services"
)

// statusText mirrors the HTTP status names used in the error envelope
var statusText = map[int]string{
	http.StatusBadRequest:          "BAD_REQUEST",
	http.StatusNotFound:            "NOT_FOUND",
	http.StatusConflict:            "CONFLICT",
	http.StatusBadGateway:          "BAD_GATEWAY",
	http.StatusInternalServerError: "INTERNAL_SERVER_ERROR",
	http.StatusMethodNotAllowed:    "METHOD_NOT_ALLOWED",
}

// ErrorHandler builds the echo error handler that renders every failure as
// the uniform ErrorDetails envelope: timestamp, status, error code, message
// and the originating path.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "something went wrong, please try again later"

		switch e := err.(type) {
		case *services.Error:
			code = statusForKind(e.Kind)
			message = e.Message
		case *echo.HTTPError:
			code = e.Code
			if msg, ok := e.Message.(string); ok && msg != "" {
				message = msg
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.Request().URL.Path),
				zap.Error(err))
		}

		name, ok := statusText[code]
		if !ok {
			name = http.StatusText(code)
		}

		details := dto.ErrorDetails{
			Timestamp: time.Now(),
			Status:    code,
			Error:     name,
			Message:   message,
			Path:      c.Request().URL.Path,
		}
		if jsonErr := c.JSON(code, details); jsonErr != nil {
			logger.Error("failed to render error response", zap.Error(jsonErr))
		}
	}
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation, services.KindInvalidArgument:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindInvalidState:
		return http.StatusConflict
	case services.KindProvider:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
