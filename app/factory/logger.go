package factory

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ctxKeyUserID = "user_id"
	ctxKeyRole   = "role"
)

func NewModuleLogger(module string) logrus.FieldLogger {
	return logrus.WithField("module", module)
}

// LoggerWithContext adds the request id and, when authenticated, the caller.
func LoggerWithContext(logger logrus.FieldLogger, ctx echo.Context) logrus.FieldLogger {
	fields := logrus.Fields{}

	requestID := strings.TrimSpace(ctx.Response().Header().Get(echo.HeaderXRequestID))
	if requestID == "" {
		requestID = strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	if userID, ok := ctx.Get(ctxKeyUserID).(string); ok && userID != "" {
		fields["user_id"] = userID
	}
	if role, ok := ctx.Get(ctxKeyRole).(string); ok && role != "" {
		fields["role"] = role
	}

	if len(fields) == 0 {
		return logger
	}
	return logger.WithFields(fields)
}
