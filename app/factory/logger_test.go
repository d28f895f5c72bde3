package factory

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func TestNewModuleLogger(t *testing.T) {
	logger := NewModuleLogger("reservations-controller")
	if logger == nil {
		t.Fatal("expected logger")
	}
}

func TestLoggerWithContextAddsRequestID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	logger := LoggerWithContext(NewModuleLogger("reservations-controller"), ctx)
	if logger == nil {
		t.Fatal("expected logger with context")
	}
}

func TestLoggerWithContextAddsCaller(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/reservations", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Response().Header().Set(echo.HeaderXRequestID, "req-456")
	ctx.Set("user_id", "42")
	ctx.Set("role", "admin")

	logger := LoggerWithContext(NewModuleLogger("reservations-controller"), ctx)
	entry, ok := logger.(*logrus.Entry)
	if !ok {
		t.Fatalf("expected *logrus.Entry, got %T", logger)
	}
	if entry.Data["request_id"] != "req-456" || entry.Data["user_id"] != "42" || entry.Data["role"] != "admin" {
		t.Fatalf("unexpected fields: %+v", entry.Data)
	}
	if entry.Data["module"] != "reservations-controller" {
		t.Fatalf("expected module field, got %+v", entry.Data)
	}
}
