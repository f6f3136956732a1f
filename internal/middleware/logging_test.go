package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return zap.New(core), logs
}

func fieldMap(entry observer.LoggedEntry) map[string]interface{} {
	fields := make(map[string]interface{}, len(entry.Context))
	for _, f := range entry.Context {
		fields[f.Key] = f.Interface
		if f.Type == zapcore.StringType {
			fields[f.Key] = f.String
		}
		if f.Type == zapcore.Int64Type {
			fields[f.Key] = int(f.Integer)
		}
	}
	return fields
}

func TestLoggingMiddleware_LogsCompletionWithRequestFields(t *testing.T) {
	logger, logs := observedLogger()

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))

	req := httptest.NewRequest("GET", "/api/products", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("Request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one completion entry, got %d", len(entries))
	}

	fields := fieldMap(entries[0])
	if fields["method"] != "GET" {
		t.Errorf("method = %v", fields["method"])
	}
	if fields["path"] != "/api/products" {
		t.Errorf("path = %v", fields["path"])
	}
	if fields["status"] != http.StatusOK {
		t.Errorf("status = %v", fields["status"])
	}
	if _, ok := fields["export_format"]; ok {
		t.Error("export_format must only appear on export requests")
	}
}

func TestLoggingMiddleware_TagsExportDownloads(t *testing.T) {
	logger, logs := observedLogger()

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/admin/orders?export=csv", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("Request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one completion entry, got %d", len(entries))
	}
	if got := fieldMap(entries[0])["export_format"]; got != "csv" {
		t.Errorf("export_format = %v, want csv", got)
	}
}

func TestLoggingMiddleware_TagsUpstreamIdentity(t *testing.T) {
	logger, logs := observedLogger()

	handler := IdentityMiddleware(logger)(LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest("GET", "/api/admin/dashboard", nil)
	req.Header.Set(HeaderUserEmail, "staff@example.com")
	req.Header.Set(HeaderUserRoles, "staff")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("Request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one completion entry, got %d", len(entries))
	}
	if got := fieldMap(entries[0])["user_email"]; got != "staff@example.com" {
		t.Errorf("user_email = %v, want staff@example.com", got)
	}
}

func TestLoggingMiddleware_ServerFailuresLogAtErrorLevel(t *testing.T) {
	logger, logs := observedLogger()

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/checkout", nil))

	failures := logs.FilterMessage("Request failed").All()
	if len(failures) != 1 {
		t.Fatalf("expected one failure entry, got %d", len(failures))
	}
	if failures[0].Level != zapcore.ErrorLevel {
		t.Errorf("level = %v, want error", failures[0].Level)
	}
	if completed := logs.FilterMessage("Request completed").All(); len(completed) != 0 {
		t.Errorf("5xx requests must not also log completion")
	}
}
