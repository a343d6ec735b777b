package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger writes the request, income and statistic events with a
// fixed set of fields so they can be queried the same way everywhere.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) emit(ctx context.Context, level slog.Level, component, msg string, fields LogFields) {
	l := sl.logger
	if component != "" && component != l.component {
		l = l.WithComponent(component)
	}
	l.Logger.Log(ctx, level, msg, fields.ToSlice()...)
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)
	sl.emit(ctx, slog.LevelInfo, ComponentHTTP, "HTTP request started", fields)
}

// LogHTTPEnd logs at warn for 4xx and error for 5xx responses.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)
	sl.emit(ctx, level, ComponentHTTP, "HTTP request completed", fields)
}

func (sl *StructuredLogger) LogIncomeSubmitted(ctx context.Context, salonID, amountCents int64, month, year int) {
	fields := NewFields().
		WithIncome(salonID, amountCents, month, year).
		WithOperation(OpSubmit)
	sl.emit(ctx, slog.LevelInfo, ComponentIncome, "Income submitted", fields)
}

func (sl *StructuredLogger) LogStatisticRecomputed(ctx context.Context, area string, scopeID int64, average string, salonCount, month, year int) {
	fields := NewFields().
		WithStatistic(area, scopeID, average, salonCount).
		WithPeriod(month, year).
		WithOperation(OpRecompute)
	sl.emit(ctx, slog.LevelInfo, ComponentStatistics, "Area average recomputed", fields)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.emit(ctx, slog.LevelError, component, msg, fields.WithError(err).WithOperation(operation))
}
