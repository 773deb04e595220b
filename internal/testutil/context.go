package testutil

import (
	"context"
	"testing"
	"time"
)

// ContextWithTimeout возвращает context для запросов к БД в тесте.
// Отменяется автоматически через t.Cleanup.
func ContextWithTimeout(tb testing.TB, d time.Duration) context.Context {
	tb.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), d)
	tb.Cleanup(cancel)
	return ctx
}
