package data

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/itemdb/internal/metrics"
)

// Reload пересобирает registry из тех же Sources и подменяет эпоху.
//
// Новая эпоха собирается целиком до публикации: при ошибке продолжает работать старая.
// После подмены у всех сессий сбрасываются задержки предметов, перепривязываются
// записи инвентаря и пересчитываются активные комбо. Старая эпоха уничтожается
// последней. Вызывать с того же goroutine, что и игровую логику, либо когда
// никто не держит записи старой эпохи.
func (r *Registry) Reload(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	log := slog.With("reload_id", uuid.NewString())
	log.Info("reloading item db")
	start := time.Now()

	s, err := r.build(ctx)
	if err != nil {
		metrics.Reloads.WithLabelValues(metrics.ResultError).Inc()
		log.Error("item db reload failed, keeping previous data", "error", err)
		return fmt.Errorf("reloading item db: %w", err)
	}

	old := r.current.Swap(s)
	repaired := r.repairSessions(s)
	old.destroy()

	elapsed := time.Since(start)
	metrics.Reloads.WithLabelValues(metrics.ResultOK).Inc()
	metrics.ReloadDuration.Observe(elapsed.Seconds())

	dense, sparse := s.Counts()
	log.Info("item db reloaded",
		"dense", dense, "sparse", sparse,
		"combos", len(s.combos), "sessions", repaired, "duration", elapsed)
	return nil
}

func (r *Registry) repairSessions(s *Store) int {
	if r.sessions == nil {
		return 0
	}
	n := 0
	r.sessions.ForEachSession(func(p PlayerSession) bool {
		p.ResetItemDelays()
		p.RefreshItemData(s.Exists)

		combos := s.ActiveCombos(p.EquippedItemIDs())
		p.SetActiveCombos(combos)
		if len(combos) > 0 {
			p.RecalcStatus()
		}
		n++
		return true
	})
	return n
}
