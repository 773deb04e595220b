package data

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/udisondev/itemdb/internal/metrics"
	"github.com/udisondev/itemdb/internal/model"
	"github.com/udisondev/itemdb/internal/script"
)

// Sources — откуда registry берёт данные при Load и Reload.
// Пустой путь означает, что таблица не загружается.
type Sources struct {
	// ItemDBFiles применяются по порядку; более поздний файл переопределяет записи.
	ItemDBFiles []string
	// Rows, если задан, заменяет ItemDBFiles (SQL item_db).
	Rows RowSource

	ComboFile   string
	GroupFile   string
	ChainFile   string
	PackageFile string

	AvailFile       string
	TradeFile       string
	DelayFile       string
	StackFile       string
	BuyingStoreFile string
	NoUseFile       string

	MobDropFile string
}

func (s Sources) auxPath(table string) string {
	switch table {
	case "avail":
		return s.AvailFile
	case "trade":
		return s.TradeFile
	case "delay":
		return s.DelayFile
	case "stack":
		return s.StackFile
	case "buyingstore":
		return s.BuyingStoreFile
	case "nouse":
		return s.NoUseFile
	}
	return ""
}

// builder собирает новую эпоху Store, которая ещё никому не видна.
type builder struct {
	store  *Store
	opts   Options
	engine script.Engine
}

// Load собирает registry из Sources и публикует его.
// Предыдущая эпоха (если была) уничтожается без починки сессий; для горячей
// перезагрузки используйте Reload.
func (r *Registry) Load(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	start := time.Now()
	s, err := r.build(ctx)
	if err != nil {
		return err
	}
	old := r.current.Swap(s)
	old.destroy()
	metrics.ReloadDuration.Observe(time.Since(start).Seconds())

	dense, sparse := s.Counts()
	slog.Info("item db loaded",
		"dense", dense, "sparse", sparse,
		"groups", len(s.groups), "chains", len(s.chains),
		"packages", len(s.packages), "combos", len(s.combos),
		"duration", time.Since(start))
	return nil
}

// build runs the full load pipeline into a fresh store.
func (r *Registry) build(ctx context.Context) (*Store, error) {
	b := &builder{
		store:  newStore(r.opts, r.engine),
		opts:   r.opts,
		engine: r.engine,
	}
	src := r.sources

	if err := b.loadItems(ctx, src); err != nil {
		b.store.destroy()
		return nil, err
	}
	b.store.buildNameIndex()

	b.optional("combo db", src.ComboFile, b.store.readCombos)
	b.optional("item groups", src.GroupFile, b.readGroups)
	b.optional("item chains", src.ChainFile, b.readChains)
	b.loadPackages(src.PackageFile, r.cache)

	for _, t := range auxTables {
		b.optional("item "+t.name, src.auxPath(t.name), func(path string) error {
			return b.readAuxTable(t, path)
		})
	}

	if err := ctx.Err(); err != nil {
		b.store.destroy()
		return nil, fmt.Errorf("loading item db: %w", err)
	}

	b.exportConstants()

	mobs := r.mobs
	if mobs == nil && src.MobDropFile != "" {
		table, err := ReadMobDrops(src.MobDropFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Warn("mob drop file not found, drop sources stay empty", "file", src.MobDropFile)
		case err != nil:
			slog.Error("reading mob drops", "error", err)
		default:
			mobs = table
		}
	}
	if mobs != nil {
		b.relinkDrops(mobs)
	}

	dense, sparse := b.store.Counts()
	metrics.Records.WithLabelValues(metrics.StorageDense).Set(float64(dense))
	metrics.Records.WithLabelValues(metrics.StorageSparse).Set(float64(sparse))

	if r.uidSource != nil {
		last, err := r.uidSource.LoadUniqueID(ctx)
		if err != nil {
			slog.Error("loading last unique item id", "error", err)
		} else {
			r.uniqueIDs.Raise(last)
		}
	}

	return b.store, nil
}

// loadItems применяет строки item_db: из RowSource, если он задан, иначе из текстовых файлов.
func (b *builder) loadItems(ctx context.Context, src Sources) error {
	if src.Rows != nil {
		rows, err := src.Rows.ItemRows(ctx)
		if err != nil {
			return fmt.Errorf("loading item rows: %w", err)
		}
		count := 0
		for _, row := range rows {
			if _, ok := b.ParseRow(row); ok {
				count++
			}
		}
		slog.Info("loaded item db rows", "count", count)
		return nil
	}

	for _, path := range src.ItemDBFiles {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("loading item db: %w", err)
		}
		b.optional("item db", path, b.readItemDBText)
	}
	return nil
}

// optional загружает вспомогательную таблицу. Ошибка логируется и не прерывает загрузку:
// registry без таблицы лучше, чем отсутствие registry.
func (b *builder) optional(kind, path string, load func(path string) error) {
	if path == "" {
		return
	}
	err := load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("file not found, skipping", "table", kind, "file", path)
	case err != nil:
		slog.Error("loading table failed", "table", kind, "file", path, "error", err)
	}
}

// loadPackages читает пакеты из бинарного кэша, если он свежий, иначе из YAML,
// после чего перезаписывает кэш.
func (b *builder) loadPackages(path string, cache PackageCache) {
	if path == "" {
		return
	}
	if cache != nil {
		pkgs, err := cache.Read(path)
		if err == nil {
			b.attachPackages(pkgs)
			slog.Info("loaded item packages from cache", "source", path, "count", len(b.store.packages))
			return
		}
		slog.Info("package cache unusable, parsing source", "source", path, "reason", err)
	}

	b.optional("item packages", path, b.readPackages)

	if cache != nil && len(b.store.packages) > 0 {
		if err := cache.Write(path, b.store.Packages()); err != nil {
			slog.Warn("writing package cache", "source", path, "error", err)
		}
	}
}

// exportConstants делает code name каждого предмета константой скриптового движка.
func (b *builder) exportConstants() {
	if b.engine == nil {
		return
	}
	b.store.each(func(rec *model.ItemRecord) bool {
		if rec.CodeName != "" {
			b.engine.SetConstant(rec.CodeName, rec.ID)
		}
		return false
	})
}
