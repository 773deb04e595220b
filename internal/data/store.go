package data

import (
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"

	"github.com/udisondev/itemdb/internal/metrics"
	"github.com/udisondev/itemdb/internal/model"
	"github.com/udisondev/itemdb/internal/script"
)

// Store — одна эпоха registry: записи предметов, индексы и таблицы наград.
//
// Store собирается загрузчиком целиком и публикуется Registry атомарно.
// После публикации Store только читается; единственное исключение —
// поле ID общей заглушки, которое переписывает Search.
type Store struct {
	threshold int32
	maxItemID int32

	dense       []*model.ItemRecord // id < threshold
	sparse      map[int32]*model.ItemRecord
	sparseOrder []int32
	names       map[string]*model.ItemRecord
	dummy       *model.ItemRecord

	groups       map[int32]*model.ItemGroup
	chains       []*model.ItemChain
	chainNames   map[string]int32
	packages     map[int32]*model.ItemPackage
	packageOrder []int32
	combos       []*model.Combo

	searchCache *lru.Cache[string, *model.ItemRecord]

	engine script.Engine
}

func newStore(opts Options, engine script.Engine) *Store {
	s := &Store{
		threshold:  opts.DenseThreshold,
		maxItemID:  opts.MaxItemID,
		dense:      make([]*model.ItemRecord, opts.DenseThreshold),
		sparse:     make(map[int32]*model.ItemRecord),
		names:      make(map[string]*model.ItemRecord),
		dummy:      model.NewDummyRecord(),
		groups:     make(map[int32]*model.ItemGroup),
		chainNames: make(map[string]int32),
		packages:   make(map[int32]*model.ItemPackage),
		engine:     engine,
	}
	if opts.SearchCacheSize > 0 {
		// lru.New fails only for a non-positive size.
		s.searchCache, _ = lru.New[string, *model.ItemRecord](opts.SearchCacheSize)
	}
	return s
}

// Load возвращает запись id, создавая пустую (weight=1, type=Etc), если её ещё нет.
// Только для Store, который ещё не опубликован. Возвращает nil для id вне [1, MaxItemID].
func (s *Store) Load(id int32) *model.ItemRecord {
	if id <= 0 || id > s.maxItemID {
		return nil
	}
	if id < s.threshold {
		if s.dense[id] == nil {
			s.dense[id] = model.NewItemRecord(id)
		}
		return s.dense[id]
	}
	if rec, ok := s.sparse[id]; ok {
		return rec
	}
	rec := model.NewItemRecord(id)
	s.sparse[id] = rec
	s.sparseOrder = append(s.sparseOrder, id)
	return rec
}

// Exists returns the record for id, or nil without logging.
func (s *Store) Exists(id int32) *model.ItemRecord {
	if id >= 0 && id < s.threshold {
		return s.dense[id]
	}
	return s.sparse[id]
}

// Search returns the record for id, or the shared dummy with its ID set to id.
func (s *Store) Search(id int32) *model.ItemRecord {
	if rec := s.Exists(id); rec != nil {
		return rec
	}
	slog.Warn("item not found, using dummy", "item_id", id)
	metrics.FallbackLookups.Inc()
	s.dummy.ID = id
	return s.dummy
}

// Dummy returns the shared UNKNOWN_ITEM record.
func (s *Store) Dummy() *model.ItemRecord {
	return s.dummy
}

// NameToRecord is an exact, case-sensitive code name lookup.
func (s *Store) NameToRecord(name string) *model.ItemRecord {
	return s.names[name]
}

// SearchByName ищет предмет по имени.
//
// Точное совпадение code name возвращается сразу. Иначе без учёта регистра:
// первое совпадение code name выигрывает у любого совпадения display name;
// среди display name — первое найденное (dense по возрастанию id, затем sparse
// в порядке загрузки).
func (s *Store) SearchByName(str string) *model.ItemRecord {
	if rec := s.names[str]; rec != nil {
		return rec
	}
	if s.searchCache != nil {
		if rec, ok := s.searchCache.Get(str); ok {
			metrics.SearchCache.WithLabelValues(metrics.ResultHit).Inc()
			return rec
		}
		metrics.SearchCache.WithLabelValues(metrics.ResultMiss).Inc()
	}

	folder := cases.Fold()
	want := folder.String(str)

	var byDisplay *model.ItemRecord
	found := s.each(func(rec *model.ItemRecord) bool {
		if folder.String(rec.CodeName) == want {
			return true
		}
		if byDisplay == nil && folder.String(rec.DisplayName) == want {
			byDisplay = rec
		}
		return false
	})
	if found == nil {
		found = byDisplay
	}

	if s.searchCache != nil {
		s.searchCache.Add(str, found)
	}
	return found
}

// SearchByNamePrefix собирает до limit записей, чьё code или display name содержит str
// (без учёта регистра) или, при exact, совпадает с ним точно.
// Возвращает записанные совпадения и общее число совпадений (может быть больше limit).
func (s *Store) SearchByNamePrefix(str string, limit int, exact bool) ([]*model.ItemRecord, int) {
	folder := cases.Fold()
	want := folder.String(str)

	var out []*model.ItemRecord
	count := 0
	s.each(func(rec *model.ItemRecord) bool {
		var match bool
		if exact {
			match = rec.CodeName == str || rec.DisplayName == str
		} else {
			match = strings.Contains(folder.String(rec.CodeName), want) ||
				strings.Contains(folder.String(rec.DisplayName), want)
		}
		if !match {
			return false
		}
		if len(out) < limit {
			out = append(out, rec)
		}
		count++
		return false
	})
	return out, count
}

// each обходит dense по возрастанию id, затем sparse в порядке загрузки.
// Останавливается и возвращает запись, на которой fn вернул true.
func (s *Store) each(fn func(rec *model.ItemRecord) bool) *model.ItemRecord {
	for _, rec := range s.dense {
		if rec != nil && fn(rec) {
			return rec
		}
	}
	for _, id := range s.sparseOrder {
		if rec := s.sparse[id]; rec != nil && fn(rec) {
			return rec
		}
	}
	return nil
}

// ForEachRecord visits every record in search order until fn returns false.
func (s *Store) ForEachRecord(fn func(rec *model.ItemRecord) bool) {
	s.each(func(rec *model.ItemRecord) bool {
		return !fn(rec)
	})
}

// Counts returns the number of dense and sparse records.
func (s *Store) Counts() (dense, sparse int) {
	for _, rec := range s.dense {
		if rec != nil {
			dense++
		}
	}
	return dense, len(s.sparse)
}

// buildNameIndex индексирует записи по code name; при коллизии остаётся первая.
func (s *Store) buildNameIndex() {
	clear(s.names)
	s.each(func(rec *model.ItemRecord) bool {
		if rec.CodeName == "" {
			return false
		}
		if prev, ok := s.names[rec.CodeName]; ok {
			slog.Error("duplicate code name",
				"name", rec.CodeName, "item_id", rec.ID, "kept_item_id", prev.ID)
			return false
		}
		s.names[rec.CodeName] = rec
		return false
	})
}

// Group returns the group keyed by a group item's id.
func (s *Store) Group(id int32) *model.ItemGroup {
	return s.groups[id]
}

// Chain returns the chain with the given ordinal.
func (s *Store) Chain(id int32) *model.ItemChain {
	if id < 0 || int(id) >= len(s.chains) {
		return nil
	}
	return s.chains[id]
}

// ChainID resolves a chain name to its ordinal.
func (s *Store) ChainID(name string) (int32, bool) {
	id, ok := s.chainNames[name]
	return id, ok
}

// Package returns the package keyed by a package item's id.
func (s *Store) Package(id int32) *model.ItemPackage {
	return s.packages[id]
}

// Packages returns packages in load order.
func (s *Store) Packages() []*model.ItemPackage {
	out := make([]*model.ItemPackage, 0, len(s.packageOrder))
	for _, id := range s.packageOrder {
		out = append(out, s.packages[id])
	}
	return out
}

// Combos returns every combo of the epoch.
func (s *Store) Combos() []*model.Combo {
	return s.combos
}

// destroy освобождает скрипты и handle'ы комбо всех записей эпохи.
func (s *Store) destroy() {
	s.each(func(rec *model.ItemRecord) bool {
		s.freeScripts(rec)
		for _, c := range rec.Combos {
			c.Release()
		}
		rec.Combos = nil
		return false
	})
}

func (s *Store) freeScripts(rec *model.ItemRecord) {
	if s.engine == nil {
		return
	}
	for _, code := range []*script.Code{&rec.UseScript, &rec.EquipScript, &rec.UnequipScript} {
		if *code != nil {
			s.engine.Free(*code)
			*code = nil
		}
	}
}
