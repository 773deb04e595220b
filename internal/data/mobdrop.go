package data

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/itemdb/internal/model"
)

// MobDrops — таблица дропа монстров, прочитанная из YAML.
type MobDrops struct {
	mobs []mobDropEntry
}

type mobDropEntry struct {
	MobID int32          `yaml:"mob"`
	Drops []mobDropValue `yaml:"drops"`
}

type mobDropValue struct {
	ItemID int32 `yaml:"item"`
	Chance int32 `yaml:"chance"`
}

// ReadMobDrops reads a list of `{mob, drops: [{item, chance}]}` entries.
func ReadMobDrops(path string) (*MobDrops, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	t := &MobDrops{}
	if err := yaml.Unmarshal(raw, &t.mobs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}

// NewMobDrops builds a table from in-memory drop lists, ordered by mob id.
func NewMobDrops(drops map[int32][]model.MobDrop) *MobDrops {
	t := &MobDrops{}
	for _, mobID := range slices.Sorted(maps.Keys(drops)) {
		e := mobDropEntry{MobID: mobID}
		for _, d := range drops[mobID] {
			e.Drops = append(e.Drops, mobDropValue{ItemID: d.ItemID, Chance: d.Chance})
		}
		t.mobs = append(t.mobs, e)
	}
	return t
}

// ForEachMob implements MobDropTable in file order.
func (t *MobDrops) ForEachMob(fn func(mobID int32, drops []model.MobDrop)) {
	for _, e := range t.mobs {
		drops := make([]model.MobDrop, 0, len(e.Drops))
		for _, d := range e.Drops {
			drops = append(drops, model.MobDrop{ItemID: d.ItemID, Chance: d.Chance})
		}
		fn(e.MobID, drops)
	}
}

// relinkDrops заполняет таблицу "кто дропает" каждой записи.
// Монстры из ExcludedMobs (служебные и событийные) пропускаются.
func (b *builder) relinkDrops(t MobDropTable) {
	linked := 0
	t.ForEachMob(func(mobID int32, drops []model.MobDrop) {
		if b.excluded(mobID) {
			return
		}
		for _, d := range drops {
			if d.ItemID <= 0 {
				continue
			}
			rec := b.store.Exists(d.ItemID)
			if rec == nil {
				slog.Debug("mob drop references unknown item", "mob_id", mobID, "item_id", d.ItemID)
				continue
			}
			rec.AddDropSource(mobID, d.Chance)
			linked++
		}
	})
	slog.Info("linked mob drop sources", "count", linked)
}

func (b *builder) excluded(mobID int32) bool {
	for _, r := range b.opts.ExcludedMobs {
		if mobID >= r.From && mobID <= r.To {
			return true
		}
	}
	return false
}
