package data

import (
	"github.com/udisondev/itemdb/internal/model"
	"github.com/udisondev/itemdb/internal/script"
)

// TestItem is an exported type for cross-package test setup of item records.
type TestItem struct {
	ID     int32
	Name   string
	Type   model.ItemType
	Weight int32
	Slots  int32
	Equip  int32
}

// NewTestRegistry returns a registry whose published epoch holds only items.
// Intended for tests from other packages that need item data without fixture files.
func NewTestRegistry(engine script.Engine, items ...TestItem) *Registry {
	opts := DefaultOptions()
	opts.Seed = 1
	r := NewRegistry(engine, opts)

	s := newStore(r.opts, engine)
	for _, it := range items {
		rec := s.Load(it.ID)
		if rec == nil {
			continue
		}
		rec.CodeName = it.Name
		rec.DisplayName = it.Name
		rec.Type = it.Type
		rec.Weight = it.Weight
		rec.Slots = it.Slots
		rec.EquipMask = it.Equip
		rec.Available = true
	}
	s.buildNameIndex()
	r.current.Store(s)
	return r
}

// LinkTestCombo links a combo into the published epoch of r.
func LinkTestCombo(r *Registry, ids []int32, bonus string) (*model.Combo, error) {
	return r.Snapshot().LinkCombo(ids, bonus, "test", 0)
}
