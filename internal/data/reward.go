package data

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/itemdb/internal/metrics"
	"github.com/udisondev/itemdb/internal/model"
)

// GrantOutcome — результат одной под-выдачи пакета.
type GrantOutcome struct {
	ItemID int32
	Amount int32
	Result model.GrantResult
}

// RollGroup returns a uniformly chosen member of the group keyed by groupID.
// Empty or unknown groups yield model.UnknownItemID.
func (r *Registry) RollGroup(groupID int32) int32 {
	metrics.Rolls.WithLabelValues(metrics.KindGroup).Inc()

	g := r.Snapshot().Group(groupID)
	if g == nil {
		slog.Error("roll of unknown item group", "group_id", groupID)
		return model.UnknownItemID
	}
	if len(g.Members) == 0 {
		slog.Error("item group has no entries", "group_id", groupID)
		return model.UnknownItemID
	}
	return g.Members[r.rnd(len(g.Members))]
}

// RollChain обходит кольцо цепочки со случайной позиции, бросая [0,9999] против rate.
//
// Делается ровно один круг; если ни один бросок не прошёл, возвращается model.NoItem.
// Неизвестная или пустая цепочка даёт model.UnknownItemID.
func (r *Registry) RollChain(chainID int32) (itemID, rate int32) {
	metrics.Rolls.WithLabelValues(metrics.KindChain).Inc()

	c := r.Snapshot().Chain(chainID)
	if c == nil {
		slog.Error("roll of unknown item chain", "chain_id", chainID)
		return model.UnknownItemID, 0
	}
	if len(c.Entries) == 0 {
		slog.Error("item chain has no entries", "chain_id", chainID, "chain", c.Name)
		return model.UnknownItemID, 0
	}
	return r.walkChain(c, r.rnd(len(c.Entries)))
}

func (r *Registry) walkChain(c *model.ItemChain, start int) (int32, int32) {
	i := start
	for range len(c.Entries) {
		e := c.Entries[i]
		if int32(r.rnd(int(model.RateMax))) < e.Rate {
			return e.ItemID, e.Rate
		}
		i = c.Next(i)
	}
	metrics.RollsExhausted.WithLabelValues(metrics.KindChain).Inc()
	return model.NoItem, 0
}

// pickRandom выбирает один элемент random-группы пакета.
// Делает до PackageRollPasses кругов; false — ни один бросок не прошёл.
func (r *Registry) pickRandom(g *model.RandomGroup) (model.PackageEntry, bool) {
	n := len(g.Entries)
	if n == 0 {
		return model.PackageEntry{}, false
	}
	i := r.rnd(n)
	for range r.opts.PackageRollPasses * n {
		e := g.Entries[i]
		if int32(r.rnd(int(model.RateMax))) < e.Rate {
			return e, true
		}
		i = g.Next(i)
	}
	return model.PackageEntry{}, false
}

// GrantPackage выдаёт содержимое пакета packageID получателю to.
//
// Все must-предметы выдаются полностью, из каждой random-группы — ровно один.
// Отказ инвентаря не прерывает выдачу: каждая под-выдача отражена в результате.
func (r *Registry) GrantPackage(to Recipient, packageID int32) ([]GrantOutcome, error) {
	metrics.Rolls.WithLabelValues(metrics.KindPackage).Inc()

	s := r.Snapshot()
	pkg := s.Package(packageID)
	if pkg == nil {
		return nil, fmt.Errorf("granting package %d: %w", packageID, ErrUnknownItem)
	}

	var out []GrantOutcome
	for _, e := range pkg.Must {
		out = r.grantEntry(s, to, pkg.ID, e, out)
	}
	for gi := range pkg.Random {
		e, ok := r.pickRandom(&pkg.Random[gi])
		if !ok {
			slog.Warn("package random group produced no item",
				"package_id", pkg.ID, "group", gi+1, "passes", r.opts.PackageRollPasses)
			metrics.RollsExhausted.WithLabelValues(metrics.KindPackage).Inc()
			continue
		}
		out = r.grantEntry(s, to, pkg.ID, e, out)
	}
	return out, nil
}

func (r *Registry) grantEntry(s *Store, to Recipient, packageID int32, e model.PackageEntry, out []GrantOutcome) []GrantOutcome {
	rec := s.Exists(e.ItemID)
	if rec == nil {
		slog.Warn("package entry references unknown item", "package_id", packageID, "item_id", e.ItemID)
		metrics.GrantFailures.WithLabelValues(model.GrantInvalidItem.String()).Inc()
		return append(out, GrantOutcome{ItemID: e.ItemID, Amount: e.Quantity, Result: model.GrantInvalidItem})
	}

	it := model.ItemInstance{
		ItemID:     rec.ID,
		Identified: true,
		Record:     rec,
	}
	if e.Hours > 0 {
		it.ExpireTime = r.opts.Now().Unix() + int64(e.Hours)*3600
	}
	if e.Named {
		it.SetNamed(to.CharacterID())
	}
	if e.Announce && r.announcer != nil {
		r.announcer.AnnouncePackageItem(to, rec.ID, packageID)
	}

	per := min(e.Quantity, rec.MaxStackPerGrant())
	for left := e.Quantity; left > 0; left -= per {
		n := min(per, left)
		res := to.AddItem(it, n)
		if res != model.GrantOK {
			slog.Debug("package sub-grant failed",
				"package_id", packageID, "item_id", rec.ID, "amount", n, "result", res.String())
			metrics.GrantFailures.WithLabelValues(res.String()).Inc()
		}
		out = append(out, GrantOutcome{ItemID: rec.ID, Amount: n, Result: res})
	}
	return out
}
