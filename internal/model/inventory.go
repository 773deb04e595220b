package model

import (
	"sync"
)

// Inventory defaults.
const (
	DefaultInventorySlots       = 100
	DefaultMaxWeight      int32 = 8000
)

type inventorySlot struct {
	item     ItemInstance
	equipped bool
}

// Inventory — инвентарь персонажа, принимающий выдачу предметов из registry.
type Inventory struct {
	ownerID   int32
	maxSlots  int
	maxWeight int32

	slots  []*inventorySlot
	weight int32

	mu sync.RWMutex
}

// NewInventory создаёт пустой инвентарь.
func NewInventory(ownerID int32, maxSlots int, maxWeight int32) *Inventory {
	return &Inventory{
		ownerID:   ownerID,
		maxSlots:  maxSlots,
		maxWeight: maxWeight,
	}
}

// OwnerID возвращает character ID владельца.
func (inv *Inventory) OwnerID() int32 {
	return inv.ownerID
}

// Add кладёт amount штук item в инвентарь.
//
// Stackable предметы сливаются с существующим стаком (те же карты, срок, идентификация).
// Нестакаемые занимают amount отдельных слотов.
// Ни одна проверка не изменяет инвентарь при неуспехе.
func (inv *Inventory) Add(item ItemInstance, amount int32) GrantResult {
	rec := item.Record
	if rec == nil || amount <= 0 || rec.ID != item.ItemID {
		return GrantInvalidItem
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.weight+rec.Weight*amount > inv.maxWeight {
		return GrantOverweight
	}

	if !rec.Stackable() {
		if len(inv.slots)+int(amount) > inv.maxSlots {
			return GrantNoSlot
		}
		item.Amount = 1
		for range amount {
			inv.slots = append(inv.slots, &inventorySlot{item: item})
		}
		inv.weight += rec.Weight * amount
		return GrantOK
	}

	limit := MaxAmount
	code := GrantMaxAmount
	if rec.Stack.Inventory && rec.Stack.Amount > 0 {
		limit = rec.Stack.Amount
		code = GrantStackLimit
	}

	for _, s := range inv.slots {
		if !s.item.sameStack(&item) {
			continue
		}
		if s.item.Amount+amount > limit {
			return code
		}
		s.item.Amount += amount
		inv.weight += rec.Weight * amount
		return GrantOK
	}

	if amount > limit {
		return code
	}
	if len(inv.slots) >= inv.maxSlots {
		return GrantNoSlot
	}
	item.Amount = amount
	inv.slots = append(inv.slots, &inventorySlot{item: item})
	inv.weight += rec.Weight * amount
	return GrantOK
}

// Items returns a snapshot of all instances.
func (inv *Inventory) Items() []ItemInstance {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]ItemInstance, 0, len(inv.slots))
	for _, s := range inv.slots {
		out = append(out, s.item)
	}
	return out
}

// CountOf returns the total amount of itemID.
func (inv *Inventory) CountOf(itemID int32) int32 {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	var n int32
	for _, s := range inv.slots {
		if s.item.ItemID == itemID {
			n += s.item.Amount
		}
	}
	return n
}

// Weight returns the current total weight.
func (inv *Inventory) Weight() int32 {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.weight
}

// Equip помечает первый неэкипированный экземпляр itemID как надетый.
func (inv *Inventory) Equip(itemID int32) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, s := range inv.slots {
		if s.item.ItemID == itemID && !s.equipped && s.item.Record != nil && s.item.Record.Equippable() {
			s.equipped = true
			return true
		}
	}
	return false
}

// Unequip снимает один надетый экземпляр itemID.
func (inv *Inventory) Unequip(itemID int32) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, s := range inv.slots {
		if s.item.ItemID == itemID && s.equipped {
			s.equipped = false
			return true
		}
	}
	return false
}

// EquippedIDs returns the item ids of equipped instances.
func (inv *Inventory) EquippedIDs() []int32 {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	var ids []int32
	for _, s := range inv.slots {
		if s.equipped {
			ids = append(ids, s.item.ItemID)
		}
	}
	return ids
}

// Refresh заново связывает экземпляры с определениями новой эпохи и пересчитывает вес.
// Экземпляры, для которых lookup вернул nil, остаются без определения и ничего не весят.
func (inv *Inventory) Refresh(lookup func(id int32) *ItemRecord) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.weight = 0
	for _, s := range inv.slots {
		s.item.Record = lookup(s.item.ItemID)
		if s.item.Record != nil {
			inv.weight += s.item.Record.Weight * s.item.Amount
		}
	}
}
