package model

import (
	"slices"
	"sync"
	"time"
)

// Player — подключённый персонаж с точки зрения item registry:
// инвентарь, задержки использования, активные комбо и сообщения от сервера.
type Player struct {
	characterID int32
	name        string
	gmLevel     int32

	inventory *Inventory

	mu          sync.RWMutex
	itemDelays  map[int32]time.Time
	combos      []*Combo
	statusCalcs int
	messages    []string
}

// NewPlayer создаёт игрока с инвентарём по умолчанию.
func NewPlayer(characterID int32, name string, gmLevel int32) *Player {
	return &Player{
		characterID: characterID,
		name:        name,
		gmLevel:     gmLevel,
		inventory:   NewInventory(characterID, DefaultInventorySlots, DefaultMaxWeight),
		itemDelays:  make(map[int32]time.Time),
	}
}

// CharacterID returns the persistent character id.
func (p *Player) CharacterID() int32 {
	return p.characterID
}

// Name returns character name.
func (p *Player) Name() string {
	return p.name
}

// GMLevel returns the GM privilege level (0 for regular players).
func (p *Player) GMLevel() int32 {
	return p.gmLevel
}

// Inventory returns the player's inventory.
func (p *Player) Inventory() *Inventory {
	return p.inventory
}

// AddItem выдаёт предмет в инвентарь.
func (p *Player) AddItem(item ItemInstance, amount int32) GrantResult {
	return p.inventory.Add(item, amount)
}

// SetItemDelay blocks reuse of itemID until the given time.
func (p *Player) SetItemDelay(itemID int32, until time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.itemDelays[itemID] = until
}

// ItemDelay returns the reuse deadline of itemID.
func (p *Player) ItemDelay(itemID int32) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.itemDelays[itemID]
	return t, ok
}

// ResetItemDelays clears every reuse delay.
func (p *Player) ResetItemDelays() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.itemDelays)
}

// RefreshItemData re-resolves inventory records after reload.
func (p *Player) RefreshItemData(lookup func(id int32) *ItemRecord) {
	p.inventory.Refresh(lookup)
}

// EquippedItemIDs returns ids of equipped items.
func (p *Player) EquippedItemIDs() []int32 {
	return p.inventory.EquippedIDs()
}

// SetActiveCombos replaces the active combo list.
func (p *Player) SetActiveCombos(combos []*Combo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.combos = slices.Clone(combos)
}

// ActiveCombos returns a copy of the active combo list.
func (p *Player) ActiveCombos() []*Combo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.combos)
}

// RecalcStatus пересчитывает статы; здесь только учитывается количество вызовов.
func (p *Player) RecalcStatus() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusCalcs++
}

// StatusRecalcs returns how many times RecalcStatus ran.
func (p *Player) StatusRecalcs() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.statusCalcs
}

// Notify delivers a server message to the player.
func (p *Player) Notify(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

// Messages returns delivered server messages.
func (p *Player) Messages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.messages)
}
