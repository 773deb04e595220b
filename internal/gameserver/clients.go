package gameserver

import (
	"sync"

	"github.com/udisondev/itemdb/internal/data"
	"github.com/udisondev/itemdb/internal/model"
)

// ClientManager manages players connected to the map server.
// Thread-safe for concurrent access.
type ClientManager struct {
	mu      sync.RWMutex
	players map[string]*model.Player // key: accountName

	// charIndex maps character id to player for O(1) lookup.
	// Synced with players in Register/Unregister.
	charIndex map[int32]*model.Player
}

// NewClientManager creates a new client manager.
func NewClientManager() *ClientManager {
	return &ClientManager{
		players:   make(map[string]*model.Player, 1000),
		charIndex: make(map[int32]*model.Player, 1000),
	}
}

var _ data.SessionIterator = (*ClientManager)(nil)

// Register associates a player with an account.
// Called when the character enters the map server.
// A previous character of the same account is replaced.
func (cm *ClientManager) Register(accountName string, player *model.Player) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if old, ok := cm.players[accountName]; ok {
		delete(cm.charIndex, old.CharacterID())
	}
	cm.players[accountName] = player
	cm.charIndex[player.CharacterID()] = player
}

// Unregister removes the account's player.
// Called when client disconnects or logs out.
func (cm *ClientManager) Unregister(accountName string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if p, ok := cm.players[accountName]; ok {
		delete(cm.charIndex, p.CharacterID())
		delete(cm.players, accountName)
	}
}

// GetPlayer returns the player of the given account.
// Returns nil if not found.
func (cm *ClientManager) GetPlayer(accountName string) *model.Player {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.players[accountName]
}

// GetPlayerByCharacterID returns the player with the given character id.
// Returns nil if not found.
func (cm *ClientManager) GetPlayerByCharacterID(charID int32) *model.Player {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.charIndex[charID]
}

// Count returns number of connected players.
func (cm *ClientManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.players)
}

// ForEachPlayer iterates over all connected players.
// If fn returns false, iteration stops. fn runs outside the lock.
func (cm *ClientManager) ForEachPlayer(fn func(*model.Player) bool) {
	for _, p := range cm.online() {
		if !fn(p) {
			return
		}
	}
}

// ForEachSession обходит игроков для ремонта состояния после reload.
// fn может быть медленным (пересчёт статов), а Register/Unregister не должны его ждать.
func (cm *ClientManager) ForEachSession(fn func(data.PlayerSession) bool) {
	for _, p := range cm.online() {
		if !fn(p) {
			return
		}
	}
}

// online копирует список игроков под блокировкой.
func (cm *ClientManager) online() []*model.Player {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	players := make([]*model.Player, 0, len(cm.players))
	for _, p := range cm.players {
		players = append(players, p)
	}
	return players
}
