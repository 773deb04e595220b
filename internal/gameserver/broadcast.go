package gameserver

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/itemdb/internal/data"
	"github.com/udisondev/itemdb/internal/model"
)

// BroadcastToAll sends msg to all connected players.
// Returns number of players notified.
func (cm *ClientManager) BroadcastToAll(msg string) int {
	sent := 0
	cm.ForEachPlayer(func(p *model.Player) bool {
		p.Notify(msg)
		sent++
		return true
	})
	return sent
}

// ItemLookup resolves item ids to records for announcement text.
type ItemLookup interface {
	Search(id int32) *model.ItemRecord
}

// PackageAnnouncer рассылает всем игрокам сообщение о ценном предмете из пакета.
type PackageAnnouncer struct {
	clients *ClientManager
	items   ItemLookup
}

// NewPackageAnnouncer creates announcer broadcasting through clients.
func NewPackageAnnouncer(clients *ClientManager, items ItemLookup) *PackageAnnouncer {
	return &PackageAnnouncer{clients: clients, items: items}
}

var _ data.Announcer = (*PackageAnnouncer)(nil)

// AnnouncePackageItem implements data.Announcer.
func (a *PackageAnnouncer) AnnouncePackageItem(to data.Recipient, itemID, packageID int32) {
	name := fmt.Sprintf("Character %d", to.CharacterID())
	if p := a.clients.GetPlayerByCharacterID(to.CharacterID()); p != nil {
		name = p.Name()
	}

	msg := FormatPackageAnnounce(name, a.items.Search(itemID), a.items.Search(packageID))
	sent := a.clients.BroadcastToAll(msg)
	slog.Debug("package item announced",
		"character_id", to.CharacterID(), "item_id", itemID, "package_id", packageID, "recipients", sent)
}

// FormatPackageAnnounce builds the broadcast line "<player> has got <item> from <package>".
func FormatPackageAnnounce(playerName string, item, pkg *model.ItemRecord) string {
	return fmt.Sprintf("%s has got %s from %s", playerName, item.DisplayName, pkg.DisplayName)
}
