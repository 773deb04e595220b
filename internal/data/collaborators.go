package data

import (
	"context"

	"github.com/udisondev/itemdb/internal/model"
)

// Recipient получает предметы из пакетов.
type Recipient interface {
	CharacterID() int32
	AddItem(item model.ItemInstance, amount int32) model.GrantResult
}

// Announcer рассылает сообщение о ценном предмете, полученном из пакета.
type Announcer interface {
	AnnouncePackageItem(to Recipient, itemID, packageID int32)
}

// PlayerSession is the per-player state repaired after reload.
type PlayerSession interface {
	ResetItemDelays()
	RefreshItemData(lookup func(id int32) *model.ItemRecord)
	EquippedItemIDs() []int32
	SetActiveCombos(combos []*model.Combo)
	RecalcStatus()
}

// SessionIterator обходит подключённых игроков. fn возвращает false, чтобы остановить обход.
type SessionIterator interface {
	ForEachSession(fn func(p PlayerSession) bool)
}

// MobDropTable exposes monster drop lists for the drop-source cache.
type MobDropTable interface {
	ForEachMob(fn func(mobID int32, drops []model.MobDrop))
}

// RowSource выдаёт строки item_db из внешнего хранилища (например, SQL) в порядке применения.
type RowSource interface {
	ItemRows(ctx context.Context) ([]model.ItemRow, error)
}

// PackageCache — бинарный кэш таблицы пакетов, привязанный к исходному файлу.
type PackageCache interface {
	Read(sourcePath string) ([]*model.ItemPackage, error)
	Write(sourcePath string, packages []*model.ItemPackage) error
}

// UniqueIDSource stores the last issued unique item id.
type UniqueIDSource interface {
	LoadUniqueID(ctx context.Context) (uint64, error)
}
