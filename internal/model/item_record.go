package model

import "github.com/udisondev/itemdb/internal/script"

// Reserved item IDs.
const (
	// DummyItemID — id заглушки UNKNOWN_ITEM, которую возвращает поиск по неизвестному id.
	DummyItemID int32 = 500
	// UnknownItemID — результат броска группы/цепочки, когда выбрать нечего.
	UnknownItemID int32 = 512
	// NoItem — цепочка прошла полный круг без успешного броска.
	NoItem int32 = 0

	DummyItemName = "UNKNOWN_ITEM"
)

// Gender-locked items.
const (
	WeddingRingMale   int32 = 2634
	WeddingRingFemale int32 = 2635
)

// Weapon looks with a fixed gender requirement.
const (
	LookMusical int32 = 13
	LookWhip    int32 = 14
)

const (
	// MaxSlots — максимальное число сокетов (карт) у экипировки.
	MaxSlots = 4
	// MaxDropSources — сколько монстров помнит запись для "кто дропает".
	MaxDropSources = 5
	// MaxAmount — предел стака, когда отдельный лимит не задан.
	MaxAmount int32 = 30000
	// RateMax — 100.00% в базисных пунктах.
	RateMax int32 = 10000
	// MaxWeaponLevel bounds the weapon level column.
	MaxWeaponLevel int32 = 4
)

// ItemType определяет категорию предмета (коды совпадают с колонкой type в item_db).
type ItemType int32

const (
	ItemTypeHealing       ItemType = 0
	ItemTypeUsable        ItemType = 2
	ItemTypeEtc           ItemType = 3
	ItemTypeWeapon        ItemType = 4
	ItemTypeArmor         ItemType = 5
	ItemTypeCard          ItemType = 6
	ItemTypePetEgg        ItemType = 7
	ItemTypePetArmor      ItemType = 8
	ItemTypeAmmo          ItemType = 10
	ItemTypeDelayedUsable ItemType = 11
	ItemTypeCash          ItemType = 18

	itemTypeMax ItemType = 19
)

// Valid reports whether t is a usable type code. Codes 1 and 9 are reserved,
// 12..17 are unassigned.
func (t ItemType) Valid() bool {
	switch {
	case t < 0 || t >= itemTypeMax:
		return false
	case t == 1 || t == 9:
		return false
	case t > ItemTypeDelayedUsable && t < ItemTypeCash:
		return false
	}
	return true
}

// String returns human-readable item type name.
func (t ItemType) String() string {
	switch t {
	case ItemTypeHealing:
		return "Potion/Food"
	case ItemTypeUsable:
		return "Usable"
	case ItemTypeEtc:
		return "Etc."
	case ItemTypeWeapon:
		return "Weapon"
	case ItemTypeArmor:
		return "Armor"
	case ItemTypeCard:
		return "Card"
	case ItemTypePetEgg:
		return "Pet Egg"
	case ItemTypePetArmor:
		return "Pet Accessory"
	case ItemTypeAmmo:
		return "Arrow/Ammunition"
	case ItemTypeDelayedUsable:
		return "Delay-Consume Usable"
	case ItemTypeCash:
		return "Cash Usable"
	default:
		return "Unknown Type"
	}
}

// Gender — требование к полу персонажа.
type Gender int8

const (
	GenderFemale Gender = 0
	GenderMale   Gender = 1
	GenderAny    Gender = 2
)

// String returns human-readable gender name.
func (g Gender) String() string {
	switch g {
	case GenderFemale:
		return "Female"
	case GenderMale:
		return "Male"
	case GenderAny:
		return "Any"
	default:
		return "Unknown"
	}
}

// TradeRestriction — битовая маска ограничений передачи предмета (item_trade).
type TradeRestriction uint16

const (
	TradeNoDrop TradeRestriction = 1 << iota
	TradeNoTrade
	// TradePartner разрешает передачу супругу даже при TradeNoTrade.
	TradePartner
	TradeNoSell
	TradeNoCart
	TradeNoStorage
	TradeNoGuildStorage
	TradeNoMail
	TradeNoAuction

	TradeRestrictionBits                  = 9
	TradeRestrictionMask TradeRestriction = 1<<TradeRestrictionBits - 1
)

// Has reports whether every bit of flag is set.
func (r TradeRestriction) Has(flag TradeRestriction) bool {
	return r&flag == flag
}

// StackLimit — лимиты стака по контейнерам (item_stack).
type StackLimit struct {
	Amount       int32
	Inventory    bool
	Cart         bool
	Storage      bool
	GuildStorage bool
}

// UsageRestriction is consumed by the item usage gate (item_nouse).
type UsageRestriction struct {
	Flag     int32
	Override int32
}

// DropSource — один монстр, дропающий предмет, и шанс в базисных пунктах.
type DropSource struct {
	MobID  int32
	Chance int32
}

// ItemRecord — определение предмета из item_db.
// Записи создаются только во время загрузки и живут до следующего reload.
type ItemRecord struct {
	ID          int32
	CodeName    string
	DisplayName string
	Type        ItemType

	BuyPrice  int32
	SellPrice int32

	Weight      int32
	Attack      int32
	MagicAttack int32
	Defense     int32
	Range       int32
	Slots       int32
	WeaponLevel int32
	MinLevel    int32
	MaxLevel    int32

	// ClassBase — маски классов base / 2-1 / 2-2, развёрнутые из job mask.
	ClassBase [3]uint32
	UpperMask int32
	Gender    Gender
	EquipMask int32
	Look      int32
	ViewID    int32

	Available    bool
	NoRefine     bool
	DelayConsume bool
	BuyingStore  bool

	Trade           TradeRestriction
	TradeGMOverride int32 // GM level bypassing every bit of Trade

	Delay int32 // reuse delay, ms
	Stack StackLimit
	Usage UsageRestriction

	UseScript     script.Code
	EquipScript   script.Code
	UnequipScript script.Code

	Combos   []*Combo
	MobDrops [MaxDropSources]DropSource

	Group   *ItemGroup
	Package *ItemPackage
}

// NewItemRecord returns a blank record with loader defaults.
func NewItemRecord(id int32) *ItemRecord {
	return &ItemRecord{
		ID:     id,
		Weight: 1,
		Type:   ItemTypeEtc,
	}
}

// NewDummyRecord returns the UNKNOWN_ITEM placeholder.
func NewDummyRecord() *ItemRecord {
	return &ItemRecord{
		ID:          DummyItemID,
		CodeName:    DummyItemName,
		DisplayName: DummyItemName,
		Weight:      1,
		SellPrice:   1,
		Type:        ItemTypeEtc,
		ViewID:      UnknownItemID,
	}
}

// IsWeapon returns true if this record is a weapon.
func (r *ItemRecord) IsWeapon() bool {
	return r.Type == ItemTypeWeapon
}

// IsArmor returns true if this record is armor.
func (r *ItemRecord) IsArmor() bool {
	return r.Type == ItemTypeArmor
}

// SetTradeRestriction выставляет маску ограничений и GM-уровень, который их обходит.
func (r *ItemRecord) SetTradeRestriction(mask TradeRestriction, gmLevel int32) {
	r.Trade = mask & TradeRestrictionMask
	r.TradeGMOverride = gmLevel
}

// AddDropSource вставляет монстра в таблицу "кто дропает", сохраняя порядок по убыванию шанса.
// Монстр вытесняет самую слабую запись; если шанс ниже всех сохранённых, таблица не меняется.
func (r *ItemRecord) AddDropSource(mobID, chance int32) {
	k := 0
	for ; k < MaxDropSources; k++ {
		if r.MobDrops[k].Chance <= chance {
			break
		}
	}
	if k == MaxDropSources {
		return
	}
	if r.MobDrops[k].MobID != mobID {
		copy(r.MobDrops[k+1:], r.MobDrops[k:MaxDropSources-1])
	}
	r.MobDrops[k] = DropSource{MobID: mobID, Chance: chance}
}

// ClearDropSources empties the drop-source table.
func (r *ItemRecord) ClearDropSources() {
	r.MobDrops = [MaxDropSources]DropSource{}
}

// Equippable — оружие, броня и боеприпасы.
func (r *ItemRecord) Equippable() bool {
	switch r.Type {
	case ItemTypeWeapon, ItemTypeArmor, ItemTypeAmmo:
		return true
	}
	return false
}

// Stackable: weapons, armor, pet eggs and pet armor never stack.
func (r *ItemRecord) Stackable() bool {
	switch r.Type {
	case ItemTypeWeapon, ItemTypeArmor, ItemTypePetEgg, ItemTypePetArmor:
		return false
	}
	return true
}

// IdentifiedByDefault: weapons, armor and pet armor drop unidentified.
func (r *ItemRecord) IdentifiedByDefault() bool {
	switch r.Type {
	case ItemTypeWeapon, ItemTypeArmor, ItemTypePetArmor:
		return false
	}
	return true
}

// MaxStackPerGrant — сколько штук можно выдать за одну операцию.
func (r *ItemRecord) MaxStackPerGrant() int32 {
	if !r.Stackable() {
		return 1
	}
	if r.Stack.Inventory && r.Stack.Amount > 0 {
		return r.Stack.Amount
	}
	return MaxAmount
}
