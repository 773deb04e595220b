package model

// Special values of the first card slot.
const (
	CardForge  int32 = 0x00FF
	CardCreate int32 = 0x00FE
	CardPet    int32 = -256
)

// ItemInstance — конкретный экземпляр предмета, который выдаётся в инвентарь.
// Record указывает на определение текущей эпохи registry и заменяется после reload.
type ItemInstance struct {
	ItemID     int32
	Amount     int32
	Identified bool
	Cards      [MaxSlots]int32
	ExpireTime int64 // unix seconds, 0 = permanent

	Record *ItemRecord
}

// NewItemInstance creates an instance of rec with default identification.
func NewItemInstance(rec *ItemRecord) ItemInstance {
	return ItemInstance{
		ItemID:     rec.ID,
		Identified: rec.IdentifiedByDefault(),
		Record:     rec,
	}
}

// HasSpecialCard reports whether Cards[0] carries a forge/create/pet marker.
func (it *ItemInstance) HasSpecialCard() bool {
	switch it.Cards[0] {
	case CardForge, CardCreate, CardPet:
		return true
	}
	return false
}

// SetNamed помечает предмет как именной: владелец хранится в Cards[2..3].
func (it *ItemInstance) SetNamed(charID int32) {
	it.Cards[0] = CardForge
	it.Cards[1] = 0
	it.Cards[2] = int32(uint32(charID) & 0xFFFF)
	it.Cards[3] = int32(uint32(charID) >> 16)
}

// NamedOwner returns the character id stamped by SetNamed.
func (it *ItemInstance) NamedOwner() (int32, bool) {
	if it.Cards[0] != CardForge {
		return 0, false
	}
	return int32(uint32(it.Cards[2]) | uint32(it.Cards[3])<<16), true
}

// sameStack reports whether two instances may share a stack.
func (it *ItemInstance) sameStack(other *ItemInstance) bool {
	return it.ItemID == other.ItemID &&
		it.Cards == other.Cards &&
		it.ExpireTime == other.ExpireTime &&
		it.Identified == other.Identified
}

// GrantResult — код результата добавления предмета в инвентарь.
type GrantResult int32

const (
	GrantOK          GrantResult = 0
	GrantInvalidItem GrantResult = 1
	GrantOverweight  GrantResult = 2
	GrantNoSlot      GrantResult = 4
	GrantMaxAmount   GrantResult = 5
	GrantStackLimit  GrantResult = 7
)

// String returns human-readable result name.
func (r GrantResult) String() string {
	switch r {
	case GrantOK:
		return "ok"
	case GrantInvalidItem:
		return "invalid_item"
	case GrantOverweight:
		return "overweight"
	case GrantNoSlot:
		return "no_slot"
	case GrantMaxAmount:
		return "max_amount"
	case GrantStackLimit:
		return "stack_limit"
	default:
		return "unknown"
	}
}
