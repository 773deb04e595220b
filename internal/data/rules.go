package data

import "github.com/udisondev/itemdb/internal/model"

// TradePredicate проверяет одно ограничение передачи предмета.
// gmLevel2 — GM-уровень второй стороны (учитывается только для trade и partner trade).
type TradePredicate func(rec *model.ItemRecord, gmLevel, gmLevel2 int32) bool

func allowed(rec *model.ItemRecord, flag model.TradeRestriction, gmLevel int32) bool {
	return rec != nil && (!rec.Trade.Has(flag) || gmLevel >= rec.TradeGMOverride)
}

// CanDrop reports whether rec may be dropped on the ground.
func CanDrop(rec *model.ItemRecord, gmLevel, _ int32) bool {
	return allowed(rec, model.TradeNoDrop, gmLevel)
}

// CanTrade reports whether rec may be traded. Either side's GM level can override.
func CanTrade(rec *model.ItemRecord, gmLevel, gmLevel2 int32) bool {
	return allowed(rec, model.TradeNoTrade, gmLevel) || allowed(rec, model.TradeNoTrade, gmLevel2)
}

// CanPartnerTrade: бит TradePartner разрешает обмен с супругом, а не запрещает.
func CanPartnerTrade(rec *model.ItemRecord, gmLevel, gmLevel2 int32) bool {
	if rec == nil {
		return false
	}
	return rec.Trade.Has(model.TradePartner) ||
		gmLevel >= rec.TradeGMOverride || gmLevel2 >= rec.TradeGMOverride
}

// CanSell reports whether rec may be sold to NPC shops.
func CanSell(rec *model.ItemRecord, gmLevel, _ int32) bool {
	return allowed(rec, model.TradeNoSell, gmLevel)
}

// CanCartStore reports whether rec may be put in a cart.
func CanCartStore(rec *model.ItemRecord, gmLevel, _ int32) bool {
	return allowed(rec, model.TradeNoCart, gmLevel)
}

// CanStore reports whether rec may be put in storage.
func CanStore(rec *model.ItemRecord, gmLevel, _ int32) bool {
	return allowed(rec, model.TradeNoStorage, gmLevel)
}

// CanGuildStore reports whether rec may be put in guild storage.
func CanGuildStore(rec *model.ItemRecord, gmLevel, _ int32) bool {
	return allowed(rec, model.TradeNoGuildStorage, gmLevel)
}

// CanMail reports whether rec may be attached to mail.
func CanMail(rec *model.ItemRecord, gmLevel, _ int32) bool {
	return allowed(rec, model.TradeNoMail, gmLevel)
}

// CanAuction reports whether rec may be auctioned.
func CanAuction(rec *model.ItemRecord, gmLevel, _ int32) bool {
	return allowed(rec, model.TradeNoAuction, gmLevel)
}

// IsRestricted reports whether pred forbids the action for a concrete item.
//
// Сначала проверяется сам предмет. Предмет без слотов или со специальной
// первой картой (forge/create/pet) судится только по базовому предмету;
// иначе любая вставленная карта, которую pred запрещает, запрещает и предмет.
func (r *Registry) IsRestricted(item model.ItemInstance, gmLevel, gmLevel2 int32, pred TradePredicate) bool {
	s := r.Snapshot()
	base := s.Search(item.ItemID)
	if !pred(base, gmLevel, gmLevel2) {
		return true
	}
	if base.Slots == 0 || item.HasSpecialCard() {
		return false
	}
	for i := int32(0); i < base.Slots && i < model.MaxSlots; i++ {
		card := item.Cards[i]
		if card == 0 {
			continue
		}
		if !pred(s.Search(card), gmLevel, gmLevel2) {
			return true
		}
	}
	return false
}

// Permitted is the id form of a trade predicate.
func (r *Registry) Permitted(id, gmLevel, gmLevel2 int32, pred TradePredicate) bool {
	return pred(r.Search(id), gmLevel, gmLevel2)
}

// IsEquippable is the id form of ItemRecord.Equippable; unknown ids use the dummy.
func (r *Registry) IsEquippable(id int32) bool {
	return r.Search(id).Equippable()
}

// IsStackable is the id form of ItemRecord.Stackable.
func (r *Registry) IsStackable(id int32) bool {
	return r.Search(id).Stackable()
}

// IsIdentifiedByDefault is the id form of ItemRecord.IdentifiedByDefault.
func (r *Registry) IsIdentifiedByDefault(id int32) bool {
	return r.Search(id).IdentifiedByDefault()
}
