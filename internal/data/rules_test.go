package data

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/itemdb/internal/model"
)

func TestTradePredicates(t *testing.T) {
	t.Parallel()

	rec := model.NewItemRecord(100)
	rec.SetTradeRestriction(model.TradeNoDrop|model.TradeNoTrade|model.TradeNoMail, 60)

	tests := []struct {
		name     string
		pred     TradePredicate
		gm, gm2  int32
		expected bool
	}{
		{name: "drop, player", pred: CanDrop, gm: 0, expected: false},
		{name: "drop, gm below override", pred: CanDrop, gm: 59, expected: false},
		{name: "drop, gm at override", pred: CanDrop, gm: 60, expected: true},
		{name: "trade, partner is gm", pred: CanTrade, gm: 0, gm2: 60, expected: true},
		{name: "trade, nobody is gm", pred: CanTrade, gm: 10, gm2: 10, expected: false},
		{name: "mail restricted", pred: CanMail, gm: 0, expected: false},
		{name: "sell unrestricted", pred: CanSell, gm: 0, expected: true},
		{name: "cart unrestricted", pred: CanCartStore, gm: 0, expected: true},
		{name: "storage unrestricted", pred: CanStore, gm: 0, expected: true},
		{name: "guild storage unrestricted", pred: CanGuildStore, gm: 0, expected: true},
		{name: "auction unrestricted", pred: CanAuction, gm: 0, expected: true},
		{name: "partner bit clear", pred: CanPartnerTrade, gm: 0, expected: false},
		{name: "partner bit clear, gm", pred: CanPartnerTrade, gm: 60, expected: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.pred(rec, tt.gm, tt.gm2))
		})
	}

	partner := model.NewItemRecord(101)
	partner.SetTradeRestriction(model.TradeNoTrade|model.TradePartner, 99)
	assert.True(t, CanPartnerTrade(partner, 0, 0), "partner bit allows wedding-partner trade")
	assert.False(t, CanTrade(partner, 0, 0))

	assert.False(t, CanDrop(nil, 99, 99))
}

func TestIsRestricted_Cards(t *testing.T) {
	t.Parallel()

	r := NewTestRegistry(nil,
		TestItem{ID: 1201, Name: "Knife", Type: model.ItemTypeWeapon, Slots: 3, Equip: 2},
		TestItem{ID: 1202, Name: "Slotless", Type: model.ItemTypeWeapon, Equip: 2},
		TestItem{ID: 4001, Name: "Poring_Card", Type: model.ItemTypeCard},
		TestItem{ID: 4002, Name: "Bound_Card", Type: model.ItemTypeCard},
	)
	r.Exists(4002).SetTradeRestriction(model.TradeNoSell, 50)

	knife := model.NewItemInstance(r.Exists(1201))
	assert.False(t, r.IsRestricted(knife, 0, 0, CanSell))

	knife.Cards[0] = 4001
	assert.False(t, r.IsRestricted(knife, 0, 0, CanSell))

	knife.Cards[2] = 4002
	assert.True(t, r.IsRestricted(knife, 0, 0, CanSell), "a restricted card restricts the item")
	assert.False(t, r.IsRestricted(knife, 50, 0, CanSell))

	forged := knife
	forged.Cards[0] = model.CardForge
	assert.False(t, r.IsRestricted(forged, 0, 0, CanSell), "forged items ignore the card slots")

	slotless := model.NewItemInstance(r.Exists(1202))
	slotless.Cards[0] = 4002
	assert.False(t, r.IsRestricted(slotless, 0, 0, CanSell))

	assert.True(t, r.Permitted(4001, 0, 0, CanSell))
	assert.False(t, r.Permitted(4002, 0, 0, CanSell))
}

func TestIsRestricted_Fixture(t *testing.T) {
	t.Parallel()

	r, _ := loadTestRegistry(t)
	rosary := model.NewItemInstance(r.Exists(2608))

	assert.True(t, r.IsRestricted(rosary, 59, 0, CanDrop))
	assert.False(t, r.IsRestricted(rosary, 60, 0, CanDrop))
	assert.False(t, r.IsRestricted(rosary, 0, 0, CanTrade))
}
