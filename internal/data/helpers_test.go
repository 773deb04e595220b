package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/itemdb/internal/model"
	"github.com/udisondev/itemdb/internal/script"
)

var testNow = time.Unix(1_700_000_000, 0)

func testdata(name string) string {
	return filepath.Join("testdata", name)
}

func testSources() Sources {
	return Sources{
		ItemDBFiles:     []string{testdata("item_db.txt"), testdata("item_db2.txt")},
		ComboFile:       testdata("item_combo_db.txt"),
		GroupFile:       testdata("item_group.yaml"),
		ChainFile:       testdata("item_chain.yaml"),
		PackageFile:     testdata("item_packages.yaml"),
		AvailFile:       testdata("item_avail.txt"),
		TradeFile:       testdata("item_trade.txt"),
		DelayFile:       testdata("item_delay.txt"),
		StackFile:       testdata("item_stack.txt"),
		BuyingStoreFile: testdata("item_buyingstore.txt"),
		NoUseFile:       testdata("item_nouse.txt"),
		MobDropFile:     testdata("mob_drops.yaml"),
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Seed = 42
	opts.Now = func() time.Time { return testNow }
	return opts
}

// loadTestRegistry loads every fixture under testdata/.
func loadTestRegistry(t *testing.T) (*Registry, *script.TextEngine) {
	t.Helper()

	engine := script.NewTextEngine()
	r := NewRegistry(engine, testOptions())
	r.SetSources(testSources())
	require.NoError(t, r.Load(context.Background()))
	return r, engine
}

type grantCall struct {
	item   model.ItemInstance
	amount int32
}

// recordingRecipient accepts every grant and remembers it.
type recordingRecipient struct {
	charID int32
	result model.GrantResult
	calls  []grantCall
}

func (r *recordingRecipient) CharacterID() int32 { return r.charID }

func (r *recordingRecipient) AddItem(item model.ItemInstance, amount int32) model.GrantResult {
	r.calls = append(r.calls, grantCall{item: item, amount: amount})
	return r.result
}

func (r *recordingRecipient) total(itemID int32) int32 {
	var n int32
	for _, c := range r.calls {
		if c.item.ItemID == itemID {
			n += c.amount
		}
	}
	return n
}

type announcement struct {
	charID, itemID, packageID int32
}

type recordingAnnouncer struct {
	got []announcement
}

func (a *recordingAnnouncer) AnnouncePackageItem(to Recipient, itemID, packageID int32) {
	a.got = append(a.got, announcement{charID: to.CharacterID(), itemID: itemID, packageID: packageID})
}

type playerList []*model.Player

func (l playerList) ForEachSession(fn func(p PlayerSession) bool) {
	for _, p := range l {
		if !fn(p) {
			return
		}
	}
}
