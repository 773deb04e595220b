package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/itemdb/internal/model"
)

func TestReload_RepairsSessions(t *testing.T) {
	t.Parallel()

	r, engine := loadTestRegistry(t)
	liveAfterLoad := engine.Live()

	p := model.NewPlayer(7, "Acolyte", 0)
	for _, id := range []int32{2608, 2301, 909} {
		require.Equal(t, model.GrantOK, p.AddItem(model.NewItemInstance(r.Exists(id)), 1))
	}
	require.True(t, p.Inventory().Equip(2608))
	require.True(t, p.Inventory().Equip(2301))
	p.SetItemDelay(501, time.Now().Add(time.Hour))
	r.SetSessions(playerList{p})

	oldRosary := r.Exists(2608)
	require.NoError(t, r.Reload(context.Background()))

	newRosary := r.Exists(2608)
	assert.NotSame(t, oldRosary, newRosary, "reload publishes fresh records")

	_, delayed := p.ItemDelay(501)
	assert.False(t, delayed, "item delays are reset")

	for _, it := range p.Inventory().Items() {
		assert.Same(t, r.Exists(it.ItemID), it.Record, "inventory points at the new epoch")
	}

	combos := p.ActiveCombos()
	require.Len(t, combos, 1)
	assert.Equal(t, []int32{2608, 2301}, combos[0].Members())
	assert.Same(t, r.Snapshot().Combos()[0], combos[0])
	assert.Equal(t, 1, p.StatusRecalcs())

	assert.Equal(t, liveAfterLoad, engine.Live(), "the old epoch's scripts are freed")
	assert.Zero(t, engine.DoubleFrees())
	assert.Zero(t, oldRosary.Combos, "old records drop their combo handles")
}

func TestReload_NoCombosNoRecalc(t *testing.T) {
	t.Parallel()

	r, _ := loadTestRegistry(t)
	p := model.NewPlayer(8, "Novice", 0)
	r.SetSessions(playerList{p})

	require.NoError(t, r.Reload(context.Background()))
	assert.Empty(t, p.ActiveCombos())
	assert.Zero(t, p.StatusRecalcs())
}

type failingRows struct{}

func (failingRows) ItemRows(context.Context) ([]model.ItemRow, error) {
	return nil, errors.New("connection refused")
}

func TestReload_FailureKeepsPreviousEpoch(t *testing.T) {
	t.Parallel()

	r, engine := loadTestRegistry(t)
	before := r.Snapshot()
	live := engine.Live()

	src := testSources()
	src.Rows = failingRows{}
	r.SetSources(src)

	err := r.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Same(t, before, r.Snapshot())
	assert.Equal(t, live, engine.Live())
	assert.NotNil(t, r.Exists(909))
}

func TestReload_CancelledContext(t *testing.T) {
	t.Parallel()

	r, engine := loadTestRegistry(t)
	before := r.Snapshot()
	live := engine.Live()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Reload(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Same(t, before, r.Snapshot())
	assert.Equal(t, live, engine.Live(), "a discarded build frees its scripts")
}
