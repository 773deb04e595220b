package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/itemdb/internal/model"
	"github.com/udisondev/itemdb/internal/script"
)

func TestRelinkDrops_Fixture(t *testing.T) {
	t.Parallel()

	r, _ := loadTestRegistry(t)

	jellopy := r.Exists(909)
	assert.Equal(t, model.DropSource{MobID: 1113, Chance: 7500}, jellopy.MobDrops[0])
	assert.Equal(t, model.DropSource{MobID: 1002, Chance: 7000}, jellopy.MobDrops[1])
	assert.Zero(t, jellopy.MobDrops[2], "excluded mob 1324 is not linked")

	assert.Equal(t, model.DropSource{MobID: 1002, Chance: 1}, r.Exists(4001).MobDrops[0])

	// Reload relinks from scratch instead of accumulating.
	require.NoError(t, r.Reload(context.Background()))
	assert.Equal(t, model.DropSource{MobID: 1113, Chance: 7500}, r.Exists(909).MobDrops[0])
	assert.Equal(t, model.DropSource{MobID: 1002, Chance: 7000}, r.Exists(909).MobDrops[1])
}

func TestRelinkDrops_InProcessTable(t *testing.T) {
	t.Parallel()

	r := NewRegistry(script.NewTextEngine(), testOptions())
	src := testSources()
	src.MobDropFile = ""
	r.SetSources(src)
	r.SetMobDrops(NewMobDrops(map[int32][]model.MobDrop{
		1031: {{ItemID: 909, Chance: 100}},
		1063: {{ItemID: 909, Chance: 9000}, {ItemID: 0, Chance: 9000}},
		1940: {{ItemID: 909, Chance: 10000}},
	}))
	require.NoError(t, r.Load(context.Background()))

	drops := r.Exists(909).MobDrops
	assert.Equal(t, model.DropSource{MobID: 1063, Chance: 9000}, drops[0])
	assert.Equal(t, model.DropSource{MobID: 1031, Chance: 100}, drops[1])
	assert.Zero(t, drops[2])
}

func TestReadMobDrops_Errors(t *testing.T) {
	t.Parallel()

	_, err := ReadMobDrops(testdata("missing.yaml"))
	assert.Error(t, err)

	_, err = ReadMobDrops(testdata("item_chain.yaml"))
	assert.Error(t, err, "a mapping is not a mob list")
}
