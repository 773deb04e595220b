package data

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/itemdb/internal/model"
	"github.com/udisondev/itemdb/internal/pkgcache"
	"github.com/udisondev/itemdb/internal/script"
)

type staticRows []model.ItemRow

func (s staticRows) ItemRows(context.Context) ([]model.ItemRow, error) {
	return s, nil
}

func sqlRow(line int, id, name string, typ string) model.ItemRow {
	f := make([]string, itemDBColumns)
	f[colID] = id
	f[colCodeName] = name
	f[colDisplayName] = name
	f[colType] = typ
	f[colWeight] = "10"
	return model.ItemRow{Source: "item_db", Line: line, Fields: f}
}

func TestLoad_RowSource(t *testing.T) {
	t.Parallel()

	r := NewRegistry(script.NewTextEngine(), testOptions())
	r.SetSources(Sources{
		// text files are ignored when rows are provided
		ItemDBFiles: []string{testdata("item_db.txt")},
		Rows: staticRows{
			sqlRow(1, "909", "Jellopy", "3"),
			sqlRow(2, "50000", "Sql_Only", "3"),
			sqlRow(3, "909", "Jellopy_Override", "3"),
		},
	})
	require.NoError(t, r.Load(context.Background()))

	dense, sparse := r.Snapshot().Counts()
	assert.Equal(t, 1, dense)
	assert.Equal(t, 1, sparse)
	assert.Equal(t, "Jellopy_Override", r.Exists(909).CodeName, "later rows override earlier ones")
	assert.Nil(t, r.Exists(501))
}

func TestLoad_MissingFilesAreSkipped(t *testing.T) {
	t.Parallel()

	r := NewRegistry(script.NewTextEngine(), testOptions())
	r.SetSources(Sources{
		ItemDBFiles: []string{testdata("nope.txt"), testdata("item_db2.txt")},
		ComboFile:   testdata("nope_combo.txt"),
		GroupFile:   testdata("nope_group.yaml"),
		ChainFile:   testdata("nope_chain.yaml"),
		PackageFile: testdata("nope_packages.yaml"),
		TradeFile:   testdata("nope_trade.txt"),
		MobDropFile: testdata("nope_mobs.yaml"),
	})
	require.NoError(t, r.Load(context.Background()))

	assert.NotNil(t, r.Exists(501))
	assert.NotNil(t, r.Exists(7001))
	_, ok := r.ChainID(OreChainName)
	assert.False(t, ok)
}

func TestLoad_ExportsConstants(t *testing.T) {
	t.Parallel()

	_, engine := loadTestRegistry(t)

	v, ok := engine.Constant("Jellopy")
	require.True(t, ok)
	assert.Equal(t, int32(909), v)

	v, ok = engine.Constant("Sparse_Stone")
	require.True(t, ok)
	assert.Equal(t, int32(40000), v)
}

type fakePackageCache struct {
	pkgs    []*model.ItemPackage
	readErr error
	written []*model.ItemPackage
	reads   int
}

func (c *fakePackageCache) Read(string) ([]*model.ItemPackage, error) {
	c.reads++
	return c.pkgs, c.readErr
}

func (c *fakePackageCache) Write(_ string, pkgs []*model.ItemPackage) error {
	c.written = pkgs
	return nil
}

func TestLoad_PackageCacheMissWritesCache(t *testing.T) {
	t.Parallel()

	cache := &fakePackageCache{readErr: errors.New("stale")}
	r := NewRegistry(script.NewTextEngine(), testOptions())
	r.SetSources(testSources())
	r.SetPackageCache(cache)
	require.NoError(t, r.Load(context.Background()))

	assert.Equal(t, 1, cache.reads)
	require.Len(t, cache.written, 2)
	assert.Equal(t, int32(12000), cache.written[0].ID)
	assert.NotNil(t, r.Exists(12000).Package)
}

func TestLoad_PackageCacheHit(t *testing.T) {
	t.Parallel()

	cached := []*model.ItemPackage{
		{ID: 603, Must: []model.PackageEntry{{ItemID: 909, Quantity: 7, Rate: model.RateMax}}},
		{ID: 31337, Must: []model.PackageEntry{{ItemID: 909, Quantity: 1, Rate: model.RateMax}}},
	}
	cache := &fakePackageCache{pkgs: cached}

	src := testSources()
	src.PackageFile = testdata("nope_packages.yaml")
	r := NewRegistry(script.NewTextEngine(), testOptions())
	r.SetSources(src)
	r.SetPackageCache(cache)
	require.NoError(t, r.Load(context.Background()))

	assert.Nil(t, cache.written, "a cache hit is not rewritten")
	assert.Same(t, cached[0], r.Exists(603).Package)
	assert.Nil(t, r.Snapshot().Package(31337), "packages without an owner record are skipped")
	assert.Nil(t, r.Exists(12000).Package)
}

// withoutItem copies item_db.txt into dir, dropping the row of itemID.
func withoutItem(t *testing.T, dir string, itemID string) string {
	t.Helper()

	raw, err := os.ReadFile(testdata("item_db.txt"))
	require.NoError(t, err)
	var kept []string
	for _, line := range strings.Split(string(raw), "\n") {
		if !strings.HasPrefix(line, itemID+",") {
			kept = append(kept, line)
		}
	}
	path := filepath.Join(dir, "item_db.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(kept, "\n")), 0o644))
	return path
}

func TestLoad_PackageCacheRevalidatesItems(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	itemDB := filepath.Join(dir, "item_db.txt")
	raw, err := os.ReadFile(testdata("item_db.txt"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(itemDB, raw, 0o644))

	src := testSources()
	src.ItemDBFiles = []string{itemDB, testdata("item_db2.txt")}
	cache := pkgcache.New(filepath.Join(dir, "cache"), false)

	r := NewRegistry(script.NewTextEngine(), testOptions())
	r.SetSources(src)
	r.SetPackageCache(cache)
	require.NoError(t, r.Load(context.Background()))
	require.Equal(t, []model.PackageEntry{
		{ItemID: 909, Quantity: 5, Rate: 5000},
		{ItemID: 502, Quantity: 2, Rate: 5000},
	}, r.Snapshot().Package(12000).Random[0].Entries)

	_, err = cache.Read(src.PackageFile)
	require.NoError(t, err, "first load writes the cache")

	// Jellopy leaves item_db; the package file and its cache stay the same.
	withoutItem(t, dir, "909")
	require.NoError(t, r.Reload(context.Background()))
	require.Nil(t, r.Exists(909))

	cached := r.Snapshot().Package(12000)
	require.NotNil(t, cached)
	assert.Equal(t, []model.PackageEntry{
		{ItemID: 502, Quantity: 2, Rate: model.RateMax},
	}, cached.Random[0].Entries, "the remaining option becomes 100%")

	// Same result as parsing the YAML without a cache.
	fresh := NewRegistry(script.NewTextEngine(), testOptions())
	fresh.SetSources(src)
	require.NoError(t, fresh.Load(context.Background()))
	parsed := fresh.Snapshot().Package(12000)
	assert.Equal(t, parsed.Must, cached.Must)
	assert.Equal(t, parsed.Random, cached.Random)

	to := &recordingRecipient{charID: 150000, result: model.GrantOK}
	for range 50 {
		out, err := r.GrantPackage(to, 12000)
		require.NoError(t, err)
		for _, o := range out {
			assert.NotEqual(t, model.GrantInvalidItem, o.Result)
		}
	}
	assert.Zero(t, to.total(909))
}

func TestAttachPackages_DropsUnknownEntries(t *testing.T) {
	t.Parallel()

	b := &builder{store: newStore(DefaultOptions(), nil), opts: DefaultOptions()}
	b.store.Load(100).CodeName = "Box"
	b.store.Load(501)
	b.store.Load(502)

	pkg := &model.ItemPackage{
		ID:   100,
		Must: []model.PackageEntry{{ItemID: 501, Quantity: 1, Rate: model.RateMax}, {ItemID: 777, Quantity: 1, Rate: model.RateMax}},
		Random: []model.RandomGroup{
			{Entries: []model.PackageEntry{{ItemID: 778, Quantity: 1, Rate: 5000}}},
			{Entries: []model.PackageEntry{{ItemID: 779, Quantity: 1, Rate: 5000}, {ItemID: 502, Quantity: 3, Rate: 2500}}},
		},
	}
	b.attachPackages([]*model.ItemPackage{pkg})

	got := b.store.Package(100)
	require.Same(t, pkg, got)
	assert.Equal(t, []model.PackageEntry{{ItemID: 501, Quantity: 1, Rate: model.RateMax}}, got.Must)
	require.Len(t, got.Random, 1, "a group left empty is dropped")
	assert.Equal(t, []model.PackageEntry{{ItemID: 502, Quantity: 3, Rate: model.RateMax}}, got.Random[0].Entries)
}
