package data

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/itemdb/internal/model"
	"github.com/udisondev/itemdb/internal/script"
)

var (
	// ErrUnknownItem is returned when an operation needs a defined item id.
	ErrUnknownItem = errors.New("unknown item")
	// ErrComboTooShort marks a combo line with fewer than two members.
	ErrComboTooShort = errors.New("combo needs at least two items")
)

// MobRange is an inclusive range of monster ids.
type MobRange struct {
	From int32
	To   int32
}

// Options — параметры registry.
type Options struct {
	DenseThreshold    int32
	MaxItemID         int32
	MaxSlots          int32
	IgnoreItemsGender bool
	// PackageRollPasses — сколько полных кругов делает выбор в random-группе пакета.
	PackageRollPasses int
	SearchCacheSize   int
	// ExcludedMobs не попадают в кэш "кто дропает".
	ExcludedMobs []MobRange
	// Seed > 0 делает последовательность бросков воспроизводимой.
	Seed uint64
	Now  func() time.Time
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		DenseThreshold:    32768,
		MaxItemID:         65535,
		MaxSlots:          model.MaxSlots,
		IgnoreItemsGender: true,
		PackageRollPasses: 64,
		SearchCacheSize:   1024,
		ExcludedMobs: []MobRange{
			{From: 1324, To: 1363},
			{From: 1938, To: 1946},
		},
		Now: time.Now,
	}
}

// ItemDB — операции registry, доступные игровой логике.
type ItemDB interface {
	Exists(id int32) *model.ItemRecord
	Search(id int32) *model.ItemRecord
	NameToRecord(name string) *model.ItemRecord
	SearchByName(str string) *model.ItemRecord
	SearchByNamePrefix(str string, limit int, exact bool) ([]*model.ItemRecord, int)

	IsEquippable(id int32) bool
	IsStackable(id int32) bool
	IsIdentifiedByDefault(id int32) bool
	IsRestricted(item model.ItemInstance, gmLevel, gmLevel2 int32, pred TradePredicate) bool

	RollGroup(groupID int32) int32
	RollChain(chainID int32) (itemID, rate int32)
	GrantPackage(to Recipient, packageID int32) ([]GrantOutcome, error)

	Reload(ctx context.Context) error
}

var _ ItemDB = (*Registry)(nil)

// Registry владеет текущей эпохой Store и всем, что нужно для её пересборки.
type Registry struct {
	opts   Options
	engine script.Engine

	current  atomic.Pointer[Store]
	reloadMu sync.Mutex

	rngMu sync.Mutex
	rng   *rand.Rand

	sources   Sources
	cache     PackageCache
	announcer Announcer
	sessions  SessionIterator
	mobs      MobDropTable
	uidSource UniqueIDSource

	uniqueIDs UniqueIDs
}

// NewRegistry создаёт registry с пустой эпохой (только заглушка UNKNOWN_ITEM).
func NewRegistry(engine script.Engine, opts Options) *Registry {
	def := DefaultOptions()
	if opts.DenseThreshold <= 0 {
		opts.DenseThreshold = def.DenseThreshold
	}
	if opts.MaxItemID <= 0 {
		opts.MaxItemID = def.MaxItemID
	}
	if opts.DenseThreshold > opts.MaxItemID+1 {
		opts.DenseThreshold = opts.MaxItemID + 1
	}
	if opts.MaxSlots < 0 || opts.MaxSlots > model.MaxSlots {
		opts.MaxSlots = model.MaxSlots
	}
	if opts.PackageRollPasses <= 0 {
		opts.PackageRollPasses = def.PackageRollPasses
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	r := &Registry{
		opts:   opts,
		engine: engine,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
	}
	r.current.Store(newStore(opts, engine))
	return r
}

// SetSources sets the files and row source used by Load and Reload.
func (r *Registry) SetSources(src Sources) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()
	r.sources = src
}

// SetPackageCache enables the binary package cache.
func (r *Registry) SetPackageCache(c PackageCache) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()
	r.cache = c
}

// SetAnnouncer sets the broadcast sink for announced package items.
func (r *Registry) SetAnnouncer(a Announcer) {
	r.announcer = a
}

// SetSessions sets the iterator used by Reload to repair player state.
func (r *Registry) SetSessions(it SessionIterator) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()
	r.sessions = it
}

// SetMobDrops overrides the mob drop file with an in-process table.
func (r *Registry) SetMobDrops(t MobDropTable) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()
	r.mobs = t
}

// SetUniqueIDSource sets where Load seeds the unique item id register from.
func (r *Registry) SetUniqueIDSource(src UniqueIDSource) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()
	r.uidSource = src
}

// Snapshot returns the published store.
func (r *Registry) Snapshot() *Store {
	return r.current.Load()
}

// Options returns the effective options.
func (r *Registry) Options() Options {
	return r.opts
}

// UniqueIDs returns the unique item id register.
func (r *Registry) UniqueIDs() *UniqueIDs {
	return &r.uniqueIDs
}

// rnd returns a uniform integer in [0, n).
func (r *Registry) rnd(n int) int {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.IntN(n)
}

// Exists returns the record or nil.
func (r *Registry) Exists(id int32) *model.ItemRecord {
	return r.Snapshot().Exists(id)
}

// Search returns the record or the dummy.
func (r *Registry) Search(id int32) *model.ItemRecord {
	return r.Snapshot().Search(id)
}

// NameToRecord is an exact code name lookup.
func (r *Registry) NameToRecord(name string) *model.ItemRecord {
	return r.Snapshot().NameToRecord(name)
}

// SearchByName is a code-name-first, case-insensitive lookup.
func (r *Registry) SearchByName(str string) *model.ItemRecord {
	return r.Snapshot().SearchByName(str)
}

// SearchByNamePrefix collects matching records.
func (r *Registry) SearchByNamePrefix(str string, limit int, exact bool) ([]*model.ItemRecord, int) {
	return r.Snapshot().SearchByNamePrefix(str, limit, exact)
}

// ChainID resolves a chain name.
func (r *Registry) ChainID(name string) (int32, bool) {
	return r.Snapshot().ChainID(name)
}

// InGroup reports whether itemID is a member of the group keyed by groupID.
func (r *Registry) InGroup(groupID, itemID int32) bool {
	g := r.Snapshot().Group(groupID)
	return g != nil && g.Contains(itemID)
}

// ActiveCombos returns combos fully covered by equipped ids.
func (r *Registry) ActiveCombos(equipped []int32) []*model.Combo {
	return r.Snapshot().ActiveCombos(equipped)
}
