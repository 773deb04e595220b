package metrics

// Metric names
const (
	MetricNameFallbackLookups   = "itemdb_fallback_lookups_total"
	MetricNameRolls             = "itemdb_rolls_total"
	MetricNameRollsExhausted    = "itemdb_rolls_exhausted_total"
	MetricNameGrantFailures     = "itemdb_grant_failures_total"
	MetricNameReloads           = "itemdb_reloads_total"
	MetricNameReloadDuration    = "itemdb_reload_duration_seconds"
	MetricNamePackageCacheReads = "itemdb_package_cache_reads_total"
	MetricNameRecords           = "itemdb_records"
	MetricNameSearchCache       = "itemdb_search_cache_total"
)

// Metric help text
const (
	HelpTextFallbackLookups   = "Lookups of unknown item ids answered with the dummy record"
	HelpTextRolls             = "Reward rolls by kind"
	HelpTextRollsExhausted    = "Reward rolls that ran out of passes without a winner"
	HelpTextGrantFailures     = "Package sub-grants rejected by the inventory"
	HelpTextReloads           = "Registry reloads by outcome"
	HelpTextReloadDuration    = "Full load/reload pipeline duration in seconds"
	HelpTextPackageCacheReads = "Package cache read attempts by result"
	HelpTextRecords           = "Item records in the published registry by storage"
	HelpTextSearchCache       = "SearchByName cache lookups by result"
)

// Labels
const (
	LabelKind    = "kind"
	LabelResult  = "result"
	LabelStorage = "storage"
)

// Label values
const (
	KindGroup   = "group"
	KindChain   = "chain"
	KindPackage = "package"

	ResultOK      = "ok"
	ResultError   = "error"
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultStale   = "stale"
	ResultCorrupt = "corrupt"

	StorageDense  = "dense"
	StorageSparse = "sparse"
)

// ReloadLatencyBuckets covers small test registries up to full production data sets.
var ReloadLatencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
