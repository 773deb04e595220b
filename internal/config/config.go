package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by LoadItemDB when the document fails validation.
var ErrInvalid = errors.New("invalid config")

// EnvConfigPath overrides the config path passed on the command line.
const EnvConfigPath = "ITEMDB_CONFIG"

// ItemDB holds all configuration of the item database service.
type ItemDB struct {
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Sources
	DBPath      string   `yaml:"db_path" validate:"required"`
	ItemDBFiles []string `yaml:"item_db_files"`

	UseSQLItemDB    bool           `yaml:"use_sql_item_db"`
	SQLItemDBTables []string       `yaml:"sql_item_db_tables" validate:"required_if=UseSQLItemDB true"`
	Database        DatabaseConfig `yaml:"database"`

	GroupFile       string `yaml:"group_file"`
	ChainFile       string `yaml:"chain_file"`
	PackageFile     string `yaml:"package_file"`
	ComboFile       string `yaml:"combo_file"`
	MobDropFile     string `yaml:"mob_drop_file"`
	AvailFile       string `yaml:"avail_file"`
	TradeFile       string `yaml:"trade_file"`
	DelayFile       string `yaml:"delay_file"`
	StackFile       string `yaml:"stack_file"`
	BuyingStoreFile string `yaml:"buyingstore_file"`
	NoUseFile       string `yaml:"nouse_file"`

	Cache CacheConfig `yaml:"cache"`

	// Registry
	DenseThreshold    int32 `yaml:"dense_threshold" validate:"min=1,ltefield=MaxItemID"`
	MaxItemID         int32 `yaml:"max_item_id" validate:"min=1"`
	MaxSlots          int32 `yaml:"max_slots" validate:"min=0,max=4"`
	IgnoreItemsGender bool  `yaml:"ignore_items_gender"`
	PackageRollPasses int   `yaml:"package_roll_passes" validate:"min=1"`
	SearchCacheSize   int   `yaml:"search_cache_size" validate:"min=0"`

	DropSourceExcludedMobs []MobRange `yaml:"drop_source_excluded_mobs" validate:"dive"`

	// Runtime
	MetricsAddr  string `yaml:"metrics_addr"`
	WatchSources bool   `yaml:"watch_sources"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"min=0,max=65535"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// CacheConfig controls the binary package cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir" validate:"required_if=Enabled true"`
	Compress bool   `yaml:"compress"`
}

// MobRange is an inclusive range of monster ids.
type MobRange struct {
	From int32 `yaml:"from" validate:"min=1"`
	To   int32 `yaml:"to" validate:"gtefield=From"`
}

// Contains reports whether id is inside the range.
func (r MobRange) Contains(id int32) bool {
	return id >= r.From && id <= r.To
}

// Path resolves a source file name relative to DBPath. Empty names stay empty.
func (c ItemDB) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DBPath, name)
}

// DefaultItemDB returns ItemDB config with sensible defaults.
func DefaultItemDB() ItemDB {
	return ItemDB{
		LogLevel:        "info",
		DBPath:          "db",
		ItemDBFiles:     []string{"item_db.txt", "item_db2.txt"},
		SQLItemDBTables: []string{"item_db", "item_db2"},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "itemdb",
			Password: "itemdb",
			DBName:   "itemdb",
			SSLMode:  "disable",
		},
		GroupFile:       "item_group.yaml",
		ChainFile:       "item_chain.yaml",
		PackageFile:     "item_packages.yaml",
		ComboFile:       "item_combo_db.txt",
		MobDropFile:     "mob_drops.yaml",
		AvailFile:       "item_avail.txt",
		TradeFile:       "item_trade.txt",
		DelayFile:       "item_delay.txt",
		StackFile:       "item_stack.txt",
		BuyingStoreFile: "item_buyingstore.txt",
		NoUseFile:       "item_nouse.txt",
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "cache",
		},
		DenseThreshold:    32768,
		MaxItemID:         65535,
		MaxSlots:          4,
		IgnoreItemsGender: true,
		PackageRollPasses: 64,
		SearchCacheSize:   1024,
		DropSourceExcludedMobs: []MobRange{
			{From: 1324, To: 1363},
			{From: 1938, To: 1946},
		},
		MetricsAddr: ":9108",
	}
}

// ConfigPath returns the config path taking .env and ITEMDB_CONFIG into account.
func ConfigPath(fallback string) string {
	_ = godotenv.Load()
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return fallback
}

// LoadItemDB loads item database config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadItemDB(path string) (ItemDB, error) {
	cfg := DefaultItemDB()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks struct tags of cfg.
func Validate(cfg ItemDB) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("%w: field %s fails %q", ErrInvalid, e.Namespace(), e.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
