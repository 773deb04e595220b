// Offline tool for the binary item package cache.
//
// Usage:
//
//	go run ./cmd/pkgcache build            # parse item_packages.yaml and write the cache
//	go run ./cmd/pkgcache verify           # check that the cache is fresh and matches the source
//	go run ./cmd/pkgcache dump > out.yaml  # print the package table as YAML
//	go run ./cmd/pkgcache --list           # list available commands
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/udisondev/itemdb/internal/config"
	"github.com/udisondev/itemdb/internal/data"
	"github.com/udisondev/itemdb/internal/db"
	"github.com/udisondev/itemdb/internal/model"
	"github.com/udisondev/itemdb/internal/pkgcache"
	"github.com/udisondev/itemdb/internal/script"
)

const DefaultConfigPath = "config/itemdb.yaml"

type options struct {
	configPath string
	cacheDir   string
	compress   bool
	verbose    bool
}

type command struct {
	name string
	desc string
	run  func(ctx context.Context, cfg config.ItemDB, out io.Writer) error
}

var commands []command

func registerCommand(name, desc string, fn func(ctx context.Context, cfg config.ItemDB, out io.Writer) error) {
	commands = append(commands, command{name: name, desc: desc, run: fn})
}

func init() {
	registerCommand("build", "Parse the package source and (re)write the cache file", runBuild)
	registerCommand("verify", "Check that the cache is fresh and decodes to the source packages", runVerify)
	registerCommand("dump", "Print the package table as YAML", runDump)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "[pkgcache] %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("pkgcache", pflag.ContinueOnError)
	var opts options
	fs.StringVarP(&opts.configPath, "config", "c", DefaultConfigPath, "path to itemdb config")
	fs.StringVar(&opts.cacheDir, "cache-dir", "", "cache directory (overrides config)")
	fs.BoolVar(&opts.compress, "compress", false, "snappy-compress the cache payload (overrides config)")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log loader output")
	list := fs.Bool("list", false, "list available commands")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *list {
		printList(out)
		return nil
	}
	if fs.NArg() != 1 {
		printUsage(out)
		return errors.New("expected exactly one command")
	}

	cmd, ok := lookupCommand(fs.Arg(0))
	if !ok {
		printList(out)
		return fmt.Errorf("unknown command: %s", fs.Arg(0))
	}

	level := slog.LevelError
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfgPath := opts.configPath
	if !fs.Changed("config") {
		cfgPath = config.ConfigPath(cfgPath)
	}
	cfg, err := config.LoadItemDB(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.cacheDir != "" {
		cfg.Cache.Dir = opts.cacheDir
	}
	if fs.Changed("compress") {
		cfg.Cache.Compress = opts.compress
	}
	if cfg.PackageFile == "" {
		return errors.New("package_file is not configured")
	}

	return cmd.run(ctx, cfg, out)
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// loadSource builds a registry straight from the sources, bypassing the cache.
func loadSource(ctx context.Context, cfg config.ItemDB) (*data.Registry, error) {
	opts := data.DefaultOptions()
	opts.DenseThreshold = cfg.DenseThreshold
	opts.MaxItemID = cfg.MaxItemID
	reg := data.NewRegistry(script.NewTextEngine(), opts)

	files := make([]string, 0, len(cfg.ItemDBFiles))
	for _, f := range cfg.ItemDBFiles {
		files = append(files, cfg.Path(f))
	}
	// Package entries reference items by code name; nothing else is needed.
	src := data.Sources{
		ItemDBFiles: files,
		PackageFile: cfg.Path(cfg.PackageFile),
	}

	if cfg.UseSQLItemDB {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		rows, err := db.NewItemDBRepository(database.Pool(), cfg.SQLItemDBTables...).ItemRows(ctx)
		if err != nil {
			return nil, err
		}
		src.Rows = staticRows(rows)
	}

	reg.SetSources(src)
	if err := reg.Load(ctx); err != nil {
		return nil, err
	}
	return reg, nil
}

// staticRows serves rows already read, so the pool can be closed before Load.
type staticRows []model.ItemRow

func (s staticRows) ItemRows(context.Context) ([]model.ItemRow, error) {
	return s, nil
}

func runBuild(ctx context.Context, cfg config.ItemDB, out io.Writer) error {
	reg, err := loadSource(ctx, cfg)
	if err != nil {
		return err
	}
	pkgs := reg.Snapshot().Packages()
	if len(pkgs) == 0 {
		return fmt.Errorf("no packages parsed from %s", cfg.Path(cfg.PackageFile))
	}

	cache := pkgcache.New(cfg.Cache.Dir, cfg.Cache.Compress)
	source := cfg.Path(cfg.PackageFile)
	if err := cache.Write(source, pkgs); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %d packages to %s\n", len(pkgs), cache.Path(source))
	return nil
}

func runVerify(ctx context.Context, cfg config.ItemDB, out io.Writer) error {
	source := cfg.Path(cfg.PackageFile)
	cached, err := pkgcache.New(cfg.Cache.Dir, cfg.Cache.Compress).Read(source)
	if err != nil {
		return fmt.Errorf("reading cache for %s: %w", source, err)
	}

	reg, err := loadSource(ctx, cfg)
	if err != nil {
		return err
	}
	if diff := diffPackages(reg.Snapshot().Packages(), cached); diff != "" {
		return fmt.Errorf("cache does not match %s: %s", source, diff)
	}
	fmt.Fprintf(out, "cache ok: %d packages\n", len(cached))
	return nil
}

func runDump(ctx context.Context, cfg config.ItemDB, out io.Writer) error {
	reg, err := loadSource(ctx, cfg)
	if err != nil {
		return err
	}
	doc, err := data.MarshalPackages(reg.Snapshot())
	if err != nil {
		return err
	}
	_, err = out.Write(doc)
	return err
}

// diffPackages returns a description of the first difference, "" when equal.
func diffPackages(want, got []*model.ItemPackage) string {
	if len(want) != len(got) {
		return fmt.Sprintf("%d packages, cache has %d", len(want), len(got))
	}
	for i, w := range want {
		g := got[i]
		switch {
		case w.ID != g.ID:
			return fmt.Sprintf("package #%d is %d, cache has %d", i, w.ID, g.ID)
		case len(w.Must) != len(g.Must):
			return fmt.Sprintf("package %d: %d must entries, cache has %d", w.ID, len(w.Must), len(g.Must))
		case len(w.Random) != len(g.Random):
			return fmt.Sprintf("package %d: %d random groups, cache has %d", w.ID, len(w.Random), len(g.Random))
		}
		for j := range w.Must {
			if w.Must[j] != g.Must[j] {
				return fmt.Sprintf("package %d: must entry %d differs", w.ID, j)
			}
		}
		for j := range w.Random {
			we, ge := w.Random[j].Entries, g.Random[j].Entries
			if len(we) != len(ge) {
				return fmt.Sprintf("package %d: group %d has %d entries, cache has %d", w.ID, j, len(we), len(ge))
			}
			for k := range we {
				if we[k] != ge[k] {
					return fmt.Sprintf("package %d: group %d entry %d differs", w.ID, j, k)
				}
			}
		}
	}
	return ""
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: pkgcache [--config path] [--cache-dir dir] [--compress] <build | verify | dump>")
	fmt.Fprintln(out, "       pkgcache --list")
}

func printList(out io.Writer) {
	names := make([]string, 0, len(commands))
	maxLen := 0
	for _, c := range commands {
		names = append(names, c.name)
		maxLen = max(maxLen, len(c.name))
	}
	sort.Strings(names)

	fmt.Fprintln(out, "Available commands:")
	for _, name := range names {
		c, _ := lookupCommand(name)
		padding := strings.Repeat(" ", maxLen-len(name)+2)
		fmt.Fprintf(out, "  %s%s%s\n", name, padding, c.desc)
	}
}
