package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/itemdb/internal/config"
	"github.com/udisondev/itemdb/internal/data"
	"github.com/udisondev/itemdb/internal/script"
)

func itemLine(id, name string) string {
	f := []string{id, name, name, "3", "10", "", "1", "", "", "", "", "0xFFFFFFFF", "7", "2", "", "", "", "", "", "{}", "{}", "{}"}
	return strings.Join(f, ",") + "\n"
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultItemDB()
	cfg.DenseThreshold = 100
	cfg.MaxItemID = 200
	cfg.PackageRollPasses = 3
	cfg.DropSourceExcludedMobs = []config.MobRange{{From: 10, To: 20}}

	opts := optionsFromConfig(cfg)
	assert.Equal(t, int32(100), opts.DenseThreshold)
	assert.Equal(t, int32(200), opts.MaxItemID)
	assert.Equal(t, 3, opts.PackageRollPasses)
	assert.Equal(t, []data.MobRange{{From: 10, To: 20}}, opts.ExcludedMobs)
	assert.NotNil(t, opts.Now)
}

func TestSourcesFromConfig(t *testing.T) {
	cfg := config.DefaultItemDB()
	cfg.DBPath = "/srv/db"
	cfg.ChainFile = ""
	cfg.TradeFile = "/etc/trade.txt"

	src := sourcesFromConfig(cfg)
	assert.Equal(t, []string{"/srv/db/item_db.txt", "/srv/db/item_db2.txt"}, src.ItemDBFiles)
	assert.Equal(t, "/srv/db/item_packages.yaml", src.PackageFile)
	assert.Empty(t, src.ChainFile)
	assert.Equal(t, "/etc/trade.txt", src.TradeFile)
	assert.Nil(t, src.Rows)
}

func TestWatchedPaths(t *testing.T) {
	cfg := config.DefaultItemDB()
	cfg.DBPath = "/srv/db"
	cfg.ComboFile = ""

	paths := watchedPaths(cfg)
	assert.Contains(t, paths, "/srv/db/item_db.txt")
	assert.Contains(t, paths, "/srv/db/mob_drops.yaml")
	assert.NotContains(t, paths, "/srv/db")

	cfg.UseSQLItemDB = true
	paths = watchedPaths(cfg)
	assert.NotContains(t, paths, "/srv/db/item_db.txt")
	assert.Contains(t, paths, "/srv/db/item_group.yaml")
}

func TestReloadLoop(t *testing.T) {
	dir := t.TempDir()
	itemDB := filepath.Join(dir, "item_db.txt")
	require.NoError(t, os.WriteFile(itemDB, []byte(itemLine("909", "Jellopy")), 0o644))

	reg := data.NewRegistry(script.NewTextEngine(), data.Options{Seed: 1})
	reg.SetSources(data.Sources{ItemDBFiles: []string{itemDB}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, reg.Load(ctx))
	require.Nil(t, reg.Exists(910))

	content := itemLine("909", "Jellopy") + itemLine("910", "Garlet")
	require.NoError(t, os.WriteFile(itemDB, []byte(content), 0o644))

	reloads := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- reloadLoop(ctx, reg, reloads) }()

	reloads <- "test"
	require.Eventually(t, func() bool { return reg.Exists(910) != nil }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reloadLoop did not stop after cancel")
	}
}

func TestWatchSources_Debounced(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "item_trade.txt")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte("// empty\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	triggers := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchSources(ctx, []string{watched}, 100*time.Millisecond, func(reason string) {
			triggers <- reason
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	for i := range 3 {
		body := []byte("909," + string(rune('1'+i)) + ",1\n")
		require.NoError(t, os.WriteFile(watched, body, 0o644))
	}

	select {
	case reason := <-triggers:
		assert.Equal(t, "changed item_trade.txt", reason)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload triggered")
	}

	select {
	case reason := <-triggers:
		t.Fatalf("unexpected second trigger %q", reason)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}
