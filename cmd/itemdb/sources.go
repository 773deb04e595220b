package main

import (
	"github.com/udisondev/itemdb/internal/config"
	"github.com/udisondev/itemdb/internal/data"
)

func optionsFromConfig(cfg config.ItemDB) data.Options {
	opts := data.DefaultOptions()
	opts.DenseThreshold = cfg.DenseThreshold
	opts.MaxItemID = cfg.MaxItemID
	opts.MaxSlots = cfg.MaxSlots
	opts.IgnoreItemsGender = cfg.IgnoreItemsGender
	opts.PackageRollPasses = cfg.PackageRollPasses
	opts.SearchCacheSize = cfg.SearchCacheSize

	opts.ExcludedMobs = make([]data.MobRange, 0, len(cfg.DropSourceExcludedMobs))
	for _, m := range cfg.DropSourceExcludedMobs {
		opts.ExcludedMobs = append(opts.ExcludedMobs, data.MobRange{From: m.From, To: m.To})
	}
	return opts
}

// sourcesFromConfig resolves every file against db_path. The SQL row source is set by the caller.
func sourcesFromConfig(cfg config.ItemDB) data.Sources {
	files := make([]string, 0, len(cfg.ItemDBFiles))
	for _, f := range cfg.ItemDBFiles {
		files = append(files, cfg.Path(f))
	}
	return data.Sources{
		ItemDBFiles:     files,
		ComboFile:       cfg.Path(cfg.ComboFile),
		GroupFile:       cfg.Path(cfg.GroupFile),
		ChainFile:       cfg.Path(cfg.ChainFile),
		PackageFile:     cfg.Path(cfg.PackageFile),
		AvailFile:       cfg.Path(cfg.AvailFile),
		TradeFile:       cfg.Path(cfg.TradeFile),
		DelayFile:       cfg.Path(cfg.DelayFile),
		StackFile:       cfg.Path(cfg.StackFile),
		BuyingStoreFile: cfg.Path(cfg.BuyingStoreFile),
		NoUseFile:       cfg.Path(cfg.NoUseFile),
		MobDropFile:     cfg.Path(cfg.MobDropFile),
	}
}

// watchedPaths lists the text sources whose change triggers a reload.
// SQL item_db tables are not watched.
func watchedPaths(cfg config.ItemDB) []string {
	src := sourcesFromConfig(cfg)
	var paths []string
	if !cfg.UseSQLItemDB {
		paths = append(paths, src.ItemDBFiles...)
	}
	for _, p := range []string{
		src.ComboFile, src.GroupFile, src.ChainFile, src.PackageFile,
		src.AvailFile, src.TradeFile, src.DelayFile, src.StackFile,
		src.BuyingStoreFile, src.NoUseFile, src.MobDropFile,
	} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
