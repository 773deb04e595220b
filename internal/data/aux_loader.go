package data

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/udisondev/itemdb/internal/model"
)

// auxTable описывает один вспомогательный CSV-файл вида `<id>,...`.
type auxTable struct {
	name    string
	columns int
	apply   func(rec *model.ItemRecord, f []string) error
}

var auxTables = []auxTable{
	{name: "avail", columns: 2, apply: applyAvail},
	{name: "trade", columns: 3, apply: applyTrade},
	{name: "delay", columns: 2, apply: applyDelay},
	{name: "stack", columns: 3, apply: applyStack},
	{name: "buyingstore", columns: 1, apply: applyBuyingStore},
	{name: "nouse", columns: 3, apply: applyNoUse},
}

// readAuxTable применяет файл path к уже загруженным записям.
// Строки с неизвестным id или неверными значениями логируются и пропускаются.
func (b *builder) readAuxTable(t auxTable, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s table %s: %w", t.name, path, err)
	}
	defer f.Close()

	count, lineNo := 0, 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if i := strings.Index(line, "//"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}

		fields := strings.SplitN(line, ",", t.columns+1)
		if len(fields) < t.columns {
			slog.Error("aux table: insufficient columns",
				"table", t.name, "file", path, "line", lineNo, "want", t.columns)
			continue
		}

		id := atoi(fields[0])
		rec := b.store.Exists(id)
		if rec == nil {
			slog.Warn("aux table: unknown item id", "table", t.name, "file", path, "line", lineNo, "item_id", id)
			continue
		}
		if err := t.apply(rec, fields); err != nil {
			slog.Warn("aux table: skipping line",
				"table", t.name, "file", path, "line", lineNo, "item_id", id, "error", err)
			continue
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s table %s: %w", t.name, path, err)
	}

	slog.Info("loaded item aux table", "table", t.name, "source", path, "count", count)
	return nil
}

// <id>,<sprite>
func applyAvail(rec *model.ItemRecord, f []string) error {
	sprite := atoi(f[1])
	if sprite > 0 {
		rec.Available = true
		rec.ViewID = sprite
	} else {
		rec.Available = false
	}
	return nil
}

// <id>,<mask>,<gm level>
func applyTrade(rec *model.ItemRecord, f []string) error {
	mask, gmLevel := atoi(f[1]), atoi(f[2])
	if mask < 0 || mask > int32(model.TradeRestrictionMask) {
		return fmt.Errorf("invalid trade mask %d", mask)
	}
	if gmLevel < 1 {
		return fmt.Errorf("invalid override gm level %d", gmLevel)
	}
	rec.SetTradeRestriction(model.TradeRestriction(mask), gmLevel)
	return nil
}

// <id>,<delay ms>
func applyDelay(rec *model.ItemRecord, f []string) error {
	delay := atoi(f[1])
	if delay < 0 {
		return fmt.Errorf("invalid delay %d", delay)
	}
	rec.Delay = delay
	return nil
}

// <id>,<amount>,<type bits: 1 inventory, 2 cart, 4 storage, 8 guild storage>
func applyStack(rec *model.ItemRecord, f []string) error {
	if !rec.Stackable() {
		return fmt.Errorf("item is not stackable")
	}
	amount, typ := atoi(f[1]), atoi(f[2])
	if amount <= 0 {
		return nil
	}
	rec.Stack = model.StackLimit{
		Amount:       amount,
		Inventory:    typ&1 != 0,
		Cart:         typ&2 != 0,
		Storage:      typ&4 != 0,
		GuildStorage: typ&8 != 0,
	}
	return nil
}

// <id>
func applyBuyingStore(rec *model.ItemRecord, _ []string) error {
	if !rec.Stackable() {
		return fmt.Errorf("non-stackable item cannot be sold to buying stores")
	}
	rec.BuyingStore = true
	return nil
}

// <id>,<flag>,<override>
func applyNoUse(rec *model.ItemRecord, f []string) error {
	rec.Usage = model.UsageRestriction{
		Flag:     atoi(f[1]),
		Override: atoi(f[2]),
	}
	return nil
}
