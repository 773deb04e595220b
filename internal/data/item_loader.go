package data

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/udisondev/itemdb/internal/model"
	"github.com/udisondev/itemdb/internal/script"
)

// Item db row columns.
const (
	colID = iota
	colCodeName
	colDisplayName
	colType
	colBuy
	colSell
	colWeight
	colAttack
	colDefense
	colRange
	colSlots
	colJob
	colUpper
	colGender
	colEquip
	colWeaponLevel
	colEquipLevel
	colRefineable
	colLook
	colScript
	colEquipScript
	colUnequipScript

	itemDBColumns
)

const (
	textColumns = colScript // plain comma columns before the script columns
	maxLineSize = 64 * 1024
)

// ParseRow применяет одну строку item_db к Store и возвращает id записи.
// false — строка отброшена (причина уже залогирована).
func (b *builder) ParseRow(row model.ItemRow) (int32, bool) {
	f := row.Fields
	if len(f) < itemDBColumns {
		slog.Error("item db: insufficient columns",
			"source", row.Source, "line", row.Line, "columns", len(f))
		return 0, false
	}

	id := atoi(f[colID])
	if id <= 0 {
		slog.Warn("item db: invalid id, skipping", "source", row.Source, "line", row.Line, "item_id", id)
		return 0, false
	}
	if id > b.opts.MaxItemID {
		slog.Warn("item db: id beyond max item id, skipping",
			"source", row.Source, "line", row.Line, "item_id", id, "max", b.opts.MaxItemID)
		return 0, false
	}

	rec := b.store.Load(id)
	rec.CodeName = strings.TrimSpace(f[colCodeName])
	rec.DisplayName = strings.TrimSpace(f[colDisplayName])

	rec.Type = model.ItemType(atoi(f[colType]))
	if !rec.Type.Valid() {
		slog.Warn("item db: invalid item type, using Etc", "item_id", id, "type", int32(rec.Type))
		rec.Type = model.ItemTypeEtc
	}
	rec.DelayConsume = rec.Type == model.ItemTypeDelayedUsable
	if rec.DelayConsume {
		rec.Type = model.ItemTypeUsable
	}

	// Пустая цена и 0z различаются: пустая выводится из другой.
	buy, sell := strings.TrimSpace(f[colBuy]), strings.TrimSpace(f[colSell])
	if buy != "" {
		rec.BuyPrice = atoi(buy)
	} else {
		rec.BuyPrice = atoi(sell) * 2
	}
	if sell != "" {
		rec.SellPrice = atoi(sell)
	} else {
		rec.SellPrice = rec.BuyPrice / 2
	}
	if float64(rec.BuyPrice)/124 < float64(rec.SellPrice)/75 {
		slog.Warn("item db: buy/sell prices allow zeny exploit",
			"item_id", id, "buy", rec.BuyPrice, "sell", rec.SellPrice)
	}

	rec.Weight = atoi(f[colWeight])
	rec.Attack, rec.MagicAttack = splitPair(f[colAttack])
	rec.Defense = atoi(f[colDefense])
	rec.Range = atoi(f[colRange])

	rec.Slots = atoi(f[colSlots])
	if rec.Slots > b.opts.MaxSlots {
		slog.Warn("item db: too many slots, capping",
			"item_id", id, "slots", rec.Slots, "max", b.opts.MaxSlots)
		rec.Slots = b.opts.MaxSlots
	}

	rec.ClassBase = model.JobMaskToClassMasks(parseJobMask(f[colJob]))
	rec.UpperMask = atoi(f[colUpper])
	declaredGender := model.Gender(atoi(f[colGender]))
	rec.EquipMask = atoi(f[colEquip])
	if rec.EquipMask == 0 && rec.Equippable() {
		slog.Warn("item db: equipment without equip slots, making it Etc", "item_id", id)
		rec.Type = model.ItemTypeEtc
	}

	rec.WeaponLevel = min(max(atoi(f[colWeaponLevel]), 0), model.MaxWeaponLevel)
	rec.MinLevel, rec.MaxLevel = splitPair(f[colEquipLevel])
	rec.NoRefine = atoi(f[colRefineable]) == 0
	rec.Look = atoi(f[colLook])

	rec.Available = true
	rec.ViewID = 0
	rec.Gender = b.genderOf(rec, declaredGender)

	// Повторное определение id (item_db2 поверх item_db) заменяет скрипты.
	b.store.freeScripts(rec)
	rec.UseScript = b.compile(f[colScript], row)
	rec.EquipScript = b.compile(f[colEquipScript], row)
	rec.UnequipScript = b.compile(f[colUnequipScript], row)

	return id, true
}

func (b *builder) genderOf(rec *model.ItemRecord, declared model.Gender) model.Gender {
	switch {
	case rec.ID == model.WeddingRingMale:
		return model.GenderMale
	case rec.ID == model.WeddingRingFemale:
		return model.GenderFemale
	case rec.Type == model.ItemTypeWeapon && rec.Look == model.LookMusical:
		return model.GenderMale
	case rec.Type == model.ItemTypeWeapon && rec.Look == model.LookWhip:
		return model.GenderFemale
	case b.opts.IgnoreItemsGender:
		return model.GenderAny
	}
	return declared
}

// readItemDBText читает текстовый item_db: 19 колонок через запятую и три колонки скриптов в {}.
func (b *builder) readItemDBText(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening item db %s: %w", path, err)
	}
	defer f.Close()

	seen := make(map[int32]struct{})
	count, lineNo := 0, 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.HasPrefix(line, "//") || strings.TrimSpace(line) == "" {
			continue
		}

		fields, err := splitItemDBLine(line)
		if err != nil {
			slog.Error("item db: skipping line", "file", path, "line", lineNo, "error", err)
			continue
		}

		id, ok := b.ParseRow(model.ItemRow{Source: path, Line: lineNo, Fields: fields})
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			slog.Warn("item db: duplicate entry", "file", path, "item_id", id)
		}
		seen[id] = struct{}{}
		count++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading item db %s: %w", path, err)
	}

	slog.Info("loaded item db", "source", path, "count", count)
	return nil
}

// splitItemDBLine делит строку на 22 колонки.
func splitItemDBLine(line string) ([]string, error) {
	p := strings.TrimLeft(line, " \t")
	fields := make([]string, 0, itemDBColumns)
	for range textColumns {
		col, rest, ok := strings.Cut(p, ",")
		if !ok {
			return nil, fmt.Errorf("insufficient columns (item %d)", atoi(line))
		}
		fields = append(fields, col)
		p = rest
	}

	for _, name := range []string{"script", "equip script"} {
		if !strings.HasPrefix(p, "{") {
			return nil, fmt.Errorf("invalid %s column (item %d)", name, atoi(fields[colID]))
		}
		end := strings.Index(p[1:], "},")
		if end < 0 {
			return nil, fmt.Errorf("invalid %s column (item %d)", name, atoi(fields[colID]))
		}
		end++ // index of '}' in p
		fields = append(fields, p[:end+1])
		p = p[end+2:]
	}

	last := strings.TrimRight(p, " \t\r\n")
	if !strings.HasPrefix(last, "{") {
		return nil, fmt.Errorf("invalid unequip script column (item %d)", atoi(fields[colID]))
	}
	if !strings.HasSuffix(last, "}") && strings.Count(last, "{") != strings.Count(last, "}") {
		return nil, fmt.Errorf("mismatching curly braces (item %d)", atoi(fields[colID]))
	}
	fields = append(fields, last)
	return fields, nil
}

func (b *builder) compile(src string, row model.ItemRow) script.Code {
	if b.engine == nil {
		return nil
	}
	code, err := b.engine.Compile(src, row.Source, row.Line)
	if err != nil {
		slog.Error("item db: script compile failed", "source", row.Source, "line", row.Line, "error", err)
		return nil
	}
	return code
}

// atoi разбирает ведущее целое число как C atoi: мусор после числа игнорируется, ошибка даёт 0.
func atoi(s string) int32 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	v, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0
	}
	return int32(v)
}

// splitPair parses "a" or "a:b".
func splitPair(s string) (int32, int32) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return atoi(a), 0
	}
	return atoi(a), atoi(b)
}

// parseJobMask accepts decimal, 0x-hex and 0-octal masks; negative values wrap like strtoul.
func parseJobMask(s string) uint32 {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0
		}
		return uint32(v)
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}
