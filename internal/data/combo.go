package data

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/udisondev/itemdb/internal/model"
	"github.com/udisondev/itemdb/internal/script"
)

// LinkCombo привязывает комбо к каждому участнику.
//
// Все id проверяются до изменения записей: если хоть один неизвестен,
// комбо отклоняется целиком. Каждый участник получает свой handle на общий
// *model.Combo; первый id считается владельцем.
func (s *Store) LinkCombo(ids []int32, bonusSrc, origin string, line int) (*model.Combo, error) {
	if len(ids) < 2 {
		return nil, ErrComboTooShort
	}
	recs := make([]*model.ItemRecord, len(ids))
	for i, id := range ids {
		if recs[i] = s.Exists(id); recs[i] == nil {
			return nil, fmt.Errorf("combo member %d: %w", id, ErrUnknownItem)
		}
	}

	var free func(code script.Code)
	var bonus script.Code
	if s.engine != nil {
		code, err := s.engine.Compile(bonusSrc, origin, line)
		if err != nil {
			return nil, fmt.Errorf("compiling combo script: %w", err)
		}
		bonus = code
		free = s.engine.Free
	}

	c := model.NewCombo(int32(len(s.combos)), ids, bonus, free)
	for _, rec := range recs {
		rec.Combos = append(rec.Combos, c.Acquire())
	}
	s.combos = append(s.combos, c)
	return c, nil
}

// ActiveCombos returns every combo, once, whose members are all in equipped.
func (s *Store) ActiveCombos(equipped []int32) []*model.Combo {
	var out []*model.Combo
	seen := make(map[*model.Combo]struct{})
	for _, id := range equipped {
		rec := s.Exists(id)
		if rec == nil {
			continue
		}
		for _, c := range rec.Combos {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			if c.AllEquipped(equipped) {
				out = append(out, c)
			}
		}
	}
	return out
}

// readCombos читает строки вида `id:id[:id...],{script}`.
func (s *Store) readCombos(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening combo db %s: %w", path, err)
	}
	defer f.Close()

	count, lineNo := 0, 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		idsPart, bonusSrc, ok := strings.Cut(line, ",")
		if !ok {
			slog.Error("combo db: insufficient columns", "file", path, "line", lineNo)
			continue
		}
		bonusSrc = strings.TrimSpace(bonusSrc)
		if !strings.HasPrefix(bonusSrc, "{") || !strings.HasSuffix(bonusSrc, "}") {
			slog.Error("combo db: invalid script column", "file", path, "line", lineNo)
			continue
		}

		var ids []int32
		for _, part := range strings.Split(idsPart, ":") {
			if len(ids) == model.MaxComboMembers {
				break
			}
			ids = append(ids, atoi(part))
		}

		if _, err := s.LinkCombo(ids, bonusSrc, path, lineNo); err != nil {
			slog.Error("combo db: skipping line", "file", path, "line", lineNo, "error", err)
			continue
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading combo db %s: %w", path, err)
	}

	slog.Info("loaded item combos", "source", path, "count", count)
	return nil
}
