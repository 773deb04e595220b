package data

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/itemdb/internal/model"
)

// OreChainName is the chain the refine system rolls ores from.
const OreChainName = "ITMCHAIN_ORE"

const maxEntryField = 0xFFFF // quantity and expiry hours are 16-bit in the cache

// readYAMLMapping возвращает корневой mapping документа с сохранением порядка ключей.
func readYAMLMapping(path string) (*yaml.Node, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing %s: top level must be a mapping", path)
	}
	return root, nil
}

// resolveItem понимает ссылку вида "ID<число>" или code name.
func (b *builder) resolveItem(ref string) *model.ItemRecord {
	if strings.HasPrefix(ref, "ID") && len(ref) < 8 {
		return b.store.Exists(atoi(ref[2:]))
	}
	return b.store.NameToRecord(ref)
}

func decodeInt(n *yaml.Node) (int32, error) {
	var v int32
	if err := n.Decode(&v); err != nil {
		return 0, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return v, nil
}

// readGroups: `<group item>: [<item>, [<item>, <repeat>], ...]`.
func (b *builder) readGroups(path string) error {
	root, err := readYAMLMapping(path)
	if err != nil {
		return err
	}

	count := 0
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		owner := b.store.NameToRecord(key.Value)
		if owner == nil {
			slog.Warn("item group: unknown group item, skipping", "file", path, "group", key.Value)
			continue
		}
		if val.Kind != yaml.SequenceNode {
			slog.Error("item group: entries must be a list", "file", path, "group", key.Value, "line", val.Line)
			continue
		}
		if _, dup := b.store.groups[owner.ID]; dup {
			slog.Warn("item group: duplicate group, keeping first", "file", path, "group", key.Value, "line", key.Line)
			continue
		}

		g := &model.ItemGroup{ID: owner.ID}
		for _, el := range val.Content {
			name, repeat := el.Value, int32(1)
			if el.Kind == yaml.SequenceNode {
				if len(el.Content) == 0 {
					continue
				}
				name = el.Content[0].Value
				if len(el.Content) > 1 {
					if repeat, err = decodeInt(el.Content[1]); err != nil || repeat < 1 {
						slog.Warn("item group: invalid repeat count", "file", path, "group", key.Value, "item", name)
						continue
					}
				}
			}
			rec := b.resolveItem(name)
			if rec == nil {
				slog.Warn("item group: unknown item", "file", path, "group", key.Value, "item", name)
				continue
			}
			for range repeat {
				g.Members = append(g.Members, rec.ID)
			}
		}

		b.store.groups[owner.ID] = g
		owner.Group = g
		count++
	}

	slog.Info("loaded item groups", "source", path, "count", count)
	return nil
}

// readChains: `<chain name>: {<item>: <rate>, ...}`. Ordinal of a chain is its position in the file.
func (b *builder) readChains(path string) error {
	root, err := readYAMLMapping(path)
	if err != nil {
		return err
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		c := &model.ItemChain{ID: int32(len(b.store.chains)), Name: key.Value}

		if val.Kind == yaml.MappingNode {
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := val.Content[j].Value
				rec := b.resolveItem(name)
				if rec == nil {
					slog.Warn("item chain: unknown item", "file", path, "chain", c.Name, "item", name)
					continue
				}
				rate, err := decodeInt(val.Content[j+1])
				if err != nil {
					slog.Warn("item chain: invalid rate", "file", path, "chain", c.Name, "item", name, "error", err)
					continue
				}
				if rate < 0 || rate > model.RateMax {
					slog.Warn("item chain: rate out of range, clamping", "chain", c.Name, "item", name, "rate", rate)
					rate = min(max(rate, 0), model.RateMax)
				}
				c.Entries = append(c.Entries, model.ChainEntry{ItemID: rec.ID, Rate: rate})
			}
		} else {
			slog.Error("item chain: entries must be a mapping", "file", path, "chain", c.Name, "line", val.Line)
		}

		if len(c.Entries) == 1 && c.Entries[0].Rate != model.RateMax {
			slog.Warn("item chain: single entry, forcing 100% rate", "chain", c.Name)
			c.Entries[0].Rate = model.RateMax
		}

		b.store.chains = append(b.store.chains, c)
		b.store.chainNames[c.Name] = c.ID
		if b.engine != nil {
			b.engine.SetConstant(c.Name, c.ID)
		}
	}

	if _, ok := b.store.chainNames[OreChainName]; !ok {
		slog.Warn("item chain: ore chain not defined", "chain", OreChainName)
	}
	slog.Info("loaded item chains", "source", path, "count", len(b.store.chains))
	return nil
}

// readPackages: `<package item>: {<item>: {Count, Expire, Rate, Announce, Named, Random}, ...}`.
// Random 0 — обязательный предмет, N>0 — N-я random-группа.
func (b *builder) readPackages(path string) error {
	root, err := readYAMLMapping(path)
	if err != nil {
		return err
	}

	count := 0
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		owner := b.store.NameToRecord(key.Value)
		if owner == nil {
			slog.Warn("item package: unknown package item, skipping", "file", path, "package", key.Value)
			continue
		}
		if val.Kind != yaml.MappingNode {
			slog.Error("item package: entries must be a mapping", "file", path, "package", key.Value, "line", val.Line)
			continue
		}

		pkg := &model.ItemPackage{ID: owner.ID}
		var groups [][]model.PackageEntry
		for j := 0; j+1 < len(val.Content); j += 2 {
			name, fields := val.Content[j].Value, val.Content[j+1]
			rec := b.resolveItem(name)
			if rec == nil {
				slog.Warn("item package: unknown item", "file", path, "package", key.Value, "item", name)
				continue
			}
			e, random, ok := parsePackageEntry(key.Value, name, fields)
			if !ok {
				continue
			}
			e.ItemID = rec.ID

			if random == 0 {
				e.Rate = model.RateMax // must entries are always granted
				pkg.Must = append(pkg.Must, e)
				continue
			}
			for len(groups) < int(random) {
				groups = append(groups, nil)
			}
			groups[random-1] = append(groups[random-1], e)
		}

		pkg.Random = normalizeRandomGroups(key.Value, groups)

		if b.store.addPackage(owner, pkg) {
			count++
		}
	}

	slog.Info("loaded item packages", "source", path, "count", count)
	return nil
}

// parsePackageEntry returns the entry, its Random group index and false if it must be dropped.
func parsePackageEntry(pkgName, itemName string, n *yaml.Node) (model.PackageEntry, int32, bool) {
	e := model.PackageEntry{Quantity: 1, Rate: model.RateMax}
	random := int32(-1)
	log := slog.With("package", pkgName, "item", itemName)

	if n.Kind != yaml.MappingNode {
		log.Warn("item package: entry must be a mapping", "line", n.Line)
		return e, 0, false
	}

	for k := 0; k+1 < len(n.Content); k += 2 {
		field, v := n.Content[k].Value, n.Content[k+1]
		var err error
		switch field {
		case "Count":
			e.Quantity, err = decodeInt(v)
		case "Expire":
			e.Hours, err = decodeInt(v)
		case "Rate":
			e.Rate, err = decodeInt(v)
		case "Random":
			random, err = decodeInt(v)
		case "Announce":
			err = v.Decode(&e.Announce)
		case "Named":
			err = v.Decode(&e.Named)
		default:
			log.Warn("item package: unknown field", "field", field)
		}
		if err != nil {
			log.Warn("item package: invalid field, skipping entry", "field", field, "error", err)
			return e, 0, false
		}
	}

	if e.Quantity < 1 || e.Quantity > maxEntryField {
		log.Warn("item package: invalid count, clamping", "count", e.Quantity)
		e.Quantity = min(max(e.Quantity, 1), maxEntryField)
	}
	if e.Hours < 0 || e.Hours > maxEntryField {
		log.Warn("item package: invalid expire hours, clamping", "hours", e.Hours)
		e.Hours = min(max(e.Hours, 0), maxEntryField)
	}
	if e.Rate < 0 || e.Rate > model.RateMax {
		log.Warn("item package: invalid rate, clamping", "rate", e.Rate)
		e.Rate = min(max(e.Rate, 0), model.RateMax)
	}

	switch {
	case random == -1 && !hasKey(n, "Random"):
		log.Warn("item package: missing Random field, defaulting to must")
		random = 0
	case random < 0:
		log.Warn("item package: invalid Random value, skipping entry", "random", random)
		return e, 0, false
	}
	return e, random, true
}

// normalizeRandomGroups убирает пустые random-группы и делает единственный вариант группы 100%.
func normalizeRandomGroups(pkgName string, groups [][]model.PackageEntry) []model.RandomGroup {
	var out []model.RandomGroup
	for gi, entries := range groups {
		switch {
		case len(entries) == 0:
			slog.Warn("item package: empty random group dropped", "package", pkgName, "group", gi+1)
			continue
		case len(entries) == 1:
			if entries[0].Rate != model.RateMax {
				slog.Warn("item package: random group has one option, drop rate will be 100%",
					"package", pkgName, "group", gi+1)
			}
			entries[0].Rate = model.RateMax
		default:
			for _, e := range entries {
				if e.Rate == model.RateMax {
					slog.Warn("item package: 100% rate item masks the rest of its group",
						"package", pkgName, "group", gi+1, "item_id", e.ItemID)
				}
			}
		}
		out = append(out, model.RandomGroup{Entries: entries})
	}
	return out
}

func hasKey(n *yaml.Node, key string) bool {
	for k := 0; k+1 < len(n.Content); k += 2 {
		if n.Content[k].Value == key {
			return true
		}
	}
	return false
}

// addPackage регистрирует пакет; при повторном id остаётся первый.
func (s *Store) addPackage(owner *model.ItemRecord, pkg *model.ItemPackage) bool {
	if _, dup := s.packages[pkg.ID]; dup {
		slog.Warn("item package: duplicate package, keeping first", "package_id", pkg.ID)
		return false
	}
	s.packageOrder = append(s.packageOrder, pkg.ID)
	s.packages[pkg.ID] = pkg
	owner.Package = pkg
	return true
}

// attachPackages подключает пакеты, прочитанные из кэша. Кэш привязан только к файлу
// пакетов, поэтому записи проверяются заново по текущему item_db: пакеты без владельца
// и предметы, которых больше нет, отбрасываются.
func (b *builder) attachPackages(pkgs []*model.ItemPackage) {
	for _, pkg := range pkgs {
		owner := b.store.Exists(pkg.ID)
		if owner == nil {
			slog.Warn("package cache: unknown package item, skipping", "package_id", pkg.ID)
			continue
		}
		name := owner.CodeName
		pkg.Must = b.knownEntries(name, pkg.Must)
		groups := make([][]model.PackageEntry, len(pkg.Random))
		for i, g := range pkg.Random {
			groups[i] = b.knownEntries(name, g.Entries)
		}
		pkg.Random = normalizeRandomGroups(name, groups)
		b.store.addPackage(owner, pkg)
	}
}

func (b *builder) knownEntries(pkgName string, entries []model.PackageEntry) []model.PackageEntry {
	var kept []model.PackageEntry
	for _, e := range entries {
		if b.store.Exists(e.ItemID) == nil {
			slog.Warn("package cache: unknown item, dropping", "package", pkgName, "item_id", e.ItemID)
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// MarshalPackages renders the packages of s back into the YAML source layout.
func MarshalPackages(s *Store) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	name := func(id int32) string {
		if rec := s.Exists(id); rec != nil && rec.CodeName != "" {
			return rec.CodeName
		}
		return fmt.Sprintf("ID%d", id)
	}
	entry := func(e model.PackageEntry, random int) (*yaml.Node, error) {
		m := map[string]any{"Count": e.Quantity, "Random": random}
		if random > 0 {
			m["Rate"] = e.Rate
		}
		if e.Hours > 0 {
			m["Expire"] = e.Hours
		}
		if e.Announce {
			m["Announce"] = true
		}
		if e.Named {
			m["Named"] = true
		}
		var n yaml.Node
		if err := n.Encode(m); err != nil {
			return nil, fmt.Errorf("encoding packages: item %d: %w", e.ItemID, err)
		}
		return &n, nil
	}

	for _, pkg := range s.Packages() {
		body := &yaml.Node{Kind: yaml.MappingNode}
		add := func(e model.PackageEntry, random int) error {
			n, err := entry(e, random)
			if err != nil {
				return err
			}
			body.Content = append(body.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name(e.ItemID)}, n)
			return nil
		}
		for _, e := range pkg.Must {
			if err := add(e, 0); err != nil {
				return nil, err
			}
		}
		for gi, g := range pkg.Random {
			for _, e := range g.Entries {
				if err := add(e, gi+1); err != nil {
					return nil, err
				}
			}
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name(pkg.ID)}, body)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encoding packages: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding packages: %w", err)
	}
	return buf.Bytes(), nil
}
