package model

// ItemGroup — равновероятный выбор одного id из списка (повторы допустимы).
type ItemGroup struct {
	ID      int32
	Members []int32
}

// Contains reports whether id is a member of the group.
func (g *ItemGroup) Contains(id int32) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

// ChainEntry is one ring position of an ItemChain.
type ChainEntry struct {
	ItemID int32
	Rate   int32
}

// ItemChain — кольцо (item, rate); обход начинается со случайной позиции.
type ItemChain struct {
	ID      int32
	Name    string
	Entries []ChainEntry
}

// Next returns the ring successor of position i.
func (c *ItemChain) Next(i int) int {
	return (i + 1) % len(c.Entries)
}

// PackageEntry — предмет пакета: must или элемент random-группы.
type PackageEntry struct {
	ItemID   int32
	Quantity int32
	Rate     int32 // only for random entries
	Hours    int32 // 0 = no expiry
	Announce bool
	Named    bool
}

// RandomGroup is one ring of package entries; exactly one entry is granted per package grant.
type RandomGroup struct {
	Entries []PackageEntry
}

// Next returns the ring successor of position i.
func (g *RandomGroup) Next(i int) int {
	return (i + 1) % len(g.Entries)
}

// ItemPackage — набор обязательных предметов и случайных групп.
type ItemPackage struct {
	ID     int32
	Must   []PackageEntry
	Random []RandomGroup
}

// MobDrop is one entry of a monster drop list.
type MobDrop struct {
	ItemID int32
	Chance int32
}

// ItemRow — одна строка определения предмета, приведённая к 22 колонкам текстового item_db.
type ItemRow struct {
	Source string
	Line   int
	Fields []string
}
