package model

import (
	"slices"
	"sync/atomic"

	"github.com/udisondev/itemdb/internal/script"
)

// Combo — бонус за одновременное ношение набора предметов.
//
// Данные комбо общие для всех участников: каждая запись-участник держит
// handle на один и тот же *Combo. Скрипт освобождается, когда отпускается
// последний handle; owner нужен только для выбора "владельца" при выводе.
type Combo struct {
	id      int32
	members []int32
	bonus   script.Code
	free    func(script.Code)

	refs atomic.Int32
}

// MaxComboMembers limits one combo line.
const MaxComboMembers = 6

// NewCombo creates a combo with zero handles. free may be nil.
func NewCombo(id int32, members []int32, bonus script.Code, free func(script.Code)) *Combo {
	return &Combo{
		id:      id,
		members: slices.Clone(members),
		bonus:   bonus,
		free:    free,
	}
}

// ID returns the combo's ordinal in the combo source.
func (c *Combo) ID() int32 {
	return c.id
}

// Members returns a copy of the member ids in declaration order.
func (c *Combo) Members() []int32 {
	return slices.Clone(c.members)
}

// OwnerID returns the first declared member.
func (c *Combo) OwnerID() int32 {
	return c.members[0]
}

// Contains reports whether id is one of the members.
func (c *Combo) Contains(id int32) bool {
	return slices.Contains(c.members, id)
}

// Script returns the bonus script handle (nil after the last Release).
func (c *Combo) Script() script.Code {
	if c.refs.Load() == 0 {
		return nil
	}
	return c.bonus
}

// Acquire takes a handle and returns c for chaining.
func (c *Combo) Acquire() *Combo {
	c.refs.Add(1)
	return c
}

// Release drops one handle. Returns false if there was nothing to release.
func (c *Combo) Release() bool {
	for {
		cur := c.refs.Load()
		if cur <= 0 {
			return false
		}
		if !c.refs.CompareAndSwap(cur, cur-1) {
			continue
		}
		if cur == 1 && c.free != nil && c.bonus != nil {
			c.free(c.bonus)
		}
		return true
	}
}

// Refs returns the number of live handles.
func (c *Combo) Refs() int32 {
	return c.refs.Load()
}

// AllEquipped reports whether equipped covers every member, counting repeated members.
func (c *Combo) AllEquipped(equipped []int32) bool {
	need := make(map[int32]int, len(c.members))
	for _, id := range c.members {
		need[id]++
	}
	for _, id := range equipped {
		if n, ok := need[id]; ok {
			need[id] = n - 1
		}
	}
	for _, n := range need {
		if n > 0 {
			return false
		}
	}
	return true
}
