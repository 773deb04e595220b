package gameserver

import (
	"testing"

	"github.com/udisondev/itemdb/internal/data"
	"github.com/udisondev/itemdb/internal/model"
)

func TestNewClientManager(t *testing.T) {
	cm := NewClientManager()
	if cm == nil {
		t.Fatal("NewClientManager returned nil")
	}
	if cm.Count() != 0 {
		t.Errorf("Initial Count() = %d, want 0", cm.Count())
	}
}

func TestClientManager_Register_Unregister(t *testing.T) {
	cm := NewClientManager()

	p1 := model.NewPlayer(100, "Alice", 0)
	p2 := model.NewPlayer(200, "Bob", 0)

	cm.Register("account1", p1)
	cm.Register("account2", p2)
	if cm.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", cm.Count())
	}

	if got := cm.GetPlayer("account1"); got != p1 {
		t.Error("GetPlayer returned wrong player")
	}
	if got := cm.GetPlayerByCharacterID(200); got != p2 {
		t.Error("GetPlayerByCharacterID returned wrong player")
	}

	cm.Unregister("account1")
	if cm.Count() != 1 {
		t.Errorf("After unregister, Count() = %d, want 1", cm.Count())
	}
	if cm.GetPlayer("account1") != nil {
		t.Error("GetPlayer should return nil after unregister")
	}
	if cm.GetPlayerByCharacterID(100) != nil {
		t.Error("GetPlayerByCharacterID should return nil after unregister")
	}

	// Unknown account is a no-op.
	cm.Unregister("nobody")
	if cm.Count() != 1 {
		t.Errorf("Count() = %d, want 1", cm.Count())
	}
}

func TestClientManager_RegisterReplacesCharacter(t *testing.T) {
	cm := NewClientManager()

	cm.Register("account1", model.NewPlayer(100, "Alice", 0))
	alt := model.NewPlayer(101, "AliceAlt", 0)
	cm.Register("account1", alt)

	if cm.Count() != 1 {
		t.Errorf("Count() = %d, want 1", cm.Count())
	}
	if cm.GetPlayerByCharacterID(100) != nil {
		t.Error("old character should be dropped from index")
	}
	if cm.GetPlayerByCharacterID(101) != alt {
		t.Error("new character should be indexed")
	}
}

func TestClientManager_ForEachSession(t *testing.T) {
	cm := NewClientManager()
	for i, name := range []string{"a", "b", "c"} {
		cm.Register(name, model.NewPlayer(int32(i+1), name, 0))
	}

	visited := 0
	cm.ForEachSession(func(s data.PlayerSession) bool {
		s.RecalcStatus()
		visited++
		return true
	})
	if visited != 3 {
		t.Errorf("visited = %d, want 3", visited)
	}
	cm.ForEachPlayer(func(p *model.Player) bool {
		if p.StatusRecalcs() != 1 {
			t.Errorf("player %s recalcs = %d, want 1", p.Name(), p.StatusRecalcs())
		}
		return true
	})

	visited = 0
	cm.ForEachSession(func(data.PlayerSession) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("early stop visited = %d, want 1", visited)
	}
}

func TestClientManager_ForEachSessionAllowsRegister(t *testing.T) {
	cm := NewClientManager()
	cm.Register("a", model.NewPlayer(1, "a", 0))

	// fn may mutate the manager without deadlocking.
	cm.ForEachSession(func(data.PlayerSession) bool {
		cm.Register("b", model.NewPlayer(2, "b", 0))
		return true
	})
	if cm.Count() != 2 {
		t.Errorf("Count() = %d, want 2", cm.Count())
	}
}

func TestClientManager_ForEachPlayerAllowsUnregister(t *testing.T) {
	cm := NewClientManager()
	cm.Register("a", model.NewPlayer(1, "a", 0))
	cm.Register("b", model.NewPlayer(2, "b", 0))

	// Unregister takes the write lock; fn must run outside the read lock.
	visited := 0
	cm.ForEachPlayer(func(p *model.Player) bool {
		cm.Unregister(p.Name())
		visited++
		return true
	})
	if visited != 2 {
		t.Errorf("visited = %d, want 2", visited)
	}
	if cm.Count() != 0 {
		t.Errorf("Count() = %d, want 0", cm.Count())
	}
}
