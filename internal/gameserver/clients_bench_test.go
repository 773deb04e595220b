package gameserver

import (
	"fmt"
	"testing"

	"github.com/udisondev/itemdb/internal/data"
	"github.com/udisondev/itemdb/internal/model"
)

func populate(b *testing.B, n int) *ClientManager {
	b.Helper()
	cm := NewClientManager()
	for i := range n {
		cm.Register(fmt.Sprintf("account_%d", i), model.NewPlayer(int32(150000+i), fmt.Sprintf("player_%d", i), 0))
	}
	return cm
}

// BenchmarkClientManager_GetPlayerByCharacterID measures index lookup.
// Expected: ~10-30ns regardless of player count (map lookup).
func BenchmarkClientManager_GetPlayerByCharacterID(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("%dplayers", n), func(b *testing.B) {
			cm := populate(b, n)
			target := int32(150000 + n - 1)
			b.ReportAllocs()
			b.ResetTimer()
			for range b.N {
				if cm.GetPlayerByCharacterID(target) == nil {
					b.Fatal("player not found")
				}
			}
		})
	}
}

// BenchmarkClientManager_ForEachSession measures the snapshot copy taken before reload repair.
func BenchmarkClientManager_ForEachSession(b *testing.B) {
	for _, n := range []int{100, 1000} {
		b.Run(fmt.Sprintf("%dplayers", n), func(b *testing.B) {
			cm := populate(b, n)
			b.ReportAllocs()
			b.ResetTimer()
			for range b.N {
				visited := 0
				cm.ForEachSession(func(data.PlayerSession) bool {
					visited++
					return true
				})
				if visited != n {
					b.Fatalf("visited = %d, want %d", visited, n)
				}
			}
		})
	}
}
