package service

import (
	"testing"

	"github.com/bitfantasy/nimo-bom/internal/config"
)

func TestClampDepth(t *testing.T) {
	s := &BOMService{cfg: config.BOMConfig{DefaultMaxDepth: 15, MaxDepthLimit: 32}}

	tests := []struct {
		in   int
		want int
	}{
		{0, 15},
		{-5, 15},
		{7, 7},
		{32, 32},
		{100, 32},
	}
	for _, tt := range tests {
		if got := s.clampDepth(tt.in); got != tt.want {
			t.Errorf("clampDepth(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClampDepthNoHardLimit(t *testing.T) {
	s := &BOMService{cfg: config.BOMConfig{DefaultMaxDepth: 10}}
	if got := s.clampDepth(500); got != 500 {
		t.Errorf("clampDepth(500) = %d, want 500 when no hard limit set", got)
	}
}

func TestScopeLockKeyDistinctPerScope(t *testing.T) {
	keys := map[string]bool{
		scopeLockKey("", ""):             true,
		scopeLockKey("hyundai", ""):      true,
		scopeLockKey("", "posco"):        true,
		scopeLockKey("hyundai", "posco"): true,
	}
	if len(keys) != 4 {
		t.Errorf("expected 4 distinct lock keys, got %d", len(keys))
	}
}
