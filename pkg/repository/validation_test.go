package repository

import (
	"testing"

	"github.com/waferstrat/sampler/pkg/validator"
)

func TestValidationStoreAndIndexes(t *testing.T) {
	repo := NewValidationRepository()
	r1 := &validator.Result{SchematicID: "sch-1", StrategyID: "strat-1"}
	r2 := &validator.Result{SchematicID: "sch-1", StrategyID: "strat-2"}

	if err := repo.Store("v1", r1); err != nil {
		t.Fatalf("Store v1: %v", err)
	}
	if err := repo.Store("v2", r2); err != nil {
		t.Fatalf("Store v2: %v", err)
	}

	got, err := repo.Get("v1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.StrategyID != "strat-1" {
		t.Errorf("StrategyID = %q, want strat-1", got.StrategyID)
	}

	bySchematic := repo.BySchematic("sch-1")
	if len(bySchematic) != 2 {
		t.Errorf("BySchematic len = %d, want 2", len(bySchematic))
	}

	byStrategy := repo.ByStrategy("strat-2")
	if len(byStrategy) != 1 {
		t.Errorf("ByStrategy len = %d, want 1", len(byStrategy))
	}
}

func TestValidationGetMissingFails(t *testing.T) {
	repo := NewValidationRepository()
	if _, err := repo.Get("missing"); err == nil {
		t.Fatal("expected error getting missing result")
	}
}
