package repository

import (
	"errors"
	"testing"

	"github.com/waferstrat/sampler/pkg/registry"
	"github.com/waferstrat/sampler/pkg/rule"
	"github.com/waferstrat/sampler/pkg/strategy"
	"github.com/waferstrat/sampler/pkg/vendorexport"
)

func newTestRepo() *StrategyRepository {
	rules := registry.New[rule.Rule]("rule")
	rules.Register("fixedPoint", rule.FixedPoint{})
	vendors := registry.New[vendorexport.Emitter]("vendorEmitter")
	return NewStrategyRepository(rules, vendors)
}

func withRule(def strategy.StrategyDefinition) strategy.StrategyDefinition {
	def.Rules = []strategy.RuleConfig{
		{RuleType: "fixedPoint", Parameters: map[string]any{"points": []any{}}, Weight: 1, Enabled: true},
	}
	return def
}

func TestCreateDefaultsVersionAndState(t *testing.T) {
	repo := newTestRepo()
	def, err := repo.Create(strategy.StrategyDefinition{ID: "s1", Name: "one"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if def.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", def.Version)
	}
	if def.LifecycleState != strategy.StateDraft {
		t.Errorf("LifecycleState = %q, want draft", def.LifecycleState)
	}
}

func TestCreateDuplicateIDFails(t *testing.T) {
	repo := newTestRepo()
	if _, err := repo.Create(strategy.StrategyDefinition{ID: "s1"}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := repo.Create(strategy.StrategyDefinition{ID: "s1"}); err == nil {
		t.Fatal("expected error on duplicate id")
	}
}

func TestPromoteToReviewRequiresRules(t *testing.T) {
	repo := newTestRepo()
	repo.Create(strategy.StrategyDefinition{ID: "s1"})
	_, err := repo.PromoteToReview("s1")
	var lerr *LifecycleError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LifecycleError, got %v", err)
	}
}

func fullLifecycleRepo(t *testing.T, id string) *StrategyRepository {
	t.Helper()
	repo := newTestRepo()
	def := withRule(strategy.StrategyDefinition{ID: id, Name: "n", ProcessStep: "etch", ToolType: "toolA"})
	if _, err := repo.Create(def); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return repo
}

func TestFullLifecycleHappyPath(t *testing.T) {
	repo := fullLifecycleRepo(t, "s1")

	if _, err := repo.PromoteToReview("s1"); err != nil {
		t.Fatalf("PromoteToReview: %v", err)
	}
	if err := repo.RecordSimulation("s1", false); err != nil {
		t.Fatalf("RecordSimulation: %v", err)
	}
	approved, err := repo.Approve("s1", "reviewer1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.LifecycleState != strategy.StateApproved {
		t.Errorf("state = %q, want approved", approved.LifecycleState)
	}

	active, err := repo.Activate("s1")
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if active.LifecycleState != strategy.StateActive {
		t.Errorf("state = %q, want active", active.LifecycleState)
	}

	deprecated, err := repo.Deprecate("s1")
	if err != nil {
		t.Fatalf("Deprecate: %v", err)
	}
	if deprecated.LifecycleState != strategy.StateDeprecated {
		t.Errorf("state = %q, want deprecated", deprecated.LifecycleState)
	}
}

func TestApproveWithoutCleanSimulationFails(t *testing.T) {
	repo := fullLifecycleRepo(t, "s1")
	if _, err := repo.PromoteToReview("s1"); err != nil {
		t.Fatalf("PromoteToReview: %v", err)
	}
	if _, err := repo.Approve("s1", "reviewer1"); err == nil {
		t.Fatal("expected error approving without a recorded clean simulation")
	}

	if err := repo.RecordSimulation("s1", true); err != nil {
		t.Fatalf("RecordSimulation: %v", err)
	}
	if _, err := repo.Approve("s1", "reviewer1"); err == nil {
		t.Fatal("expected error approving after a simulation with errors")
	}
}

func TestRetractClearsReviewer(t *testing.T) {
	repo := fullLifecycleRepo(t, "s1")
	repo.PromoteToReview("s1")
	repo.RecordSimulation("s1", false)
	repo.Approve("s1", "reviewer1")

	draft, err := repo.Retract("s1")
	if err != nil {
		t.Fatalf("Retract: %v", err)
	}
	if draft.LifecycleState != strategy.StateDraft {
		t.Errorf("state = %q, want draft", draft.LifecycleState)
	}
}

func TestDeprecateDraftFails(t *testing.T) {
	repo := fullLifecycleRepo(t, "s1")
	if _, err := repo.Deprecate("s1"); err == nil {
		t.Fatal("expected error deprecating a draft")
	}
}

func TestActivateAutoDeprecatesPriorActive(t *testing.T) {
	repo := newTestRepo()
	def1 := withRule(strategy.StrategyDefinition{ID: "s1", ProcessStep: "etch", ToolType: "toolA"})
	def2 := withRule(strategy.StrategyDefinition{ID: "s2", ProcessStep: "etch", ToolType: "toolA"})
	repo.Create(def1)
	repo.Create(def2)

	for _, id := range []string{"s1", "s2"} {
		repo.PromoteToReview(id)
		repo.RecordSimulation(id, false)
		repo.Approve(id, "reviewer1")
	}

	if _, err := repo.Activate("s1"); err != nil {
		t.Fatalf("Activate s1: %v", err)
	}
	if _, err := repo.Activate("s2"); err != nil {
		t.Fatalf("Activate s2: %v", err)
	}

	s1, _ := repo.Get("s1")
	s2, _ := repo.Get("s2")
	if s1.LifecycleState != strategy.StateDeprecated {
		t.Errorf("s1 state = %q, want deprecated (auto-deprecated by s2 activation)", s1.LifecycleState)
	}
	if s2.LifecycleState != strategy.StateActive {
		t.Errorf("s2 state = %q, want active", s2.LifecycleState)
	}
}

func TestUpdateForksDraftWhenApprovedOrLater(t *testing.T) {
	repo := fullLifecycleRepo(t, "s1")
	repo.PromoteToReview("s1")
	repo.RecordSimulation("s1", false)
	repo.Approve("s1", "reviewer1")

	updated, err := repo.Update("s1", func(d *strategy.StrategyDefinition) {
		d.Description = "revised"
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != "1.0.1" {
		t.Errorf("Version = %q, want 1.0.1", updated.Version)
	}
	if updated.LifecycleState != strategy.StateDraft {
		t.Errorf("state = %q, want draft", updated.LifecycleState)
	}

	approvedStillThere, err := repo.GetVersion("s1", "1.0.0")
	if err != nil {
		t.Fatalf("GetVersion 1.0.0: %v", err)
	}
	if approvedStillThere.LifecycleState != strategy.StateApproved {
		t.Errorf("original version state = %q, want approved (untouched)", approvedStillThere.LifecycleState)
	}
}

func TestUpdateMutatesInPlaceWhileDraft(t *testing.T) {
	repo := fullLifecycleRepo(t, "s1")
	updated, err := repo.Update("s1", func(d *strategy.StrategyDefinition) {
		d.Description = "revised"
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != "1.0.0" {
		t.Errorf("Version = %q, want unchanged 1.0.0", updated.Version)
	}
}

func TestCloneCreatesFreshDraft(t *testing.T) {
	repo := fullLifecycleRepo(t, "s1")
	repo.PromoteToReview("s1")
	repo.RecordSimulation("s1", false)
	repo.Approve("s1", "reviewer1")

	clone, err := repo.Clone("s1", "s1-clone", "clone of one", "author1")
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if clone.Version != "1.0.0" {
		t.Errorf("clone Version = %q, want 1.0.0", clone.Version)
	}
	if clone.LifecycleState != strategy.StateDraft {
		t.Errorf("clone state = %q, want draft", clone.LifecycleState)
	}
	if len(clone.Rules) != 1 {
		t.Errorf("clone Rules len = %d, want 1 (deep-copied)", len(clone.Rules))
	}
}
