package rule

import (
	"testing"

	"github.com/waferstrat/sampler/pkg/wafer"
)

func gridWafer(n int) *wafer.Map {
	wm := wafer.NewMap()
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			wm.AddDie(wafer.Die{X: x, Y: y, Available: true})
		}
	}
	return wm
}

func TestFixedPointDropsMissingCoords(t *testing.T) {
	wm := gridWafer(3)
	r := FixedPoint{}
	validated, errs := r.Validate(map[string]any{
		"points": []any{
			[]any{0, 0},
			[]any{99, 99}, // outside the wafer
		},
	})
	if errs != nil {
		t.Fatalf("Validate returned errors: %v", errs)
	}
	cands, err := r.Apply(wm, validated, Context{})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("len(cands) = %d, want 1 (out-of-bounds point dropped)", len(cands))
	}
	if cands[0].Priority != 1.0 {
		t.Errorf("Priority = %v, want 1.0", cands[0].Priority)
	}
}

func TestFixedPointValidateRejectsMalformed(t *testing.T) {
	r := FixedPoint{}
	_, errs := r.Validate(map[string]any{"points": "not a list"})
	if errs == nil {
		t.Fatal("expected validation errors")
	}
}

func TestCenterEdgePicksClosestToCentroid(t *testing.T) {
	wm := gridWafer(5)
	r := CenterEdge{}
	validated, errs := r.Validate(map[string]any{
		"centerCount": 1,
		"edgeCount":   0,
		"edgeMargin":  0.0,
	})
	if errs != nil {
		t.Fatalf("Validate returned errors: %v", errs)
	}
	cands, err := r.Apply(wm, validated, Context{})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("len(cands) = %d, want 1", len(cands))
	}
	if cands[0].Coord != (wafer.Coord{X: 2, Y: 2}) {
		t.Errorf("closest-to-centroid coord = %+v, want (2,2)", cands[0].Coord)
	}
}

func TestUniformGridSnapsToNearestDie(t *testing.T) {
	wm := gridWafer(3)
	r := UniformGrid{}
	validated, errs := r.Validate(map[string]any{
		"gridSpacing": 1.0,
		"offsetX":     0.0,
		"offsetY":     0.0,
		"rotation":    0.0,
	})
	if errs != nil {
		t.Fatalf("Validate returned errors: %v", errs)
	}
	cands, err := r.Apply(wm, validated, Context{})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(cands) != 9 {
		t.Fatalf("len(cands) = %d, want 9 (one per die in a 3x3 grid)", len(cands))
	}
	for _, c := range cands {
		if c.Priority < 0 || c.Priority > 1 {
			t.Errorf("Priority out of [0,1]: %v", c.Priority)
		}
	}
}

func TestRandomSamplingDeterministic(t *testing.T) {
	wm := gridWafer(4)
	r := RandomSampling{}
	validated, errs := r.Validate(map[string]any{"count": 5, "seed": 42})
	if errs != nil {
		t.Fatalf("Validate returned errors: %v", errs)
	}

	c1, err := r.Apply(wm, validated, Context{})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	c2, err := r.Apply(wm, validated, Context{})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(c1) != 5 || len(c2) != 5 {
		t.Fatalf("len(c1)=%d len(c2)=%d, want 5 each", len(c1), len(c2))
	}
	for i := range c1 {
		if c1[i] != c2[i] {
			t.Errorf("draw %d differs across runs: %+v vs %+v", i, c1[i], c2[i])
		}
	}
}

func TestRandomSamplingWithFallbackSeedOnlyAppliesWhenUnset(t *testing.T) {
	r := RandomSampling{}
	withSeed, _ := r.Validate(map[string]any{"count": 1, "seed": 7})
	noSeed, _ := r.Validate(map[string]any{"count": 1})

	p1 := withSeed.(RandomSamplingParams).WithFallbackSeed(999).(RandomSamplingParams)
	if p1.Seed != 7 {
		t.Errorf("explicit seed overridden: got %d, want 7", p1.Seed)
	}

	p2 := noSeed.(RandomSamplingParams).WithFallbackSeed(999).(RandomSamplingParams)
	if p2.Seed != 999 {
		t.Errorf("fallback seed not applied: got %d, want 999", p2.Seed)
	}
}

func TestBuiltinsRegistered(t *testing.T) {
	names := Builtins.List()
	want := map[string]bool{"fixedPoint": true, "centerEdge": true, "uniformGrid": true, "randomSampling": true}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want 4 entries", names)
	}
	for _, n := range names {
		if !want[n] {
			t.Errorf("unexpected registered rule %q", n)
		}
	}
}
