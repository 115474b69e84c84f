package rule

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/waferstrat/sampler/pkg/rng"
	"github.com/waferstrat/sampler/pkg/wafer"
)

// RandomSamplingParams are the validated parameters for the
// randomSampling rule.
type RandomSamplingParams struct {
	Count   int
	Seed    uint64
	HasSeed bool
}

// RandomSampling draws Count samples without replacement from the
// available dies, using a PRNG deterministically seeded from Seed.
type RandomSampling struct{}

func (RandomSampling) Name() string { return "randomSampling" }

func (RandomSampling) Validate(params map[string]any) (any, []ValidationError) {
	var errs []ValidationError

	count, ok := toInt(params["count"])
	if !ok || count < 0 {
		errs = append(errs, ValidationError{Field: "count", Message: "must be a non-negative integer"})
	}

	var seed uint64
	var hasSeed bool
	if raw, present := params["seed"]; present {
		s, ok := toInt(raw)
		if !ok {
			errs = append(errs, ValidationError{Field: "seed", Message: "must be an integer"})
		} else {
			seed = uint64(s)
			hasSeed = true
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return RandomSamplingParams{Count: count, Seed: seed, HasSeed: hasSeed}, nil
}

// WithFallbackSeed returns a copy of p (boxed as any) with Seed set to
// fallback when the caller never supplied one. The execution engine
// calls this through the FallbackSeeder interface before Apply,
// injecting a seed derived from (strategyId, version) per the engine's
// determinism contract.
func (p RandomSamplingParams) WithFallbackSeed(fallback uint64) any {
	if p.HasSeed {
		return p
	}
	p.Seed = fallback
	p.HasSeed = true
	return p
}

func (RandomSampling) Apply(wm *wafer.Map, validated any, _ Context) ([]Candidate, error) {
	p := validated.(RandomSamplingParams)
	available := wm.AvailableDies()
	if len(available) == 0 || p.Count == 0 {
		return nil, nil
	}

	// Sort first so the draw is deterministic regardless of the wafer
	// map's internal (unordered) iteration.
	sort.Slice(available, func(i, j int) bool {
		if available[i].X != available[j].X {
			return available[i].X < available[j].X
		}
		return available[i].Y < available[j].Y
	})

	configHash := sha256.Sum256([]byte(fmt.Sprintf("count=%d", p.Count)))
	r := rng.NewRNG(p.Seed, "randomSampling", configHash[:])

	pool := make([]wafer.Die, len(available))
	copy(pool, available)
	r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	n := p.Count
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Candidate{Coord: pool[i].Coord(), Priority: 0.5})
	}
	return out, nil
}

func (RandomSampling) Estimate(wm *wafer.Map, validated any) Estimate {
	p, ok := validated.(RandomSamplingParams)
	if !ok {
		return Estimate{ExpectedCostClass: CostLow}
	}
	n := p.Count
	if avail := len(wm.AvailableDies()); n > avail {
		n = avail
	}
	return Estimate{ExpectedPointCount: n, ExpectedCostClass: CostLow}
}

func init() {
	Builtins.Register("randomSampling", RandomSampling{})
}
