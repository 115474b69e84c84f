package repository

import (
	"fmt"
	"sync"

	"github.com/waferstrat/sampler/pkg/validator"
)

// ValidationRepository stores validation results by id, with secondary
// indexes by schematicId and strategyId. Every Store call updates the
// primary store and both indexes under the same lock, so the indexes
// never lag behind the primary store.
type ValidationRepository struct {
	mu          sync.RWMutex
	byID        map[string]*validator.Result
	bySchematic map[string][]string
	byStrategy  map[string][]string
}

// NewValidationRepository constructs an empty repository.
func NewValidationRepository() *ValidationRepository {
	return &ValidationRepository{
		byID:        make(map[string]*validator.Result),
		bySchematic: make(map[string][]string),
		byStrategy:  make(map[string][]string),
	}
}

// Store records a validation result, indexing it by its SchematicID and
// StrategyID.
func (r *ValidationRepository) Store(id string, result *validator.Result) error {
	if id == "" {
		return fmt.Errorf("repository: validation result id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = result
	r.bySchematic[result.SchematicID] = append(r.bySchematic[result.SchematicID], id)
	r.byStrategy[result.StrategyID] = append(r.byStrategy[result.StrategyID], id)
	return nil
}

// Get returns the result stored under id.
func (r *ValidationRepository) Get(id string) (*validator.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.byID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "validation result", ID: id}
	}
	return res, nil
}

// BySchematic returns every result recorded against schematicID, most
// recently stored last.
func (r *ValidationRepository) BySchematic(schematicID string) []*validator.Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(r.bySchematic[schematicID])
}

// ByStrategy returns every result recorded against strategyID, most
// recently stored last.
func (r *ValidationRepository) ByStrategy(strategyID string) []*validator.Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(r.byStrategy[strategyID])
}

func (r *ValidationRepository) lookupLocked(ids []string) []*validator.Result {
	out := make([]*validator.Result, 0, len(ids))
	for _, id := range ids {
		if res, ok := r.byID[id]; ok {
			out = append(out, res)
		}
	}
	return out
}
