package repository

import (
	"fmt"
	"sync"

	"github.com/waferstrat/sampler/pkg/schematic"
)

// SchematicAnnotations are the user-editable fields attached to an
// uploaded schematic. The parsed body (dies, bounds, statistics) is
// immutable once ingested; only these travel separately.
type SchematicAnnotations struct {
	Tags  []string `json:"tags,omitempty"`
	Notes string   `json:"notes,omitempty"`
}

type schematicEntry struct {
	mu          sync.RWMutex
	data        *schematic.Data
	annotations SchematicAnnotations
}

// SchematicRepository caches parsed schematics by id, keyed under an
// RWMutex-guarded map.
type SchematicRepository struct {
	mu      sync.RWMutex
	entries map[string]*schematicEntry
}

// NewSchematicRepository constructs an empty repository.
func NewSchematicRepository() *SchematicRepository {
	return &SchematicRepository{entries: make(map[string]*schematicEntry)}
}

// Store records a newly ingested schematic. Returns an error if id is
// already in use; ingested bodies are immutable, so re-ingesting under
// the same id is rejected rather than silently overwritten.
func (r *SchematicRepository) Store(data *schematic.Data) error {
	if data.ID == "" {
		return fmt.Errorf("repository: schematic id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[data.ID]; exists {
		return fmt.Errorf("repository: schematic %q already exists", data.ID)
	}
	r.entries[data.ID] = &schematicEntry{data: data}
	return nil
}

func (r *SchematicRepository) entry(id string) (*schematicEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, &NotFoundError{Kind: "schematic", ID: id}
	}
	return e, nil
}

// Get returns the parsed body for id.
func (r *SchematicRepository) Get(id string) (*schematic.Data, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.data, nil
}

// Annotations returns the current mutable metadata for id.
func (r *SchematicRepository) Annotations(id string) (SchematicAnnotations, error) {
	e, err := r.entry(id)
	if err != nil {
		return SchematicAnnotations{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.annotations, nil
}

// SetAnnotations replaces the mutable metadata for id. The parsed body
// is never touched.
func (r *SchematicRepository) SetAnnotations(id string, ann SchematicAnnotations) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.annotations = ann
	return nil
}

// List returns the ids of every stored schematic.
func (r *SchematicRepository) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// Delete removes a schematic and its annotations.
func (r *SchematicRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return &NotFoundError{Kind: "schematic", ID: id}
	}
	delete(r.entries, id)
	return nil
}
