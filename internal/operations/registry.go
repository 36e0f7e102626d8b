package operations

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages registered operation steps
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string // registration order
}

// NewRegistry creates a new Step registry
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Step),
		order: make([]string, 0),
	}
}

// Register adds a Step to the registry
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}

	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return fmt.Errorf("step with ID %s already registered", id)
	}

	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a Step by ID
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, exists := r.steps[id]
	if !exists {
		return nil, fmt.Errorf("step with ID %s not found", id)
	}
	return step, nil
}

// Has checks if a Step is registered
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.steps[id]
	return exists
}

// ListIDs returns all registered Step IDs in registration order
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.steps)
}

// GetDependencyOrder returns steps ordered by dependencies. Steps that
// become available together keep their registration order.
func (r *Registry) GetDependencyOrder() ([]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.orderLocked(r.order)
}

// Select returns the requested steps plus everything they depend on, in
// dependency order.
func (r *Registry) Select(ids []string) ([]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(ids) == 0 {
		return r.orderLocked(r.order)
	}

	want := make(map[string]bool)
	var visit func(id string) error
	visit = func(id string) error {
		if want[id] {
			return nil
		}
		step, ok := r.steps[id]
		if !ok {
			return fmt.Errorf("step with ID %s not found", id)
		}
		want[id] = true
		for _, dep := range step.GetDependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	subset := make([]string, 0, len(want))
	for _, id := range r.order {
		if want[id] {
			subset = append(subset, id)
		}
	}
	return r.orderLocked(subset)
}

// orderLocked topologically sorts ids with Kahn's algorithm.
func (r *Registry) orderLocked(ids []string) ([]Step, error) {
	position := make(map[string]int, len(ids))
	for i, id := range ids {
		position[id] = i
	}

	graph := make(map[string][]string, len(ids))
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		for _, dep := range r.steps[id].GetDependencies() {
			if _, ok := position[dep]; !ok {
				return nil, fmt.Errorf("step %s depends on non-existent step %s", id, dep)
			}
			graph[dep] = append(graph[dep], id)
			inDegree[id]++
		}
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	ordered := make([]Step, 0, len(ids))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ordered = append(ordered, r.steps[current])

		var ready []string
		for _, dependent := range graph[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Slice(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
		queue = append(queue, ready...)
	}

	if len(ordered) != len(ids) {
		return nil, fmt.Errorf("dependency cycle detected")
	}
	return ordered, nil
}

// GetDependents returns the steps that depend on stageID directly or
// transitively, in registration order.
func (r *Registry) GetDependents(stageID string) []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	affected := map[string]bool{stageID: true}
	for changed := true; changed; {
		changed = false
		for id, step := range r.steps {
			if affected[id] {
				continue
			}
			for _, dep := range step.GetDependencies() {
				if affected[dep] {
					affected[id] = true
					changed = true
					break
				}
			}
		}
	}

	var dependents []Step
	for _, id := range r.order {
		if id != stageID && affected[id] {
			dependents = append(dependents, r.steps[id])
		}
	}
	return dependents
}
