package synchronizer

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// MismatchError reports a synchronizer reused by a block with a different
// number of choices.
type MismatchError struct {
	Name     string
	Choices  int
	Expected int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("Invalid number of choices (%d) for synchronizer '%s', initialised with %d", e.Choices, e.Name, e.Expected)
}

// Registry owns the named synchronizers of one session.
type Registry struct {
	rng   *rand.Rand
	items map[string]Synchronizer
}

func NewRegistry(rng *rand.Rand) *Registry {
	return &Registry{rng: rng, items: make(map[string]Synchronizer)}
}

// Get returns the synchronizer registered under name, if any.
func (r *Registry) Get(name string) (Synchronizer, bool) {
	s, ok := r.items[name]
	return s, ok
}

// Resolve returns the synchronizer named name, creating it when typ is set
// and none exists. With strict set, reuse by a block whose choice count
// differs is a MismatchError.
func (r *Registry) Resolve(name string, typ Type, numChoices int, strict bool) (Synchronizer, bool, error) {
	if existing, ok := r.items[name]; ok {
		if strict && existing.Choices() != numChoices {
			return nil, false, &MismatchError{Name: name, Choices: numChoices, Expected: existing.Choices()}
		}
		return existing, false, nil
	}
	if typ == "" {
		return nil, false, fmt.Errorf("synchronizer '%s' does not exist and no type was given", name)
	}
	s, err := New(typ, numChoices, r.rng)
	if err != nil {
		return nil, false, fmt.Errorf("synchronizer '%s': %w", name, err)
	}
	r.items[name] = s
	return s, true, nil
}

// Names lists registered synchronizers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear drops every synchronizer.
func (r *Registry) Clear() {
	clear(r.items)
}
