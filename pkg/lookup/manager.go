package lookup

import (
	"math/rand/v2"
	"sort"
	"sync"

	"twaddle/interpreter-go/pkg/ast"
)

// Manager maps dictionary names to dictionaries. The set of dictionaries may
// be swapped between evaluations with Replace.
type Manager struct {
	mu    sync.RWMutex
	dicts map[string]*Dictionary
}

func NewManager(dicts ...*Dictionary) *Manager {
	m := &Manager{dicts: make(map[string]*Dictionary, len(dicts))}
	for _, d := range dicts {
		m.dicts[d.Name] = d
	}
	return m
}

// Add registers d, replacing any dictionary with the same name.
func (m *Manager) Add(d *Dictionary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dicts[d.Name] = d
}

// Replace swaps the whole dictionary set.
func (m *Manager) Replace(dicts []*Dictionary) {
	next := make(map[string]*Dictionary, len(dicts))
	for _, d := range dicts {
		next[d.Name] = d
	}
	m.mu.Lock()
	m.dicts = next
	m.mu.Unlock()
}

// Dictionary returns the dictionary registered under name.
func (m *Manager) Dictionary(name string) (*Dictionary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.dicts[name]
	if !ok {
		return nil, &Error{Message: "no dictionary loaded named " + name}
	}
	return d, nil
}

// Select resolves q against the dictionary it names.
func (m *Manager) Select(q *ast.Lookup, rng *rand.Rand) (ast.Node, error) {
	d, err := m.Dictionary(q.Dictionary)
	if err != nil {
		return nil, err
	}
	return d.Select(q, rng)
}

// ClearLabels resets the label tables of every dictionary.
func (m *Manager) ClearLabels() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.dicts {
		d.ClearLabels()
	}
}

// Names lists the loaded dictionaries in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.dicts))
	for name := range m.dicts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
