package lookup

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
	"sync"

	"twaddle/interpreter-go/pkg/ast"
)

// Error reports a failed lookup.
type Error struct {
	Dictionary string
	Message    string
}

func (e *Error) Error() string {
	if e.Dictionary == "" {
		return "lookup: " + e.Message
	}
	return fmt.Sprintf("lookup <%s>: %s", e.Dictionary, e.Message)
}

// Entry is one dictionary row: a surface string per form plus its tags.
type Entry struct {
	Values []string
	Tags   map[string]struct{}
}

// HasTag reports whether the entry carries tag.
func (e *Entry) HasTag(tag string) bool {
	_, ok := e.Tags[tag]
	return ok
}

// Dictionary holds the entries of one named word list and the label
// memo table of the session using it.
type Dictionary struct {
	Name  string
	Forms []string

	mu      sync.Mutex
	entries []*Entry
	tags    map[string]struct{}
	labels  map[string]*Entry
}

func NewDictionary(name string, forms []string) *Dictionary {
	return &Dictionary{
		Name:   name,
		Forms:  append([]string(nil), forms...),
		tags:   make(map[string]struct{}),
		labels: make(map[string]*Entry),
	}
}

// Add appends an entry with one value per form.
func (d *Dictionary) Add(values []string, tags []string) error {
	if len(d.Forms) == 0 {
		return fmt.Errorf("dictionary %s: no forms declared", d.Name)
	}
	if len(values) != len(d.Forms) {
		return fmt.Errorf("dictionary %s: entry has %d values for %d forms", d.Name, len(values), len(d.Forms))
	}
	entry := &Entry{
		Values: append([]string(nil), values...),
		Tags:   make(map[string]struct{}, len(tags)),
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, tag := range tags {
		entry.Tags[tag] = struct{}{}
		d.tags[tag] = struct{}{}
	}
	d.entries = append(d.entries, entry)
	return nil
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Tags returns every tag used by the dictionary, sorted.
func (d *Dictionary) Tags() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.tags))
	for tag := range d.tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// ClearLabels forgets every memoized label.
func (d *Dictionary) ClearLabels() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.labels)
}

func (d *Dictionary) fail(format string, args ...any) *Error {
	return &Error{Dictionary: d.Name, Message: fmt.Sprintf(format, args...)}
}

func (d *Dictionary) formIndex(form string) (int, error) {
	if len(d.Forms) == 0 {
		return 0, d.fail("no forms declared")
	}
	if form == "" {
		return 0, nil
	}
	if idx := slices.Index(d.Forms, form); idx >= 0 {
		return idx, nil
	}
	return 0, d.fail("unknown form '%s' (forms: %s)", form, strings.Join(d.Forms, ", "))
}

// Select picks an entry for q and returns its value for the requested form.
// Values written as {a} or {A} come back as article nodes.
func (d *Dictionary) Select(q *ast.Lookup, rng *rand.Rand) (ast.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	form, err := d.formIndex(q.Form)
	if err != nil {
		return nil, err
	}
	if len(d.entries) == 0 {
		return nil, d.fail("dictionary has no entries")
	}
	if q.Strict {
		if err := d.validateStrict(q); err != nil {
			return nil, err
		}
	}

	if q.PositiveLabel != "" {
		if entry, ok := d.labels[q.PositiveLabel]; ok {
			return valueNode(entry.Values[form]), nil
		}
	}

	candidates := d.filterTags(q)
	if len(candidates) == 0 {
		if q.Strict {
			return nil, d.fail("no entries match tags %s", describeTags(q))
		}
		candidates = d.entries
	}

	if len(q.NegativeLabels) > 0 {
		candidates = d.excludeLabels(candidates, q.NegativeLabels)
		if len(candidates) == 0 {
			if q.Strict {
				return nil, d.fail("no entries left after excluding labels %s", strings.Join(q.NegativeLabels, ", "))
			}
			candidates = d.entries
		}
	}

	chosen := candidates[rng.IntN(len(candidates))]
	if q.PositiveLabel != "" {
		d.labels[q.PositiveLabel] = chosen
	}
	for _, label := range q.RedefineLabels {
		d.labels[label] = chosen
	}
	return valueNode(chosen.Values[form]), nil
}

func (d *Dictionary) validateStrict(q *ast.Lookup) error {
	for _, tag := range q.PositiveTags {
		if _, ok := d.tags[tag]; !ok {
			return d.fail("unknown tag '%s'", tag)
		}
	}
	for _, tag := range q.NegativeTags {
		if _, ok := d.tags[tag]; !ok {
			return d.fail("unknown tag '%s'", tag)
		}
	}
	for _, label := range q.NegativeLabels {
		if _, ok := d.labels[label]; !ok {
			return d.fail("unknown label '%s'", label)
		}
	}
	return nil
}

func (d *Dictionary) filterTags(q *ast.Lookup) []*Entry {
	out := make([]*Entry, 0, len(d.entries))
outer:
	for _, entry := range d.entries {
		for _, tag := range q.NegativeTags {
			if entry.HasTag(tag) {
				continue outer
			}
		}
		for _, tag := range q.PositiveTags {
			if !entry.HasTag(tag) {
				continue outer
			}
		}
		out = append(out, entry)
	}
	return out
}

func (d *Dictionary) excludeLabels(candidates []*Entry, labels []string) []*Entry {
	out := make([]*Entry, 0, len(candidates))
	for _, entry := range candidates {
		excluded := false
		for _, label := range labels {
			if d.labels[label] == entry {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, entry)
		}
	}
	return out
}

func describeTags(q *ast.Lookup) string {
	parts := make([]string, 0, len(q.PositiveTags)+len(q.NegativeTags))
	for _, tag := range q.PositiveTags {
		parts = append(parts, "-"+tag)
	}
	for _, tag := range q.NegativeTags {
		parts = append(parts, "-!"+tag)
	}
	return strings.Join(parts, " ")
}

func valueNode(value string) ast.Node {
	switch value {
	case "{a}":
		return ast.NewIndefiniteArticle(false)
	case "{A}":
		return ast.NewIndefiniteArticle(true)
	default:
		return ast.NewText(value)
	}
}
