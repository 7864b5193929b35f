package formatter

import "strings"

type itemKind int

const (
	itemText itemKind = iota
	itemStrategy
	itemArticle
)

type item struct {
	kind     itemKind
	text     string
	strategy Strategy
	upper    bool
}

// Formatter buffers output until it is resolved. Articles stay pending until
// text following them reveals the next word; their slot in the buffer is then
// overwritten with "a" or "an".
type Formatter struct {
	items   []item
	pending []int
}

func New() *Formatter {
	return &Formatter{}
}

// AppendText adds literal text, settling any pending articles if the text
// contains a word.
func (f *Formatter) AppendText(text string) {
	if text == "" {
		return
	}
	if len(f.pending) > 0 {
		if word := firstWord(text); word != "" {
			article := Article(word)
			for _, idx := range f.pending {
				resolved := article
				if f.items[idx].upper {
					resolved = capitalize(resolved)
				}
				f.items[idx] = item{kind: itemText, text: resolved}
			}
			f.pending = f.pending[:0]
		}
	}
	f.items = append(f.items, item{kind: itemText, text: text})
}

// SetStrategy changes the case strategy for everything appended after it.
func (f *Formatter) SetStrategy(s Strategy) {
	f.items = append(f.items, item{kind: itemStrategy, strategy: s})
}

// AddArticle appends a pending indefinite article.
func (f *Formatter) AddArticle(upper bool) {
	f.pending = append(f.pending, len(f.items))
	f.items = append(f.items, item{kind: itemArticle, upper: upper})
}

// Append replays other's items onto f, so articles pending in f can be
// settled by text from other.
func (f *Formatter) Append(other *Formatter) {
	if other == nil {
		return
	}
	for _, it := range other.items {
		switch it.kind {
		case itemText:
			f.AppendText(it.text)
		case itemStrategy:
			f.SetStrategy(it.strategy)
		case itemArticle:
			f.AddArticle(it.upper)
		}
	}
}

// Clone returns an independent copy.
func (f *Formatter) Clone() *Formatter {
	return &Formatter{
		items:   append([]item(nil), f.items...),
		pending: append([]int(nil), f.pending...),
	}
}

// Empty reports whether nothing has been appended.
func (f *Formatter) Empty() bool {
	return len(f.items) == 0
}

// String renders the buffer without clearing it. Articles still pending
// default to "a".
func (f *Formatter) String() string {
	var out, run strings.Builder
	active := StrategyNone
	flush := func() {
		if run.Len() == 0 {
			return
		}
		out.WriteString(active.Apply(out.String(), run.String()))
		run.Reset()
	}
	for _, it := range f.items {
		switch it.kind {
		case itemText:
			run.WriteString(it.text)
		case itemStrategy:
			flush()
			active = it.strategy
		case itemArticle:
			if it.upper {
				run.WriteString("A")
			} else {
				run.WriteString("a")
			}
		}
	}
	flush()
	return out.String()
}

// Resolve renders the buffer and resets the formatter.
func (f *Formatter) Resolve() string {
	out := f.String()
	f.items = nil
	f.pending = nil
	return out
}
