package ast

// Helpers for building trees by hand, mostly in tests.

func Txt(value string) *Root { return NewRoot(NewText(value)) }

func Choices(values ...string) *Block {
	roots := make([]*Root, len(values))
	for i, v := range values {
		roots[i] = Txt(v)
	}
	return NewBlock(roots...)
}

func Call(name string, args ...string) *Function {
	roots := make([]*Root, len(args))
	for i, a := range args {
		roots[i] = Txt(a)
	}
	return NewFunction(name, roots...)
}

// Fn builds a function whose arguments are arbitrary subtrees.
func Fn(name string, args ...*Root) *Function { return NewFunction(name, args...) }

func Look(dictionary string, opts ...func(*Lookup)) *Lookup {
	l := NewLookup(dictionary)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func WithForm(form string) func(*Lookup) {
	return func(l *Lookup) { l.Form = form }
}

func WithTags(tags ...string) func(*Lookup) {
	return func(l *Lookup) { l.PositiveTags = append(l.PositiveTags, tags...) }
}

func WithoutTags(tags ...string) func(*Lookup) {
	return func(l *Lookup) { l.NegativeTags = append(l.NegativeTags, tags...) }
}

func WithLabel(label string) func(*Lookup) {
	return func(l *Lookup) { l.PositiveLabel = label }
}

func WithoutLabels(labels ...string) func(*Lookup) {
	return func(l *Lookup) { l.NegativeLabels = append(l.NegativeLabels, labels...) }
}

func Redefine(labels ...string) func(*Lookup) {
	return func(l *Lookup) { l.RedefineLabels = append(l.RedefineLabels, labels...) }
}

func Strict() func(*Lookup) {
	return func(l *Lookup) { l.Strict = true }
}
