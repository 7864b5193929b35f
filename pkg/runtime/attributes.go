package runtime

import (
	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/formatter"
	"twaddle/interpreter-go/pkg/synchronizer"
)

// BlockAttributes configures the next block evaluated.
type BlockAttributes struct {
	Repetitions    int
	HasRepetitions bool

	Separator *ast.Root
	First     *ast.Root
	Last      *ast.Root

	SyncName string
	SyncType synchronizer.Type

	SaveAs string
	CopyAs string

	Hidden           bool
	Reversed         bool
	Abbreviated      bool
	AbbreviationCase formatter.Strategy

	While *ast.Root
}

func newBlockAttributes() *BlockAttributes {
	return &BlockAttributes{Repetitions: 1}
}

// Staging holds the attributes being collected for the next block. A block
// consumes them exactly once; anything staged afterwards applies to the
// block after that.
type Staging struct {
	current *BlockAttributes
}

func NewStaging() *Staging {
	return &Staging{current: newBlockAttributes()}
}

// Current returns the attributes being staged.
func (s *Staging) Current() *BlockAttributes {
	return s.current
}

// Consume hands over the staged attributes and starts a fresh set.
func (s *Staging) Consume() *BlockAttributes {
	attrs := s.current
	s.current = newBlockAttributes()
	return attrs
}

// Reset discards anything staged.
func (s *Staging) Reset() {
	s.current = newBlockAttributes()
}
