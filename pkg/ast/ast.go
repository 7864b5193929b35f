package ast

type NodeType string

const (
	NodeRoot              NodeType = "Root"
	NodeText              NodeType = "Text"
	NodeLookup            NodeType = "Lookup"
	NodeBlock             NodeType = "Block"
	NodeFunction          NodeType = "Function"
	NodeRegex             NodeType = "Regex"
	NodeIndefiniteArticle NodeType = "IndefiniteArticle"
	NodeDigit             NodeType = "Digit"
)

type Node interface {
	NodeType() NodeType
	isNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (nodeImpl) isNode()              {}

// Root is an ordered run of content. Every block choice and every function or
// regex argument is a Root.
type Root struct {
	nodeImpl

	Children []Node `json:"children"`
}

func NewRoot(children ...Node) *Root {
	if children == nil {
		children = []Node{}
	}
	return &Root{nodeImpl: newNodeImpl(NodeRoot), Children: children}
}

// Append adds a child, merging adjacent text into a single node.
func (r *Root) Append(node Node) {
	if text, ok := node.(*Text); ok && len(r.Children) > 0 {
		if prev, ok := r.Children[len(r.Children)-1].(*Text); ok {
			prev.Value += text.Value
			return
		}
	}
	r.Children = append(r.Children, node)
}

type Text struct {
	nodeImpl

	Value string `json:"value"`
}

func NewText(value string) *Text {
	return &Text{nodeImpl: newNodeImpl(NodeText), Value: value}
}

// Lookup references an entry in a named dictionary.
type Lookup struct {
	nodeImpl

	Dictionary     string   `json:"dictionary"`
	Form           string   `json:"form,omitempty"`
	PositiveTags   []string `json:"positiveTags,omitempty"`
	NegativeTags   []string `json:"negativeTags,omitempty"`
	PositiveLabel  string   `json:"positiveLabel,omitempty"`
	NegativeLabels []string `json:"negativeLabels,omitempty"`
	RedefineLabels []string `json:"redefineLabels,omitempty"`
	Strict         bool     `json:"strict,omitempty"`
}

func NewLookup(dictionary string) *Lookup {
	return &Lookup{nodeImpl: newNodeImpl(NodeLookup), Dictionary: dictionary}
}

type Block struct {
	nodeImpl

	Choices []*Root `json:"choices"`
}

func NewBlock(choices ...*Root) *Block {
	if len(choices) == 0 {
		choices = []*Root{NewRoot()}
	}
	return &Block{nodeImpl: newNodeImpl(NodeBlock), Choices: choices}
}

type Function struct {
	nodeImpl

	Name      string  `json:"name"`
	Arguments []*Root `json:"arguments,omitempty"`
}

func NewFunction(name string, arguments ...*Root) *Function {
	if len(arguments) == 0 {
		arguments = nil
	}
	return &Function{nodeImpl: newNodeImpl(NodeFunction), Name: name, Arguments: arguments}
}

// Regex substitutes every match of Pattern in the rendered Scope with the
// rendered Replacement.
type Regex struct {
	nodeImpl

	Pattern     string `json:"pattern"`
	Flags       string `json:"flags,omitempty"`
	Scope       *Root  `json:"scope"`
	Replacement *Root  `json:"replacement"`
}

func NewRegex(pattern, flags string, scope, replacement *Root) *Regex {
	if scope == nil {
		scope = NewRoot()
	}
	if replacement == nil {
		replacement = NewRoot()
	}
	return &Regex{nodeImpl: newNodeImpl(NodeRegex), Pattern: pattern, Flags: flags, Scope: scope, Replacement: replacement}
}

type IndefiniteArticle struct {
	nodeImpl

	Upper bool `json:"upper,omitempty"`
}

func NewIndefiniteArticle(upper bool) *IndefiniteArticle {
	return &IndefiniteArticle{nodeImpl: newNodeImpl(NodeIndefiniteArticle), Upper: upper}
}

type Digit struct {
	nodeImpl
}

func NewDigit() *Digit {
	return &Digit{nodeImpl: newNodeImpl(NodeDigit)}
}
