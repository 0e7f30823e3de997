package template

// Position marks where a node started in the original model source, so
// diagnostics (J001/J002/J003) can carry a line/column back to the user.
type Position struct {
	Line   int
	Column int
}

// Node is one piece of a parsed template: either literal text to copy
// through unchanged, an {{ expr }} substitution, or an {% tag %} control
// structure.
type Node interface {
	nodeTag()
}

// TextNode is a run of raw SQL copied through unchanged.
type TextNode struct {
	Text string
}

// ExprNode is an {{ expr }} substitution; its rendered value is converted
// to a string and spliced into the output in place.
type ExprNode struct {
	Expr Expr
	Pos  Position
}

// IfNode is an {% if cond %}...{% elif cond %}...{% else %}...{% endif %}
// block. Branches are walked in order; the first whose condition evaluates
// truthy is rendered, falling through to Else when none match.
type IfNode struct {
	Branches []IfBranch
	Else     []Node
	Pos      Position
}

// IfBranch is one `if`/`elif` arm of an IfNode.
type IfBranch struct {
	Cond Expr
	Body []Node
}

// ForNode is a `{% for item in items %}...{% endfor %}` loop. Var holds the
// loop variable's name; Iterable is evaluated once per render and must
// produce a []any.
type ForNode struct {
	Var      string
	Iterable Expr
	Body     []Node
	Pos      Position
}

// MacroDef is a `{% macro name(params...) %}...{% endmacro %}` block. It
// renders to nothing in place; it registers a callable macro in the
// environment's macro table for later `{{ name(args) }}` calls, the same
// way a project macro file is loaded once and reused across models.
type MacroDef struct {
	Name   string
	Params []string
	Body   []Node
	Pos    Position
}

func (TextNode) nodeTag()  {}
func (ExprNode) nodeTag()  {}
func (IfNode) nodeTag()    {}
func (ForNode) nodeTag()   {}
func (MacroDef) nodeTag()  {}

// Template is a fully parsed model body: a flat sequence of nodes to
// render in order against an Environment.
type Template struct {
	Nodes []Node
}
