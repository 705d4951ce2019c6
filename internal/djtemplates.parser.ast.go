package internal

// Node is one element of the parsed template tree.
type Node interface {
	Render(rc *RenderContext) (string, *Diagnostic)
}

// TextNode is a raw text run.
type TextNode struct {
	At Span
}

// VariableNode is a {{ expression }} output node.
type VariableNode struct {
	Expr *Expr
	At   Span // whole token including delimiters
}

// IfBranch is one if or elif arm.
type IfBranch struct {
	Cond *Cond
	Body []Node
}

// IfNode is an if tag with its elif arms and optional else body.
type IfNode struct {
	Branches []IfBranch
	Else     []Node
}

// ForNode is a for tag with its optional empty body.
type ForNode struct {
	Cmd   ForCommand
	Body  []Node
	Empty []Node
	At    Span // whole tag including delimiters
}

// AutoescapeNode switches escaping for its body.
type AutoescapeNode struct {
	On   bool
	Body []Node
}

// LoadNode renders to nothing; its effect happens at parse time.
type LoadNode struct{}

// URLNode reverses a route name with bound arguments, optionally
// capturing the result instead of writing it.
type URLNode struct {
	Cmd URLCommand
	At  Span
}

// BoundArg pairs a declared tag parameter with the expression bound to
// it, or nil when the declared default applies. A varargs parameter
// carries Exprs instead, a kwargs parameter carries Pairs.
type BoundArg struct {
	Param Param
	Expr  *Expr
	Exprs []*Expr
	Pairs []BoundKwarg
}

// BoundKwarg is one call-site keyword collected by a kwargs parameter.
type BoundKwarg struct {
	Name string
	Expr Expr
}

// ExtensionTagNode invokes a loaded simple or block tag.
type ExtensionTagNode struct {
	Spec   *TagSpec
	Args   []BoundArg
	Target string // capture variable of a trailing `as name`
	Body   []Node // block tags only
	At     Span
}
