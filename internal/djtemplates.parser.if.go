package internal

import (
	"fmt"
)

// CmpOp enumerates the if tag comparison operators.
type CmpOp int

const (
	OpEq CmpOp = iota
	OpNe
	OpLt
	OpGt
	OpLte
	OpGte
	OpIn
	OpNotIn
	OpIs
	OpIsNot
)

// CondKind discriminates boolean expression nodes.
type CondKind int

const (
	CondAtom CondKind = iota
	CondNot
	CondAnd
	CondOr
	CondCmp
)

// Cond is a parsed boolean expression. Comparisons never chain:
// a == b == c parses as (a == b) == c.
type Cond struct {
	Kind  CondKind
	Op    CmpOp
	Expr  *Expr
	Left  *Cond
	Right *Cond
}

// ifToken is one operator or operand of an if tag body.
type ifToken struct {
	isOp bool
	op   string
	expr *Expr
	text string
	at   Span
}

// operator binding powers, loosest first. Every comparison shares one
// tier, so chains like `a == b == c` group left to right; Django's
// smartif binds in/not in one step looser than the other comparisons.
var ifOperators = map[string]int{
	KeywordOr:    6,
	KeywordAnd:   7,
	KeywordNot:   8,
	KeywordIn:    10,
	KeywordNotIn: 10,
	KeywordIs:    10,
	KeywordIsNot: 10,
	"==":         10,
	"!=":         10,
	"<":          10,
	">":          10,
	"<=":         10,
	">=":         10,
}

var cmpOps = map[string]CmpOp{
	"==":         OpEq,
	"!=":         OpNe,
	"<":          OpLt,
	">":          OpGt,
	"<=":         OpLte,
	">=":         OpGte,
	KeywordIn:    OpIn,
	KeywordNotIn: OpNotIn,
	KeywordIs:    OpIs,
	KeywordIsNot: OpIsNot,
}

// lexIfTokens chunks an if tag body on whitespace, keeping quoted
// strings intact, and classifies each chunk as operator or operand.
// Adjacent `not in` and `is not` chunks merge into one operator.
func lexIfTokens(source string, parts Span) ([]ifToken, *Diagnostic) {
	l := newExprLexer(source, parts)
	var tokens []ifToken

	for {
		l.skipSpaces()
		if l.atEnd() {
			break
		}
		start := l.pos
		end := forNameEnd(l, start)
		text := source[start:end]
		at := Span{Start: start, Len: end - start}

		if _, ok := ifOperators[text]; ok {
			tokens = append(tokens, ifToken{isOp: true, op: text, text: text, at: at})
			l.pos = end
			continue
		}

		sub := newExprLexer(source, Span{Start: start, Len: end - start})
		expr, diag := lexArgExpr(sub)
		if diag != nil {
			return nil, diag
		}
		tokens = append(tokens, ifToken{expr: &expr, text: text, at: at})
		l.pos = end
	}

	return mergeIfOperators(tokens), nil
}

func mergeIfOperators(tokens []ifToken) []ifToken {
	var merged []ifToken
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if i+1 < len(tokens) && t.isOp && tokens[i+1].isOp {
			next := tokens[i+1]
			pair := ""
			if t.op == KeywordNot && next.op == KeywordIn {
				pair = KeywordNotIn
			} else if t.op == KeywordIs && next.op == KeywordNot {
				pair = KeywordIsNot
			}
			if pair != "" {
				at := Span{Start: t.at.Start, Len: next.at.End() - t.at.Start}
				merged = append(merged, ifToken{isOp: true, op: pair, text: pair, at: at})
				i++
				continue
			}
		}
		merged = append(merged, t)
	}
	return merged
}

// ifParser is a small precedence-climbing parser over the token list.
type ifParser struct {
	tokens []ifToken
	pos    int
	last   ifToken
}

// parseIfCond parses an if or elif tag body into a condition tree.
func parseIfCond(source string, tag TagToken) (*Cond, *Diagnostic) {
	tokens, diag := lexIfTokens(source, tag.Parts)
	if diag != nil {
		return nil, diag
	}
	if len(tokens) == 0 {
		return nil, NewDiagnostic(ErrMsgMissingBoolExpr, tag.At, LabelHere)
	}

	p := &ifParser{tokens: tokens}
	cond, diag := p.expression(0)
	if diag != nil {
		return nil, diag
	}
	if p.pos < len(p.tokens) {
		extra := p.tokens[p.pos]
		return nil, NewDiagnostic(fmt.Sprintf(ErrMsgUnusedExpression, extra.text), extra.at, LabelHere)
	}
	return cond, nil
}

func (p *ifParser) expression(rbp int) (*Cond, *Diagnostic) {
	if p.pos >= len(p.tokens) {
		return nil, NewDiagnostic(ErrMsgUnexpectedEndExpr, p.last.at, LabelAfterThis)
	}
	t := p.tokens[p.pos]
	p.pos++
	p.last = t

	left, diag := p.nud(t)
	if diag != nil {
		return nil, diag
	}

	for p.pos < len(p.tokens) {
		op := p.tokens[p.pos]
		if !op.isOp || ifOperators[op.op] <= rbp {
			break
		}
		p.pos++
		p.last = op
		left, diag = p.led(op, left)
		if diag != nil {
			return nil, diag
		}
	}
	return left, nil
}

func (p *ifParser) nud(t ifToken) (*Cond, *Diagnostic) {
	if !t.isOp {
		return &Cond{Kind: CondAtom, Expr: t.expr}, nil
	}
	if t.op == KeywordNot {
		operand, diag := p.expression(8)
		if diag != nil {
			return nil, diag
		}
		return &Cond{Kind: CondNot, Left: operand}, nil
	}
	return nil, NewDiagnostic(fmt.Sprintf(ErrMsgNotExpecting, t.op), t.at, LabelHere)
}

func (p *ifParser) led(op ifToken, left *Cond) (*Cond, *Diagnostic) {
	if op.op == KeywordNot {
		return nil, NewDiagnostic(fmt.Sprintf(ErrMsgNotExpecting, op.op), op.at, LabelHere)
	}
	right, diag := p.expression(ifOperators[op.op])
	if diag != nil {
		return nil, diag
	}
	switch op.op {
	case KeywordAnd:
		return &Cond{Kind: CondAnd, Left: left, Right: right}, nil
	case KeywordOr:
		return &Cond{Kind: CondOr, Left: left, Right: right}, nil
	default:
		return &Cond{Kind: CondCmp, Op: cmpOps[op.op], Left: left, Right: right}, nil
	}
}
