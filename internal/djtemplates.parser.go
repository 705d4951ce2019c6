package internal

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Parser builds a node tree from the token stream. Load tags mutate
// the parser state, so every tag and filter visibility decision is
// made here, at parse time.
type Parser struct {
	source   string
	registry *Registry
	logger   *zap.Logger
	tokens   []Token
	pos      int
	tags     map[string]*TagSpec
	filters  map[string]*FilterSpec
}

// builtinTagNames lists the tags available without a load, used for
// suggestions when an unknown tag is encountered.
var builtinTagNames = []string{
	KeywordIf,
	KeywordFor,
	KeywordAutoescape,
	KeywordLoad,
	KeywordURL,
}

// Parse tokenizes and parses template source into a node tree.
func Parse(source string, registry *Registry, logger *zap.Logger) ([]Node, *Diagnostic) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = NewRegistry()
	}

	tokens, diag := NewLexer(source, logger).Tokenize()
	if diag != nil {
		return nil, diag
	}

	p := &Parser{
		source:   source,
		registry: registry,
		logger:   logger,
		tokens:   tokens,
		tags:     map[string]*TagSpec{},
		filters:  map[string]*FilterSpec{},
	}

	p.logger.Debug(LogMsgParserStart, zap.Int(LogFieldTokens, len(tokens)))
	nodes, _, diag := p.parseNodes(nil, nil)
	if diag != nil {
		return nil, diag
	}
	p.logger.Debug(LogMsgParserDone, zap.Int(LogFieldNodes, len(nodes)))
	return nodes, nil
}

// parseNodes parses until one of the until tags or the end of input.
// With a non-nil opener, running out of input is an unclosed-tag
// error; without one, any until or end tag is unexpected.
func (p *Parser) parseNodes(until []string, opener *TagToken) ([]Node, TagToken, *Diagnostic) {
	var nodes []Node

	for p.pos < len(p.tokens) {
		token := p.tokens[p.pos]
		p.pos++

		switch token.Kind {
		case TokenText:
			nodes = append(nodes, &TextNode{At: token.At})
		case TokenComment:
			// dropped from output
		case TokenVariable:
			node, diag := p.parseVariable(token)
			if diag != nil {
				return nil, TagToken{}, diag
			}
			nodes = append(nodes, node)
		case TokenTag:
			tag, diag := lexTag(p.source, token)
			if diag != nil {
				return nil, TagToken{}, diag
			}
			for _, name := range until {
				if tag.Name == name {
					return nodes, tag, nil
				}
			}
			node, diag := p.parseTag(tag, until, opener)
			if diag != nil {
				return nil, TagToken{}, diag
			}
			nodes = append(nodes, node)
		}
	}

	if opener != nil {
		diag := NewDiagnostic(
			fmt.Sprintf(ErrMsgUnclosedBlockTag, opener.Name, strings.Join(until, ", ")),
			opener.At, LabelStartedHere,
		)
		return nil, TagToken{}, diag
	}
	return nodes, TagToken{}, nil
}

func (p *Parser) parseTag(tag TagToken, until []string, opener *TagToken) (Node, *Diagnostic) {
	switch tag.Name {
	case KeywordIf:
		return p.parseIf(tag)
	case KeywordFor:
		return p.parseFor(tag)
	case KeywordAutoescape:
		return p.parseAutoescape(tag)
	case KeywordLoad:
		return p.parseLoad(tag)
	case KeywordURL:
		return p.parseURL(tag)
	}
	if spec, ok := p.tags[tag.Name]; ok {
		return p.parseExtension(tag, spec)
	}
	return nil, p.unexpectedTag(tag, until, opener)
}

// unexpectedTag reports a tag that is neither builtin, loaded, nor an
// expected terminator. Inside a block the error names the terminators
// that would have been accepted.
func (p *Parser) unexpectedTag(tag TagToken, until []string, opener *TagToken) *Diagnostic {
	if opener != nil {
		return &Diagnostic{
			Message: fmt.Sprintf(ErrMsgUnexpectedTagExpected, tag.Name, strings.Join(until, ", ")),
			Labels: []Label{
				{At: opener.At, Text: LabelStartTag},
				{At: tag.At, Text: LabelUnexpectedTag},
			},
		}
	}
	diag := NewDiagnostic(fmt.Sprintf(ErrMsgUnexpectedTag, tag.Name), tag.At, LabelUnexpectedTag)
	if !isTerminatorName(tag.Name) {
		diag.Help = FormatSuggestions(FindSimilarStrings(tag.Name, p.knownTagNames(), 3))
	}
	return diag
}

// isTerminatorName reports whether a tag name only makes sense as a
// block terminator, which never deserves a did-you-mean.
func isTerminatorName(name string) bool {
	switch name {
	case KeywordElif, KeywordElse, KeywordEmpty:
		return true
	}
	return strings.HasPrefix(name, "end")
}

func (p *Parser) knownTagNames() []string {
	names := make([]string, 0, len(builtinTagNames)+len(p.tags))
	names = append(names, builtinTagNames...)
	for name := range p.tags {
		names = append(names, name)
	}
	return names
}

func (p *Parser) parseVariable(token Token) (Node, *Diagnostic) {
	if strings.TrimSpace(token.Content(p.source)) == "" {
		return nil, NewDiagnostic(ErrMsgEmptyVariable, token.At, LabelHere)
	}
	expr, diag := lexExpr(p.source, token.ContentAt())
	if diag != nil {
		return nil, diag
	}
	if diag := p.validateExpr(expr); diag != nil {
		return nil, diag
	}
	return &VariableNode{Expr: expr, At: token.At}, nil
}

// validateExpr resolves every filter of an expression against the
// builtins and the loaded filters, checking arity as it goes.
func (p *Parser) validateExpr(expr *Expr) *Diagnostic {
	for i := range expr.Filters {
		call := &expr.Filters[i]
		spec, ok := lookupFilter(call.Name, p.filters)
		if !ok {
			diag := NewDiagnostic(fmt.Sprintf(ErrMsgUnknownFilter, call.Name), call.NameAt, LabelHere)
			diag.Help = FormatSuggestions(FindSimilarStrings(call.Name, p.knownFilterNames(), 3))
			return diag
		}
		if diag := checkFilterArity(spec, *call); diag != nil {
			return diag
		}
		call.Spec = spec
	}
	return nil
}

func (p *Parser) knownFilterNames() []string {
	names := make([]string, 0, len(builtinFilters)+len(p.filters))
	for name := range builtinFilters {
		names = append(names, name)
	}
	for name := range p.filters {
		names = append(names, name)
	}
	return names
}

// validateCond walks a condition tree validating the filter chains of
// every operand.
func (p *Parser) validateCond(cond *Cond) *Diagnostic {
	if cond == nil {
		return nil
	}
	if cond.Expr != nil {
		if diag := p.validateExpr(cond.Expr); diag != nil {
			return diag
		}
	}
	if diag := p.validateCond(cond.Left); diag != nil {
		return diag
	}
	return p.validateCond(cond.Right)
}

var ifTerminators = []string{KeywordElif, KeywordElse, KeywordEndIf}

func (p *Parser) parseIf(tag TagToken) (Node, *Diagnostic) {
	node := &IfNode{}
	section := tag

	for {
		cond, diag := parseIfCond(p.source, section)
		if diag != nil {
			return nil, diag
		}
		if diag := p.validateCond(cond); diag != nil {
			return nil, diag
		}

		body, term, diag := p.parseNodes(ifTerminators, &section)
		if diag != nil {
			return nil, diag
		}
		node.Branches = append(node.Branches, IfBranch{Cond: cond, Body: body})

		switch term.Name {
		case KeywordElif:
			section = term
		case KeywordElse:
			elseBody, _, diag := p.parseNodes([]string{KeywordEndIf}, &term)
			if diag != nil {
				return nil, diag
			}
			node.Else = elseBody
			return node, nil
		default:
			return node, nil
		}
	}
}

func (p *Parser) parseFor(tag TagToken) (Node, *Diagnostic) {
	cmd, diag := lexFor(p.source, tag)
	if diag != nil {
		return nil, diag
	}
	if diag := p.validateExpr(&cmd.Iterable); diag != nil {
		return nil, diag
	}
	if len(cmd.Iterable.Filters) == 0 {
		switch atom := cmd.Iterable.Atom; atom.Kind {
		case AtomInt, AtomBigInt, AtomFloat:
			literal := p.source[atom.At.Start:atom.At.End()]
			return nil, NewDiagnostic(fmt.Sprintf(ErrMsgNotIterableValue, literal), atom.At, LabelHere)
		}
	}

	body, term, diag := p.parseNodes([]string{KeywordEmpty, KeywordEndFor}, &tag)
	if diag != nil {
		return nil, diag
	}
	node := &ForNode{Cmd: cmd, Body: body, At: tag.At}

	if term.Name == KeywordEmpty {
		empty, _, diag := p.parseNodes([]string{KeywordEndFor}, &term)
		if diag != nil {
			return nil, diag
		}
		node.Empty = empty
	}
	return node, nil
}

func (p *Parser) parseAutoescape(tag TagToken) (Node, *Diagnostic) {
	on, diag := lexAutoescape(p.source, tag)
	if diag != nil {
		return nil, diag
	}
	body, _, diag := p.parseNodes([]string{KeywordEndAutoescape}, &tag)
	if diag != nil {
		return nil, diag
	}
	return &AutoescapeNode{On: on, Body: body}, nil
}

// parseLoad registers the named libraries or members with the parser.
// The node itself renders to nothing.
func (p *Parser) parseLoad(tag TagToken) (Node, *Diagnostic) {
	cmd := lexLoad(p.source, tag)

	if cmd.From != nil {
		lib, ok := p.registry.Libraries[cmd.From.Text]
		if !ok {
			return nil, p.unknownLibrary(*cmd.From)
		}
		for _, member := range cmd.Members {
			found := false
			if spec, ok := lib.Tags[member.Text]; ok {
				if diag := p.loadTag(spec, member.At); diag != nil {
					return nil, diag
				}
				found = true
			}
			if spec, ok := lib.Filters[member.Text]; ok {
				p.filters[member.Text] = spec
				found = true
			}
			if !found {
				return nil, &Diagnostic{
					Message: fmt.Sprintf(ErrMsgUnknownMember, member.Text, cmd.From.Text),
					Labels: []Label{
						{At: member.At, Text: LabelTagOrFilter},
						{At: cmd.From.At, Text: LabelLibrary},
					},
				}
			}
		}
		p.logger.Debug(LogMsgLibraryLoaded, zap.String(LogFieldLibrary, cmd.From.Text))
		return &LoadNode{}, nil
	}

	for _, library := range cmd.Libraries {
		lib, ok := p.registry.Libraries[library.Text]
		if !ok {
			return nil, p.unknownLibrary(library)
		}
		names := make([]string, 0, len(lib.Tags))
		for name := range lib.Tags {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if diag := p.loadTag(lib.Tags[name], library.At); diag != nil {
				return nil, diag
			}
		}
		for name, spec := range lib.Filters {
			p.filters[name] = spec
		}
		p.logger.Debug(LogMsgLibraryLoaded, zap.String(LogFieldLibrary, library.Text))
	}
	return &LoadNode{}, nil
}

// loadTag makes a tag visible to the rest of the template. A
// takes-context tag without a leading 'context' parameter is rejected
// here, at load time, whether or not the template ever uses it.
func (p *Parser) loadTag(spec *TagSpec, at Span) *Diagnostic {
	if !spec.ValidTakesContext() {
		return NewDiagnostic(fmt.Sprintf(ErrMsgTakesContext, spec.Name), at, LabelLoadedHere)
	}
	p.tags[spec.Name] = spec
	return nil
}

func (p *Parser) unknownLibrary(library word) *Diagnostic {
	diag := NewDiagnostic(fmt.Sprintf(ErrMsgUnknownLibrary, library.Text), library.At, LabelHere)
	diag.Help = suggestLibraries(p.registry.Names())
	return diag
}

func (p *Parser) parseURL(tag TagToken) (Node, *Diagnostic) {
	cmd, diag := lexURL(p.source, tag)
	if diag != nil {
		return nil, diag
	}
	if diag := p.validateExpr(&cmd.ViewName); diag != nil {
		return nil, diag
	}
	for i := range cmd.Args {
		if diag := p.validateExpr(&cmd.Args[i].Value); diag != nil {
			return nil, diag
		}
	}
	return &URLNode{Cmd: cmd, At: tag.At}, nil
}

// parseExtension binds a loaded simple or block tag invocation.
func (p *Parser) parseExtension(tag TagToken, spec *TagSpec) (Node, *Diagnostic) {
	args, target, diag := lexTagArgs(p.source, tag.Parts)
	if diag != nil {
		return nil, diag
	}
	for i := range args {
		if diag := p.validateExpr(&args[i].Value); diag != nil {
			return nil, diag
		}
	}
	bound, diag := bindArgs(spec, args, tag)
	if diag != nil {
		return nil, diag
	}

	node := &ExtensionTagNode{Spec: spec, Args: bound, Target: target, At: tag.At}
	if spec.Block {
		body, _, diag := p.parseNodes([]string{"end" + spec.Name}, &tag)
		if diag != nil {
			return nil, diag
		}
		node.Body = body
	}
	return node, nil
}
