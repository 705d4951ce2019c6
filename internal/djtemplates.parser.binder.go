package internal

import (
	"fmt"
	"strings"
)

// bindArgs matches the lexed arguments of an extension tag call
// against the tag's declared parameters. Positional arguments fill
// positional parameters in order and must all come before keyword
// arguments; excess positionals flow into a varargs parameter and
// undeclared keywords into a kwargs parameter when the tag declares
// them.
func bindArgs(spec *TagSpec, args []TagArg, tag TagToken) ([]BoundArg, *Diagnostic) {
	params := spec.ContextParams()

	// slots maps every by-keyword-bindable name to its parameter
	// index. Positional parameters declared after a varargs parameter
	// bind by keyword only.
	slots := make(map[string]int, len(params))
	var positional []int
	varargs, kwargs := -1, -1
	for i, param := range params {
		switch param.Kind {
		case ParamVarArgs:
			varargs = i
		case ParamVarKwargs:
			kwargs = i
		case ParamKeywordOnly:
			slots[param.Name] = i
		default:
			slots[param.Name] = i
			if varargs < 0 {
				positional = append(positional, i)
			}
		}
	}

	exprs := make([]*Expr, len(params))
	sites := make([]Span, len(params))
	var extra []*Expr
	var pairs []BoundKwarg
	seen := map[string]Span{}

	var firstKwarg *TagArg
	nextPos := 0

	for i := range args {
		arg := &args[i]
		value := arg.Value

		if arg.Name == "" {
			if firstKwarg != nil {
				return nil, &Diagnostic{
					Message: ErrMsgUnexpectedPositionalAfter,
					Labels: []Label{
						{At: arg.At, Text: LabelThisPositional},
						{At: firstKwarg.At, Text: LabelAfterThisKwarg},
					},
				}
			}
			if nextPos < len(positional) {
				slot := positional[nextPos]
				exprs[slot] = &value
				sites[slot] = arg.At
				nextPos++
				continue
			}
			if varargs >= 0 {
				extra = append(extra, &value)
				continue
			}
			return nil, NewDiagnostic(ErrMsgUnexpectedPositional, arg.At, LabelHere)
		}

		if firstKwarg == nil {
			firstKwarg = arg
		}
		if first, ok := seen[arg.Name]; ok {
			return nil, duplicateKeyword(spec, arg.Name, first, arg.At)
		}
		seen[arg.Name] = arg.At

		slot, ok := slots[arg.Name]
		if !ok {
			if kwargs >= 0 {
				pairs = append(pairs, BoundKwarg{Name: arg.Name, Expr: value})
				continue
			}
			return nil, NewDiagnostic(ErrMsgUnexpectedKeyword, arg.At, LabelHere)
		}
		if exprs[slot] != nil {
			return nil, duplicateKeyword(spec, arg.Name, sites[slot], arg.At)
		}
		exprs[slot] = &value
		sites[slot] = arg.At
	}

	var missing []string
	bound := make([]BoundArg, len(params))
	for i, param := range params {
		bound[i] = BoundArg{Param: param, Expr: exprs[i]}
		switch param.Kind {
		case ParamVarArgs:
			bound[i].Exprs = extra
		case ParamVarKwargs:
			bound[i].Pairs = pairs
		default:
			if exprs[i] == nil && !param.HasDefault {
				missing = append(missing, "'"+param.Name+"'")
			}
		}
	}
	if len(missing) > 0 {
		at := tag.NameAt.After()
		if len(args) > 0 {
			at = args[len(args)-1].At
		}
		return nil, NewDiagnostic(
			fmt.Sprintf(ErrMsgMissingValues, spec.Name, strings.Join(missing, ", ")),
			at, LabelHere,
		)
	}
	return bound, nil
}

func duplicateKeyword(spec *TagSpec, name string, first, second Span) *Diagnostic {
	return &Diagnostic{
		Message: fmt.Sprintf(ErrMsgDuplicateKeyword, spec.Name, name),
		Labels: []Label{
			{At: first, Text: LabelFirst},
			{At: second, Text: LabelSecond},
		},
	}
}
