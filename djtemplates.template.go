package djtemplates

import (
	"go.uber.org/zap"

	"github.com/UnknownPlatypus/djtemplates/internal"
)

// Template is a parsed template ready for rendering. It is immutable
// and safe for concurrent use; each Render call gets its own context.
type Template struct {
	name   string
	source string
	nodes  []internal.Node
	engine *Engine
}

func newTemplate(name, source string, nodes []internal.Node, engine *Engine) *Template {
	return &Template{
		name:   name,
		source: source,
		nodes:  nodes,
		engine: engine,
	}
}

// Name returns the name the template was registered under, or "" for
// templates parsed directly.
func (t *Template) Name() string {
	return t.name
}

// Source returns the original template source.
func (t *Template) Source() string {
	return t.source
}

// Render evaluates the template against the given variables. The
// variables map is read but never modified; tags that set variables
// ({% url ... as x %}, custom tags with a target) write into a
// per-render scope.
func (t *Template) Render(data map[string]any) (string, error) {
	return t.RenderWithRequest(data, nil)
}

// RenderWithRequest renders like Render but additionally exposes the
// given request object to the template as the "request" variable, and
// through the flattened context of context-taking tags.
func (t *Template) RenderWithRequest(data map[string]any, request any) (string, error) {
	logger := t.engine.logger
	logger.Debug(internal.LogMsgRenderStart,
		zap.String(internal.LogFieldTemplate, t.name),
		zap.Int(internal.LogFieldNodes, len(t.nodes)))

	rc := internal.NewRenderContext(t.source, t.engine.renderConfig(), data)
	rc.Name = t.name
	if request != nil {
		rc.Set(internal.StrRequest, request)
	}

	out, diag := internal.RenderNodes(t.nodes, rc)
	if diag != nil {
		return "", NewRenderError(diag, t.source, t.name)
	}

	logger.Debug(internal.LogMsgRenderDone,
		zap.String(internal.LogFieldTemplate, t.name),
		zap.Int(internal.LogFieldOutput, len(out)))
	return out, nil
}
