package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIfBranches(t *testing.T) {
	source := "{% if a %}A{% elif b %}B{% else %}C{% endif %}"

	assert.Equal(t, "A", mustRender(t, source, map[string]any{"a": true}))
	assert.Equal(t, "B", mustRender(t, source, map[string]any{"b": 1}))
	assert.Equal(t, "C", mustRender(t, source, nil))
}

func TestRenderIfTruthiness(t *testing.T) {
	cases := []struct {
		value any
		want  string
	}{
		{true, "yes"},
		{false, "no"},
		{0, "no"},
		{1, "yes"},
		{0.0, "no"},
		{"", "no"},
		{"x", "yes"},
		{nil, "no"},
		{[]any{}, "no"},
		{[]any{1}, "yes"},
		{map[string]any{}, "no"},
		{map[string]any{"k": 1}, "yes"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%v", tc.value), func(t *testing.T) {
			out := mustRender(t, "{% if v %}yes{% else %}no{% endif %}", map[string]any{"v": tc.value})
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestRenderIfUnknownVariableIsFalsy(t *testing.T) {
	assert.Equal(t, "no", mustRender(t, "{% if missing %}yes{% else %}no{% endif %}", nil))
	assert.Equal(t, "no", mustRender(t, "{% if missing.deep %}yes{% else %}no{% endif %}", nil))
}

func TestRenderIfMissingFilterArgumentRaises(t *testing.T) {
	// A missing condition variable stays silent, but a missing filter
	// argument means the filter asked for a value that does not exist.
	source := "{% if foo|default:bar %}yes{% endif %}"
	_, diag := render(t, source, nil)

	require.NotNil(t, diag)
	assert.Equal(t,
		`Failed lookup for key [bar] in {"False": False, "None": None, "True": True}`,
		diag.Message)
	require.Len(t, diag.Labels, 1)
	assert.Equal(t, LabelKey, diag.Labels[0].Text)
	assert.Equal(t, Span{Start: 18, Len: 3}, diag.Labels[0].At)
}

func TestRenderIfBooleanOperators(t *testing.T) {
	vars := map[string]any{"t": true, "f": false}

	cases := []struct {
		cond string
		want string
	}{
		{"t and t", "yes"},
		{"t and f", "no"},
		{"f and missing", "no"},
		{"t or f", "yes"},
		{"f or t", "yes"},
		{"f or missing", "no"},
		{"not f", "yes"},
		{"not missing", "yes"},
		{"not f and t", "yes"},
		{"t or f and f", "yes"},
	}
	for _, tc := range cases {
		t.Run(tc.cond, func(t *testing.T) {
			out := mustRender(t, "{% if "+tc.cond+" %}yes{% else %}no{% endif %}", vars)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestRenderIfComparisons(t *testing.T) {
	vars := map[string]any{
		"one":   1,
		"two":   2,
		"name":  "bob",
		"names": []any{"bob", "carol"},
		"t":     true,
	}

	cases := []struct {
		cond string
		want string
	}{
		{"one == 1", "yes"},
		{"one == 2", "no"},
		{"one != 2", "yes"},
		{"one < two", "yes"},
		{"two <= two", "yes"},
		{"two > one", "yes"},
		{"one >= two", "no"},
		{"'a' < 'b'", "yes"},
		{"1 == 1.0", "yes"},
		{"name == 'bob'", "yes"},
		{"'bo' in name", "yes"},
		{"'zz' in name", "no"},
		{"name in names", "yes"},
		{"'dan' not in names", "yes"},
		// is has no object identity for plain values, so it degrades
		// to equality, except that bools only match other bools
		{"one is 1", "yes"},
		{"one is two", "no"},
		{"one is not 2", "yes"},
		{"name is 'bob'", "yes"},
		{"one is True", "no"},
		{"one is not True", "yes"},
		{"t is True", "yes"},
		{"t is not False", "yes"},
		{"None is None", "yes"},
		{"one is None", "no"},
		{"missing == None", "yes"},
		{"missing != None", "no"},
		{"missing == False", "no"},
		{"missing in names", "no"},
		{"missing not in names", "yes"},
		// comparisons chain left to right, not like Python
		{"one == 1 == t", "yes"},
		{"None == None is not None", "yes"},
	}
	for _, tc := range cases {
		t.Run(tc.cond, func(t *testing.T) {
			out := mustRender(t, "{% if "+tc.cond+" %}yes{% else %}no{% endif %}", vars)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestRenderForBasics(t *testing.T) {
	vars := map[string]any{"items": []any{"a", "b", "c"}}

	assert.Equal(t, "abc", mustRender(t, "{% for x in items %}{{ x }}{% endfor %}", vars))
	assert.Equal(t, "cba", mustRender(t, "{% for x in items reversed %}{{ x }}{% endfor %}", vars))
	assert.Equal(t, "hi!", mustRender(t, "{% for x in word %}{{ x }}{% endfor %}", map[string]any{"word": "hi!"}))
}

func TestRenderForEmptyBranch(t *testing.T) {
	source := "{% for x in items %}{{ x }}{% empty %}none{% endfor %}"

	assert.Equal(t, "none", mustRender(t, source, map[string]any{"items": []any{}}))
	assert.Equal(t, "ab", mustRender(t, source, map[string]any{"items": []any{"a", "b"}}))
}

func TestRenderForLoopVariables(t *testing.T) {
	vars := map[string]any{"items": []any{"a", "b", "c"}}

	out := mustRender(t,
		"{% for x in items %}{{ forloop.counter }}:{{ forloop.counter0 }}:{{ forloop.revcounter }}:{{ forloop.revcounter0 }};{% endfor %}",
		vars)
	assert.Equal(t, "1:0:3:2;2:1:2:1;3:2:1:0;", out)

	out = mustRender(t,
		"{% for x in items %}{% if forloop.first %}F{% endif %}{{ x }}{% if forloop.last %}L{% endif %}{% endfor %}",
		vars)
	assert.Equal(t, "FabcL", out)
}

func TestRenderForParentLoop(t *testing.T) {
	vars := map[string]any{"outer": []any{"a", "b"}, "inner": []any{1, 2}}
	out := mustRender(t,
		"{% for x in outer %}{% for y in inner %}{{ forloop.parentloop.counter }}.{{ forloop.counter }} {% endfor %}{% endfor %}",
		vars)
	assert.Equal(t, "1.1 1.2 2.1 2.2 ", out)
}

func TestRenderForLoopUnknownAttribute(t *testing.T) {
	out := mustRender(t, "{% for x in items %}[{{ forloop.nope }}]{% endfor %}",
		map[string]any{"items": []any{1}})
	assert.Equal(t, "[]", out)
}

func TestRenderForMapIteratesSortedKeys(t *testing.T) {
	vars := map[string]any{"m": map[string]any{"b": 2, "a": 1, "c": 3}}
	out := mustRender(t, "{% for k in m %}{{ k }}{% endfor %}", vars)
	assert.Equal(t, "abc", out)
}

func TestRenderForUnpacking(t *testing.T) {
	vars := map[string]any{"pairs": []any{[]any{"a", 1}, []any{"b", 2}}}
	out := mustRender(t, "{% for k, v in pairs %}{{ k }}={{ v }};{% endfor %}", vars)
	assert.Equal(t, "a=1;b=2;", out)
}

func TestRenderForUnpackingMismatch(t *testing.T) {
	source := "{% for k, v in pairs %}x{% endfor %}"
	_, diag := render(t, source, map[string]any{"pairs": []any{[]any{"a", 1, 2}}})

	require.NotNil(t, diag)
	assert.Equal(t, "Need 2 values to unpack; got 3.", diag.Message)
	require.Len(t, diag.Labels, 2)
	assert.Equal(t, LabelUnpackedHere, diag.Labels[0].Text)
	assert.Equal(t, Span{Start: 7, Len: 4}, diag.Labels[0].At)
	assert.Equal(t, LabelFromHere, diag.Labels[1].Text)
	assert.Equal(t, Span{Start: 15, Len: 5}, diag.Labels[1].At)
}

func TestRenderForUnpackingScalarCountsAsOne(t *testing.T) {
	diag := renderFail(t, "{% for k, v in items %}x{% endfor %}", map[string]any{"items": []any{5}})
	assert.Equal(t, "Need 2 values to unpack; got 1.", diag.Message)
}

func TestRenderForNotIterable(t *testing.T) {
	cases := []struct {
		value    any
		typeName string
	}{
		{5, "int"},
		{2.5, "float"},
		{true, "bool"},
		{nil, "NoneType"},
	}
	for _, tc := range cases {
		t.Run(tc.typeName, func(t *testing.T) {
			source := "{% for x in v %}x{% endfor %}"
			_, diag := render(t, source, map[string]any{"v": tc.value})

			require.NotNil(t, diag)
			assert.Equal(t, fmt.Sprintf("'%s' object is not iterable", tc.typeName), diag.Message)
			assert.Equal(t, Span{Start: 12, Len: 1}, diag.Labels[0].At)
		})
	}
}

type sliceIterator struct {
	items []any
	pos   int
	err   error
}

func (it *sliceIterator) Next() (any, bool, error) {
	if it.pos >= len(it.items) {
		return nil, false, it.err
	}
	item := it.items[it.pos]
	it.pos++
	return item, true, nil
}

func TestRenderForIterator(t *testing.T) {
	vars := map[string]any{"gen": &sliceIterator{items: []any{1, 2, 3}}}
	out := mustRender(t, "{% for x in gen %}{{ x }}{% endfor %}", vars)
	assert.Equal(t, "123", out)
}

func TestRenderForIteratorError(t *testing.T) {
	source := "{% for x in gen %}{{ x }}{% endfor %}"
	vars := map[string]any{"gen": &sliceIterator{items: []any{1}, err: errors.New("connection lost")}}
	_, diag := render(t, source, vars)

	require.NotNil(t, diag)
	assert.Equal(t, "connection lost", diag.Message)
	assert.Equal(t, LabelWhileIterating, diag.Labels[0].Text)
	assert.Equal(t, Span{Start: 12, Len: 3}, diag.Labels[0].At)
}

func TestRenderForScopeRestored(t *testing.T) {
	vars := map[string]any{"items": []any{"inner"}, "x": "outer"}
	out := mustRender(t, "{% for x in items %}{{ x }}{% endfor %}{{ x }}", vars)
	assert.Equal(t, "innerouter", out)
}

func urlConfig(resolver ResolveURLFunc) EngineConfig {
	return EngineConfig{Autoescape: true, ResolveURL: resolver}
}

func TestRenderURL(t *testing.T) {
	resolver := func(name string, args []any, kwargs map[string]any) (string, error) {
		if name != "detail" {
			return "", ErrNoReverseMatch
		}
		if pk, ok := kwargs["pk"]; ok {
			return fmt.Sprintf("/detail/%v/", pk), nil
		}
		if len(args) == 1 {
			return fmt.Sprintf("/detail/%v/", args[0]), nil
		}
		return "/detail/", nil
	}

	out, diag := renderConfig(t, "{% url 'detail' 3 %}", nil, urlConfig(resolver))
	require.Nil(t, diag)
	assert.Equal(t, "/detail/3/", out)

	out, diag = renderConfig(t, "{% url 'detail' pk=7 %}", nil, urlConfig(resolver))
	require.Nil(t, diag)
	assert.Equal(t, "/detail/7/", out)

	out, diag = renderConfig(t, "{% url view pk=7 %}", map[string]any{"view": "detail"}, urlConfig(resolver))
	require.Nil(t, diag)
	assert.Equal(t, "/detail/7/", out)
}

func TestRenderURLAsTarget(t *testing.T) {
	resolver := func(name string, args []any, kwargs map[string]any) (string, error) {
		return "/home/", nil
	}
	out, diag := renderConfig(t, "{% url 'home' as target %}[{{ target }}]", nil, urlConfig(resolver))
	require.Nil(t, diag)
	assert.Equal(t, "[/home/]", out)
}

func TestRenderURLNoReverseMatch(t *testing.T) {
	resolver := func(name string, args []any, kwargs map[string]any) (string, error) {
		return "", fmt.Errorf("reversing %q: %w", name, ErrNoReverseMatch)
	}

	// with an `as` capture the failure is silent and the target stays unset
	out, diag := renderConfig(t, "{% url 'gone' as target %}[{{ target }}]", nil, urlConfig(resolver))
	require.Nil(t, diag)
	assert.Equal(t, "[]", out)

	// without a capture it is a render error
	_, diag = renderConfig(t, "{% url 'gone' %}", nil, urlConfig(resolver))
	require.NotNil(t, diag)
	assert.Equal(t, `reversing "gone": no reverse match`, diag.Message)
}

func TestRenderURLOtherResolverErrorsPropagate(t *testing.T) {
	resolver := func(name string, args []any, kwargs map[string]any) (string, error) {
		return "", errors.New("router offline")
	}
	_, diag := renderConfig(t, "{% url 'home' as target %}", nil, urlConfig(resolver))
	require.NotNil(t, diag)
	assert.Equal(t, "router offline", diag.Message)
}

func TestRenderURLWithoutResolver(t *testing.T) {
	diag := renderFail(t, "{% url 'home' %}", nil)
	assert.Equal(t, ErrMsgNoURLResolver, diag.Message)
}

func TestRenderExtensionTag(t *testing.T) {
	assert.Equal(t, "8", mustRender(t, "{% load custom %}{% double 4 %}", nil))
	assert.Equal(t, "8", mustRender(t, "{% load custom %}{% double n %}", map[string]any{"n": 4}))
}

func TestRenderExtensionTagContext(t *testing.T) {
	vars := map[string]any{"greeting": "Hi"}
	assert.Equal(t, "Hi, World", mustRender(t, "{% load custom %}{% greet %}", vars))
	assert.Equal(t, "Hi, Ada", mustRender(t, "{% load custom %}{% greet 'Ada' %}", vars))
	assert.Equal(t, "Hi, Ada", mustRender(t, "{% load custom %}{% greet name='Ada' %}", vars))
}

func TestRenderExtensionBlockTag(t *testing.T) {
	out := mustRender(t, "{% load custom %}{% repeat 3 %}ab{% endrepeat %}", nil)
	assert.Equal(t, "ababab", out)

	// default count
	out = mustRender(t, "{% load custom %}{% repeat %}x{% endrepeat %}", nil)
	assert.Equal(t, "xx", out)
}

func TestRenderExtensionTagOutputEscaped(t *testing.T) {
	out := mustRender(t, "{% load custom %}{% double n %}", map[string]any{"n": int64(2)})
	assert.Equal(t, "4", out)

	lib := testRegistry()
	nodes, diag := Parse("{% load custom %}{% greet name %}", lib, nil)
	require.Nil(t, diag)
	rc := NewRenderContext("{% load custom %}{% greet name %}", EngineConfig{Autoescape: true},
		map[string]any{"greeting": "<b>", "name": "x"})
	out, rdiag := RenderNodes(nodes, rc)
	require.Nil(t, rdiag)
	assert.Equal(t, "&lt;b&gt;, x", out)
}

func TestRenderExtensionTagError(t *testing.T) {
	reg := NewRegistry()
	reg.Libraries["jobs"] = &LibrarySpec{
		Name: "jobs",
		Tags: map[string]*TagSpec{
			"enqueue": {
				Name: "enqueue",
				Fn: func(inv TagInvocation) (any, error) {
					return nil, errors.New("queue unavailable")
				},
			},
		},
	}

	source := "{% load jobs %}{% enqueue %}"
	nodes, diag := Parse(source, reg, nil)
	require.Nil(t, diag)
	_, rdiag := RenderNodes(nodes, NewRenderContext(source, EngineConfig{Autoescape: true}, nil))

	require.NotNil(t, rdiag)
	assert.Equal(t, "queue unavailable", rdiag.Message)
	assert.Equal(t, LabelHere, rdiag.Labels[0].Text)
	assert.Equal(t, Span{Start: 15, Len: 13}, rdiag.Labels[0].At)
}

func TestRenderExtensionTagAsTarget(t *testing.T) {
	out := mustRender(t, "{% load custom %}{% double 5 as ten %}{{ ten }}|{{ ten }}", nil)
	assert.Equal(t, "10|10", out)
}

func TestRenderExtensionTagVarargs(t *testing.T) {
	out := mustRender(t, "{% load custom %}{% combine 2 3 4 as foo %}{{ foo }}", nil)
	assert.Equal(t, "9", out)

	out = mustRender(t, "{% load custom %}{% combine 2 3 4 operation='multiply' as foo %}{{ foo }}", nil)
	assert.Equal(t, "24", out)

	// zero varargs bind an empty slice
	out = mustRender(t, "{% load custom %}{% combine %}", nil)
	assert.Equal(t, "0", out)
}

func TestRenderExtensionTagKwargs(t *testing.T) {
	out := mustRender(t, "{% load custom %}{% table foo='bar' spam=1 %}", nil)
	assert.Equal(t, "foo-bar\nspam-1", out)

	out = mustRender(t, "{% load custom %}{% table %}", nil)
	assert.Equal(t, "", out)
}

func TestRenderExtensionTagKeywordOnly(t *testing.T) {
	out := mustRender(t, "{% load custom %}{% heading 'Items' level=2 %}", nil)
	assert.Equal(t, "## Items", out)

	out = mustRender(t, "{% load custom %}{% heading text='Items' level=1 %}", nil)
	assert.Equal(t, "# Items", out)
}
