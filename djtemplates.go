// Package djtemplates renders Django-dialect templates: {% %} tags,
// {{ }} variable expressions and {# #} comments.
//
// # Basic Usage
//
// Create an engine and render templates:
//
//	engine := djtemplates.MustNew()
//	result, err := engine.Render("Hello, {{ user }}!", map[string]any{
//	    "user": "Alice",
//	})
//	// result: "Hello, Alice!"
//
// # Template Syntax
//
// Variable expressions resolve dotted paths through maps, struct
// fields, methods and indexes, and pipe through filters:
//
//	{{ user.name|lower }}
//	{{ count|add:1 }}
//
// Tags control flow and structure:
//
//	{% if user.is_staff or user.is_admin %}...{% else %}...{% endif %}
//	{% for item in items reversed %}{{ forloop.counter }}: {{ item }}{% empty %}none{% endfor %}
//	{% autoescape off %}{{ raw_html }}{% endautoescape %}
//	{% url 'route-name' pk=3 as target %}
//	{% load mylib %}
//
// # Escaping
//
// Autoescaping is on by default: strings from the context are
// HTML-escaped when output. The safe filter and the SafeString type
// mark content as already safe; escape escapes even with autoescaping
// off, but never re-escapes content already marked safe.
//
// # Custom Tags and Filters
//
// Group custom tags and filters into a Library and register it; a
// template gains access to them with {% load %}:
//
//	lib := djtemplates.NewLibrary("myapp").
//	    Filter("shout", func(v any) (any, error) {
//	        return strings.ToUpper(fmt.Sprint(v)) + "!", nil
//	    }).
//	    Tag("greet", func(inv djtemplates.TagInvocation) (any, error) {
//	        return "Hello, " + fmt.Sprint(inv.Args["name"]), nil
//	    }, djtemplates.ParamDefault("name", "World"))
//
//	engine := djtemplates.MustNew(djtemplates.WithLibrary(lib))
//	result, _ := engine.Render("{% load myapp %}{% greet name='Go' %}", nil)
//
// # Error Handling
//
// Parse and render failures carry a span-aware Diagnostic pointing at
// the offending template source:
//
//	result, err := engine.Render(source, data)
//	if diag, ok := djtemplates.AsDiagnostic(err); ok {
//	    fmt.Println(diag.Pretty(source))
//	}
//
// # Configuration
//
// Customize the engine with functional options:
//
//	engine, _ := djtemplates.New(
//	    djtemplates.WithAutoescape(false),
//	    djtemplates.WithStringIfInvalid("???"),
//	    djtemplates.WithURLResolver(resolver),
//	    djtemplates.WithLogger(logger),
//	)
package djtemplates
