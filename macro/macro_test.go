package macro

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
)

func identity(c *Call) (interface{}, error) {
	return c.Tree, nil
}

func testModule() *Module {
	b := NewBuilder("testmacros")
	b.Add(ExprShape, "trace", identity, WantArgs)
	b.Add(BlockShape, "trace", identity, WantTarget)
	b.Add(DecoratorShape, "memo", identity, 0)
	b.Add(ExprShape, "hidden", identity, 0)
	b.Expose("log")
	return b.Build()
}

func parseStmt(t *testing.T, src string) *tree.Node {
	stmts, err := syntax.ParseStmts(src)
	if err != nil {
		t.Fatal(err)
	}
	return stmts[0]
}

func TestParamsByName(t *testing.T) {
	p, err := ParamsByName("tree", "args", "gen_sym")
	if err != nil {
		t.Fatal(err)
	}
	if p != WantArgs|WantGenSym {
		t.Errorf("unexpected flags %b", p)
	}
	if _, err = ParamsByName("tree", "kwargs"); err == nil {
		t.Errorf("expected unknown parameter name to be rejected")
	}
	call := &Call{Args: []*tree.Node{tree.NewInt(1)}, GenSym: func(string) string { return "x" }}
	r := call.Restrict(WantGenSym)
	if r.Args != nil || r.GenSym == nil || call.Args == nil {
		t.Errorf("restriction of call does not work")
	}
}

func TestBuilderIsolation(t *testing.T) {
	b := NewBuilder("m")
	b.Add(ExprShape, "a", identity, 0)
	m := b.Build()
	b.Add(ExprShape, "b", identity, 0)
	if m.Has("b") || !m.Has("a") {
		t.Errorf("module must not change after it has been built")
	}
	if m.Lookup(BlockShape, "a") != nil {
		t.Errorf("expected no block macro 'a'")
	}
}

func TestDetectShapes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.macro")
	defer teardown()
	//
	m := testModule()
	table := NewTable()
	table.Bind(m, "trace", "tr")
	table.Bind(m, "memo", "")
	//
	site, err := table.Detect(parseStmt(t, "tr(1, 2)[x + 1]").Child("value"))
	if err != nil || site == nil {
		t.Fatalf("expected expression site, have %v, %v", site, err)
	}
	if site.Shape != ExprShape || len(site.Args) != 2 || !site.Payload.(*tree.Node).Is(tree.BinOp) {
		t.Errorf("unexpected expression site %v", site)
	}
	//
	with := parseStmt(t, "with tr as t { x = 1; y = 2 }")
	site, err = table.Detect(with)
	if err != nil || site == nil {
		t.Fatalf("expected block site, have %v, %v", site, err)
	}
	if site.Shape != BlockShape || len(site.Payload.([]*tree.Node)) != 2 || !site.Target.IsName("t") {
		t.Errorf("unexpected block site %v", site)
	}
	//
	def := parseStmt(t, "@other\n@memo\n@more\ndef f() { pass }")
	site, err = table.Detect(def)
	if err != nil || site == nil {
		t.Fatalf("expected decorator site, have %v, %v", site, err)
	}
	decs := site.Payload.(*tree.Node).Children("decorators")
	if len(decs) != 2 || !decs[0].IsName("other") || !decs[1].IsName("more") {
		t.Errorf("expected macro decorator to be removed from payload, have %v", decs)
	}
	if len(def.Children("decorators")) != 3 {
		t.Errorf("detection must not modify the site")
	}
	//
	if site, _ = table.Detect(parseStmt(t, "x[1]").Child("value")); site != nil {
		t.Errorf("expected no site for plain subscript")
	}
}

func TestResolutionErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.macro")
	defer teardown()
	//
	table := NewTable()
	table.Bind(testModule(), "trace", "")
	table.Bind(testModule(), "memo", "")
	var rerr *splice.MacroResolutionError
	_, err := table.Detect(parseStmt(t, "hidden[1]").Child("value"))
	if !errors.As(err, &rerr) || rerr.Name != "hidden" {
		t.Errorf("expected resolution error for macro not imported, have %v", err)
	}
	_, err = table.Detect(parseStmt(t, "with memo { pass }"))
	if !errors.As(err, &rerr) || rerr.Shape != "block" {
		t.Errorf("expected resolution error for wrong shape, have %v", err)
	}
}

func TestShadowing(t *testing.T) {
	b := NewBuilder("first")
	b.Add(ExprShape, "m", identity, 0)
	first := b.Build()
	b = NewBuilder("second")
	b.Add(ExprShape, "m", identity, 0)
	second := b.Build()
	table := NewTable()
	table.Bind(first, "m", "")
	table.Bind(second, "m", "")
	site, err := table.Detect(tree.NewSubscript(tree.Ident("m"), tree.NewInt(1), tree.Load))
	if err != nil {
		t.Fatal(err)
	}
	if site.Macro.Module != "second" {
		t.Errorf("expected later import to shadow earlier one, have %s", site.Macro)
	}
	if len(table.Modules()) != 2 || table.Modules()[0] != first {
		t.Errorf("expected active modules in import order")
	}
}

func TestSplitWith(t *testing.T) {
	table := NewTable()
	table.Bind(testModule(), "trace", "")
	with := parseStmt(t, "with a, trace as t, b { pass }")
	split := table.SplitWith(with)
	if len(split.Children("items")) != 1 {
		t.Fatalf("expected single item with, have %s", split)
	}
	inner := split.Children("body")[0]
	if !inner.Is(tree.With) || !inner.Children("items")[0].Child("context").IsName("trace") {
		t.Errorf("unexpected nesting %s", split)
	}
	plain := parseStmt(t, "with a, b { pass }")
	if table.SplitWith(plain) != plain {
		t.Errorf("with-statements without macros must not be split")
	}
}
