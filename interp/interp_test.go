package interp

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/quote"
	"github.com/npillmayer/splice/runtime"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
)

// macro modules used by the tests
var testModules = MapLoader{
	"dbl": `
from splice.quote import macros, q
macros = Macros()

@macros.expr
def double(tree) {
    return q[ast_literal[tree] + ast_literal[tree]]
}

@macros.block
def twice(tree) {
    return tree + tree
}

@macros.expr
def show(tree, exact_src) {
    return q[u[exact_src(tree)]]
}

@macros.expr
def boom(tree) {
    raise ValueError("bad tree")
}
`,
	"hyg": `
from splice.hquote import macros, hq, unhygienic
macros = Macros()
secret = 42

@macros.expr
def reveal(tree) {
    return hq[secret + ast_literal[tree]]
}

@macros.expr
def leak(tree) {
    return hq[unhygienic[secret] + ast_literal[tree]]
}
`,
	"lm": `
from splice.hquote import macros, hq
macros = Macros()

def len(x) { return 999 }

@macros.expr
def mlen(tree) {
    return hq[len(ast_literal[tree])]
}
`,
	"loop_a": `from loop_b import macros, x`,
	"loop_b": `from loop_a import macros, y`,
}

func run(t *testing.T, src string) (*Module, string) {
	var out bytes.Buffer
	in := New(testModules, WithOutput(&out))
	m, err := in.Run("main", src)
	if err != nil {
		t.Fatal(err)
	}
	return m, out.String()
}

func lookup(t *testing.T, m *Module, name string) interface{} {
	v, ok := m.Scope.Local(name)
	if !ok {
		t.Fatalf("name %s is not bound in module %s", name, m.Name)
	}
	return v
}

func TestEvaluation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	m, out := run(t, `
def fact(n) {
    if n <= 1 { return 1 }
    return n * fact(n - 1)
}
class Counter {
    def __init__(self, start) { self.n = start }
    def inc(self) { self.n = self.n + 1; return self.n }
}
c = Counter(5)
c.inc()
l = [1, 2]
l.append(3)
d = {"a": 1}
d["b"] = 2
total = 0
for x in l { total += x }
print("fact", fact(5), sep=":")
`)
	if v := lookup(t, m, "c").(*Object); v.Attrs.ResolveTag("n").Value != int64(6) {
		t.Errorf("expected counter to be at 6, is %v", v.Attrs.ResolveTag("n").Value)
	}
	if v := Show(lookup(t, m, "l")); v != "[1, 2, 3]" {
		t.Errorf("expected [1, 2, 3], have %s", v)
	}
	if v := Show(lookup(t, m, "d")); v != `{"a": 1, "b": 2}` {
		t.Errorf("expected dict in insertion order, have %s", v)
	}
	if v := lookup(t, m, "total"); v != int64(6) {
		t.Errorf("expected total of 6, have %v", v)
	}
	if out != "fact:120\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestArithmeticLimits(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	for _, src := range []string{
		`x = "ab" * 9223372036854775807`,
		`x = [1] * 100000000000`,
		`x = (1, 2) * 100000000000`,
		`x = 9223372036854775807 + 1`,
		`x = -9223372036854775807 - 2`,
		`x = 4611686018427387904 * 2`,
		`x = -(-9223372036854775808)`,
	} {
		_, err := New(nil).Run("main", src)
		if err == nil {
			t.Errorf("%s: expected an error", src)
			continue
		}
		if !strings.Contains(err.Error(), "OverflowError") && !strings.Contains(err.Error(), "MemoryError") {
			t.Errorf("%s: unexpected error %v", src, err)
		}
	}
	m, _ := run(t, "x = [0] * 3\ny = 9223372036854775806 + 1\nz = -4611686018427387904 * 2\n")
	if v := Show(lookup(t, m, "x")); v != "[0, 0, 0]" {
		t.Errorf("expected [0, 0, 0], have %s", v)
	}
	if v := lookup(t, m, "y"); v != int64(math.MaxInt64) {
		t.Errorf("expected largest int64, have %v", v)
	}
	if v := lookup(t, m, "z"); v != int64(math.MinInt64) {
		t.Errorf("expected smallest int64, have %v", v)
	}
}

func TestRecursionLimit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	in := New(nil)
	_, err := in.Run("main", "def f(n) { return f(n + 1) }\nf(0)")
	var rerr *runtime.RecursionError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected recursion error, have %v", err)
	}
}

func TestExpressionMacro(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	m, _ := run(t, `
from dbl import macros, double
x = double[21]
y = double[double[1]]
`)
	if v := lookup(t, m, "x"); v != int64(42) {
		t.Errorf("expected x = 42, have %v", v)
	}
	if v := lookup(t, m, "y"); v != int64(4) {
		t.Errorf("expected y = 4, have %v", v)
	}
}

func TestBlockMacro(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	m, _ := run(t, `
from dbl import macros, twice
n = 0
with twice {
    n = n + 1
}
`)
	if v := lookup(t, m, "n"); v != int64(2) {
		t.Errorf("expected n = 2, have %v", v)
	}
}

func TestExactSourceInMacro(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	m, _ := run(t, `
from dbl import macros, show
s = show[1 +   2]
`)
	if v := lookup(t, m, "s"); v != "1 +   2" {
		t.Errorf("expected exact source of payload, have %q", v)
	}
}

func TestHygienicCapture(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	in := New(testModules)
	res, err := in.Expand("main", "from hyg import macros, reveal\nsecret = 1\nx = reveal[secret]\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Bindings) != 1 || res.Bindings[0].Name != "secret1" || res.Bindings[0].Value != int64(42) {
		t.Errorf("expected binding secret1=42, have %v", res.Bindings)
	}
	m, _ := run(t, "from hyg import macros, reveal\nsecret = 1\nx = reveal[secret]\n")
	if v := lookup(t, m, "x"); v != int64(43) {
		t.Errorf("expected x = 43, have %v", v)
	}
	if v := lookup(t, m, "secret"); v != int64(1) {
		t.Errorf("expected user's secret to be untouched, have %v", v)
	}
}

func TestCaptureDoesNotShadowBuiltins(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	s := New(testModules).NewSession("__main__")
	if _, err := s.Eval("from lm import macros, mlen"); err != nil {
		t.Fatal(err)
	}
	v, err := s.Eval("mlen[[1]]")
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(999) {
		t.Errorf("expected macro to call its own len, have %v", v)
	}
	v, err = s.Eval("len([1, 2])")
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(2) {
		t.Errorf("expected builtin len to be untouched, have %v", v)
	}
	res, err := New(testModules).Expand("main", "from lm import macros, mlen\nx = mlen[[1]]\n")
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range res.Bindings {
		if b.Name == "len" {
			t.Errorf("expected hygienic binding not to be named after a builtin")
		}
	}
}

func TestUnhygienicEscape(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	m, _ := run(t, "from hyg import macros, leak\nsecret = 1\nx = leak[0]\n")
	if v := lookup(t, m, "x"); v != int64(1) {
		t.Errorf("expected x = 1, from the user's secret, have %v", v)
	}
}

func TestFailingMacro(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	in := New(testModules)
	_, err := in.Run("main", "from dbl import macros, boom\nx = boom[1]\n")
	var mee *splice.MacroExpansionError
	if !errors.As(err, &mee) {
		t.Fatalf("expected macro expansion error, have %v", err)
	}
	if mee.Name != "boom" || mee.Module != "dbl" {
		t.Errorf("expected error to name macro boom of module dbl, have %s of %s", mee.Name, mee.Module)
	}
	if !strings.Contains(mee.Traceback, "in boom") {
		t.Errorf("expected traceback to show handler, have\n%s", mee.Traceback)
	}
	if !strings.Contains(err.Error(), "ValueError: bad tree") {
		t.Errorf("expected error message to show exception, have %s", err)
	}
}

func TestCircularMacroImport(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	in := New(testModules)
	_, err := in.Import("loop_a")
	if err == nil || !strings.Contains(err.Error(), "circular import") {
		t.Errorf("expected circular import error, have %v", err)
	}
}

func TestMissingMacros(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	in := New(MapLoader{"plain": "x = 1"})
	_, err := in.Run("main", "from plain import macros, f\n")
	if err == nil || !strings.Contains(err.Error(), "does not define macros") {
		t.Errorf("expected error for module without macros, have %v", err)
	}
}

func TestStubAtRuntime(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	s := New(nil).NewSession("__main__")
	if _, err := s.Eval("from splice.quote import u"); err != nil {
		t.Fatal(err)
	}
	_, err := s.Eval("u[1]")
	if err == nil || !strings.Contains(err.Error(), "Stub `u` illegally invoked at runtime") {
		t.Errorf("expected stub error, have %v", err)
	}
}

func TestSession(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	s := New(testModules).NewSession("__main__")
	if _, err := s.Eval("from dbl import macros, double"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Eval("a = 5"); err != nil {
		t.Fatal(err)
	}
	v, err := s.Eval("double[a]")
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(10) {
		t.Errorf("expected 10, have %v", v)
	}
	v, err = s.Eval("a * 2 + 1")
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(11) {
		t.Errorf("expected 11, have %v", v)
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	in := New(nil)
	sc := in.rt.NewModuleScope("test")
	sc.Set(quote.Namespace, astModule())
	for _, src := range []string{
		`f(a, b=[1, 2.5, "s"])[0].attr`,
		`(x, -y, [])`,
		`lambda a, b: {a: b, "k": None}`,
		`not (a and b) or c in {1, 2}`,
	} {
		x, err := syntax.ParseExpr(src)
		if err != nil {
			t.Fatal(err)
		}
		g, err := quote.Compile(x)
		if err != nil {
			t.Fatal(err)
		}
		v, err := in.eval(g, sc)
		if err != nil {
			t.Fatal(err)
		}
		if n, ok := v.(*tree.Node); !ok || !tree.Equal(n, x) {
			t.Errorf("reconstruction of %q failed, have %v", src, v)
		}
	}
}

func TestQuoteSplicesValues(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	m, _ := run(t, `
from splice.quote import macros, q
a = 10
b = 2
spliced = q[1 + u[a + b]]
plain = q[1 + (a + b)]
r1 = eval(spliced)
r2 = eval(plain)
a = 1
r3 = eval(spliced)
r4 = eval(plain)
`)
	for name, want := range map[string]int64{"r1": 13, "r2": 13, "r3": 13, "r4": 4} {
		if v := lookup(t, m, name); v != want {
			t.Errorf("expected %s = %d, have %v", name, want, v)
		}
	}
}

func TestLiftValues(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.interp")
	defer teardown()
	//
	in := New(nil)
	sc := in.rt.NewModuleScope("test")
	d := NewDict()
	d.Put("k", NewList(int64(1), "two", Tuple{3.5, nil}))
	s := NewSet()
	s.Add(true)
	for _, v := range []interface{}{d, s, NewSet(), Tuple{int64(1)}} {
		x, err := quote.Lift(v)
		if err != nil {
			t.Fatal(err)
		}
		w, err := in.eval(x, sc)
		if err != nil {
			t.Fatal(err)
		}
		if !equal(v, w) {
			t.Errorf("lifting %s yields %s", repr(v), repr(w))
		}
	}
}
