package syntax

import (
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/splice/tree"
)

var inputStrings = []string{
	"1",
	"1+12",
	"x = 'my string'  # commented",
	"f(a,\n  b)",
	"def f(a) { return a }",
}

var tokenCounts = []int{1, 3, 3, 7, 9}

func TestTokenize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.syntax")
	defer teardown()
	//
	for i, input := range inputStrings {
		t.Logf("------+-----------------+--------")
		toks, err := Tokenize(input)
		if err != nil {
			t.Fatal(err)
		}
		for _, tok := range toks {
			t.Logf(" %7s | %15q | @%s", TokTypeString(tok.TokType()), tok.Lexeme(), tok.Pos())
		}
		if len(toks)-1 != tokenCounts[i] { // without EOF
			t.Errorf("expected token count for #%d to be %d, is %d", i, tokenCounts[i], len(toks)-1)
		}
	}
	t.Logf("------+-----------------+--------")
}

func TestTokenValues(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.syntax")
	defer teardown()
	//
	toks, err := Tokenize(`42 3.5 1e999 "a\"b\n" 'it\'s'`)
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Value() != int64(42) {
		t.Errorf("expected 42, have %v", toks[0].Value())
	}
	if toks[1].Value() != 3.5 {
		t.Errorf("expected 3.5, have %v", toks[1].Value())
	}
	if f, _ := toks[2].Value().(float64); !math.IsInf(f, 1) {
		t.Errorf("expected +Inf, have %v", toks[2].Value())
	}
	if toks[3].Value() != "a\"b\n" {
		t.Errorf("expected escaped string, have %q", toks[3].Value())
	}
	if toks[4].Value() != "it's" {
		t.Errorf("expected single quoted string, have %q", toks[4].Value())
	}
	if p := toks[1].Pos(); p.Line != 1 || p.Col != 4 {
		t.Errorf("expected position 1:4, have %s", p)
	}
}

func TestParseExpr(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.syntax")
	defer teardown()
	//
	x, err := ParseExpr("1 + 2*3")
	if err != nil {
		t.Fatal(err)
	}
	expected := tree.NewBinOp(tree.NewInt(1), "+", tree.NewBinOp(tree.NewInt(2), "*", tree.NewInt(3)))
	if !tree.Equal(x, expected) {
		t.Errorf("expected %s, have %s", expected, x)
	}
	x, err = ParseExpr("-5 - 3")
	if err != nil {
		t.Fatal(err)
	}
	if l := x.Child("left"); !l.Is(tree.Num) || l.Get("n") != int64(-5) {
		t.Errorf("expected negative literal -5, have %s", l)
	}
	x, err = ParseExpr("trace(1)[a.b]")
	if err != nil {
		t.Fatal(err)
	}
	if !x.Is(tree.Subscript) || !x.Child("value").Is(tree.Call) || !x.Child("index").Is(tree.Attribute) {
		t.Errorf("unexpected tree for parametrized subscript: %s", x)
	}
}

func TestAssignmentContexts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.syntax")
	defer teardown()
	//
	stmts, err := ParseStmts("a, b.c = x[1] = y\ndel z")
	if err != nil {
		t.Fatal(err)
	}
	assign := stmts[0]
	targets := assign.Children("targets")
	if len(targets) != 2 {
		t.Fatalf("expected 2 assignment targets, have %d", len(targets))
	}
	if targets[0].Ctx != tree.Store || targets[0].Children("elts")[0].Ctx != tree.Store {
		t.Errorf("expected tuple target to be in store context: %s", targets[0])
	}
	if targets[1].Ctx != tree.Store || targets[1].Child("value").Ctx != tree.Load {
		t.Errorf("expected subscript target in store context, its value in load context: %s", targets[1])
	}
	if stmts[1].Children("targets")[0].Ctx != tree.Del {
		t.Errorf("expected del target in del context")
	}
}

var roundTripSources = []string{
	`from mymacros import macros, trace as tr, log
import os.path as p, sys
x = 1 + 2 * 3
y = (1 + 2) * 3
z = -5 - (-3.5) + -(x)
s = "a 'quoted' \"string\"\n"
@memo
@trace(3)
def f(a, b) {
    return a + b
}
class C(Base, Other) {
    y = [1, 2, {3: 4, 'k': None}, {5, 6}, (), (7,)]
    def m(self) { pass }
}
if x < 3 and not y {
    pass
} elif x >= 9 or y is not None {
    z += 1
} else {
    raise ValueError("no")
}
while c { x -= 1 }
for i, j in pairs(xs) { print(i, j, sep=", ") }
with q as body, trace {
    x = 1
}
v = trace[x + 1]
w = trace(a, b)[lambda k, l: k * l]
del x, y[0], z.attr
f = lambda: None
t = a in b or a not in c
inf = 1e999
lo, hi = -9223372036854775808, 9223372036854775807
`,
	"",
	"pass; pass\n\n# only a comment\n",
}

func TestRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.syntax")
	defer teardown()
	//
	for i, src := range roundTripSources {
		m1, err := Parse(src)
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		out, err := Render(m1)
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		t.Logf("rendered #%d:\n%s", i, out)
		m2, err := Parse(out)
		if err != nil {
			t.Fatalf("#%d: cannot re-parse rendered output: %v", i, err)
		}
		if !tree.Equal(m1, m2) {
			t.Errorf("#%d: round trip failed\n%s\n%s", i, tree.Indented(m1), tree.Indented(m2))
		}
		out2, _ := Render(m2)
		if out != out2 {
			t.Errorf("#%d: rendering is not stable", i)
		}
	}
}

func TestRenderNumbers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.syntax")
	defer teardown()
	//
	cases := []struct {
		v interface{}
		s string
	}{
		{int64(7), "7"},
		{int64(-7), "(-7)"},
		{2.0, "2.0"},
		{-0.25, "(-0.25)"},
		{math.Inf(1), "1e999"},
		{math.Inf(-1), "(-1e999)"},
		{int64(math.MinInt64), "(-9223372036854775808)"},
		{int64(math.MaxInt64), "9223372036854775807"},
	}
	for _, c := range cases {
		if s := FormatNumber(c.v); s != c.s {
			t.Errorf("expected %v to render as %s, is %s", c.v, c.s, s)
		}
		x, err := ParseExpr(c.s)
		if err != nil {
			t.Fatal(err)
		}
		if !tree.Equal(x, tree.NewNum(c.v)) {
			t.Errorf("expected %s to parse as %v, is %s", c.s, c.v, x)
		}
	}
}

func TestNegativeNumbers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.syntax")
	defer teardown()
	//
	x, err := ParseExpr("-9223372036854775808")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := x.Get("n").(int64); !ok || v != math.MinInt64 {
		t.Errorf("expected smallest int64, have %v (%T)", x.Get("n"), x.Get("n"))
	}
	x, err = ParseExpr("-9223372036854775809")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := x.Get("n").(float64); !ok {
		t.Errorf("expected literal beyond int64 to be a float, have %T", x.Get("n"))
	}
	negz := math.Copysign(0, -1)
	s := FormatNumber(negz)
	if s != "(-0.0)" {
		t.Errorf("expected negative zero to render as (-0.0), is %s", s)
	}
	x, err = ParseExpr(s)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := x.Get("n").(float64); !ok || v != 0 || !math.Signbit(v) {
		t.Errorf("expected %s to parse as negative zero, is %v", s, x.Get("n"))
	}
}

func TestSyntaxErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.syntax")
	defer teardown()
	//
	for _, src := range []string{"x = ", "def f( { }", "if x { pass", "a b", "x = $"} {
		if _, err := Parse(src); err == nil {
			t.Errorf("expected syntax error for %q", src)
		} else {
			t.Logf("%q: %v", src, err)
		}
	}
	if _, err := Render(tree.NewCaptured(1, "one")); err == nil {
		t.Errorf("expected captured values to be unrenderable")
	}
}
