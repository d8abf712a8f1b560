package tree

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/splice"
)

func TestKindNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.tree")
	defer teardown()
	//
	for _, k := range Kinds() {
		kk, ok := KindByName(k.String())
		if !ok || kk != k {
			t.Errorf("kind %d (%s) does not round-trip by name", k, k)
		}
	}
	if NoKind.Valid() {
		t.Errorf("NoKind should not be valid")
	}
	if BinOp.FieldIndex("op") != 1 {
		t.Errorf("expected field 'op' of BinOp at index 1, is %d", BinOp.FieldIndex("op"))
	}
	if !Name.HasCtx() || Num.HasCtx() {
		t.Errorf("context flags of Name/Num are wrong")
	}
}

func TestNodeWithCopies(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.tree")
	defer teardown()
	//
	n := NewBinOp(NewInt(1), "+", Ident("x"))
	m := n.With("right", NewInt(2))
	if n.Child("right").Kind != Name {
		t.Errorf("With modified the original node")
	}
	if m.Child("right").Get("n") != int64(2) {
		t.Errorf("expected right operand 2, is %v", m.Child("right"))
	}
	if m.Child("left") != n.Child("left") {
		t.Errorf("unchanged children should be shared")
	}
	k := New(Num, 7)
	if _, ok := k.Get("n").(int64); !ok {
		t.Errorf("ints should be normalized to int64, is %T", k.Get("n"))
	}
}

func TestEqualIgnoresPositions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.tree")
	defer teardown()
	//
	a := NewBinOp(NewInt(1), "+", Ident("x")).WithPos(splice.Pos{Line: 3, Col: 1})
	b := NewBinOp(NewInt(1), "+", Ident("x"))
	if !Equal(a, b) {
		t.Errorf("expected trees to be equal: %s vs %s", a, b)
	}
	fa, _ := Fingerprint(a)
	fb, _ := Fingerprint(b)
	if fa != fb {
		t.Errorf("expected fingerprints of equal trees to be equal")
	}
	c := NewBinOp(NewInt(1), "+", NewName("x", Store))
	if Equal(a, c) {
		t.Errorf("expected trees with different contexts to differ")
	}
	fc, _ := Fingerprint(c)
	if fa == fc {
		t.Errorf("expected fingerprints of different trees to differ")
	}
	if Equal(NewInt(1), NewFloat(1)) {
		t.Errorf("int and float literals should differ")
	}
}

func TestCapturedEquality(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.tree")
	defer teardown()
	//
	f := func() {}
	v := &struct{ x int }{1}
	if !Equal(NewCaptured(v, "v"), NewCaptured(v, "v")) {
		t.Errorf("captured nodes with identical values should be equal")
	}
	if Equal(NewCaptured(v, "v"), NewCaptured(&struct{ x int }{1}, "v")) {
		t.Errorf("captured nodes with different pointers should differ")
	}
	if !SameValue(f, f) {
		t.Errorf("a function should be identical to itself")
	}
	if SameValue([]int{1}, []int{1}) {
		t.Errorf("non-comparable values are never identical")
	}
}

func TestFormat(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.tree")
	defer teardown()
	//
	n := NewBinOp(NewInt(1), "+", Ident("x"))
	s := Format(n)
	expected := `BinOp(left=Num(n=1), op="+", right=Name(id="x", ctx=load))`
	if s != expected {
		t.Errorf("expected %s, have %s", expected, s)
	}
	t.Logf("\n%s", Indented(NewModule([]*Node{NewExprStmt(n)})))
}
