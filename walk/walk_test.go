package walk

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/splice/tree"
)

func num(i int64) *tree.Node { return tree.NewInt(i) }
func add(a, b *tree.Node) *tree.Node { return tree.NewBinOp(a, "+", b) }
func mul(a, b *tree.Node) *tree.Node { return tree.NewBinOp(a, "*", b) }

func TestIdentity(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.walk")
	defer teardown()
	//
	noop := New[int, int](func(n *tree.Node, ctx int, ctl *Control[int, int]) error {
		return nil
	})
	T := tree.NewModule([]*tree.Node{
		tree.NewAssign([]*tree.Node{tree.NewName("x", tree.Store)}, add(num(1), num(2))),
		tree.NewExprStmt(tree.NewCall(tree.Ident("f"), []*tree.Node{tree.Ident("x")}, nil)),
	})
	result, collected, err := noop.RecurseCollect(T, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result != T {
		t.Errorf("expected identity walk to return the very same tree")
	}
	if len(collected) != 0 {
		t.Errorf("expected nothing to be collected, have %v", collected)
	}
}

func TestFlatten(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.walk")
	defer teardown()
	//
	x, y, z := tree.Ident("x"), tree.Ident("y"), tree.Ident("z")
	l := tree.NewList([]*tree.Node{x, y, z}, tree.Load)
	w := New[int, int](func(n *tree.Node, ctx int, ctl *Control[int, int]) error {
		if n.IsName("y") {
			ctl.ReplaceList([]*tree.Node{tree.Ident("y1"), tree.Ident("y2")})
		}
		return nil
	})
	result, err := w.Recurse(l, 0)
	if err != nil {
		t.Fatal(err)
	}
	elts := result.Children("elts")
	expected := []string{"x", "y1", "y2", "z"}
	if len(elts) != len(expected) {
		t.Fatalf("expected %d elements, have %s", len(expected), result)
	}
	for i, id := range expected {
		if !elts[i].IsName(id) {
			t.Errorf("expected element #%d to be %s, is %s", i, id, elts[i])
		}
	}
	if len(l.Children("elts")) != 3 {
		t.Errorf("original list has been modified")
	}
	// a list replacement in a single node position is an error, unless it has length 1
	b := add(y, num(1))
	if _, err = w.Recurse(b, 0); err == nil {
		t.Errorf("expected error for splicing two nodes into a binary operation")
	}
	w1 := New[int, int](func(n *tree.Node, ctx int, ctl *Control[int, int]) error {
		if n.IsName("y") {
			ctl.ReplaceList([]*tree.Node{num(9)})
		}
		return nil
	})
	r, err := w1.Recurse(b, 0)
	if err != nil || !tree.Equal(r, add(num(9), num(1))) {
		t.Errorf("expected 9+1, have %s (%v)", r, err)
	}
}

func TestRemoveFromList(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.walk")
	defer teardown()
	//
	body := []*tree.Node{tree.NewPass(), tree.NewExprStmt(num(1)), tree.NewPass()}
	w := New[int, int](func(n *tree.Node, ctx int, ctl *Control[int, int]) error {
		if n.Is(tree.Pass) {
			ctl.Replace(nil)
		}
		return nil
	})
	result, err := w.RecurseList(body, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 1 || !result[0].Is(tree.ExprStmt) {
		t.Errorf("expected passes to be removed, have %s", tree.FormatList(result))
	}
}

func collectNumbers(n *tree.Node, ctx int, ctl *Control[int, int64]) error {
	if n.Is(tree.Num) {
		ctl.Collect(n.Get("n").(int64))
	}
	return nil
}

func TestCollectOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.walk")
	defer teardown()
	//
	// ((1+2)+(3+4))+((5+6)+(7+8))
	T := add(
		add(add(num(1), num(2)), add(num(3), num(4))),
		add(add(num(5), num(6)), add(num(7), num(8))),
	)
	values, err := New[int, int64](collectNumbers).Collect(T, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 8 {
		t.Fatalf("expected 8 values, have %v", values)
	}
	var sum int64
	for i, v := range values {
		if v != int64(i+1) {
			t.Errorf("expected value #%d to be %d, is %d", i, i+1, v)
		}
		sum += v
	}
	if sum != 36 {
		t.Errorf("expected sum of 36, is %d", sum)
	}
}

func TestStop(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.walk")
	defer teardown()
	//
	// 1 + 2*3 + 4*(5+6) + 7
	T := add(add(add(num(1), mul(num(2), num(3))), mul(num(4), add(num(5), num(6)))), num(7))
	w := New[int, int](func(n *tree.Node, ctx int, ctl *Control[int, int]) error {
		if n.Is(tree.BinOp) && n.Text("op") == "*" {
			ctl.Stop()
		} else if n.Is(tree.Num) {
			ctl.Replace(num(0))
		}
		return nil
	})
	result, err := w.Recurse(T, 0)
	if err != nil {
		t.Fatal(err)
	}
	expected := add(add(add(num(0), mul(num(2), num(3))), mul(num(4), add(num(5), num(6)))), num(0))
	if !tree.Equal(result, expected) {
		t.Errorf("expected %s, have %s", expected, result)
	}
	// the multiplication subtrees are shared, not copied
	if result.Child("left").Child("right") != T.Child("left").Child("right") {
		t.Errorf("expected pruned subtree to be shared with the input tree")
	}
}

func TestContextThreading(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.walk")
	defer teardown()
	//
	// x = f(y)   targets get context "store", everything else inherits "load"
	T := tree.NewAssign([]*tree.Node{tree.Ident("x")},
		tree.NewCall(tree.Ident("f"), []*tree.Node{tree.Ident("y")}, nil))
	type seen struct {
		id  string
		ctx string
	}
	w := New[string, seen](func(n *tree.Node, ctx string, ctl *Control[string, seen]) error {
		if n.Is(tree.Assign) {
			ctl.SetFieldCtx("targets", "store")
		}
		if n.Is(tree.Name) {
			ctl.Collect(seen{n.Text("id"), ctx})
		}
		return nil
	})
	values, err := w.Collect(T, "load")
	if err != nil {
		t.Fatal(err)
	}
	expected := []seen{{"x", "store"}, {"f", "load"}, {"y", "load"}}
	if len(values) != len(expected) {
		t.Fatalf("expected %v, have %v", expected, values)
	}
	for i := range expected {
		if values[i] != expected[i] {
			t.Errorf("expected %v, have %v", expected[i], values[i])
		}
	}
}

func TestErrorsPropagate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.walk")
	defer teardown()
	//
	myErr := errors.New("boom")
	w := New[int, int](func(n *tree.Node, ctx int, ctl *Control[int, int]) error {
		if n.Is(tree.Num) && n.Get("n") == int64(3) {
			return myErr
		}
		return nil
	})
	_, err := w.Recurse(add(num(1), mul(num(2), num(3))), 0)
	if err != myErr {
		t.Errorf("expected error to be passed through untouched, is %v", err)
	}
}
