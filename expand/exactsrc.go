package expand

import (
	"sort"
	"strings"

	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
	"github.com/npillmayer/splice/walk"
)

// sourceIndex maps tree positions of a source file to byte offsets. The
// start offsets of all nodes of the file are the candidate end offsets for
// the text of a subtree: the text of a subtree ends at or before the start
// of the next node.
type sourceIndex struct {
	src    string
	lines  []int // offsets of line starts
	starts []int // sorted start offsets of all nodes, plus len(src)
}

func newSourceIndex(src string, root *tree.Node) *sourceIndex {
	idx := &sourceIndex{src: src, lines: []int{0}}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			idx.lines = append(idx.lines, i+1)
		}
	}
	seen := map[int]bool{len(src): true}
	idx.starts = append(idx.starts, len(src))
	for _, p := range positions(root) {
		if off := idx.offset(p); !seen[off] {
			seen[off] = true
			idx.starts = append(idx.starts, off)
		}
	}
	sort.Ints(idx.starts)
	return idx
}

// offset converts a position to a byte offset, clamped to the source text.
func (idx *sourceIndex) offset(p splice.Pos) int {
	if p.Line > len(idx.lines) {
		return len(idx.src)
	}
	off := idx.lines[p.Line-1] + p.Col - 1
	if off > len(idx.src) {
		off = len(idx.src)
	}
	return off
}

// exact finds the shortest source text starting at the first position within
// t which re-parses to a tree equal to t. t is a node or a statement list.
// The text of statements is dedented to the column of the first statement.
func (idx *sourceIndex) exact(t interface{}) (string, error) {
	var check func(string) bool
	var ps []splice.Pos
	stmts := true
	switch x := t.(type) {
	case *tree.Node:
		if x == nil {
			return "", splice.ErrNoExactSource
		}
		ps = positions(x)
		if x.Kind.Class() == tree.Stmt {
			check = idx.stmtChecker([]*tree.Node{x})
		} else {
			check = idx.exprChecker(x)
			stmts = false
		}
	case []*tree.Node:
		for _, n := range x {
			ps = append(ps, positions(n)...)
		}
		check = idx.stmtChecker(x)
	}
	if len(ps) == 0 || check == nil || idx.src == "" {
		return "", splice.ErrNoExactSource
	}
	first, last := ps[0], ps[0]
	for _, p := range ps[1:] {
		if p.Less(first) {
			first = p
		}
		if last.Less(p) {
			last = p
		}
	}
	start, lastStart := idx.offset(first), idx.offset(last)
	if lastStart >= len(idx.src) {
		return "", splice.ErrNoExactSource
	}
	// the text of t ends before the first node starting after its last node
	limit := idx.starts[sort.SearchInts(idx.starts, lastStart+1)]
	for _, s := range idx.startCandidates(start) {
		for end := lastStart + 1; end <= limit; end++ {
			cand := idx.src[s:end]
			if stmts {
				cand = dedent(cand, first.Col)
			}
			if check(cand) {
				return cand, nil
			}
		}
	}
	tracer().Debugf("no exact source for tree at %s", first)
	return "", splice.ErrNoExactSource
}

// startCandidates returns start, followed by the offsets of opening
// parentheses directly preceding start.
func (idx *sourceIndex) startCandidates(start int) []int {
	c := []int{start}
	for i := start - 1; i >= 0; i-- {
		if b := idx.src[i]; b == '(' {
			c = append(c, i)
		} else if b != ' ' && b != '\t' && b != '\n' {
			break
		}
	}
	return c
}

func (idx *sourceIndex) exprChecker(x *tree.Node) func(string) bool {
	want, err := fingerprint([]*tree.Node{x})
	if err != nil {
		return nil
	}
	return func(s string) bool {
		y, err := syntax.ParseExpr("(" + s + "\n)")
		if err != nil {
			return false
		}
		have, err := fingerprint([]*tree.Node{y})
		return err == nil && have == want
	}
}

func (idx *sourceIndex) stmtChecker(l []*tree.Node) func(string) bool {
	want, err := fingerprint(l)
	if err != nil {
		return nil
	}
	return func(s string) bool {
		stmts, err := syntax.ParseStmts(s)
		if err != nil {
			return false
		}
		have, err := fingerprint(stmts)
		return err == nil && have == want
	}
}

// dedent removes the indentation of the first line from all following lines.
func dedent(s string, col int) string {
	if col <= 1 || !strings.Contains(s, "\n") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		trim := 0
		for trim < col-1 && trim < len(lines[i]) && (lines[i][trim] == ' ' || lines[i][trim] == '\t') {
			trim++
		}
		lines[i] = lines[i][trim:]
	}
	return strings.Join(lines, "\n")
}

// fingerprint hashes a list of trees, ignoring context tags. A subtree in
// store context re-parses in load context.
func fingerprint(l []*tree.Node) (string, error) {
	norm, err := loadCtx.RecurseList(l, struct{}{})
	if err != nil {
		return "", err
	}
	return tree.ListFingerprint(norm)
}

var loadCtx = walk.New[struct{}, struct{}](func(n *tree.Node, _ struct{}, ctl *walk.Control[struct{}, struct{}]) error {
	if n.Kind.HasCtx() && n.Ctx != tree.Load {
		ctl.Replace(n.WithCtx(tree.Load))
	}
	return nil
})

// positions collects the known source positions of all nodes of a tree.
func positions(n *tree.Node) []splice.Pos {
	if n == nil {
		return nil
	}
	ps, _ := positionCollector.Collect(n, struct{}{})
	return ps
}

var positionCollector = walk.New[struct{}, splice.Pos](func(n *tree.Node, _ struct{}, ctl *walk.Control[struct{}, splice.Pos]) error {
	if n.Pos.IsKnown() && !n.Is(tree.Module) {
		ctl.Collect(n.Pos)
	}
	return nil
})
