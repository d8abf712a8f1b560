package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/splice/interp"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
	"github.com/pterm/pterm"
)

// REPL is an interactive session.
type REPL struct {
	in      *interp.Interpreter
	session *interp.Session
	repl    *readline.Instance
	pending []string // lines of an unfinished input
}

func newREPL(in *interp.Interpreter) (*REPL, error) {
	rl, err := readline.New("spx> ")
	if err != nil {
		return nil, err
	}
	return &REPL{
		in:      in,
		session: in.NewSession("__main__"),
		repl:    rl,
	}, nil
}

func (r *REPL) loadInitFile(filename string) {
	if filename == "" {
		return
	}
	f, err := os.Open(filename)
	if err != nil {
		tracer().Errorf("Unable to open init file: %s", filename)
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	lineno := 1
	for scanner.Scan() {
		if _, err := r.feed(scanner.Text()); err != nil {
			tracer().Errorf("Error line %d: %s", lineno, err.Error())
		}
		lineno++
	}
	if err := scanner.Err(); err != nil {
		tracer().Errorf("Error while reading init file: " + err.Error())
	}
}

func (r *REPL) run() {
	defer r.repl.Close()
	for {
		line, err := r.repl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		quit, err := r.feed(line)
		if err != nil {
			reportError(err)
		}
		if quit {
			break
		}
	}
	pterm.Println("Good bye!")
}

// feed adds a line of input. As long as braces are open, lines are collected.
func (r *REPL) feed(line string) (bool, error) {
	if len(r.pending) == 0 {
		line = strings.TrimSpace(line)
		if line == "" {
			return false, nil
		}
		if strings.HasPrefix(line, ":") {
			return r.command(line)
		}
	}
	r.pending = append(r.pending, line)
	input := strings.Join(r.pending, "\n")
	if openBraces(input) > 0 {
		r.repl.SetPrompt("...  ")
		return false, nil
	}
	r.pending = r.pending[:0]
	r.repl.SetPrompt("spx> ")
	return false, r.eval(input)
}

func (r *REPL) eval(input string) error {
	if gconf.GetBool("dump-macro-expansions") {
		if err := r.showExpansion(input); err != nil {
			return err
		}
	}
	v, err := r.session.Eval(input)
	if err != nil {
		return err
	}
	if v != nil {
		pterm.Info.Println(interp.Show(v))
	}
	return nil
}

// command executes a REPL command, i.e., a line starting with a colon.
func (r *REPL) command(line string) (bool, error) {
	cmd, arg := line, ""
	if i := strings.IndexAny(line, " \t"); i > 0 {
		cmd, arg = line[:i], strings.TrimSpace(line[i+1:])
	}
	switch cmd {
	case ":quit", ":q":
		return true, nil
	case ":expand":
		return false, r.showExpansion(arg)
	case ":macros":
		if arg == "" {
			return false, errors.New("usage: :macros <module>")
		}
		m, err := r.in.Import(arg)
		if err != nil {
			return false, err
		}
		if m.Macros == nil {
			return false, fmt.Errorf("module %s does not define macros", arg)
		}
		pterm.Println(m.Macros.Describe())
	case ":tree":
		x, err := syntax.ParseExpr(arg)
		if err != nil {
			return false, err
		}
		root := pterm.NewTreeFromLeveledList(leveledNode(x, "", pterm.LeveledList{}, 0))
		pterm.DefaultTree.WithRoot(root).Render()
	default:
		return false, fmt.Errorf("unknown command %s", cmd)
	}
	return false, nil
}

func (r *REPL) showExpansion(input string) error {
	res, err := r.session.Expand(input)
	if err != nil {
		return err
	}
	out, err := syntax.Render(res.Tree)
	if err != nil {
		return err
	}
	pterm.Println(out)
	for _, b := range res.Bindings {
		pterm.Println(fmt.Sprintf("  %s = %s", b.Name, interp.Show(b.Value)))
	}
	return nil
}

func leveledNode(n *tree.Node, label string, ll pterm.LeveledList, level int) pterm.LeveledList {
	text := tree.Headline(n)
	if label != "" {
		text = label + ": " + text
	}
	ll = append(ll, pterm.LeveledListItem{Level: level, Text: text})
	if n == nil {
		return ll
	}
	for i, f := range n.Kind.Fields() {
		switch v := n.At(i).(type) {
		case *tree.Node:
			if v != nil {
				ll = leveledNode(v, f.Name, ll, level+1)
			}
		case []*tree.Node:
			if len(v) == 0 {
				continue
			}
			ll = append(ll, pterm.LeveledListItem{Level: level + 1, Text: f.Name})
			for _, c := range v {
				ll = leveledNode(c, "", ll, level+2)
			}
		}
	}
	return ll
}

// openBraces counts braces, brackets and parentheses left open, ignoring
// those in string literals and comments.
func openBraces(input string) int {
	depth := 0
	var quote rune
	escaped, comment := false, false
	for _, c := range input {
		switch {
		case comment:
			if c == '\n' {
				comment = false
			}
		case quote != 0:
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			comment = true
		case c == '{' || c == '[' || c == '(':
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
		}
	}
	return depth
}
