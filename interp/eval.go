package interp

import (
	"strings"

	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/runtime"
	"github.com/npillmayer/splice/tree"
)

// returned carries the value of a return statement up to the function call.
type returned struct {
	value interface{}
}

// classScopePrefix marks the scopes of class bodies. Functions defined in a
// class body do not see the class scope.
const classScopePrefix = "class "

func closureScope(sc *runtime.Scope) *runtime.Scope {
	for sc.Parent != nil && strings.HasPrefix(sc.Name, classScopePrefix) {
		sc = sc.Parent
	}
	return sc
}

// --- Statements ------------------------------------------------------------

func (in *Interpreter) execBody(stmts []*tree.Node, sc *runtime.Scope) (*returned, error) {
	for _, s := range stmts {
		r, err := in.exec(s, sc)
		if err != nil || r != nil {
			return r, err
		}
	}
	return nil, nil
}

func (in *Interpreter) exec(n *tree.Node, sc *runtime.Scope) (*returned, error) {
	switch n.Kind {
	case tree.ExprStmt:
		_, err := in.eval(n.Child("value"), sc)
		return nil, err
	case tree.Assign:
		v, err := in.eval(n.Child("value"), sc)
		if err != nil {
			return nil, err
		}
		for _, t := range n.Children("targets") {
			if err = in.assign(t, v, sc); err != nil {
				return nil, err
			}
		}
	case tree.AugAssign:
		target := n.Child("target")
		cur, err := in.eval(target, sc)
		if err != nil {
			return nil, err
		}
		v, err := in.eval(n.Child("value"), sc)
		if err != nil {
			return nil, err
		}
		if v, err = in.binop(n, n.Text("op"), cur, v); err != nil {
			return nil, err
		}
		return nil, in.assign(target, v, sc)
	case tree.Delete:
		for _, t := range n.Children("targets") {
			if err := in.delete(t, sc); err != nil {
				return nil, err
			}
		}
	case tree.FunctionDef:
		fn := &Function{
			Name:    n.Text("name"),
			Params:  argNames(n),
			Body:    n.Children("body"),
			Closure: closureScope(sc),
		}
		v, err := in.decorate(n, fn, sc)
		if err != nil {
			return nil, err
		}
		sc.Set(fn.Name, v)
	case tree.ClassDef:
		return nil, in.execClass(n, sc)
	case tree.Return:
		var v interface{}
		if x := n.Child("value"); x != nil {
			var err error
			if v, err = in.eval(x, sc); err != nil {
				return nil, err
			}
		}
		return &returned{value: v}, nil
	case tree.If:
		test, err := in.eval(n.Child("test"), sc)
		if err != nil {
			return nil, err
		}
		if truthy(test) {
			return in.execBody(n.Children("body"), sc)
		}
		return in.execBody(n.Children("orelse"), sc)
	case tree.While:
		for {
			test, err := in.eval(n.Child("test"), sc)
			if err != nil || !truthy(test) {
				return nil, err
			}
			if r, err := in.execBody(n.Children("body"), sc); err != nil || r != nil {
				return r, err
			}
		}
	case tree.For:
		iter, err := in.eval(n.Child("iter"), sc)
		if err != nil {
			return nil, err
		}
		elems, err := in.elements(n, iter)
		if err != nil {
			return nil, err
		}
		for _, e := range elems {
			if err = in.assign(n.Child("target"), e, sc); err != nil {
				return nil, err
			}
			if r, err := in.execBody(n.Children("body"), sc); err != nil || r != nil {
				return r, err
			}
		}
	case tree.With:
		return in.execWith(n, n.Children("items"), sc)
	case tree.Import:
		return nil, in.execImport(n, sc)
	case tree.ImportFrom:
		return nil, in.execImportFrom(n, sc)
	case tree.Pass:
	case tree.Raise:
		return nil, in.execRaise(n, sc)
	default:
		return nil, in.raise(n, "cannot execute %s node", n.Kind)
	}
	return nil, nil
}

func argNames(n *tree.Node) []string {
	args := n.Children("args")
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Text("name")
	}
	return names
}

// decorate applies the decorators of a definition, innermost first.
func (in *Interpreter) decorate(n *tree.Node, v interface{}, sc *runtime.Scope) (interface{}, error) {
	decorators := n.Children("decorators")
	for i := len(decorators) - 1; i >= 0; i-- {
		d, err := in.eval(decorators[i], sc)
		if err != nil {
			return nil, err
		}
		if v, err = in.call(decorators[i], sc, d, []interface{}{v}, nil); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (in *Interpreter) execClass(n *tree.Node, sc *runtime.Scope) error {
	name := n.Text("name")
	cls := &Class{Name: name, Attrs: runtime.NewScope(classScopePrefix+name, sc)}
	for _, b := range n.Children("bases") {
		v, err := in.eval(b, sc)
		if err != nil {
			return err
		}
		base, ok := v.(*Class)
		if !ok {
			return in.raise(b, "base of class %s is not a class: %s", name, typeName(v))
		}
		cls.Bases = append(cls.Bases, base)
	}
	r, err := in.execBody(n.Children("body"), cls.Attrs)
	if err != nil {
		return err
	}
	if r != nil {
		return in.raise(n, "'return' outside of function")
	}
	v, err := in.decorate(n, cls, sc)
	if err != nil {
		return err
	}
	sc.Set(name, v)
	return nil
}

// execWith runs a with-statement which is not a macro invocation. Objects
// with methods __enter__ and __exit__ act as context managers.
func (in *Interpreter) execWith(n *tree.Node, items []*tree.Node, sc *runtime.Scope) (*returned, error) {
	if len(items) == 0 {
		return in.execBody(n.Children("body"), sc)
	}
	item := items[0]
	mgr, err := in.eval(item.Child("context"), sc)
	if err != nil {
		return nil, err
	}
	v := mgr
	if enter, ok := in.method(mgr, "__enter__"); ok {
		if v, err = in.call(item, sc, enter, nil, nil); err != nil {
			return nil, err
		}
	}
	if vars := item.Child("vars"); vars != nil {
		if err = in.assign(vars, v, sc); err != nil {
			return nil, err
		}
	}
	r, err := in.execWith(n, items[1:], sc)
	if exit, ok := in.method(mgr, "__exit__"); ok {
		if _, xerr := in.call(item, sc, exit, nil, nil); err == nil {
			err = xerr
		}
	}
	return r, err
}

func (in *Interpreter) execImport(n *tree.Node, sc *runtime.Scope) error {
	for _, alias := range n.Children("names") {
		name, as := alias.Text("name"), alias.Text("asname")
		m, err := in.Import(name)
		if err != nil {
			return in.wrap(alias, err)
		}
		if as == "" {
			first := strings.Split(name, ".")[0]
			if first != name {
				if m, err = in.Import(first); err != nil {
					return in.wrap(alias, err)
				}
			}
			as = first
		}
		sc.Set(as, m)
	}
	return nil
}

func (in *Interpreter) execImportFrom(n *tree.Node, sc *runtime.Scope) error {
	name := n.Text("module")
	m, err := in.Import(name)
	if err != nil {
		return in.wrap(n, err)
	}
	for _, alias := range n.Children("names") {
		x, as := alias.Text("name"), alias.Text("asname")
		v, ok := m.Scope.Local(x)
		if !ok {
			return in.raise(alias, "cannot import name '%s' from module %s", x, name)
		}
		if as == "" {
			as = x
		}
		sc.Set(as, v)
	}
	return nil
}

func (in *Interpreter) execRaise(n *tree.Node, sc *runtime.Scope) error {
	x := n.Child("exc")
	if x == nil {
		return in.raise(n, "re-raise outside of an exception handler")
	}
	v, err := in.eval(x, sc)
	if err != nil {
		return err
	}
	if cls, ok := v.(*Class); ok {
		if v, err = in.instantiate(n, sc, cls, nil, nil); err != nil {
			return err
		}
	}
	obj, ok := v.(*Object)
	if !ok || !obj.Class.isSubclass(exceptionClass) {
		return in.raise(n, "exceptions must derive from Exception, not %s", typeName(v))
	}
	msg := obj.Class.Name
	if tag := obj.Attrs.ResolveTag("args"); tag != nil {
		if args, ok := tag.Value.(Tuple); ok && len(args) > 0 {
			msg += ": " + str(args[0])
		}
	}
	return in.newError(n, msg, obj, nil)
}

// --- Assignment ------------------------------------------------------------

func (in *Interpreter) assign(target *tree.Node, v interface{}, sc *runtime.Scope) error {
	switch target.Kind {
	case tree.Name:
		sc.Set(target.Text("id"), v)
		return nil
	case tree.Tuple, tree.List:
		elems, err := in.elements(target, v)
		if err != nil {
			return err
		}
		targets := target.Children("elts")
		if len(elems) != len(targets) {
			return in.raise(target, "cannot unpack %d values into %d targets", len(elems), len(targets))
		}
		for i, t := range targets {
			if err = in.assign(t, elems[i], sc); err != nil {
				return err
			}
		}
		return nil
	case tree.Attribute:
		obj, err := in.eval(target.Child("value"), sc)
		if err != nil {
			return err
		}
		return in.setattr(target, obj, target.Text("attr"), v)
	case tree.Subscript:
		obj, err := in.eval(target.Child("value"), sc)
		if err != nil {
			return err
		}
		key, err := in.eval(target.Child("index"), sc)
		if err != nil {
			return err
		}
		switch x := obj.(type) {
		case *List:
			i, err := in.position(target, key, len(x.elts))
			if err != nil {
				return err
			}
			x.elts[i] = v
			return nil
		case *Dict:
			return in.wrap(target, x.Put(key, v))
		}
		return in.raise(target, "'%s' object does not support item assignment", typeName(obj))
	}
	return in.raise(target, "cannot assign to %s", target.Kind)
}

func (in *Interpreter) delete(target *tree.Node, sc *runtime.Scope) error {
	switch target.Kind {
	case tree.Name:
		if sc.Tags().RemoveTag(target.Text("id")) == nil {
			return in.raise(target, "name '%s' is not defined", target.Text("id"))
		}
		return nil
	case tree.Tuple, tree.List:
		for _, t := range target.Children("elts") {
			if err := in.delete(t, sc); err != nil {
				return err
			}
		}
		return nil
	case tree.Attribute:
		obj, err := in.eval(target.Child("value"), sc)
		if err != nil {
			return err
		}
		if o, ok := obj.(*Object); ok && o.Attrs.RemoveTag(target.Text("attr")) != nil {
			return nil
		}
		return in.raise(target, "cannot delete attribute '%s' of %s", target.Text("attr"), typeName(obj))
	case tree.Subscript:
		obj, err := in.eval(target.Child("value"), sc)
		if err != nil {
			return err
		}
		key, err := in.eval(target.Child("index"), sc)
		if err != nil {
			return err
		}
		switch x := obj.(type) {
		case *List:
			i, err := in.position(target, key, len(x.elts))
			if err != nil {
				return err
			}
			x.elts = append(x.elts[:i], x.elts[i+1:]...)
			return nil
		case *Dict:
			if _, ok := x.Get(key); !ok {
				return in.raise(target, "key error: %s", repr(key))
			}
			x.m.Remove(key)
			return nil
		}
		return in.raise(target, "'%s' object does not support item deletion", typeName(obj))
	}
	return in.raise(target, "cannot delete %s", target.Kind)
}

// --- Expressions -----------------------------------------------------------

func (in *Interpreter) eval(n *tree.Node, sc *runtime.Scope) (interface{}, error) {
	switch n.Kind {
	case tree.Name:
		v, ok := sc.Lookup(n.Text("id"))
		if !ok {
			return nil, in.raise(n, "name '%s' is not defined", n.Text("id"))
		}
		return v, nil
	case tree.Num:
		return n.Get("n"), nil
	case tree.Str:
		return n.Get("s"), nil
	case tree.Const:
		return n.Get("value"), nil
	case tree.BinOp:
		return in.evalBinOp(n, sc)
	case tree.UnaryOp:
		v, err := in.eval(n.Child("operand"), sc)
		if err != nil {
			return nil, err
		}
		return in.unop(n, n.Text("op"), v)
	case tree.Call:
		return in.evalCall(n, sc)
	case tree.Attribute:
		obj, err := in.eval(n.Child("value"), sc)
		if err != nil {
			return nil, err
		}
		return in.getattr(n, obj, n.Text("attr"))
	case tree.Subscript:
		obj, err := in.eval(n.Child("value"), sc)
		if err != nil {
			return nil, err
		}
		if stub, ok := obj.(*Stub); ok {
			return nil, in.wrap(n, stub.fail())
		}
		key, err := in.eval(n.Child("index"), sc)
		if err != nil {
			return nil, err
		}
		return in.index(n, obj, key)
	case tree.List:
		elts, err := in.evalAll(n.Children("elts"), sc)
		if err != nil {
			return nil, err
		}
		return NewList(elts...), nil
	case tree.Tuple:
		elts, err := in.evalAll(n.Children("elts"), sc)
		if err != nil {
			return nil, err
		}
		return Tuple(elts), nil
	case tree.Set:
		elts, err := in.evalAll(n.Children("elts"), sc)
		if err != nil {
			return nil, err
		}
		s := NewSet()
		for _, e := range elts {
			if err = s.Add(e); err != nil {
				return nil, in.wrap(n, err)
			}
		}
		return s, nil
	case tree.Dict:
		keys, err := in.evalAll(n.Children("keys"), sc)
		if err != nil {
			return nil, err
		}
		values, err := in.evalAll(n.Children("values"), sc)
		if err != nil {
			return nil, err
		}
		d := NewDict()
		for i, k := range keys {
			if err = d.Put(k, values[i]); err != nil {
				return nil, in.wrap(n, err)
			}
		}
		return d, nil
	case tree.Lambda:
		return &Function{
			Name:    "<lambda>",
			Params:  argNames(n),
			Expr:    n.Child("body"),
			Closure: closureScope(sc),
		}, nil
	case tree.Captured:
		return n.Value, nil
	}
	return nil, in.raise(n, "cannot evaluate %s node", n.Kind)
}

func (in *Interpreter) evalAll(l []*tree.Node, sc *runtime.Scope) ([]interface{}, error) {
	values := make([]interface{}, len(l))
	for i, n := range l {
		v, err := in.eval(n, sc)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (in *Interpreter) evalBinOp(n *tree.Node, sc *runtime.Scope) (interface{}, error) {
	op := n.Text("op")
	l, err := in.eval(n.Child("left"), sc)
	if err != nil {
		return nil, err
	}
	switch op {
	case "and":
		if !truthy(l) {
			return l, nil
		}
		return in.eval(n.Child("right"), sc)
	case "or":
		if truthy(l) {
			return l, nil
		}
		return in.eval(n.Child("right"), sc)
	}
	r, err := in.eval(n.Child("right"), sc)
	if err != nil {
		return nil, err
	}
	return in.binop(n, op, l, r)
}

// --- Calls -----------------------------------------------------------------

func (in *Interpreter) evalCall(n *tree.Node, sc *runtime.Scope) (interface{}, error) {
	f, err := in.eval(n.Child("func"), sc)
	if err != nil {
		return nil, err
	}
	args, err := in.evalAll(n.Children("args"), sc)
	if err != nil {
		return nil, err
	}
	var kw map[string]interface{}
	if keywords := n.Children("keywords"); len(keywords) > 0 {
		kw = make(map[string]interface{}, len(keywords))
		for _, k := range keywords {
			if kw[k.Text("arg")], err = in.eval(k.Child("value"), sc); err != nil {
				return nil, err
			}
		}
	}
	return in.call(n, sc, f, args, kw)
}

// call calls a callable value. n is the node of the call site, sc the scope
// of the caller.
func (in *Interpreter) call(n *tree.Node, sc *runtime.Scope, f interface{}, args []interface{}, kw map[string]interface{}) (interface{}, error) {
	switch fn := f.(type) {
	case *Function:
		return in.callFunction(n, fn, args, kw)
	case *Builtin:
		v, err := fn.Fn(&Caller{In: in, Scope: sc, Node: n}, args, kw)
		return v, in.wrap(n, err)
	case *BoundMethod:
		return in.call(n, sc, fn.Fn, append([]interface{}{fn.Self}, args...), kw)
	case *Class:
		return in.instantiate(n, sc, fn, args, kw)
	case *Stub:
		return nil, in.wrap(n, fn.fail())
	}
	return nil, in.raise(n, "'%s' object is not callable", typeName(f))
}

func (in *Interpreter) callFunction(n *tree.Node, fn *Function, args []interface{}, kw map[string]interface{}) (interface{}, error) {
	if len(args) > len(fn.Params) {
		return nil, in.raise(n, "%s() takes %d arguments, %d given", fn.Name, len(fn.Params), len(args))
	}
	local := runtime.NewScope(fn.Name, fn.Closure)
	for i, p := range fn.Params {
		if i < len(args) {
			if _, dup := kw[p]; dup {
				return nil, in.raise(n, "%s() got multiple values for argument '%s'", fn.Name, p)
			}
			local.Set(p, args[i])
			continue
		}
		v, ok := kw[p]
		if !ok {
			return nil, in.raise(n, "%s() missing argument '%s'", fn.Name, p)
		}
		local.Set(p, v)
	}
	for k := range kw {
		if _, ok := local.Local(k); !ok {
			return nil, in.raise(n, "%s() got an unexpected keyword argument '%s'", fn.Name, k)
		}
	}
	pos := splice.NoPos
	if n != nil {
		pos = n.Pos
	}
	if _, err := in.rt.CallStack.Push(fn.Name, pos, local); err != nil {
		return nil, in.wrap(n, err)
	}
	defer in.rt.CallStack.Pop()
	if fn.Expr != nil {
		return in.eval(fn.Expr, local)
	}
	r, err := in.execBody(fn.Body, local)
	if err != nil || r == nil {
		return nil, err
	}
	return r.value, nil
}

func (in *Interpreter) instantiate(n *tree.Node, sc *runtime.Scope, cls *Class, args []interface{}, kw map[string]interface{}) (interface{}, error) {
	obj := &Object{Class: cls, Attrs: runtime.NewSymbolTable()}
	if cls.isSubclass(exceptionClass) {
		obj.Attrs.InsertTag(runtime.NewTag("args").WithValue(Tuple(args)))
		return obj, nil
	}
	if init, ok := cls.lookup("__init__"); ok {
		if _, err := in.call(n, sc, init, append([]interface{}{obj}, args...), kw); err != nil {
			return nil, err
		}
	} else if len(args) > 0 || len(kw) > 0 {
		return nil, in.raise(n, "%s() takes no arguments", cls.Name)
	}
	return obj, nil
}

// method finds a method of an object, bound to the object.
func (in *Interpreter) method(v interface{}, name string) (interface{}, bool) {
	obj, ok := v.(*Object)
	if !ok {
		return nil, false
	}
	m, ok := obj.Class.lookup(name)
	if !ok {
		return nil, false
	}
	return &BoundMethod{Self: obj, Fn: m}, true
}
