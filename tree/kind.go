package tree

import "fmt"

// Kind is the discriminator of tree nodes.
type Kind int8

// Node kinds of the spx grammar, plus two marker kinds.
const (
	NoKind Kind = iota
	Module
	// statements
	ExprStmt
	Assign
	AugAssign
	Delete
	FunctionDef
	ClassDef
	Return
	If
	While
	For
	With
	Import
	ImportFrom
	Pass
	Raise
	// expressions
	Name
	Num
	Str
	Const
	BinOp
	UnaryOp
	Call
	Attribute
	Subscript
	List
	Tuple
	Set
	Dict
	Lambda
	// helper nodes
	WithItem
	Alias
	Keyword
	Arg
	// markers
	Literal
	Captured
	kindCount
)

// Shape tells what a field of a node may hold.
type Shape int8

const (
	One    Shape = iota // a single node, or nil for optional fields
	Many                // a list of nodes
	Scalar              // string, int64, float64, bool or nil
	Either              // a single node or a list of nodes
)

// Field describes a named field of a node kind.
type Field struct {
	Name  string
	Shape Shape
}

// Class groups node kinds into statements, expressions, helper nodes and markers.
type Class int8

const (
	Aux Class = iota
	Stmt
	Expr
	Marker
)

type descriptor struct {
	name   string
	class  Class
	hasCtx bool
	fields []Field
}

func one(name string) Field    { return Field{name, One} }
func many(name string) Field   { return Field{name, Many} }
func scalar(name string) Field { return Field{name, Scalar} }

// descriptors is indexed by Kind. Its completeness is checked in init().
var descriptors = [kindCount]descriptor{
	NoKind:      {name: "<none>"},
	Module:      {"Module", Aux, false, []Field{many("body")}},
	ExprStmt:    {"Expr", Stmt, false, []Field{one("value")}},
	Assign:      {"Assign", Stmt, false, []Field{many("targets"), one("value")}},
	AugAssign:   {"AugAssign", Stmt, false, []Field{one("target"), scalar("op"), one("value")}},
	Delete:      {"Delete", Stmt, false, []Field{many("targets")}},
	FunctionDef: {"FunctionDef", Stmt, false, []Field{scalar("name"), many("args"), many("body"), many("decorators")}},
	ClassDef:    {"ClassDef", Stmt, false, []Field{scalar("name"), many("bases"), many("body"), many("decorators")}},
	Return:      {"Return", Stmt, false, []Field{one("value")}},
	If:          {"If", Stmt, false, []Field{one("test"), many("body"), many("orelse")}},
	While:       {"While", Stmt, false, []Field{one("test"), many("body")}},
	For:         {"For", Stmt, false, []Field{one("target"), one("iter"), many("body")}},
	With:        {"With", Stmt, false, []Field{many("items"), many("body")}},
	Import:      {"Import", Stmt, false, []Field{many("names")}},
	ImportFrom:  {"ImportFrom", Stmt, false, []Field{scalar("module"), many("names")}},
	Pass:        {"Pass", Stmt, false, nil},
	Raise:       {"Raise", Stmt, false, []Field{one("exc")}},
	Name:        {"Name", Expr, true, []Field{scalar("id")}},
	Num:         {"Num", Expr, false, []Field{scalar("n")}},
	Str:         {"Str", Expr, false, []Field{scalar("s")}},
	Const:       {"Const", Expr, false, []Field{scalar("value")}},
	BinOp:       {"BinOp", Expr, false, []Field{one("left"), scalar("op"), one("right")}},
	UnaryOp:     {"UnaryOp", Expr, false, []Field{scalar("op"), one("operand")}},
	Call:        {"Call", Expr, false, []Field{one("func"), many("args"), many("keywords")}},
	Attribute:   {"Attribute", Expr, true, []Field{one("value"), scalar("attr")}},
	Subscript:   {"Subscript", Expr, true, []Field{one("value"), one("index")}},
	List:        {"List", Expr, true, []Field{many("elts")}},
	Tuple:       {"Tuple", Expr, true, []Field{many("elts")}},
	Set:         {"Set", Expr, false, []Field{many("elts")}},
	Dict:        {"Dict", Expr, false, []Field{many("keys"), many("values")}},
	Lambda:      {"Lambda", Expr, false, []Field{many("args"), one("body")}},
	WithItem:    {"withitem", Aux, false, []Field{one("context"), one("vars")}},
	Alias:       {"alias", Aux, false, []Field{scalar("name"), scalar("asname")}},
	Keyword:     {"keyword", Aux, false, []Field{scalar("arg"), one("value")}},
	Arg:         {"arg", Aux, false, []Field{scalar("name")}},
	Literal:     {"Literal", Marker, false, []Field{{"body", Either}, scalar("splice")}},
	Captured:    {"Captured", Marker, false, []Field{scalar("name")}},
}

var kindsByName map[string]Kind

func init() {
	kindsByName = make(map[string]Kind, kindCount)
	for k := NoKind + 1; k < kindCount; k++ {
		if descriptors[k].name == "" {
			panic(fmt.Sprintf("tree: no descriptor for kind #%d", k))
		}
		kindsByName[descriptors[k].name] = k
	}
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("<kind %d>", k)
	}
	return descriptors[k].name
}

// Valid returns true for every kind except NoKind and out-of-range values.
func (k Kind) Valid() bool {
	return k > NoKind && k < kindCount
}

// Fields returns the field descriptors of a node kind, in order.
func (k Kind) Fields() []Field {
	if !k.Valid() {
		return nil
	}
	return descriptors[k].fields
}

// FieldIndex returns the position of a named field, or -1.
func (k Kind) FieldIndex(name string) int {
	for i, f := range k.Fields() {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Class returns the class of a node kind.
func (k Kind) Class() Class {
	if !k.Valid() {
		return Aux
	}
	return descriptors[k].class
}

// HasCtx is true for kinds which carry a context tag (load, store, del).
func (k Kind) HasCtx() bool {
	return k.Valid() && descriptors[k].hasCtx
}

// KindByName finds a node kind by its name, as used by String().
func KindByName(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

// Kinds returns all valid node kinds.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := NoKind + 1; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// --- Context tags ----------------------------------------------------------

// Ctx is the syntactic context of an expression: is it read, written or deleted.
type Ctx int8

// NoCtx marks a missing context tag; it is filled in by post-processing.
const (
	NoCtx Ctx = iota
	Load
	Store
	Del
	Param
)

var ctxNames = [...]string{"", "load", "store", "del", "param"}

func (c Ctx) String() string {
	if c < 0 || int(c) >= len(ctxNames) {
		return "?"
	}
	return ctxNames[c]
}

// CtxByName is the inverse of Ctx.String. An empty name maps to NoCtx.
func CtxByName(name string) (Ctx, bool) {
	for i, n := range ctxNames {
		if n == name {
			return Ctx(i), true
		}
	}
	return NoCtx, false
}
