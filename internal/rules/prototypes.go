package rules

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"jsvet/internal/parser"
)

// nativePrototypeRule forbids modifying the prototypes of native
// objects, whether by assignment or through Object.defineProperty and
// its relatives.
type nativePrototypeRule struct{}

var nativeConstructors = map[string]bool{
	"Object": true, "Array": true, "String": true, "Number": true,
	"Boolean": true, "Function": true, "Date": true, "RegExp": true,
	"Error": true, "EvalError": true, "RangeError": true,
	"ReferenceError": true, "SyntaxError": true, "TypeError": true,
	"URIError": true, "Promise": true, "Map": true, "Set": true,
	"WeakMap": true, "WeakSet": true, "Symbol": true, "BigInt": true,
}

func (r *nativePrototypeRule) ID() string   { return "SG206" }
func (r *nativePrototypeRule) Name() string { return "no-native-prototype" }
func (r *nativePrototypeRule) Description() string {
	return "Never modify the prototype of a native object such as Array or Object."
}
func (r *nativePrototypeRule) Category() Category        { return CategoryCode }
func (r *nativePrototypeRule) DefaultSeverity() Severity { return SeverityError }

func (r *nativePrototypeRule) Check(rc *Context) []Violation {
	var out []Violation
	parser.Walk(rc.Tree.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "assignment_expression", "augmented_assignment_expression":
			left := n.ChildByFieldName("left")
			if root, ok := nativePrototypeChain(rc, left); ok {
				line, col := rc.Tree.Start(left)
				out = append(out, report(r, rc, line, col,
					fmt.Sprintf("do not modify the native %s prototype", root)))
			}
		case "call_expression":
			if v := r.checkDefineCall(rc, n); v != nil {
				out = append(out, *v)
			}
		}
		return true
	})
	return out
}

func (r *nativePrototypeRule) checkDefineCall(rc *Context, call *sitter.Node) *Violation {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return nil
	}
	switch rc.Tree.Text(fn) {
	case "Object.defineProperty", "Object.defineProperties",
		"Object.assign", "Object.setPrototypeOf":
	default:
		return nil
	}
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	first := firstNamedChild(args)
	if first == nil {
		return nil
	}
	if root, ok := nativePrototypeChain(rc, first); ok {
		line, col := rc.Tree.Start(call)
		v := report(r, rc, line, col, fmt.Sprintf("do not modify the native %s prototype", root))
		return &v
	}
	return nil
}

// nativePrototypeChain walks a member chain to its root identifier. It
// matches when the root is a native constructor and the chain passes
// through a `prototype` property.
func nativePrototypeChain(rc *Context, n *sitter.Node) (string, bool) {
	sawPrototype := false
	for n != nil {
		switch n.Type() {
		case "member_expression":
			if prop := n.ChildByFieldName("property"); prop != nil && rc.Tree.Text(prop) == "prototype" {
				sawPrototype = true
			}
			n = n.ChildByFieldName("object")
		case "subscript_expression":
			n = n.ChildByFieldName("object")
		case "identifier":
			name := rc.Tree.Text(n)
			return name, sawPrototype && nativeConstructors[name]
		default:
			return "", false
		}
	}
	return "", false
}
