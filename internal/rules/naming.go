package rules

import (
	"fmt"
	"regexp"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"jsvet/internal/parser"
)

// namingRule checks declaration-site identifiers: lowerCamelCase for
// variables, properties, functions and parameters, UpperCamelCase for
// classes and constructors, UPPER_SNAKE_CASE for constants. Only names
// the file introduces are checked, so foreign APIs (child_process and
// friends) never trip it.
type namingRule struct{}

var (
	lowerCamelRe = regexp.MustCompile(`^_?[a-z][a-zA-Z0-9]*$`)
	upperCamelRe = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
	upperSnakeRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

func (r *namingRule) ID() string   { return "SG204" }
func (r *namingRule) Name() string { return "naming" }
func (r *namingRule) Description() string {
	return "lowerCamelCase for variables, properties and functions; UpperCamelCase for classes and constructors; UPPER_SNAKE_CASE for constants."
}
func (r *namingRule) Category() Category        { return CategoryCode }
func (r *namingRule) DefaultSeverity() Severity { return SeverityError }

func (r *namingRule) Check(rc *Context) []Violation {
	var out []Violation
	flag := func(n *sitter.Node, kind, want string) {
		name := rc.Tree.Text(n)
		line, col := rc.Tree.Start(n)
		out = append(out, report(r, rc, line, col,
			fmt.Sprintf("%s '%s' is not %s", kind, name, want)))
	}

	parser.Walk(rc.Tree.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "function_declaration", "generator_function_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				text := rc.Tree.Text(name)
				if !lowerCamelRe.MatchString(text) && !upperCamelRe.MatchString(text) {
					flag(name, "function", "lowerCamelCase (or UpperCamelCase for a constructor)")
				}
			}

		case "variable_declarator":
			if v := r.checkDeclarator(rc, n); v != nil {
				out = append(out, *v)
			}

		case "class_declaration", "class":
			if name := n.ChildByFieldName("name"); name != nil {
				if !upperCamelRe.MatchString(rc.Tree.Text(name)) {
					flag(name, "class", "UpperCamelCase")
				}
			}

		case "method_definition":
			if name := n.ChildByFieldName("name"); name != nil && name.Type() == "property_identifier" {
				if !lowerCamelRe.MatchString(rc.Tree.Text(name)) {
					flag(name, "method", "lowerCamelCase")
				}
			}

		case "formal_parameters":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				p := n.NamedChild(i)
				if p.Type() != "identifier" {
					continue // destructured and defaulted parameters are skipped
				}
				text := rc.Tree.Text(p)
				if text == "_" {
					continue
				}
				if !lowerCamelRe.MatchString(text) {
					flag(p, "parameter", "lowerCamelCase")
				}
			}

		case "pair":
			// Unquoted keys follow the property convention; quoted keys
			// often mirror external wire formats and are left alone.
			if key := n.ChildByFieldName("key"); key != nil && key.Type() == "property_identifier" {
				if !lowerCamelRe.MatchString(rc.Tree.Text(key)) {
					flag(key, "property", "lowerCamelCase")
				}
			}

		case "new_expression":
			if ctor := constructorName(n); ctor != nil {
				text := rc.Tree.Text(ctor)
				if text != "" && !unicode.IsUpper(rune(text[0])) && text[0] != '_' {
					flag(ctor, "constructor", "UpperCamelCase")
				}
			}
		}
		return true
	})
	return out
}

func (r *namingRule) checkDeclarator(rc *Context, n *sitter.Node) *Violation {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil || nameNode.Type() != "identifier" {
		return nil // destructuring patterns are not checked
	}
	name := rc.Tree.Text(nameNode)
	if lowerCamelRe.MatchString(name) {
		return nil
	}

	value := n.ChildByFieldName("value")
	if upperCamelRe.MatchString(name) && constructorLike(value) {
		return nil
	}
	if upperSnakeRe.MatchString(name) && value != nil && declarationKeyword(n.Parent()) != "let" {
		return nil // initialized constant
	}

	line, col := rc.Tree.Start(nameNode)
	v := report(r, rc, line, col, fmt.Sprintf("variable '%s' is not lowerCamelCase", name))
	return &v
}

// constructorLike reports whether an initializer plausibly binds a
// class or constructor, which legitimizes an UpperCamelCase name.
func constructorLike(value *sitter.Node) bool {
	if value == nil {
		return false
	}
	switch value.Type() {
	case "class", "function", "function_expression", "arrow_function",
		"new_expression", "call_expression", "identifier", "member_expression":
		return true
	}
	return false
}

// declarationKeyword returns "var", "let", or "const" for a declaration
// statement node.
func declarationKeyword(decl *sitter.Node) string {
	if decl == nil {
		return ""
	}
	switch decl.Type() {
	case "variable_declaration":
		return "var"
	case "lexical_declaration":
		if kw := decl.Child(0); kw != nil {
			return kw.Type()
		}
	}
	return ""
}

// constructorName resolves the rightmost name of a new expression's
// constructor: Foo in `new Foo()`, bar in `new foo.bar()`. Computed
// constructors resolve to nil.
func constructorName(n *sitter.Node) *sitter.Node {
	ctor := n.ChildByFieldName("constructor")
	for ctor != nil {
		switch ctor.Type() {
		case "identifier", "property_identifier":
			return ctor
		case "member_expression":
			ctor = ctor.ChildByFieldName("property")
		default:
			return nil
		}
	}
	return nil
}
