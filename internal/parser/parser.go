// Package parser turns JavaScript source into tree-sitter syntax trees.
//
// Tree-sitter is error-tolerant: broken input still yields a tree, with
// ERROR and missing-token nodes marking the damage. Callers report those
// as parse diagnostics and can still walk the recovered tree.
package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"jsvet/internal/source"
)

// Tree pairs a parsed file with its syntax tree.
type Tree struct {
	file *source.File
	tree *sitter.Tree
}

// SyntaxError is a parse diagnostic at a source position.
type SyntaxError struct {
	Line    int
	Col     int
	Message string
}

// Parse parses f as JavaScript. Every call uses a fresh parser because
// tree-sitter parsers are not safe for concurrent use.
func Parse(ctx context.Context, f *source.File) (*Tree, error) {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, f.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.Path, err)
	}
	return &Tree{file: f, tree: tree}, nil
}

// Root returns the program node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// File returns the source file the tree was parsed from.
func (t *Tree) File() *source.File {
	return t.file
}

// Close releases the underlying tree. Safe to call more than once.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Text returns the source text covered by n.
func (t *Tree) Text(n *sitter.Node) string {
	return n.Content(t.file.Content)
}

// Start returns the 1-based start line and column of n.
func (t *Tree) Start(n *sitter.Node) (line, col int) {
	return int(n.StartPoint().Row) + 1, int(n.StartPoint().Column) + 1
}

// End returns the 1-based end line and column of n.
func (t *Tree) End(n *sitter.Node) (line, col int) {
	return int(n.EndPoint().Row) + 1, int(n.EndPoint().Column) + 1
}

// Errors collects the ERROR and missing-token nodes left by error
// recovery, in document order.
func (t *Tree) Errors() []SyntaxError {
	var errs []SyntaxError
	Walk(t.Root(), func(n *sitter.Node) bool {
		if n.Type() == "ERROR" {
			line, col := t.Start(n)
			snippet := t.Text(n)
			if len(snippet) > 20 {
				snippet = snippet[:20] + "..."
			}
			errs = append(errs, SyntaxError{
				Line:    line,
				Col:     col,
				Message: fmt.Sprintf("unexpected token %q", snippet),
			})
			return false
		}
		if n.IsMissing() {
			line, col := t.Start(n)
			errs = append(errs, SyntaxError{
				Line:    line,
				Col:     col,
				Message: fmt.Sprintf("missing %q", n.Type()),
			})
		}
		return true
	})
	return errs
}

// Walk visits n and all of its children (named and anonymous) in
// preorder. Returning false from fn prunes the subtree.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), fn)
	}
}
