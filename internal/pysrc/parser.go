// Package pysrc parses Python source with tree-sitter and extracts the
// pieces the checker needs: class definitions with their base lists and
// __slots__ declarations, and module-level import bindings. Nothing is
// executed; a file with syntax errors fails to parse the way it would fail
// to import.
package pysrc

import (
	"errors"
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

type Parser struct {
	lang *sitter.Language
}

func NewParser() *Parser {
	return &Parser{lang: sitter.NewLanguage(tree_sitter_python.Language())}
}

// SyntaxError reports the first invalid construct in a file.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid syntax in %s at line %d, column %d", e.Path, e.Line, e.Column)
}

func (p *Parser) ParseFile(path string) (*Module, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(path, content)
}

func (p *Parser) Parse(path string, content []byte) (*Module, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.lang)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.New("parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, col := firstErrorPosition(root)
		return nil, &SyntaxError{Path: path, Line: line, Column: col}
	}

	m := &Module{Path: path}
	e := &extractor{source: content}
	e.module(root, m)
	return m, nil
}

func firstErrorPosition(node *sitter.Node) (line, col int) {
	if node.IsError() || node.IsMissing() {
		pos := node.StartPosition()
		return int(pos.Row) + 1, int(pos.Column) + 1
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.HasError() {
			return firstErrorPosition(child)
		}
	}
	pos := node.StartPosition()
	return int(pos.Row) + 1, int(pos.Column) + 1
}
