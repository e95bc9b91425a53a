// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pyast parses candidate Python source with tree-sitter into an
// arena of index-addressed nodes.
//
// The arena is an immutable snapshot: repair passes and constraint checks
// never mutate it. A pass that wants to change the source computes byte-span
// edits against the snapshot, splices the source text, and re-parses into a
// fresh arena. No pass can ever observe a partially rewritten tree.
package pyast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Node is one syntax-tree node, addressed by its index in the arena.
type Node struct {
	Kind      string
	StartByte int
	EndByte   int
	StartRow  int // 0-based
	StartCol  int
	Parent    int // -1 for the root
	Children  []int
	Field     string // field name in the parent, "" if positional
	Named     bool
	IsError   bool
	IsMissing bool
}

// Arena holds the source and every node of one parse, root at index 0.
//
// Thread Safety: an Arena is immutable after Parse and safe for concurrent
// reads.
type Arena struct {
	Source []byte
	Nodes  []Node
}

// Parse parses Python source into a fresh Arena.
//
// Description:
//
//	Creates a tree-sitter parser per call (parsers are not safe to
//	share), walks the full tree including anonymous nodes (operators
//	matter to the checks), and copies everything into the arena so the
//	tree-sitter tree can be closed before returning.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	source - Python source bytes.
//
// Outputs:
//
//	*Arena - The parsed arena, never nil on nil error.
//	error - Non-nil if parsing fails outright. Syntax errors inside the
//	source do NOT fail Parse; they surface as error/missing nodes.
func Parse(ctx context.Context, source []byte) (*Arena, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing python: %w", err)
	}
	defer tree.Close()

	a := &Arena{Source: source}
	a.copyNode(tree.RootNode(), -1, "")
	return a, nil
}

// copyNode appends node and its subtree to the arena, returning its index.
func (a *Arena) copyNode(n *sitter.Node, parent int, field string) int {
	idx := len(a.Nodes)
	a.Nodes = append(a.Nodes, Node{
		Kind:      n.Type(),
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
		StartRow:  int(n.StartPoint().Row),
		StartCol:  int(n.StartPoint().Column),
		Parent:    parent,
		Field:     field,
		Named:     n.IsNamed(),
		IsError:   n.IsError(),
		IsMissing: n.IsMissing(),
	})
	count := int(n.ChildCount())
	children := make([]int, 0, count)
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		children = append(children, a.copyNode(child, idx, n.FieldNameForChild(i)))
	}
	a.Nodes[idx].Children = children
	return idx
}

// Root returns the module node's index.
func (a *Arena) Root() int { return 0 }

// Text returns the source text of node i.
func (a *Arena) Text(i int) string {
	n := a.Nodes[i]
	end := n.EndByte
	if end > len(a.Source) {
		end = len(a.Source)
	}
	return string(a.Source[n.StartByte:end])
}

// Line returns the 1-based line of node i.
func (a *Arena) Line(i int) int { return a.Nodes[i].StartRow + 1 }

// ChildByField returns the child of i with the given field name, or -1.
func (a *Arena) ChildByField(i int, field string) int {
	for _, c := range a.Nodes[i].Children {
		if a.Nodes[c].Field == field {
			return c
		}
	}
	return -1
}

// ChildrenOfKind returns the direct children of i with the given kind.
func (a *Arena) ChildrenOfKind(i int, kind string) []int {
	var out []int
	for _, c := range a.Nodes[i].Children {
		if a.Nodes[c].Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// FindAll returns every node of the given kind, in document order.
func (a *Arena) FindAll(kind string) []int {
	var out []int
	for i, n := range a.Nodes {
		if n.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

// FindWithin returns every node of the given kind inside the subtree rooted
// at root (excluding root itself), in document order.
func (a *Arena) FindWithin(root int, kind string) []int {
	var out []int
	var walk func(int)
	walk = func(i int) {
		for _, c := range a.Nodes[i].Children {
			if a.Nodes[c].Kind == kind {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// Enclosing walks up from i to the nearest ancestor of the given kind, or
// returns -1.
func (a *Arena) Enclosing(i int, kind string) int {
	for p := a.Nodes[i].Parent; p >= 0; p = a.Nodes[p].Parent {
		if a.Nodes[p].Kind == kind {
			return p
		}
	}
	return -1
}

// Contains reports whether ancestor's subtree includes i.
func (a *Arena) Contains(ancestor, i int) bool {
	for p := i; p >= 0; p = a.Nodes[p].Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// FunctionDefs returns all function_definition nodes.
func (a *Arena) FunctionDefs() []int {
	return a.FindAll("function_definition")
}

// FunctionName returns the declared name of a function_definition node.
func (a *Arena) FunctionName(def int) string {
	name := a.ChildByField(def, "name")
	if name < 0 {
		return ""
	}
	return a.Text(name)
}

// FunctionByName returns the function_definition with the given name, or
// the first function in the module when name is not found, or -1 for a
// module with no functions. Candidates are expected to define exactly the
// requested function, but generators sometimes rename.
func (a *Arena) FunctionByName(name string) int {
	defs := a.FunctionDefs()
	if len(defs) == 0 {
		return -1
	}
	for _, def := range defs {
		if a.FunctionName(def) == name {
			return def
		}
	}
	return defs[0]
}

// Body returns the block node of a function/loop/clause, or -1.
func (a *Arena) Body(i int) int {
	if b := a.ChildByField(i, "body"); b >= 0 {
		return b
	}
	// if_statement uses "consequence" for its block.
	return a.ChildByField(i, "consequence")
}
