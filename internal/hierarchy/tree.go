// Package hierarchy builds immutable parent/child trees over module records.
//
// A Tree is an arena: node i holds items[i] and links to other nodes by index.
// Two constructors cover the two ancestry strategies. ByPath links a node to the
// nearest enclosing directory that holds another node. ByReference links a node to
// the node whose key equals its declared parent key. Walks are iterative and guard
// against cycles.
package hierarchy

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/catalogbuilder/internal/util/sets"
)

// ErrCyclicParentChain is returned when walking parents revisits a node.
var ErrCyclicParentChain = errors.New("cyclic parent chain")

const noParent = -1

type node[T any] struct {
	key      string
	value    T
	parent   int
	children []int
}

// Tree is built once and read-only afterwards. It is safe for concurrent reads.
type Tree[T any] struct {
	nodes []node[T]
	index map[string]int
	roots []int
}

func newTree[T any](items []T, key func(T) string) *Tree[T] {
	t := &Tree[T]{
		nodes: make([]node[T], len(items)),
		index: make(map[string]int, len(items)),
	}
	for i, item := range items {
		k := key(item)
		t.nodes[i] = node[T]{key: k, value: item, parent: noParent}
		if _, dup := t.index[k]; !dup {
			t.index[k] = i
		}
	}
	return t
}

// ByPath builds a tree keyed by directory. A node's parent is the nearest ancestor
// directory present in the tree; "." is the ancestor of every other directory.
func ByPath[T any](items []T, dir func(T) string) *Tree[T] {
	t := newTree(items, func(item T) string { return cleanDir(dir(item)) })
	for i := range t.nodes {
		k := t.nodes[i].key
		for k != "." {
			k = path.Dir(k)
			if p, ok := t.index[k]; ok && p != i {
				t.nodes[i].parent = p
				break
			}
		}
	}
	t.link()
	return t
}

// ByReference builds a tree keyed by key(item). A node's parent is the node whose key
// equals parent(item). Unresolved parents make the node a root.
func ByReference[T any](items []T, key func(T) string, parent func(T) (string, bool)) *Tree[T] {
	t := newTree(items, key)
	for i := range t.nodes {
		ref, ok := parent(t.nodes[i].value)
		if !ok {
			continue
		}
		if p, found := t.index[ref]; found {
			t.nodes[i].parent = p
		}
	}
	t.link()
	return t
}

func cleanDir(dir string) string {
	if dir == "" {
		return "."
	}
	return strings.TrimPrefix(path.Clean(dir), "./")
}

func (t *Tree[T]) link() {
	for i := range t.nodes {
		p := t.nodes[i].parent
		if p == noParent {
			t.roots = append(t.roots, i)
			continue
		}
		t.nodes[p].children = append(t.nodes[p].children, i)
	}
	t.sortByKey(t.roots)
	for i := range t.nodes {
		t.sortByKey(t.nodes[i].children)
	}
}

func (t *Tree[T]) sortByKey(ids []int) {
	sort.SliceStable(ids, func(a, b int) bool {
		return t.nodes[ids[a]].key < t.nodes[ids[b]].key
	})
}

// Len returns the number of nodes.
func (t *Tree[T]) Len() int { return len(t.nodes) }

// Value returns the item stored at node i.
func (t *Tree[T]) Value(i int) T { return t.nodes[i].value }

// Key returns the key of node i.
func (t *Tree[T]) Key(i int) string { return t.nodes[i].key }

// Lookup returns the first node with key.
func (t *Tree[T]) Lookup(key string) (int, bool) {
	i, ok := t.index[key]
	return i, ok
}

// Parent returns the parent of node i.
func (t *Tree[T]) Parent(i int) (int, bool) {
	p := t.nodes[i].parent
	return p, p != noParent
}

// Children returns the children of node i ordered by key.
func (t *Tree[T]) Children(i int) []int {
	return append([]int(nil), t.nodes[i].children...)
}

// Roots returns the nodes without a parent ordered by key.
func (t *Tree[T]) Roots() []int {
	return append([]int(nil), t.roots...)
}

// Chain returns the ancestry of node i root first, ending with i.
func (t *Tree[T]) Chain(i int) ([]int, error) {
	visited := sets.New[int]()
	var chain []int
	for cur := i; cur != noParent; cur = t.nodes[cur].parent {
		if visited.Has(cur) {
			return nil, fmt.Errorf("%w at %s", ErrCyclicParentChain, t.nodes[cur].key)
		}
		visited.Add(cur)
		chain = append(chain, cur)
	}
	for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
		chain[l], chain[r] = chain[r], chain[l]
	}
	return chain, nil
}

// ChainValues is Chain returning the stored items.
func (t *Tree[T]) ChainValues(i int) ([]T, error) {
	ids, err := t.Chain(i)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(ids))
	for n, id := range ids {
		out[n] = t.nodes[id].value
	}
	return out, nil
}

// Subtree returns node i followed by all its descendants, depth first, children in key order.
func (t *Tree[T]) Subtree(i int) []int {
	visited := sets.New[int]()
	var out []int
	stack := []int{i}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Has(cur) {
			continue
		}
		visited.Add(cur)
		out = append(out, cur)
		children := t.nodes[cur].children
		for c := len(children) - 1; c >= 0; c-- {
			stack = append(stack, children[c])
		}
	}
	return out
}
