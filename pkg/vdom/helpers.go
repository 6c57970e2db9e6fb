package vdom

import (
	"cmp"
	"maps"
	"slices"
)

// If returns node if condition is true, otherwise nil.
func If(condition bool, node Node) Node {
	if condition {
		return node
	}
	return nil
}

// IfElse returns ifTrue if condition is true, otherwise ifFalse.
func IfElse(condition bool, ifTrue, ifFalse Node) Node {
	if condition {
		return ifTrue
	}
	return ifFalse
}

// When calls fn only if condition is true.
func When(condition bool, fn func() Node) Node {
	if condition {
		return fn()
	}
	return nil
}

// Unless returns node if condition is false.
func Unless(condition bool, node Node) Node {
	return If(!condition, node)
}

// Case is one branch of Switch.
type Case[T comparable] struct {
	value     T
	node      Node
	isDefault bool
}

// Case_ creates a Switch branch.
func Case_[T comparable](value T, node Node) Case[T] {
	return Case[T]{value: value, node: node}
}

// Default creates the fallback Switch branch.
func Default[T comparable](node Node) Case[T] {
	return Case[T]{node: node, isDefault: true}
}

// Switch returns the node of the first case matching value, else the
// default.
func Switch[T comparable](value T, cases ...Case[T]) Node {
	var fallback Node
	for _, c := range cases {
		if c.isDefault {
			fallback = c.node
			continue
		}
		if c.value == value {
			return c.node
		}
	}
	return fallback
}

// Range maps items to nodes, dropping nil results.
func Range[T any](items []T, fn func(item T, index int) Node) []Node {
	out := make([]Node, 0, len(items))
	for i, item := range items {
		if n := fn(item, i); !isNilNode(n) {
			out = append(out, n)
		}
	}
	return out
}

// RangeMap maps m to nodes in key order.
func RangeMap[K cmp.Ordered, V any](m map[K]V, fn func(key K, value V) Node) []Node {
	out := make([]Node, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if n := fn(k, m[k]); !isNilNode(n) {
			out = append(out, n)
		}
	}
	return out
}

// Repeat calls fn n times.
func Repeat(n int, fn func(i int) Node) []Node {
	out := make([]Node, 0, n)
	for i := range n {
		if node := fn(i); !isNilNode(node) {
			out = append(out, node)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
