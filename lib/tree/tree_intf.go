package tree

import "github.com/benz9527/treebench/lib/infra"

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=Direction
type Direction int8

const (
	Left Direction = -1 + iota
	Root
	Right
)

// OrderedMap is the contract shared by the unbalanced BST, the red-black
// tree and the splay tree. Keys are unique; Put on an existing key replaces
// its value in place.
//
// None of the implementations are safe for concurrent use. For the splay
// tree Get and Contains restructure the tree, so even lookups must not be
// interleaved with other operations on the same instance.
type OrderedMap[K infra.Integer, V any] interface {
	Len() int64
	Put(key K, val V)
	Get(key K) (V, bool)
	Contains(key K) bool
	// Del is a no-op if the key is absent.
	Del(key K)
	// Foreach walks the keys in ascending order until action returns false.
	Foreach(action func(idx int64, key K, val V) bool)
	// Release unlinks all nodes. The map stays usable and empty.
	Release()
}

type RBNode[K infra.Integer, V any] interface {
	Key() K
	Val() V
	Color() RBColor
	Left() RBNode[K, V]
	Right() RBNode[K, V]
	Parent() RBNode[K, V]
}

type RBTree[K infra.Integer, V any] interface {
	OrderedMap[K, V]
	Root() RBNode[K, V]
}
