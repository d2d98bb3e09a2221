package tree

import (
	"github.com/benz9527/treebench/lib/infra"
)

type splayNode[K infra.Integer, V any] struct {
	parent *splayNode[K, V]
	left   *splayNode[K, V]
	right  *splayNode[K, V]
	key    K
	val    V
}

func (node *splayNode[K, V]) direction() Direction {
	if node.parent == nil {
		return Root
	}
	if node == node.parent.left {
		return Left
	}
	return Right
}

func (node *splayNode[K, V]) maximum() *splayNode[K, V] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

// splayTree keeps no balance metadata. Every access moves the touched node
// to the root, which gives amortized O(log n) operations and keeps
// recently used keys near the top.
//
// Get and Contains are not read-only: they splay too.
type splayTree[K infra.Integer, V any] struct {
	root  *splayNode[K, V]
	count int64
}

func (tree *splayTree[K, V]) Len() int64 {
	return tree.count
}

/*
rotate lifts X above its parent P, the parent links are rewired in place.

	    |                  |
	    P                  X
	   / \    rotate(X)   / \
	  X   C   ========>  A   P
	 / \                    / \
	A   B                  B   C
*/
func (tree *splayTree[K, V]) rotate(x *splayNode[K, V]) {
	p := x.parent
	if p == nil {
		// impossible run to here
		panic( /* debug assertion */ "[splay] rotate the root node")
	}

	g := p.parent
	switch x.direction() {
	case Left:
		p.left = x.right
		if p.left != nil {
			p.left.parent = p
		}
		x.right = p
	case Right:
		p.right = x.left
		if p.right != nil {
			p.right.parent = p
		}
		x.left = p
	default:
	}
	p.parent = x
	x.parent = g

	switch {
	case g == nil:
		tree.root = x
	case g.left == p:
		g.left = x
	default:
		g.right = x
	}
}

/*
splay repeats the steps below until X becomes the root.

zig: P is the root.

	    P               X
	   /     ====>       \
	  X                   P

zig-zig: X and P are both left (or both right) children.
Rotate P over G first, then X over P.

	      G                 X
	     /                   \
	    P        ====>        P
	   /                       \
	  X                         G

zig-zag: X and P are on opposite sides.
Rotate X over P, then X over G.

	    G                 X
	   /                 / \
	  P        ====>    P   G
	   \
	    X
*/
func (tree *splayTree[K, V]) splay(x *splayNode[K, V]) {
	for x.parent != nil {
		p := x.parent
		switch {
		case /* zig */ p.parent == nil:
			tree.rotate(x)
		case /* zig-zig */ x.direction() == p.direction():
			tree.rotate(p)
			tree.rotate(x)
		default /* zig-zag */ :
			tree.rotate(x)
			tree.rotate(x)
		}
	}
}

// search returns the node holding key (nil if absent), the last node
// visited on the search path and the comparison of key against it.
func (tree *splayTree[K, V]) search(key K) (hit, last *splayNode[K, V], res int64) {
	for aux := tree.root; aux != nil; {
		last = aux
		res = infra.Compare(key, aux.key)
		if res == 0 {
			return aux, aux, res
		} else if res > 0 {
			aux = aux.right
		} else {
			aux = aux.left
		}
	}
	return nil, last, res
}

// access splays the node found, or the last node on the search path if
// key is absent.
func (tree *splayTree[K, V]) access(key K) *splayNode[K, V] {
	hit, last, _ := tree.search(key)
	if last != nil {
		tree.splay(last)
	}
	return hit
}

func (tree *splayTree[K, V]) Put(key K, val V) {
	hit, last, res := tree.search(key)
	if hit != nil {
		hit.val = val
		tree.splay(hit)
		return
	}

	z := &splayNode[K, V]{
		key:    key,
		val:    val,
		parent: last,
	}
	tree.count++
	if last == nil {
		tree.root = z
		return
	}
	if res < 0 {
		last.left = z
	} else {
		last.right = z
	}
	tree.splay(z)
}

func (tree *splayTree[K, V]) Get(key K) (V, bool) {
	if x := tree.access(key); x != nil {
		return x.val, true
	}
	var zero V
	return zero, false
}

func (tree *splayTree[K, V]) Contains(key K) bool {
	return tree.access(key) != nil
}

/*
Del splays X to the root and detaches it. The left subtree L, if present,
becomes the new root after splaying its maximum M (X's predecessor) to the
top of L. M then has no right child and adopts the right subtree R.

	    X                                  M
	   / \                                / \
	  L   R    ====>   splay(M) in L     L'  R

An absent key leaves the tree untouched.
*/
func (tree *splayTree[K, V]) Del(key K) {
	z, _, _ := tree.search(key)
	if z == nil {
		return
	}
	tree.splay(z)

	l, r := z.left, z.right
	z.left, z.right = nil, nil
	tree.count--

	if l == nil {
		tree.root = r
		if r != nil {
			r.parent = nil
		}
		return
	}

	l.parent = nil
	tree.root = l
	m := l.maximum()
	tree.splay(m)
	m.right = r
	if r != nil {
		r.parent = m
	}
}

// Inorder traversal to implement the DFS. It does not splay.
func (tree *splayTree[K, V]) Foreach(action func(idx int64, key K, val V) bool) {
	aux := tree.root
	if aux == nil {
		return
	}

	stack := make([]*splayNode[K, V], 0, 64)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; !action(idx, aux.key, aux.val) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = aux.right; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
	}
}

func (tree *splayTree[K, V]) Release() {
	aux := tree.root
	tree.root = nil
	tree.count = 0
	if aux == nil {
		return
	}

	stack := make([]*splayNode[K, V], 0, 64)
	defer func() {
		clear(stack)
	}()

	stack = append(stack, aux)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if aux.left != nil {
			stack = append(stack, aux.left)
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
		}
		aux.parent, aux.left, aux.right = nil, nil, nil
	}
}

func NewSplayTree[K infra.Integer, V any]() OrderedMap[K, V] {
	return &splayTree[K, V]{}
}
