package tree

import (
	"github.com/benz9527/treebench/lib/infra"
)

// The unbalanced tree keeps no parent link; every walk that needs to
// rewrite a link carries the slot (pointer to the parent's child field)
// it came through.
type bsNode[K infra.Integer, V any] struct {
	left  *bsNode[K, V]
	right *bsNode[K, V]
	key   K
	val   V
}

// bsTree never rebalances. Its depth depends on insertion order only, so
// monotonic input degrades it into a linked list of O(n) depth.
type bsTree[K infra.Integer, V any] struct {
	root  *bsNode[K, V]
	count int64
}

func (tree *bsTree[K, V]) Len() int64 {
	return tree.count
}

// slot returns the link that holds key, or the nil link where key
// would be attached.
func (tree *bsTree[K, V]) slot(key K) **bsNode[K, V] {
	link := &tree.root
	for *link != nil {
		res := infra.Compare(key, (*link).key)
		if /* equal */ res == 0 {
			break
		} else /* less */ if res < 0 {
			link = &(*link).left
		} else /* greater */ {
			link = &(*link).right
		}
	}
	return link
}

func (tree *bsTree[K, V]) Put(key K, val V) {
	link := tree.slot(key)
	if *link != nil {
		(*link).val = val
		return
	}
	*link = &bsNode[K, V]{
		key: key,
		val: val,
	}
	tree.count++
}

func (tree *bsTree[K, V]) Get(key K) (V, bool) {
	if x := *tree.slot(key); x != nil {
		return x.val, true
	}
	var zero V
	return zero, false
}

func (tree *bsTree[K, V]) Contains(key K) bool {
	return *tree.slot(key) != nil
}

/*
d1: X has at most one child, splice X out and promote the child C (or nil)
into the link that held X.

	  |                |
	  X      ====>     C
	 /
	C

d2: X has two children. Copy the in-order successor S (minimum of the right
subtree) into X, then splice S out by d1. S never has a left child.

	  |                      |
	  X                      S
	 / \                    / \
	L   R     ====>        L   R
	   /                      /
	  S                      Sr
	   \
	   Sr
*/
func (tree *bsTree[K, V]) Del(key K) {
	link := tree.slot(key)
	z := *link
	if z == nil {
		return
	}

	if /* d2 */ z.left != nil && z.right != nil {
		link = &z.right
		for (*link).left != nil {
			link = &(*link).left
		}
		y := *link
		z.key, z.val = y.key, y.val
		z = y
	}

	/* d1 */
	if z.left != nil {
		*link = z.left
	} else {
		*link = z.right
	}
	z.left, z.right = nil, nil
	tree.count--
}

// Inorder traversal to implement the DFS.
func (tree *bsTree[K, V]) Foreach(action func(idx int64, key K, val V) bool) {
	aux := tree.root
	if aux == nil {
		return
	}

	stack := make([]*bsNode[K, V], 0, 64)
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

func (tree *bsTree[K, V]) Release() {
	aux := tree.root
	tree.root = nil
	tree.count = 0
	if aux == nil {
		return
	}

	stack := make([]*bsNode[K, V], 0, 64)
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
		aux.left, aux.right = nil, nil
	}
}

func NewBSTree[K infra.Integer, V any]() OrderedMap[K, V] {
	return &bsTree[K, V]{}
}
