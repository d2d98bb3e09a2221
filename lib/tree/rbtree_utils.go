package tree

import (
	"github.com/benz9527/treebench/lib/infra"
)

func isBlack[K infra.Integer, V any](node RBNode[K, V]) bool {
	return node == nil || node.Color() == Black
}

func isRed[K infra.Integer, V any](node RBNode[K, V]) bool {
	return node != nil && node.Color() == Red
}

func blackDepthTo[K infra.Integer, V any](target, to RBNode[K, V]) int {
	depth := 0
	for aux := target; aux != to; aux = aux.Parent() {
		if isBlack[K, V](aux) {
			depth++
		}
	}
	return depth
}

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

func RootColorValidate[K infra.Integer, V any](tree RBTree[K, V]) error {
	if root := tree.Root(); root != nil && root.Color() != Black {
		return infra.NewErrorStackf("rbtree root %d is red", root.Key())
	}
	return nil
}

// Inorder traversal to validate the rbtree properties.
// The parent links are checked on the way, a red-violation is only
// meaningful if the links are consistent.
func RedViolationValidate[K infra.Integer, V any](tree RBTree[K, V]) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	stack := make([]RBNode[K, V], 0, 64)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		if l := aux.Left(); l != nil && l.Parent() != aux {
			return infra.NewErrorStackf("rbtree broken parent link at %d", l.Key())
		}
		if r := aux.Right(); r != nil && r.Parent() != aux {
			return infra.NewErrorStackf("rbtree broken parent link at %d", r.Key())
		}
		if isRed[K, V](aux) && (isRed[K, V](aux.Left()) || isRed[K, V](aux.Right())) {
			return infra.NewErrorStackf("rbtree red violation at %d", aux.Key())
		}

		stack = stack[:size-1]
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return nil
}

// BFS traversal to load all nodes owning at least one NIL child.
func bfsLeaves[K infra.Integer, V any](tree RBTree[K, V]) []RBNode[K, V] {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	leaves := make([]RBNode[K, V], 0, tree.Len()>>1+1)
	queue := make([]RBNode[K, V], 0, 64)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

2-3-4 tree like:

	       <8> --- [13] --- <15>
		  /  \             /    \
		 /    \           /      \
	  <1>-[6][11]      [14] <16>-[17]

Each leaf node to root node black depth are equal.
*/
func BlackViolationValidate[K infra.Integer, V any](tree RBTree[K, V]) error {
	leaves := bfsLeaves[K, V](tree)
	if leaves == nil {
		return nil
	}

	blackDepth := blackDepthTo[K, V](leaves[0], nil)
	for i := 1; i < len(leaves); i++ {
		if blackDepthTo[K, V](leaves[i], nil) != blackDepth {
			return infra.NewErrorStackf("rbtree black violation at %d", leaves[i].Key())
		}
	}
	return nil
}

// RBTreeValidate runs all the rbtree rule validations.
func RBTreeValidate[K infra.Integer, V any](tree RBTree[K, V]) error {
	if err := RootColorValidate[K, V](tree); err != nil {
		return err
	}
	if err := RedViolationValidate[K, V](tree); err != nil {
		return err
	}
	if err := BlackViolationValidate[K, V](tree); err != nil {
		return err
	}
	return OrderViolationValidate[K, V](tree)
}
