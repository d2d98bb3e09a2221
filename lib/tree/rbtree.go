package tree

import (
	"github.com/benz9527/treebench/lib/infra"
)

type rbNode[K infra.Integer, V any] struct {
	parent *rbNode[K, V]
	left   *rbNode[K, V]
	right  *rbNode[K, V]
	key    K
	val    V
	color  RBColor
}

func (node *rbNode[K, V]) Color() RBColor {
	return node.color
}

func (node *rbNode[K, V]) Key() K {
	return node.key
}

func (node *rbNode[K, V]) Val() V {
	return node.val
}

func (node *rbNode[K, V]) Left() RBNode[K, V] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *rbNode[K, V]) Parent() RBNode[K, V] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent
}

func (node *rbNode[K, V]) Right() RBNode[K, V] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

// NIL leaves are black.
func (node *rbNode[K, V]) isRed() bool {
	return node != nil && node.color == Red
}

func (node *rbNode[K, V]) isBlack() bool {
	return node == nil || node.color == Black
}

func (node *rbNode[K, V]) isRoot() bool {
	return node != nil && node.parent == nil
}

func (node *rbNode[K, V]) direction() Direction {
	if node == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] nil leaf node without direction")
	}

	if node.isRoot() {
		return Root
	}
	if node == node.parent.left {
		return Left
	}
	return Right
}

func (node *rbNode[K, V]) sibling() *rbNode[K, V] {
	switch node.direction() {
	case Left:
		return node.parent.right
	case Right:
		return node.parent.left
	default:
	}
	return nil
}

func (node *rbNode[K, V]) uncle() *rbNode[K, V] {
	return node.parent.sibling()
}

func (node *rbNode[K, V]) grandpa() *rbNode[K, V] {
	return node.parent.parent
}

func (node *rbNode[K, V]) fixLink() {
	if node.left != nil {
		node.left.parent = node
	}
	if node.right != nil {
		node.right.parent = node
	}
}

func (node *rbNode[K, V]) minimum() *rbNode[K, V] {
	aux := node
	for ; aux != nil && aux.left != nil; aux = aux.left {
	}
	return aux
}

func (node *rbNode[K, V]) maximum() *rbNode[K, V] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

type rbTree[K infra.Integer, V any] struct {
	root           *rbNode[K, V]
	count          int64
	isRmBorrowPred bool
}

func (tree *rbTree[K, V]) Len() int64 {
	return tree.count
}

func (tree *rbTree[K, V]) Root() RBNode[K, V] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) If a node X has exactly one child, it must be a red child,
//   because if it were black, its NIL descendants would sit at a different
//   black depth than X's NIL child, violating p4.

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *rbTree[K, V]) leftRotate(x *rbNode[K, V]) {
	if x == nil || x.right == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] left rotate node x is nil or x.right is nil")
	}

	p, y := x.parent, x.right
	dir := x.direction()
	x.right, y.left = y.left, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to left-rotate")
	}
	y.parent = p
}

/*
			 |                         |
			 X                         S
			/ \     rightRotate(S)    / \
	       L   S    <============    X   R
			  / \                   / \
			Sc   Sd               Sc   Sd
*/
func (tree *rbTree[K, V]) rightRotate(x *rbNode[K, V]) {
	if x == nil || x.left == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] right rotate node x is nil or x.left is nil")
	}

	p, y := x.parent, x.left
	dir := x.direction()
	x.left, y.right = y.right, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to right-rotate")
	}
	y.parent = p
}

// rotateTowards rotates p so that p moves down on the dir side.
func (tree *rbTree[K, V]) rotateTowards(p *rbNode[K, V], dir Direction) {
	switch dir {
	case Left:
		tree.leftRotate(p)
	case Right:
		tree.rightRotate(p)
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] rotate towards root direction")
	}
}

func (tree *rbTree[K, V]) search(key K) *rbNode[K, V] {
	for aux := tree.root; aux != nil; {
		res := infra.Compare(key, aux.key)
		if res == 0 {
			return aux
		} else if res > 0 {
			aux = aux.right
		} else {
			aux = aux.left
		}
	}
	return nil
}

func (tree *rbTree[K, V]) Get(key K) (V, bool) {
	if x := tree.search(key); x != nil {
		return x.val, true
	}
	var zero V
	return zero, false
}

func (tree *rbTree[K, V]) Contains(key K) bool {
	return tree.search(key) != nil
}

// i1: Empty rbtree, insert directly, but root node is painted to black.
// i2: Key present, replace the value in place, no structural change.
func (tree *rbTree[K, V]) Put(key K, val V) {
	if /* i1 */ tree.root == nil {
		tree.root = &rbNode[K, V]{
			key:   key,
			val:   val,
			color: Black,
		}
		tree.count++
		return
	}

	var (
		x, y *rbNode[K, V] = tree.root, nil
		res  int64
	)
	for x != nil {
		y = x
		res = infra.Compare(key, x.key)
		if /* i2 */ res == 0 {
			x.val = val
			return
		} else /* less */ if res < 0 {
			x = x.left
		} else /* greater */ {
			x = x.right
		}
	}

	z := &rbNode[K, V]{
		key:    key,
		val:    val,
		color:  Red,
		parent: y,
	}
	if res < 0 {
		y.left = z
	} else {
		y.right = z
	}
	tree.count++
	tree.insertRebalance(z)
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

im1: Current node X's parent P is black (or X is the root), nothing violated.

im2: If both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Loop to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im3: The parent P is red but the uncle U is black. (red-violation)
X is opposite direction to P (triangle). Rotate P to opposite direction.
After rotation X and P swap roles. Here must enter im4 to fix.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im4: Current node is the same direction as parent (line).

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]
*/
func (tree *rbTree[K, V]) insertRebalance(x *rbNode[K, V]) {
	for /* im1 */ !x.isRoot() && x.parent.isRed() {
		// A red parent is never the root, so the grandpa exists.
		p, gp := x.parent, x.grandpa()
		if /* im2 */ u := x.uncle(); u.isRed() {
			p.color = Black
			u.color = Black
			gp.color = Red
			x = gp
			continue
		}

		if /* im3 */ dir := x.direction(); dir != p.direction() {
			tree.rotateTowards(p, p.direction())
			x, p = p, x
		}

		/* im4 */
		switch p.direction() {
		case Left:
			tree.rightRotate(gp)
		case Right:
			tree.leftRotate(gp)
		default:
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] insert violate (im4)")
		}
		p.color = Black
		gp.color = Red
		break
	}
	tree.root.color = Black
}

func (tree *rbTree[K, V]) Del(key K) {
	z := tree.search(key)
	if z == nil {
		return
	}
	tree.removeNode(z)
	tree.count--
}

/*
r1: Only a root node, remove directly.

r2: Current node X has left and right node.
Find node X's succ (or pred) to replace it to be removed.
Swap the key and value only, then remove the succ (pred) node Y instead.
Y has at most one child.

Find succ:

	  |                    |
	  X                    S
	 / \                  / \
	L  ..   swap(X, S)   L  ..
		|   =========>       |
		P                    P
	   / \                  / \
	  S  ..                X  ..

r3: (1) Y is a red leaf node, remove directly.

r3: (2) Y is a black leaf node, we have to rebalance before unlinking it.
(black-violation)

r4: Y is not a leaf node but contains a not nil child node.
The child node must be a red node. (See conclusion. Otherwise, black-violation)
Promote the child into Y's position and repaint it black.
*/
func (tree *rbTree[K, V]) removeNode(z *rbNode[K, V]) {
	y := z
	if /* r2 */ y.left != nil && y.right != nil {
		if tree.isRmBorrowPred {
			y = z.left.maximum()
		} else {
			y = z.right.minimum()
		}
		z.key, z.val = y.key, y.val
	}

	var replace *rbNode[K, V]
	if y.left != nil {
		replace = y.left
	} else {
		replace = y.right
	}

	switch {
	case /* r4 */ replace != nil:
		switch y.direction() {
		case Root:
			tree.root = replace
		case Left:
			y.parent.left = replace
		case Right:
			y.parent.right = replace
		default:
		}
		replace.parent = y.parent
		if y.isBlack() {
			if replace.isRed() {
				replace.color = Black
			} else {
				tree.removeRebalance(replace)
			}
		}
	case /* r1 */ y.isRoot():
		tree.root = nil
	default:
		if /* r3 (2) */ y.isBlack() {
			tree.removeRebalance(y)
		}
		// Unlink leaf.
		if y == y.parent.left {
			y.parent.left = nil
		} else {
			y.parent.right = nil
		}
	}
	y.parent, y.left, y.right = nil, nil, nil
}

/*
X carries an extra black (double-black) after its black counterpart left.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

Sc is the same direction to X and it X's sibling's child node (near).
Sd is the opposite direction to X and it X's sibling's child node (far).

rm1: Current node X's sibling S is red, so the parent P, nephew node Sc and Sd
must be black. (Otherwise, red-violation)
(1) X is left node of P, left rotate P
(2) X is right node of P, right rotate P.
(3) repaint S into black, P into red.
X gets a black sibling, fall through to rm2-rm4.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm2: X's sibling S and nephew node Sc and Sd are black.
Repaint S into red, the deficiency moves up to P. If P is red, painting P
black terminates. Otherwise loop to handle P.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm3: Current node X's sibling S is black, nephew node Sc is red and Sd
is black. Ignore X's parent P's color (red or black is okay)
(1) If X is left node of P, right rotate S.
(2) If X is right node of P, left rotate S.
(3) Repaint S into red, Sc into black
Enter into rm4 to fix.

	                        {P}                {P}
	  {P}                   / \                / \
	  / \    r-rotate(S)  [X] <Sc>   repaint  [X] [Sc]
	[X] [S]  ==========>        \    ======>       \
	    / \                     [S]                <S>
	  <Sc> [Sd]                   \                  \
	                              [Sd]               [Sd]

rm4: Current node X's sibling S is black, nephew node Sd is red.
Ignore X's parent P's color (red or black is okay)
(1) If X is left node of P, left rotate P.
(2) If X is right node of P, right rotate P.
(3) Paint S with P's color and P into black.
(4) Repaint Sd into black. Terminates.

	  {P}                   [S]                {S}
	  / \    l-rotate(P)    / \     repaint    / \
	[X] [S]  ==========>  {P} <Sd>  ======>  [P] [Sd]
	    / \               / \                / \
	 [Sc] <Sd>          [X] [Sc]           [X] [Sc]
*/
func (tree *rbTree[K, V]) removeRebalance(x *rbNode[K, V]) {
	for !x.isRoot() && x.isBlack() {
		dir := x.direction()
		sibling := x.sibling()
		if /* rm1 */ sibling.isRed() {
			tree.rotateTowards(x.parent, dir)
			sibling.color = Black
			x.parent.color = Red
			sibling = x.sibling()
		}

		var sc, sd *rbNode[K, V]
		switch dir {
		case Left:
			sc, sd = sibling.left, sibling.right
		case Right:
			sc, sd = sibling.right, sibling.left
		default:
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] remove violate (rm2)")
		}

		if /* rm2 */ sc.isBlack() && sd.isBlack() {
			sibling.color = Red
			x = x.parent
			continue
		}

		if /* rm3 */ sd.isBlack() {
			tree.rotateTowards(sibling, -dir)
			sc.color = Black
			sibling.color = Red
			sibling, sd = sc, sibling
		}

		/* rm4 */
		tree.rotateTowards(x.parent, dir)
		sibling.color = x.parent.color
		x.parent.color = Black
		sd.color = Black
		x = tree.root
	}
	x.color = Black
}

// Inorder traversal to implement the DFS.
func (tree *rbTree[K, V]) Foreach(action func(idx int64, key K, val V) bool) {
	tree.foreach(func(idx int64, node *rbNode[K, V]) bool {
		return action(idx, node.key, node.val)
	})
}

func (tree *rbTree[K, V]) foreach(action func(idx int64, node *rbNode[K, V]) bool) {
	aux := tree.root
	if aux == nil {
		return
	}

	stack := make([]*rbNode[K, V], 0, 64)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; !action(idx, aux) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = aux.right; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
	}
}

func (tree *rbTree[K, V]) Release() {
	aux := tree.root
	tree.root = nil
	if aux == nil {
		return
	}

	stack := make([]*rbNode[K, V], 0, 64)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		r := aux.right
		aux.left, aux.right, aux.parent = nil, nil, nil
		tree.count--
		stack = stack[:size-1]
		for aux = r; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
	}
}

type RBTreeOpt[K infra.Integer, V any] func(*rbTree[K, V])

// WithRBTreeRemoveBorrowPred removes a node with two children by borrowing
// its in-order predecessor instead of the successor.
func WithRBTreeRemoveBorrowPred[K infra.Integer, V any]() RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		tree.isRmBorrowPred = true
	}
}

func NewRBTree[K infra.Integer, V any](opts ...RBTreeOpt[K, V]) RBTree[K, V] {
	tree := &rbTree[K, V]{}
	for _, o := range opts {
		o(tree)
	}
	return tree
}
