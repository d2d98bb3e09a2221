package tree

import (
	randv2 "math/rand/v2"
	"slices"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/treebench/lib/infra"
)

// preorderKeys identifies the tree shape, the preorder of a search tree
// determines it uniquely.
func preorderKeys[K infra.Integer, V any](m OrderedMap[K, V]) []K {
	keys := make([]K, 0, m.Len())
	switch tree := m.(type) {
	case *bsTree[K, V]:
		stack := []*bsNode[K, V]{tree.root}
		for len(stack) > 0 {
			aux := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if aux == nil {
				continue
			}
			keys = append(keys, aux.key)
			stack = append(stack, aux.right, aux.left)
		}
	case *rbTree[K, V]:
		stack := []*rbNode[K, V]{tree.root}
		for len(stack) > 0 {
			aux := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if aux == nil {
				continue
			}
			keys = append(keys, aux.key)
			stack = append(stack, aux.right, aux.left)
		}
	case *splayTree[K, V]:
		stack := []*splayNode[K, V]{tree.root}
		for len(stack) > 0 {
			aux := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if aux == nil {
				continue
			}
			keys = append(keys, aux.key)
			stack = append(stack, aux.right, aux.left)
		}
	default:
		panic("unknown tree")
	}
	return keys
}

func TestKind(t *testing.T) {
	require.Equal(t, []Kind{BST, Splay, RedBlack}, Kinds())
	require.Equal(t, "BST", BST.String())
	require.Equal(t, "Splay Tree", Splay.String())
	require.Equal(t, "RB Tree", RedBlack.String())
	require.Equal(t, "Unknown", Kind(42).String())

	testcases := []struct {
		name     string
		expected Kind
	}{
		{"bst", BST},
		{" BST ", BST},
		{"splay", Splay},
		{"SplayTree", Splay},
		{"rb", RedBlack},
		{"rbtree", RedBlack},
		{"redblack", RedBlack},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			kind, err := ParseKind(tc.name)
			require.NoError(tt, err)
			require.Equal(tt, tc.expected, kind)
		})
	}

	_, err := ParseKind("avl")
	require.Error(t, err)
	require.Contains(t, err.Error(), "avl")

	require.Panics(t, func() {
		NewOrderedMap[int, int](Kind(42))
	})
}

func TestOrderedMap_Example(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind.String(), func(tt *testing.T) {
			m := NewOrderedMap[int, int](kind)
			for _, v := range []int{5, 3, 8, 1, 4, 7, 9} {
				m.Put(v, v)
			}
			require.Equal(tt, int64(7), m.Len())
			require.Equal(tt, []int{1, 3, 4, 5, 7, 8, 9}, Keys(m))

			require.True(tt, m.Contains(4))
			require.False(tt, m.Contains(6))
			val, ok := m.Get(8)
			require.True(tt, ok)
			require.Equal(tt, 8, val)
			_, ok = m.Get(6)
			require.False(tt, ok)

			m.Del(3)
			require.False(tt, m.Contains(3))
			require.Equal(tt, int64(6), m.Len())
			require.Equal(tt, []int{1, 4, 5, 7, 8, 9}, Keys(m))
			require.NoError(tt, OrderViolationValidate(m))

			m.Release()
			require.Equal(tt, int64(0), m.Len())
			require.Empty(tt, Keys(m))
			require.False(tt, m.Contains(5))
		})
	}
}

func TestOrderedMap_EmptyTree(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind.String(), func(tt *testing.T) {
			m := NewOrderedMap[int, int](kind)
			require.Equal(tt, int64(0), m.Len())
			require.False(tt, m.Contains(1))
			m.Del(1)
			require.Equal(tt, int64(0), m.Len())
			require.NoError(tt, OrderViolationValidate(m))
			m.Release()

			m.Put(1, 1)
			m.Del(1)
			require.Equal(tt, int64(0), m.Len())
			require.False(tt, m.Contains(1))
		})
	}
}

func TestOrderedMap_ReInsert(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind.String(), func(tt *testing.T) {
			m := NewOrderedMap[int, int](kind)
			for _, v := range []int{5, 3, 8} {
				m.Put(v, v)
			}
			before := Keys(m)

			m.Put(3, 30)
			m.Put(3, 300)
			require.Equal(tt, int64(3), m.Len())
			require.Equal(tt, before, Keys(m))
			val, ok := m.Get(3)
			require.True(tt, ok)
			require.Equal(tt, 300, val)
		})
	}
}

func TestOrderedMap_DelAbsentKeepsShape(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind.String(), func(tt *testing.T) {
			m := NewOrderedMap[int, int](kind)
			for _, v := range []int{50, 30, 80, 10, 40, 70, 90, 20, 60} {
				m.Put(v, v)
			}
			shape := preorderKeys(m)
			keys := Keys(m)

			for _, absent := range []int{0, 15, 55, 100} {
				m.Del(absent)
				require.Equal(tt, int64(9), m.Len())
				require.Equal(tt, keys, Keys(m))
				require.Equal(tt, shape, preorderKeys(m))
			}
		})
	}
}

func TestOrderedMap_ForeachStop(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind.String(), func(tt *testing.T) {
			m := NewOrderedMap[int, int](kind)
			for i := 10; i > 0; i-- {
				m.Put(i, i*10)
			}
			visited := make([]int, 0, 3)
			m.Foreach(func(idx int64, key int, val int) bool {
				require.Equal(tt, key*10, val)
				visited = append(visited, key)
				return idx < 2
			})
			require.Equal(tt, []int{1, 2, 3}, visited)
		})
	}
}

func orderedMapAdversarialRunCore(t *testing.T, kind Kind, input []int) {
	m := NewOrderedMap[int, int](kind)
	model := make(map[int]int, len(input))
	for i, v := range input {
		m.Put(v, i)
		model[v] = i
	}
	require.Equal(t, int64(len(model)), m.Len())
	require.NoError(t, OrderViolationValidate(m))

	expected := lo.Keys(model)
	slices.Sort(expected)
	require.Equal(t, expected, Keys(m))
	for k, v := range model {
		val, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, v, val)
	}

	// Delete every other distinct key, plus some absent ones.
	for i, k := range expected {
		if i&0x1 == 0 {
			m.Del(k)
			delete(model, k)
		}
	}
	m.Del(-1)
	m.Del(len(input) << 2)
	require.Equal(t, int64(len(model)), m.Len())
	require.NoError(t, OrderViolationValidate(m))
	for _, k := range expected {
		_, ok := model[k]
		require.Equal(t, ok, m.Contains(k))
	}
	if tree, ok := m.(RBTree[int, int]); ok {
		require.NoError(t, RBTreeValidate(tree))
	}
	m.Release()
	require.Equal(t, int64(0), m.Len())
}

func TestOrderedMap_AdversarialInput(t *testing.T) {
	total := 5000
	sequential := lo.Range(total)
	reverse := lo.RangeWithSteps(total, 0, -1)
	random := make([]int, 0, total)
	for i := 0; i < total; i++ {
		// Narrow domain to force duplicates.
		random = append(random, randv2.IntN(total>>1))
	}

	testcases := []struct {
		name  string
		input []int
	}{
		{"sequential", sequential},
		{"reverse sequential", reverse},
		{"random with duplicates", random},
	}
	for _, kind := range Kinds() {
		for _, tc := range testcases {
			t.Run(kind.String()+"/"+tc.name, func(tt *testing.T) {
				orderedMapAdversarialRunCore(tt, kind, tc.input)
			})
		}
	}
}

func BenchmarkOrderedMap_Random(b *testing.B) {
	for _, kind := range Kinds() {
		b.Run(kind.String(), func(bb *testing.B) {
			bb.StopTimer()
			m := NewOrderedMap[int, int](kind)
			rngArr := make([]int, 0, bb.N)
			for i := 0; i < bb.N; i++ {
				rngArr = append(rngArr, randv2.Int())
			}

			bb.StartTimer()
			for i := 0; i < bb.N; i++ {
				m.Put(rngArr[i], i)
			}
			for i := 0; i < bb.N; i++ {
				m.Contains(rngArr[i])
			}
		})
	}
}
