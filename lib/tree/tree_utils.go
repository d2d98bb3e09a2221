package tree

import (
	"strings"

	"github.com/benz9527/treebench/lib/infra"
)

type Kind uint8

const (
	BST Kind = iota
	Splay
	RedBlack
	_kindMax
)

var kindNames = [_kindMax]string{
	BST:      "BST",
	Splay:    "Splay Tree",
	RedBlack: "RB Tree",
}

func (k Kind) String() string {
	if k >= _kindMax {
		return "Unknown"
	}
	return kindNames[k]
}

// Kinds lists every structure in the order they are benchmarked by default.
func Kinds() []Kind {
	return []Kind{BST, Splay, RedBlack}
}

// ParseKind accepts the short config names.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bst":
		return BST, nil
	case "splay", "splaytree":
		return Splay, nil
	case "rb", "rbtree", "redblack":
		return RedBlack, nil
	default:
	}
	return _kindMax, infra.NewErrorStackf("[tree] unknown tree kind %q", name)
}

func NewOrderedMap[K infra.Integer, V any](kind Kind) OrderedMap[K, V] {
	switch kind {
	case BST:
		return NewBSTree[K, V]()
	case Splay:
		return NewSplayTree[K, V]()
	case RedBlack:
		return NewRBTree[K, V]()
	default:
	}
	// impossible run to here
	panic( /* debug assertion */ "[tree] unknown tree kind")
}

// OrderViolationValidate checks the in-order walk is strictly increasing
// and visits exactly Len() keys.
// The walk never splays, so it is safe to run on a splay tree without
// changing its shape.
func OrderViolationValidate[K infra.Integer, V any](m OrderedMap[K, V]) (err error) {
	var (
		prev  K
		count int64
	)
	m.Foreach(func(idx int64, key K, val V) bool {
		if idx > 0 && prev >= key {
			err = infra.NewErrorStackf("order violation at index %d: %d after %d", idx, key, prev)
			return false
		}
		prev = key
		count++
		return true
	})
	if err != nil {
		return err
	}
	if count != m.Len() {
		return infra.NewErrorStackf("count violation: %d reachable, %d recorded", count, m.Len())
	}
	return nil
}

// Keys collects the in-order keys.
func Keys[K infra.Integer, V any](m OrderedMap[K, V]) []K {
	keys := make([]K, 0, m.Len())
	m.Foreach(func(idx int64, key K, val V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
