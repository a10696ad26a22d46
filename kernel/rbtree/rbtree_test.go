package rbtree_test

import (
	"testing"

	"norn/kernel/rbtree"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type RBTreeSuite struct{}

var _ = check.Suite(&RBTreeSuite{})

type elem struct {
	key  int
	node rbtree.Node[elem]
}

func (e *elem) RBNode() *rbtree.Node[elem] { return &e.node }

func newElem(k int) *elem { return &elem{key: k} }

func cmpElem(a, b *elem) int { return a.key - b.key }

func cmpKey(k int, b *elem) int { return k - b.key }

// checkInvariants walks the tree bottom-up, verifying the five red-black
// properties named in spec.md §8: a black root, no red node with a red
// child, equal black-height on every root-to-leaf path, parent pointers
// consistent with child pointers, and an in-order traversal that is sorted.
func checkInvariants(c *check.C, t *rbtree.Tree[elem]) {
	var prev *elem
	sorted := true
	count := 0
	t.InOrder(func(e *elem) bool {
		if prev != nil && prev.key > e.key {
			sorted = false
		}
		prev = e
		count++
		return true
	})
	c.Assert(sorted, check.Equals, true)
	c.Assert(count, check.Equals, t.Len())

	if t.Root() == nil {
		return
	}

	c.Assert(rbtree.IsRed[elem](t.Root()), check.Equals, false)

	blackHeight := -1
	var walk func(v *elem, blacks int)
	walk = func(v *elem, blacks int) {
		if v == nil {
			if blackHeight == -1 {
				blackHeight = blacks
			} else {
				c.Assert(blacks, check.Equals, blackHeight)
			}
			return
		}

		left, right := rbtree.Left[elem](v), rbtree.Right[elem](v)
		if rbtree.IsRed[elem](v) {
			c.Assert(rbtree.IsRed[elem](left), check.Equals, false)
			c.Assert(rbtree.IsRed[elem](right), check.Equals, false)
		}

		if left != nil {
			c.Assert(rbtree.Parent[elem](left), check.Equals, v)
		}
		if right != nil {
			c.Assert(rbtree.Parent[elem](right), check.Equals, v)
		}

		nextBlacks := blacks
		if !rbtree.IsRed[elem](v) {
			nextBlacks++
		}
		walk(left, nextBlacks)
		walk(right, nextBlacks)
	}
	walk(t.Root(), 0)
}

func (s *RBTreeSuite) TestInsertShape(c *check.C) {
	// Scenario S1: inserting keys 5,3,4,2,1 in that order.
	tr := rbtree.New[elem](cmpElem)
	for _, k := range []int{5, 3, 4, 2, 1} {
		tr.Insert(newElem(k))
	}
	checkInvariants(c, tr)
	c.Assert(tr.Len(), check.Equals, 5)
	c.Assert(tr.Root().key, check.Equals, 4)

	var got []int
	tr.InOrder(func(e *elem) bool {
		got = append(got, e.key)
		return true
	})
	c.Assert(got, check.DeepEquals, []int{1, 2, 3, 4, 5})
}

func (s *RBTreeSuite) TestDeleteChain(c *check.C) {
	// Scenario S2: insert 4,2,6,1,3,5,7 then delete 4,7,2,3,1,5,6 in order,
	// checking invariants after every single step.
	tr := rbtree.New[elem](cmpElem)
	byKey := map[int]*elem{}
	for _, k := range []int{4, 2, 6, 1, 3, 5, 7} {
		e := newElem(k)
		byKey[k] = e
		tr.Insert(e)
		checkInvariants(c, tr)
	}

	for _, k := range []int{4, 7, 2, 3, 1, 5, 6} {
		tr.Delete(byKey[k])
		checkInvariants(c, tr)
	}
	c.Assert(tr.Len(), check.Equals, 0)
	c.Assert(tr.Root(), check.IsNil)
}

func (s *RBTreeSuite) TestMinMaxSuccessor(c *check.C) {
	tr := rbtree.New[elem](cmpElem)
	for _, k := range []int{10, 20, 30, 5, 15, 25, 35} {
		tr.Insert(newElem(k))
	}

	c.Assert(tr.Min().key, check.Equals, 5)
	c.Assert(tr.Max().key, check.Equals, 35)

	var got []int
	for e := tr.Min(); e != nil; e = tr.Successor(e) {
		got = append(got, e.key)
	}
	c.Assert(got, check.DeepEquals, []int{5, 10, 15, 20, 25, 30, 35})
}

func (s *RBTreeSuite) TestFindAndLowerBound(c *check.C) {
	tr := rbtree.New[elem](cmpElem)
	for _, k := range []int{10, 20, 30, 40} {
		tr.Insert(newElem(k))
	}

	c.Assert(rbtree.Find(tr, 20, cmpKey).key, check.Equals, 20)
	c.Assert(rbtree.Find(tr, 25, cmpKey), check.IsNil)

	c.Assert(rbtree.LowerBound(tr, 25, cmpKey).key, check.Equals, 30)
	c.Assert(rbtree.LowerBound(tr, 30, cmpKey).key, check.Equals, 30)
	c.Assert(rbtree.LowerBound(tr, 41, cmpKey), check.IsNil)
}

func (s *RBTreeSuite) TestEmptyTree(c *check.C) {
	tr := rbtree.New[elem](cmpElem)
	c.Assert(tr.Len(), check.Equals, 0)
	c.Assert(tr.Root(), check.IsNil)
	c.Assert(tr.Min(), check.IsNil)
	c.Assert(tr.Max(), check.IsNil)
}

func (s *RBTreeSuite) TestLargeRandomizedShape(c *check.C) {
	tr := rbtree.New[elem](cmpElem)
	keys := make([]*elem, 0, 64)
	// A fixed (not random: rand.Int is unavailable at this layer) permutation
	// large enough to exercise every rebalancing case on both insert and
	// delete at least once.
	perm := []int{31, 7, 58, 2, 44, 19, 63, 11, 3, 50, 27, 38, 1, 60, 15, 22,
		9, 41, 33, 5, 55, 24, 13, 47, 62, 8, 29, 17, 36, 4, 52, 21}
	for _, k := range perm {
		e := newElem(k)
		keys = append(keys, e)
		tr.Insert(e)
		checkInvariants(c, tr)
	}

	for i := 0; i < len(keys); i += 2 {
		tr.Delete(keys[i])
		checkInvariants(c, tr)
	}
	c.Assert(tr.Len(), check.Equals, len(perm)/2)
}
