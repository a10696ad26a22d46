package ring_test

import (
	"testing"

	"norn/kernel/ring"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type RingSuite struct{}

var _ = check.Suite(&RingSuite{})

func (s *RingSuite) TestPushPopOrder(c *check.C) {
	b := ring.New[int](4)
	c.Assert(b.Empty(), check.Equals, true)

	for _, v := range []int{1, 2, 3} {
		c.Assert(b.Push(v), check.Equals, true)
	}
	c.Assert(b.Len(), check.Equals, 3)

	for _, want := range []int{1, 2, 3} {
		got, ok := b.Pop()
		c.Assert(ok, check.Equals, true)
		c.Assert(got, check.Equals, want)
	}
	c.Assert(b.Empty(), check.Equals, true)
}

func (s *RingSuite) TestFullRejectsPush(c *check.C) {
	// Scenario S3: a 4-element buffer fills after 4 pushes; the 5th push
	// must be rejected without disturbing the queued elements.
	b := ring.New[int](4)
	for _, v := range []int{10, 20, 30, 40} {
		c.Assert(b.Push(v), check.Equals, true)
	}
	c.Assert(b.Full(), check.Equals, true)
	c.Assert(b.Push(50), check.Equals, false)
	c.Assert(b.Len(), check.Equals, 4)

	got, ok := b.Pop()
	c.Assert(ok, check.Equals, true)
	c.Assert(got, check.Equals, 10)
}

func (s *RingSuite) TestWrapAround(c *check.C) {
	b := ring.New[int](3)
	c.Assert(b.Push(1), check.Equals, true)
	c.Assert(b.Push(2), check.Equals, true)
	v, _ := b.Pop()
	c.Assert(v, check.Equals, 1)
	c.Assert(b.Push(3), check.Equals, true)
	c.Assert(b.Push(4), check.Equals, true)
	c.Assert(b.Full(), check.Equals, true)

	var got []int
	for {
		v, ok := b.Pop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	c.Assert(got, check.DeepEquals, []int{2, 3, 4})
}

func (s *RingSuite) TestPeekDoesNotRemove(c *check.C) {
	b := ring.New[int](2)
	b.Push(7)
	v, ok := b.Peek()
	c.Assert(ok, check.Equals, true)
	c.Assert(v, check.Equals, 7)
	c.Assert(b.Len(), check.Equals, 1)
}

func (s *RingSuite) TestPushManyPopMany(c *check.C) {
	b := ring.New[int](4)
	n := b.PushMany([]int{1, 2, 3, 4, 5})
	c.Assert(n, check.Equals, 4)

	out := make([]int, 10)
	n = b.PopMany(out)
	c.Assert(n, check.Equals, 4)
	c.Assert(out[:n], check.DeepEquals, []int{1, 2, 3, 4})
}

func (s *RingSuite) TestEmptyPopAndPeek(c *check.C) {
	b := ring.New[string](2)
	_, ok := b.Pop()
	c.Assert(ok, check.Equals, false)
	_, ok = b.Peek()
	c.Assert(ok, check.Equals, false)
}
