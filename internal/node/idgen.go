package node

// Sequence hands out locally unique identifiers in increasing order.
type Sequence[ID any] interface {
	// Begin is the baseline the sequence starts from.
	Begin() ID
	// Reserve returns the current value and advances past it.
	Reserve() ID
	// Current returns the value the next Reserve will hand out.
	Current() ID
}

// Counter is a gap-free uint64 Sequence starting at 0. The zero value is ready to use.
type Counter struct {
	next uint64
}

func NewCounter() *Counter {
	c := &Counter{}
	c.next = c.Begin()
	return c
}

func (*Counter) Begin() uint64 {
	return 0
}

func (c *Counter) Reserve() uint64 {
	n := c.next
	c.next++
	return n
}

func (c *Counter) Current() uint64 {
	return c.next
}
