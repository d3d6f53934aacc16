package runner

// setOnce is an int cell that keeps the first value it is given. The sticky
// "first failed" aggregate fields are built from these instead of scattering
// not-already-set checks through the run loop.
type setOnce struct {
	value int
	armed bool
}

// Set stores v if the cell is still empty and reports whether it did.
func (c *setOnce) Set(v int) bool {
	if c.armed {
		return false
	}
	c.value = v
	c.armed = true
	return true
}

// Get returns the stored value, or 0 when the cell was never set.
func (c *setOnce) Get() int {
	return c.value
}

// IsSet reports whether the cell holds a value.
func (c *setOnce) IsSet() bool {
	return c.armed
}
