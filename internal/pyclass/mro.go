package pyclass

// linearize computes the C3 order, the class itself first. Hierarchies a
// real interpreter would reject at class creation fall back to a
// depth-first approximation so checking can still proceed.
func (c *Class) linearize() []*Class {
	if c.mro == nil {
		c.mro = computeMRO(c, make(map[*Class]bool))
	}
	return c.mro
}

func computeMRO(c *Class, active map[*Class]bool) []*Class {
	if c.mro != nil {
		return c.mro
	}
	// A base cycle can only come from contradictory conditional
	// definitions; cut it rather than recurse forever.
	if active[c] {
		return []*Class{c}
	}
	if len(c.bases) == 0 {
		c.mro = []*Class{c}
		return c.mro
	}

	active[c] = true
	seqs := make([][]*Class, 0, len(c.bases)+1)
	for _, b := range c.bases {
		seqs = append(seqs, append([]*Class(nil), computeMRO(b, active)...))
	}
	seqs = append(seqs, append([]*Class(nil), c.bases...))
	delete(active, c)

	merged, ok := c3Merge(seqs)
	if !ok {
		c.mro = depthFirst(c)
		return c.mro
	}
	out := make([]*Class, 0, len(merged)+1)
	out = append(out, c)
	for _, a := range merged {
		if a != c {
			out = append(out, a)
		}
	}
	c.mro = out
	return c.mro
}

func c3Merge(seqs [][]*Class) ([]*Class, bool) {
	var out []*Class
	for {
		live := seqs[:0]
		for _, s := range seqs {
			if len(s) > 0 {
				live = append(live, s)
			}
		}
		seqs = live
		if len(seqs) == 0 {
			return out, true
		}
		next := pickHead(seqs)
		if next == nil {
			return nil, false
		}
		out = append(out, next)
		for i, s := range seqs {
			if s[0] == next {
				seqs[i] = s[1:]
			}
		}
	}
}

// pickHead returns the first sequence head that appears in no tail, the C3
// candidate rule.
func pickHead(seqs [][]*Class) *Class {
	for _, s := range seqs {
		if !inTail(s[0], seqs) {
			return s[0]
		}
	}
	return nil
}

func inTail(head *Class, seqs [][]*Class) bool {
	for _, s := range seqs {
		for _, x := range s[1:] {
			if x == head {
				return true
			}
		}
	}
	return false
}

func depthFirst(c *Class) []*Class {
	var order []*Class
	seen := make(map[*Class]bool)
	var walk func(*Class)
	walk = func(x *Class) {
		if seen[x] {
			return
		}
		seen[x] = true
		order = append(order, x)
		for _, b := range x.bases {
			walk(b)
		}
	}
	walk(c)
	return order
}
