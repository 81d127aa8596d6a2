package equix

// expand resolves a parent reference into the two entry ids it was built from
func expand[I uint16 | uint32](t *coarseTable[I], ref uint32) (I, I) {
	bucket, left, right := unpackParent(ref)
	return t.index[bucket][left], t.index[-bucket][right]
}

// reconstruct walks a stage-3 candidate down to its eight leaf indices in
// tree order. References are only valid against the workspace state of the
// attempt that produced them.
func (w *Workspace) reconstruct(c candidate) Solution {
	var s Solution
	pos := 0
	for _, ref3 := range c {
		a, b := expand(&w.stage2, ref3)
		for _, ref2 := range [2]uint32{a, b} {
			x, y := expand(&w.stage1, ref2)
			s[pos], s[pos+1] = x, y
			pos += 2
		}
	}
	return s
}
