package main

// nucleotides is the alphabet barcodes and anchors are drawn from.
const nucleotides = "ACGTN"

// anchorMatcher recognizes reads carrying the anchor at a fixed offset,
// tolerating a configured number of substitutions.
type anchorMatcher struct {
	offset int
	length int
	accept map[string]struct{}
}

func newAnchorMatcher(anchor string, offset, distance int) *anchorMatcher {
	accept := make(map[string]struct{})
	for _, variant := range mismatches(anchor, distance) {
		accept[variant] = struct{}{}
	}
	return &anchorMatcher{offset: offset, length: len(anchor), accept: accept}
}

// match reports whether seq carries an accepted anchor. seq must be upper case.
func (m *anchorMatcher) match(seq []byte) bool {
	end := m.offset + m.length
	if len(seq) < end {
		return false
	}
	_, ok := m.accept[string(seq[m.offset:end])]
	return ok
}

// variants is the number of anchor spellings accepted.
func (m *anchorMatcher) variants() int {
	return len(m.accept)
}

// mismatches expands input into every sequence within distance
// substitutions over the nucleotide alphabet, input included.
func mismatches(input string, distance int) (out []string) {
	toCheck := []string{input}
	seen := make(map[string]struct{}) // avoid double-counting

	for ; distance >= 0; distance-- {
		nextCheck := make([]string, 0, len(input)*(len(nucleotides)-1))

		for _, cur := range toCheck {
			seen[cur] = struct{}{}
			if distance == 0 {
				continue
			}
			for i := 0; i < len(cur); i++ {
				c := cur[i]
				for j := 0; j < len(nucleotides); j++ {
					replacement := nucleotides[j]
					if replacement == c {
						continue
					}
					variant := cur[:i] + string(replacement) + cur[i+1:]
					if _, alreadySeen := seen[variant]; !alreadySeen {
						nextCheck = append(nextCheck, variant)
					}
				}
			}
		}
		toCheck = nextCheck
	}
	for k := range seen {
		out = append(out, k)
	}
	return out
}
