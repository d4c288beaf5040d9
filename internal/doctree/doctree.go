package doctree

// Section is one heading-delimited block of a document.
type Section struct {
	SourceTitle string // Display name of the originating document ("" for the active document)
	Heading     string // Heading line with its marker stripped and trimmed
	Body        string // Following lines, each terminated by "\n"
}

// TargetSet is an insertion-ordered mapping from target heading text to the
// sections matched against it.
type TargetSet struct {
	keys    []string
	matches map[string][]Section
}

// NewTargetSet seeds a set with the given headings. Duplicates keep their
// first position.
func NewTargetSet(headings []string) *TargetSet {
	ts := &TargetSet{matches: make(map[string][]Section, len(headings))}
	for _, h := range headings {
		ts.Add(h)
	}
	return ts
}

// Add registers a heading if it is not already present.
func (ts *TargetSet) Add(heading string) {
	if _, ok := ts.matches[heading]; ok {
		return
	}
	ts.keys = append(ts.keys, heading)
	ts.matches[heading] = nil
}

// Keys returns headings in document order.
func (ts *TargetSet) Keys() []string {
	out := make([]string, len(ts.keys))
	copy(out, ts.keys)
	return out
}

// Len returns the number of target headings.
func (ts *TargetSet) Len() int {
	return len(ts.keys)
}

// Has reports whether heading is a target.
func (ts *TargetSet) Has(heading string) bool {
	_, ok := ts.matches[heading]
	return ok
}

// Append records a matched section under heading. Unknown headings are ignored.
func (ts *TargetSet) Append(heading string, s Section) {
	if _, ok := ts.matches[heading]; !ok {
		return
	}
	ts.matches[heading] = append(ts.matches[heading], s)
}

// Matches returns the sections matched against heading, in match order.
func (ts *TargetSet) Matches(heading string) []Section {
	return ts.matches[heading]
}
