package aop

// Term is an ontology-term record: a taxonomy, a biological process, object
// or action, or a cell or organ context.  ID is the canonical identifier
// derived from Source and SourceID; when no canonicalization rule applies ID
// is the raw value and Literal is true.
type Term struct {
	Kind     EntityType
	LocalID  string
	Source   string
	SourceID string
	Name     string
	ID       string
	Literal  bool
	None     bool
}

// NoAnnotation returns the placeholder record of kind that stands for an
// absent annotation.  It is never emitted.
func NoAnnotation(kind EntityType) *Term {
	return &Term{Kind: kind, None: true}
}

// IsNone reports whether t is absent or the placeholder record.
func (t *Term) IsNone() bool {
	return t == nil || t.None
}

// Subject reports whether t may appear as a graph node.
func (t *Term) Subject() bool {
	return !t.IsNone() && !t.Literal && t.ID != ""
}
