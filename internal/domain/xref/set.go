package xref

import (
	"sync"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
)

// Reference is one canonical cross-reference.
type Reference struct {
	Namespace string `json:"ns"`
	Value     string `json:"value"`
}

// ID returns the canonical id ("chebi:16842").
func (r Reference) ID() string { return aop.CanonicalID(r.Namespace, r.Value) }

// Set is the cross-reference set of one key.  A value already recorded under
// the same namespace is not added twice.  The zero value is empty and ready
// to use.
type Set struct {
	refs []Reference
	seen map[Reference]struct{}
}

// NewSet builds a set from refs.
func NewSet(refs ...Reference) *Set {
	s := &Set{}
	for _, r := range refs {
		s.Add(r.Namespace, r.Value)
	}
	return s
}

// Add records namespace:value and reports whether it was new.  Empty values
// are ignored.
func (s *Set) Add(namespace, value string) bool {
	if value == "" || namespace == "" {
		return false
	}
	r := Reference{namespace, value}
	if s.seen == nil {
		s.seen = make(map[Reference]struct{})
	}
	if _, ok := s.seen[r]; ok {
		return false
	}
	s.seen[r] = struct{}{}
	s.refs = append(s.refs, r)
	return true
}

// Merge adds every reference of o.
func (s *Set) Merge(o *Set) {
	if o == nil {
		return
	}
	for _, r := range o.refs {
		s.Add(r.Namespace, r.Value)
	}
}

// Refs returns the references in insertion order.
func (s *Set) Refs() []Reference {
	if s == nil || len(s.refs) == 0 {
		return nil
	}
	out := make([]Reference, len(s.refs))
	copy(out, s.refs)
	return out
}

// Values returns the values recorded under namespace.
func (s *Set) Values(namespace string) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, r := range s.refs {
		if r.Namespace == namespace {
			out = append(out, r.Value)
		}
	}
	return out
}

// Len returns the number of references.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.refs)
}

// Path records how a result was obtained.
type Path string

const (
	PathBatch      Path = "batch"
	PathIndividual Path = "individual"
	PathCache      Path = "cache"
	PathDisabled   Path = "disabled"
)

// Result is the outcome for one key: a reference set, possibly empty, and
// the soft error that made it empty when resolution failed.  Err never
// makes a run fail.
type Result struct {
	Key  string
	Refs *Set
	Path Path
	Err  error
}

// Failed reports whether resolution degraded to an empty set.
func (r Result) Failed() bool { return r.Err != nil }

// Registry is the run-wide set of unique identifiers per namespace.  It is
// safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	byNS map[string]*aop.OrderedSet
	ns   []string
}

func NewRegistry() *Registry {
	return &Registry{byNS: make(map[string]*aop.OrderedSet)}
}

// Record adds every reference of set.
func (r *Registry) Record(set *Set) {
	if set == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ref := range set.refs {
		values, ok := r.byNS[ref.Namespace]
		if !ok {
			values = &aop.OrderedSet{}
			r.byNS[ref.Namespace] = values
			r.ns = append(r.ns, ref.Namespace)
		}
		values.Add(ref.Value)
	}
}

// Values returns the unique values of namespace in first-seen order.
func (r *Registry) Values(namespace string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if values, ok := r.byNS[namespace]; ok {
		return values.Items()
	}
	return nil
}

// Namespaces returns the namespaces seen, in first-seen order.
func (r *Registry) Namespaces() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ns...)
}

// Len returns the number of unique identifiers across namespaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, values := range r.byNS {
		n += values.Len()
	}
	return n
}
