package ontology

import (
	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// Table holds the terms of one kind declared by an export, keyed by local
// id.  The empty local id resolves to the kind's no-annotation record.
type Table struct {
	kind  aop.EntityType
	none  *aop.Term
	terms map[string]*aop.Term
	order []*aop.Term
}

func NewTable(kind aop.EntityType) *Table {
	return &Table{
		kind:  kind,
		none:  aop.NoAnnotation(kind),
		terms: make(map[string]*aop.Term),
	}
}

// Add canonicalizes and stores a term.  A repeated local id replaces the
// earlier record.
func (t *Table) Add(localID, source, sourceID, name string) *aop.Term {
	term := NewTerm(t.kind, localID, source, sourceID, name)
	if _, dup := t.terms[localID]; !dup {
		t.order = append(t.order, term)
	} else {
		for i, prev := range t.order {
			if prev.LocalID == localID {
				t.order[i] = term
				break
			}
		}
	}
	t.terms[localID] = term
	return term
}

// Lookup resolves localID.  The empty id yields the no-annotation record;
// an unregistered id is an UnknownReference.
func (t *Table) Lookup(localID string) (*aop.Term, error) {
	if localID == "" {
		return t.none, nil
	}
	term, ok := t.terms[localID]
	if !ok {
		return nil, errors.UnknownReference(string(t.kind), localID)
	}
	return term, nil
}

// Terms returns the stored terms in declaration order.
func (t *Table) Terms() []*aop.Term {
	out := make([]*aop.Term, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Table) Kind() aop.EntityType { return t.kind }
func (t *Table) Len() int             { return len(t.order) }
