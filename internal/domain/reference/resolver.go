// Package reference maps the transient local ids of one AOP-Wiki export to
// the stable AOP-Wiki numbers, using the reference tables of the export's
// vendor-specific section.
package reference

import (
	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/source/aopxml"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

const (
	attrLocalID  = "id"
	attrStableID = "aop-wiki-id"
)

// tables lists the reference element of each resolvable entity type.
var tables = []struct {
	entity    aop.EntityType
	tag       string
	namespace string
}{
	{aop.EntityAOP, aopxml.TagAOPReference, aop.NamespaceAOP},
	{aop.EntityKeyEvent, aopxml.TagKeyEventReference, aop.NamespaceKE},
	{aop.EntityKER, aopxml.TagKeyEventRelationshipReference, aop.NamespaceKER},
	{aop.EntityStressor, aopxml.TagStressorReference, aop.NamespaceStressor},
}

// Resolver answers local id -> stable id lookups.  It is read-only after
// construction and safe for concurrent use.
type Resolver struct {
	tables     map[aop.EntityType]map[string]string
	namespaces map[aop.EntityType]string
}

// New returns an empty resolver; Register fills it.  Build is the normal
// constructor.
func New() *Resolver {
	r := &Resolver{
		tables:     make(map[aop.EntityType]map[string]string, len(tables)),
		namespaces: make(map[aop.EntityType]string, len(tables)),
	}
	for _, t := range tables {
		r.tables[t.entity] = make(map[string]string)
		r.namespaces[t.entity] = t.namespace
	}
	return r
}

// Build reads the four reference tables of doc.
func Build(doc *aopxml.Document) (*Resolver, error) {
	vs := doc.VendorSpecific()
	if vs == nil {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "missing vendor-specific section")
	}
	r := New()
	for _, t := range tables {
		for _, ref := range vs.All(t.tag) {
			if err := r.Register(t.entity, ref.Attr(attrLocalID), ref.Attr(attrStableID)); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Register adds one mapping.  Registering the same local id twice with a
// different stable id is an error; the same pair is accepted again.
func (r *Resolver) Register(entity aop.EntityType, localID, stableID string) error {
	table, ok := r.tables[entity]
	if !ok {
		return errors.New(errors.ErrCodeUnknownEntityType, "entity type has no reference table").
			WithDetail("entity=" + string(entity))
	}
	if localID == "" || stableID == "" {
		return errors.New(errors.ErrCodeMalformedDocument, "reference entry without id").
			WithDetail("entity=" + string(entity) + " local_id=" + localID)
	}
	if prev, dup := table[localID]; dup && prev != stableID {
		return errors.New(errors.ErrCodeDuplicateReference, "local id registered twice").
			WithDetail("entity=" + string(entity) + " local_id=" + localID + " stable_ids=" + prev + "," + stableID)
	}
	table[localID] = stableID
	return nil
}

// Resolve returns the stable id of localID, or an UnknownReference error.
func (r *Resolver) Resolve(entity aop.EntityType, localID string) (string, error) {
	table, ok := r.tables[entity]
	if !ok {
		return "", errors.New(errors.ErrCodeUnknownEntityType, "entity type has no reference table").
			WithDetail("entity=" + string(entity))
	}
	stable, ok := table[localID]
	if !ok {
		return "", errors.UnknownReference(string(entity), localID)
	}
	return stable, nil
}

// Canonical resolves localID and qualifies it with the entity namespace
// ("aop.events:888").
func (r *Resolver) Canonical(entity aop.EntityType, localID string) (string, error) {
	stable, err := r.Resolve(entity, localID)
	if err != nil {
		return "", err
	}
	return aop.CanonicalID(r.namespaces[entity], stable), nil
}

// Has reports whether localID is registered for entity.
func (r *Resolver) Has(entity aop.EntityType, localID string) bool {
	_, ok := r.tables[entity][localID]
	return ok
}

// Count returns the number of registered entries for entity.
func (r *Resolver) Count(entity aop.EntityType) int {
	return len(r.tables[entity])
}
