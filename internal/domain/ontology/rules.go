// Package ontology canonicalizes the ontology-term records of an export
// (taxonomies, biological processes, objects and actions, cell and organ
// contexts) and keeps the per-export term tables the assembler resolves
// biological events against.
package ontology

import (
	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
)

// Rule rewrites a source id into a canonical id: Namespace + ":" +
// sourceID[Offset:].  Offset strips the source's own prefix, e.g. 3 for
// "GO:" and 7 for "UBERON:".
type Rule struct {
	Namespace string
	Offset    int
}

// Apply returns the canonical id, or ok=false when sourceID is too short
// for the offset.
func (r Rule) Apply(sourceID string) (string, bool) {
	if r.Offset >= len(sourceID) {
		return "", false
	}
	return aop.CanonicalID(r.Namespace, sourceID[r.Offset:]), true
}

// RuleSet maps a source vocabulary tag to its rule.
type RuleSet map[string]Rule

var processRules = RuleSet{
	"GO":   {"go", 3},
	"MI":   {"mi", 0},
	"MP":   {"mp", 3},
	"MESH": {"mesh", 0},
	"HP":   {"hp", 3},
	"PCO":  {"pco", 4},
	"NBO":  {"nbo", 4},
	"VT":   {"vt", 3},
	"RBO":  {"rbo", 4},
	"NCI":  {"nci", 4},
	"IDO":  {"ido", 4},
}

var objectRules = RuleSet{
	"PR":     {"pr", 3},
	"CL":     {"cl", 3},
	"MESH":   {"mesh", 0},
	"GO":     {"go", 3},
	"UBERON": {"uberon", 7},
	"CHEBI":  {"chebio", 6},
	"MP":     {"mp", 3},
	"FMA":    {"fma", 4},
	"PCO":    {"pco", 4},
}

var cellRules = RuleSet{
	"CL":     {"cl", 3},
	"UBERON": {"uberon", 7},
}

var organRules = RuleSet{
	"UBERON": {"uberon", 7},
}

var taxonomyRules = RuleSet{
	"NCBI": {"ncbitaxon", 0},
}

// RulesFor returns the rule set of kind.  Biological actions have none:
// they are always literal.
func RulesFor(kind aop.EntityType) RuleSet {
	switch kind {
	case aop.EntityBiologicalProcess:
		return processRules
	case aop.EntityBiologicalObject:
		return objectRules
	case aop.EntityCellTerm:
		return cellRules
	case aop.EntityOrganTerm:
		return organRules
	case aop.EntityTaxonomy:
		return taxonomyRules
	}
	return nil
}

// Canonicalize derives the identity of a term.  Sources without a rule keep
// the raw source id as a literal; biological actions use their name.
func Canonicalize(kind aop.EntityType, source, sourceID, name string) (id string, literal bool) {
	if kind == aop.EntityBiologicalAction {
		return name, true
	}
	if rule, ok := RulesFor(kind)[source]; ok {
		if id, ok := rule.Apply(sourceID); ok {
			return id, false
		}
	}
	return sourceID, true
}

// NewTerm builds a canonicalized term record.
func NewTerm(kind aop.EntityType, localID, source, sourceID, name string) *aop.Term {
	id, literal := Canonicalize(kind, source, sourceID, name)
	return &aop.Term{
		Kind:     kind,
		LocalID:  localID,
		Source:   source,
		SourceID: sourceID,
		Name:     name,
		ID:       id,
		Literal:  literal,
	}
}
