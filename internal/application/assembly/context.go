// Package assembly turns a parsed AOP-Wiki export into the entity graph:
// it resolves local references, canonicalizes ontology terms, extracts gene
// mentions from free text, resolves chemical and gene cross-references in
// one batch per kind and derives the reverse edges.
package assembly

import (
	"regexp"
	"strings"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/internal/domain/ontology"
	"github.com/turtacn/aopwiki-graph/internal/domain/reference"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/source/aopxml"
)

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// stripHTML removes markup from a free-text field.
func stripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(htmlTag.ReplaceAllString(s, ""))
}

// Context is the state of one assembly run.  Nothing in it outlives the
// run.
type Context struct {
	Doc    *aopxml.Document
	Refs   *reference.Resolver
	Graph  *aop.Graph
	Report *aop.Report
	Logger logging.Logger

	Taxonomy  *ontology.Table
	Processes *ontology.Table
	Objects   *ontology.Table
	Actions   *ontology.Table

	// chemicals indexes chemical records by export-local id.
	chemicals map[string]*aop.Chemical
	// contexts dedups cell and organ terms, which have no local id.
	contexts map[string]*aop.Term
	// keyEventRefs records every key event an AOP or KER points at.
	keyEventRefs []keyEventRef
}

type keyEventRef struct {
	local string
	id    string
}

func newContext(doc *aopxml.Document, refs *reference.Resolver, logger logging.Logger) *Context {
	return &Context{
		Doc:       doc,
		Refs:      refs,
		Graph:     aop.NewGraph(),
		Report:    &aop.Report{},
		Logger:    logger,
		Taxonomy:  ontology.NewTable(aop.EntityTaxonomy),
		Processes: ontology.NewTable(aop.EntityBiologicalProcess),
		Objects:   ontology.NewTable(aop.EntityBiologicalObject),
		Actions:   ontology.NewTable(aop.EntityBiologicalAction),
		chemicals: make(map[string]*aop.Chemical),
		contexts:  make(map[string]*aop.Term),
	}
}

// contextTerm returns the shared record for a cell or organ term.
func (c *Context) contextTerm(kind aop.EntityType, n *aopxml.Node) *aop.Term {
	if n == nil {
		return aop.NoAnnotation(kind)
	}
	t := ontology.NewTerm(kind, "", n.String("source"), n.String("source-id"), n.String("name"))
	key := string(kind) + "|" + t.ID
	if prev, ok := c.contexts[key]; ok {
		return prev
	}
	c.contexts[key] = t
	c.Graph.AddTerm(t)
	return t
}
