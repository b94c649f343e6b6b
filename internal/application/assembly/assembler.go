package assembly

import (
	"context"
	"time"

	"github.com/turtacn/aopwiki-graph/internal/application/resolution"
	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/internal/domain/gene"
	"github.com/turtacn/aopwiki-graph/internal/domain/reference"
	"github.com/turtacn/aopwiki-graph/internal/domain/xref"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/source/aopxml"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// Assembler builds an entity graph from a parsed export.
type Assembler struct {
	extractor *gene.Extractor
	resolver  resolution.Service
	logger    logging.Logger
}

// NewAssembler wires an assembler.  A nil extractor disables gene
// extraction; a nil resolver leaves chemicals and genes without
// cross-references.
func NewAssembler(extractor *gene.Extractor, resolver resolution.Service, logger logging.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Assembler{
		extractor: extractor,
		resolver:  resolver,
		logger:    logger.Named("assembly"),
	}
}

// Assemble parses doc, resolves identifiers and derives the reverse edges.
// Reference and required-field errors abort; resolution failures only
// degrade the affected keys and are listed in the report.
func (a *Assembler) Assemble(ctx context.Context, doc *aopxml.Document, meta aop.Metadata) (*aop.Graph, *aop.Report, error) {
	start := time.Now()
	refs, err := reference.Build(doc)
	if err != nil {
		return nil, nil, err
	}
	c := newContext(doc, refs, a.logger)
	c.Graph.Metadata = meta

	c.parseTerms()
	c.parseChemicals()
	for _, step := range []func() error{
		c.parseStressors,
		c.parseAOPs,
		c.parseKeyEvents,
		c.parseKeyEventRelationships,
		c.checkKeyEventReferences,
	} {
		if err := step(); err != nil {
			return nil, nil, err
		}
	}
	a.extractGenes(c)

	if err := a.resolveChemicals(ctx, c); err != nil {
		return nil, nil, err
	}
	if err := a.resolveGenes(ctx, c); err != nil {
		return nil, nil, err
	}

	c.Graph.LinkBackReferences()
	c.Report.Counts = c.Graph.Counts()

	a.logger.Info("graph assembled",
		logging.Int("aops", len(c.Graph.AOPs)),
		logging.Int("key_events", len(c.Graph.KeyEvents)),
		logging.Int("relationships", len(c.Graph.KeyEventRelationships)),
		logging.Int("genes", len(c.Graph.Genes)),
		logging.Int("identifiers", len(c.Graph.Identifiers)),
		logging.Int("soft_failures", c.Report.SoftFailureCount()),
		logging.Duration("elapsed", time.Since(start)))
	return c.Graph, c.Report, nil
}

// extractGenes scans KE and KER free text.  Every mention is counted; the
// gene node is created once.
func (a *Assembler) extractGenes(c *Context) {
	if a.extractor == nil {
		return
	}
	record := func(set *aop.OrderedSet, texts ...string) {
		for _, text := range texts {
			for _, id := range a.extractor.Extract(text) {
				_, symbol, _ := aop.SplitCanonicalID(id)
				c.Graph.AddGene(symbol)
				c.Report.GeneMentions++
				set.Add(id)
			}
		}
	}
	for _, ke := range c.Graph.KeyEvents {
		record(&ke.Genes, ke.Description)
	}
	for _, ker := range c.Graph.KeyEventRelationships {
		record(&ker.Genes, ker.Description, ker.BiologicalPlausibility, ker.EmpiricalSupport)
	}
}

func (a *Assembler) resolveChemicals(ctx context.Context, c *Context) error {
	var keys []string
	for _, chem := range c.Graph.Chemicals {
		if !chem.Literal {
			keys = append(keys, chem.CASRN)
		}
	}
	results, err := a.resolve(ctx, xref.KindChemical, keys)
	if err != nil {
		return err
	}
	c.recordFailures(xref.KindChemical, keys, results)
	for _, chem := range c.Graph.Chemicals {
		if chem.Literal {
			continue
		}
		res, ok := results[chem.CASRN]
		if !ok {
			continue
		}
		a.fold(c, res, chem.ID, &chem.XRefs)
	}
	return nil
}

func (a *Assembler) resolveGenes(ctx context.Context, c *Context) error {
	keys := make([]string, 0, len(c.Graph.Genes))
	for _, g := range c.Graph.Genes {
		keys = append(keys, g.Symbol)
	}
	results, err := a.resolve(ctx, xref.KindGene, keys)
	if err != nil {
		return err
	}
	c.recordFailures(xref.KindGene, keys, results)
	for _, g := range c.Graph.Genes {
		if res, ok := results[g.Symbol]; ok {
			a.fold(c, res, g.ID, &g.XRefs)
		}
	}
	return nil
}

func (a *Assembler) resolve(ctx context.Context, kind xref.Kind, keys []string) (map[string]xref.Result, error) {
	if a.resolver == nil || len(keys) == 0 {
		return nil, nil
	}
	results, err := a.resolver.ResolveBatch(ctx, kind, keys)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRunFailed, "resolving identifiers").
			WithDetail("kind=" + string(kind))
	}
	return results, nil
}

// recordFailures lists every failed key once, in key order.
func (c *Context) recordFailures(kind xref.Kind, keys []string, results map[string]xref.Result) {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		res, ok := results[k]
		if !ok || !res.Failed() || seen[k] {
			continue
		}
		seen[k] = true
		c.Report.SoftFailures = append(c.Report.SoftFailures, aop.SoftFailure{
			Kind:   string(kind),
			Key:    k,
			Reason: res.Err.Error(),
		})
	}
}

// fold records the identifiers of one result on owner.  Chemicals sharing a
// registry number share the owner id, so each reaches every identifier node.
func (a *Assembler) fold(c *Context, res xref.Result, owner string, out *aop.OrderedSet) {
	if res.Failed() {
		return
	}
	for _, ref := range res.Refs.Refs() {
		label, typeIRI := ref.Namespace, ""
		if ns, ok := xref.LookupNamespace(ref.Namespace); ok {
			label, typeIRI = ns.Label, ns.TypeIRI
		}
		x := c.Graph.UpsertIdentifier(ref.Namespace, ref.Value, label, typeIRI, owner)
		out.Add(x.ID)
	}
}
