package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	driver "github.com/turtacn/aopwiki-graph/internal/infrastructure/database/neo4j"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

const DefaultBatchSize = 500

// Node labels.
const (
	LabelAOP        = "AOP"
	LabelKeyEvent   = "KeyEvent"
	LabelKER        = "KeyEventRelationship"
	LabelStressor   = "Stressor"
	LabelChemical   = "Chemical"
	LabelTerm       = "Term"
	LabelGene       = "Gene"
	LabelIdentifier = "ExternalIdentifier"
)

// Relationship types.
const (
	RelHasKeyEvent  = "HAS_KEY_EVENT"
	RelHasMIE       = "HAS_MOLECULAR_INITIATING_EVENT"
	RelHasAO        = "HAS_ADVERSE_OUTCOME"
	RelHasKER       = "HAS_KEY_EVENT_RELATIONSHIP"
	RelHasStressor  = "HAS_STRESSOR"
	RelUpstream     = "HAS_UPSTREAM_KEY_EVENT"
	RelDownstream   = "HAS_DOWNSTREAM_KEY_EVENT"
	RelHasChemical  = "HAS_CHEMICAL"
	RelMentionsGene = "MENTIONS_GENE"
	RelExactMatch   = "EXACT_MATCH"
	RelAnnotated    = "ANNOTATED_WITH"
)

var nodeLabels = []string{
	LabelAOP, LabelKeyEvent, LabelKER, LabelStressor,
	LabelChemical, LabelTerm, LabelGene, LabelIdentifier,
}

// GraphRepository mirrors an assembled graph into Neo4j.  Every node is
// merged on its canonical id, so writing the same export twice is a no-op.
type GraphRepository interface {
	EnsureConstraints(ctx context.Context) error
	WriteGraph(ctx context.Context, g *aop.Graph) (*WriteStats, error)
}

// WriteStats counts the rows sent per batch statement.
type WriteStats struct {
	Nodes         int
	Relationships int
}

type row = map[string]any

type relRows struct {
	from, rel, to string
	rows          []row
}

type neo4jGraphRepo struct {
	driver    driver.DriverInterface
	batchSize int
	log       logging.Logger
}

func NewNeo4jGraphRepo(d driver.DriverInterface, batchSize int, log logging.Logger) GraphRepository {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &neo4jGraphRepo{driver: d, batchSize: batchSize, log: log}
}

func (r *neo4jGraphRepo) EnsureConstraints(ctx context.Context) error {
	for _, label := range nodeLabels {
		cypher := fmt.Sprintf(
			"CREATE CONSTRAINT %s_id IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE",
			constraintName(label), label)
		if err := r.exec(ctx, cypher, nil); err != nil {
			return errors.Wrap(err, errors.ErrCodeGraphSinkWrite, "failed to create constraint").
				WithDetail("label=" + label)
		}
	}
	return nil
}

func (r *neo4jGraphRepo) WriteGraph(ctx context.Context, g *aop.Graph) (*WriteStats, error) {
	stats := &WriteStats{}
	nodes, rels := project(g)

	for _, label := range nodeLabels {
		rows := nodes[label]
		cypher := fmt.Sprintf("UNWIND $rows AS row MERGE (n:%s {id: row.id}) SET n += row.props", label)
		n, err := r.writeBatches(ctx, cypher, rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeGraphSinkWrite, "failed to write nodes").
				WithDetail("label=" + label)
		}
		stats.Nodes += n
	}

	for _, rr := range rels {
		cypher := fmt.Sprintf(
			"UNWIND $rows AS row MATCH (a:%s {id: row.from}) MATCH (b:%s {id: row.to}) "+
				"MERGE (a)-[r:%s]->(b) SET r += row.props",
			rr.from, rr.to, rr.rel)
		n, err := r.writeBatches(ctx, cypher, rr.rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeGraphSinkWrite, "failed to write relationships").
				WithDetail("type=" + rr.rel)
		}
		stats.Relationships += n
	}

	r.log.Info("graph written to neo4j",
		logging.Int("nodes", stats.Nodes),
		logging.Int("relationships", stats.Relationships))
	return stats, nil
}

func (r *neo4jGraphRepo) writeBatches(ctx context.Context, cypher string, rows []row) (int, error) {
	written := 0
	for start := 0; start < len(rows); start += r.batchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		end := start + r.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := r.exec(ctx, cypher, map[string]any{"rows": rows[start:end]}); err != nil {
			return written, err
		}
		written += end - start
	}
	return written, nil
}

func (r *neo4jGraphRepo) exec(ctx context.Context, cypher string, params map[string]any) error {
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

// project flattens g into node rows per label and relationship rows per
// (from, type, to).  Literal identities are skipped.
func project(g *aop.Graph) (map[string][]row, []*relRows) {
	nodes := make(map[string][]row)
	var rels []*relRows
	index := make(map[string]*relRows)

	node := func(label, id string, props row) {
		nodes[label] = append(nodes[label], row{"id": id, "props": props})
	}
	link := func(from, rel, to, fromID, toID string, props row) {
		key := from + "|" + rel + "|" + to
		rr, ok := index[key]
		if !ok {
			rr = &relRows{from: from, rel: rel, to: to}
			index[key] = rr
			rels = append(rels, rr)
		}
		if props == nil {
			props = row{}
		}
		rr.rows = append(rr.rows, row{"from": fromID, "to": toID, "props": props})
	}

	for _, a := range g.AOPs {
		node(LabelAOP, a.ID(), row{
			"stable_id":   a.StableID,
			"title":       a.Title,
			"short_name":  a.ShortName,
			"abstract":    a.Abstract,
			"wiki_status": a.WikiStatus,
			"oecd_status": a.OECDStatus,
			"page":        a.Page(),
		})
		for _, ke := range a.KeyEvents.Items() {
			link(LabelAOP, RelHasKeyEvent, LabelKeyEvent, a.ID(), ke, nil)
		}
		for _, ke := range a.MolecularInitiatingEvents.Items() {
			link(LabelAOP, RelHasMIE, LabelKeyEvent, a.ID(), ke, nil)
		}
		for _, ke := range a.AdverseOutcomes.Items() {
			link(LabelAOP, RelHasAO, LabelKeyEvent, a.ID(), ke, nil)
		}
		for _, ker := range a.KeyEventRelationships.Items() {
			m := a.KERs[ker]
			link(LabelAOP, RelHasKER, LabelKER, a.ID(), ker, row{
				"adjacency":                  m.Adjacency,
				"quantitative_understanding": m.QuantitativeUnderstanding,
				"evidence":                   m.Evidence,
			})
		}
		for _, s := range a.Stressors.Items() {
			link(LabelAOP, RelHasStressor, LabelStressor, a.ID(), s, row{"evidence": a.StressorEvidence[s]})
		}
	}

	for _, ke := range g.KeyEvents {
		node(LabelKeyEvent, ke.ID(), row{
			"stable_id":          ke.StableID,
			"title":              ke.Title,
			"short_name":         ke.ShortName,
			"organization_level": ke.OrganizationLevel,
			"page":               ke.Page(),
		})
		for _, s := range ke.Stressors.Items() {
			link(LabelKeyEvent, RelHasStressor, LabelStressor, ke.ID(), s, row{"evidence": ke.StressorEvidence[s]})
		}
		for _, gid := range ke.Genes.Items() {
			link(LabelKeyEvent, RelMentionsGene, LabelGene, ke.ID(), gid, nil)
		}
		annotate := func(t *aop.Term, role string) {
			if t.Subject() {
				link(LabelKeyEvent, RelAnnotated, LabelTerm, ke.ID(), t.ID, row{"role": role})
			}
		}
		annotate(ke.CellTerm, "cell")
		annotate(ke.OrganTerm, "organ")
		for _, ev := range ke.BiologicalEvents {
			annotate(ev.Process, "process")
			annotate(ev.Object, "object")
			annotate(ev.Action, "action")
		}
	}

	for _, ker := range g.KeyEventRelationships {
		node(LabelKER, ker.ID(), row{"stable_id": ker.StableID, "page": ker.Page()})
		link(LabelKER, RelUpstream, LabelKeyEvent, ker.ID(), ker.Upstream, nil)
		link(LabelKER, RelDownstream, LabelKeyEvent, ker.ID(), ker.Downstream, nil)
		for _, gid := range ker.Genes.Items() {
			link(LabelKER, RelMentionsGene, LabelGene, ker.ID(), gid, nil)
		}
	}

	for _, s := range g.Stressors {
		node(LabelStressor, s.ID(), row{"stable_id": s.StableID, "name": s.Name, "page": s.Page()})
		for _, c := range s.Chemicals {
			if chems := g.ChemicalsByID(c.ChemicalID); len(chems) > 0 && !chems[0].Literal {
				link(LabelStressor, RelHasChemical, LabelChemical, s.ID(), c.ChemicalID, row{"user_term": c.UserTerm})
			}
		}
	}

	seen := make(map[string]bool)
	for _, c := range g.Chemicals {
		if c.Literal || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		node(LabelChemical, c.ID, row{
			"casrn":    c.CASRN,
			"name":     c.Name,
			"inchikey": c.InChIKey,
			"comptox":  c.CompToxID,
			"synonyms": c.Synonyms,
		})
		for _, rec := range g.ChemicalsByID(c.ID) {
			for _, x := range rec.XRefs.Items() {
				link(LabelChemical, RelExactMatch, LabelIdentifier, c.ID, x, nil)
			}
		}
	}

	for _, t := range g.Terms {
		if t.Subject() {
			node(LabelTerm, t.ID, row{"kind": string(t.Kind), "source": t.Source, "name": t.Name})
		}
	}

	for _, gene := range g.Genes {
		node(LabelGene, gene.ID, row{"symbol": gene.Symbol})
		for _, x := range gene.XRefs.Items() {
			link(LabelGene, RelExactMatch, LabelIdentifier, gene.ID, x, nil)
		}
	}

	for _, x := range g.Identifiers {
		node(LabelIdentifier, x.ID, row{
			"namespace": x.Namespace,
			"value":     x.Value,
			"source":    x.Source,
			"type":      x.TypeIRI,
		})
	}

	return nodes, rels
}

func constraintName(label string) string {
	return strings.ToLower(label)
}
