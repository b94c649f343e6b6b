package aop

import "time"

// Metadata describes the provenance of one assembled graph.
type Metadata struct {
	RunID           string
	SourceName      string
	LexiconName     string
	LexiconModified time.Time
	// MappingProperties are the key/value properties reported by the
	// identifier mapping service (data source names and versions).
	MappingProperties map[string]string
	GeneratedAt       time.Time
}

// Graph is the assembled, deduplicated entity graph of one export.  Slices
// keep document order.  A Graph is built by the assembler and treated as
// immutable afterwards.
type Graph struct {
	Metadata Metadata

	AOPs                  []*AdverseOutcomePathway
	KeyEvents             []*KeyEvent
	KeyEventRelationships []*KeyEventRelationship
	Stressors             []*Stressor
	Chemicals             []*Chemical
	Terms                 []*Term
	Genes                 []*Gene
	Identifiers           []*ExternalIdentifier

	aops        map[string]*AdverseOutcomePathway
	keyEvents   map[string]*KeyEvent
	kers        map[string]*KeyEventRelationship
	stressors   map[string]*Stressor
	chemicals   map[string][]*Chemical
	chemLocal   map[string]*Chemical
	genes       map[string]*Gene
	identifiers map[string]*ExternalIdentifier
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		aops:        make(map[string]*AdverseOutcomePathway),
		keyEvents:   make(map[string]*KeyEvent),
		kers:        make(map[string]*KeyEventRelationship),
		stressors:   make(map[string]*Stressor),
		chemicals:   make(map[string][]*Chemical),
		chemLocal:   make(map[string]*Chemical),
		genes:       make(map[string]*Gene),
		identifiers: make(map[string]*ExternalIdentifier),
	}
}

func (g *Graph) AddAOP(a *AdverseOutcomePathway) {
	g.aops[a.ID()] = a
	g.AOPs = append(g.AOPs, a)
}

func (g *Graph) AddKeyEvent(k *KeyEvent) {
	g.keyEvents[k.ID()] = k
	g.KeyEvents = append(g.KeyEvents, k)
}

func (g *Graph) AddKeyEventRelationship(k *KeyEventRelationship) {
	g.kers[k.ID()] = k
	g.KeyEventRelationships = append(g.KeyEventRelationships, k)
}

func (g *Graph) AddStressor(s *Stressor) {
	g.stressors[s.ID()] = s
	g.Stressors = append(g.Stressors, s)
}

func (g *Graph) AddChemical(c *Chemical) {
	g.chemicals[c.ID] = append(g.chemicals[c.ID], c)
	if c.LocalID != "" {
		g.chemLocal[c.LocalID] = c
	}
	g.Chemicals = append(g.Chemicals, c)
}

func (g *Graph) AddTerm(t *Term) {
	if t.IsNone() {
		return
	}
	g.Terms = append(g.Terms, t)
}

// AddGene returns the gene node for symbol, creating it on first use.
func (g *Graph) AddGene(symbol string) *Gene {
	id := CanonicalID(NamespaceHGNC, symbol)
	if gene, ok := g.genes[id]; ok {
		return gene
	}
	gene := NewGene(symbol)
	g.genes[id] = gene
	g.Genes = append(g.Genes, gene)
	return gene
}

// UpsertIdentifier returns the single ExternalIdentifier node for
// namespace:value, creating it on first use, and records owner on it.
func (g *Graph) UpsertIdentifier(namespace, value, source, typeIRI, owner string) *ExternalIdentifier {
	id := CanonicalID(namespace, value)
	x, ok := g.identifiers[id]
	if !ok {
		x = &ExternalIdentifier{
			ID:        id,
			Namespace: namespace,
			Value:     value,
			Source:    source,
			TypeIRI:   typeIRI,
		}
		g.identifiers[id] = x
		g.Identifiers = append(g.Identifiers, x)
	}
	if owner != "" {
		x.Owners.Add(owner)
	}
	return x
}

func (g *Graph) AOP(id string) (*AdverseOutcomePathway, bool) {
	a, ok := g.aops[id]
	return a, ok
}

func (g *Graph) KeyEvent(id string) (*KeyEvent, bool) {
	k, ok := g.keyEvents[id]
	return k, ok
}

func (g *Graph) KeyEventRelationship(id string) (*KeyEventRelationship, bool) {
	k, ok := g.kers[id]
	return k, ok
}

func (g *Graph) Stressor(id string) (*Stressor, bool) {
	s, ok := g.stressors[id]
	return s, ok
}

// ChemicalsByID returns every chemical record sharing the graph id.
func (g *Graph) ChemicalsByID(id string) []*Chemical {
	return g.chemicals[id]
}

func (g *Graph) Gene(id string) (*Gene, bool) {
	gene, ok := g.genes[id]
	return gene, ok
}

func (g *Graph) Identifier(id string) (*ExternalIdentifier, bool) {
	x, ok := g.identifiers[id]
	return x, ok
}

// LinkBackReferences derives the reverse edges AOP->KE, AOP->KER,
// AOP->Stressor, KE->Stressor and Stressor->Chemical from the forward edges
// already recorded.  A chemical link is followed by the chemical's local id
// when it has one.  Targets missing from the graph are skipped.  Calling it
// twice is harmless.
func (g *Graph) LinkBackReferences() {
	for _, a := range g.AOPs {
		aid := a.ID()
		for _, id := range a.KeyEvents.Items() {
			if ke, ok := g.keyEvents[id]; ok {
				ke.AOPs.Add(aid)
			}
		}
		for _, id := range a.KeyEventRelationships.Items() {
			if ker, ok := g.kers[id]; ok {
				ker.AOPs.Add(aid)
			}
		}
		for _, id := range a.Stressors.Items() {
			if s, ok := g.stressors[id]; ok {
				s.AOPs.Add(aid)
			}
		}
	}
	for _, ke := range g.KeyEvents {
		for _, id := range ke.Stressors.Items() {
			if s, ok := g.stressors[id]; ok {
				s.KeyEvents.Add(ke.ID())
			}
		}
	}
	for _, s := range g.Stressors {
		for _, link := range s.Chemicals {
			if c, ok := g.chemLocal[link.LocalID]; ok {
				c.Stressors.Add(s.ID())
				continue
			}
			if link.LocalID != "" {
				continue
			}
			for _, c := range g.chemicals[link.ChemicalID] {
				c.Stressors.Add(s.ID())
			}
		}
	}
}

// Counts returns the number of nodes per entity type.  Ontology terms are
// counted by their own kind.
func (g *Graph) Counts() map[EntityType]int {
	out := map[EntityType]int{
		EntityAOP:        len(g.AOPs),
		EntityKeyEvent:   len(g.KeyEvents),
		EntityKER:        len(g.KeyEventRelationships),
		EntityStressor:   len(g.Stressors),
		EntityChemical:   len(g.Chemicals),
		EntityGene:       len(g.Genes),
		EntityIdentifier: len(g.Identifiers),
	}
	for _, t := range g.Terms {
		out[t.Kind]++
	}
	return out
}
