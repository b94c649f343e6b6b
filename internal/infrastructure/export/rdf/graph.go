package rdf

import (
	"sort"
	"strconv"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/internal/domain/xref"
)

// WriteCore writes the pathways, events, relationships, stressors,
// chemicals, ontology terms and chemical identifiers of g.
func (w *Writer) WriteCore(g *aop.Graph) error {
	for _, a := range g.AOPs {
		w.writeAOP(a)
	}
	for _, ke := range g.KeyEvents {
		w.writeKeyEvent(ke)
	}
	for _, ker := range g.KeyEventRelationships {
		w.writeKER(ker)
	}
	for _, t := range g.Terms {
		w.writeTerm(t)
	}
	for _, s := range g.Stressors {
		w.writeStressor(s, g)
	}
	w.writeChemicals(g)
	for _, x := range g.Identifiers {
		if !isGeneNamespace(x.Namespace) {
			w.writeIdentifier(x)
		}
	}
	return w.Flush()
}

// WriteGenes writes the gene links of KEs and KERs, the gene nodes and the
// gene identifiers.
func (w *Writer) WriteGenes(g *aop.Graph) error {
	for _, ke := range g.KeyEvents {
		for _, id := range ke.Genes.Items() {
			w.Link(ke.ID(), "edam:data_1025", id)
		}
	}
	for _, ker := range g.KeyEventRelationships {
		for _, id := range ker.Genes.Items() {
			w.Link(ker.ID(), "edam:data_1025", id)
		}
	}
	for _, gn := range g.Genes {
		w.Link(gn.ID, "a", "edam:data_2298")
		w.Link(gn.ID, "a", "edam:data_1025")
		w.Literal(gn.ID, "edam:data_2298", gn.Symbol)
		w.Literal(gn.ID, "dc:identifier", gn.ID)
		w.Literal(gn.ID, "dc:source", "HGNC")
		for _, x := range gn.XRefs.Items() {
			w.Link(gn.ID, "skos:exactMatch", x)
		}
	}
	for _, x := range g.Identifiers {
		if isGeneNamespace(x.Namespace) {
			w.writeIdentifier(x)
		}
	}
	return w.Flush()
}

func (w *Writer) writeHeader(id, class, label, page string) {
	w.Link(id, "a", class)
	w.Link(id, "dc:identifier", id)
	w.Literal(id, "rdfs:label", label)
	w.LinkIRI(id, "foaf:page", page)
	w.LinkIRI(id, "rdfs:seeAlso", page)
}

func (w *Writer) writeApplicability(id string, appl aop.Applicability) {
	for _, s := range appl.Sex {
		w.Literal(id, "pato:0000047", s.Value)
	}
	for _, l := range appl.LifeStage {
		w.Literal(id, "aopo:LifeStageContext", l.Value)
	}
	for _, t := range appl.Taxonomy {
		w.termRef(id, "ncbitaxon:131567", t.Term)
	}
}

// termRef links to a term node, or writes its literal identity.
func (w *Writer) termRef(id, pred string, t *aop.Term) {
	switch {
	case t.IsNone():
	case t.Subject():
		w.Link(id, pred, t.ID)
	default:
		w.Literal(id, pred, t.ID)
	}
}

func (w *Writer) writeAOP(a *aop.AdverseOutcomePathway) {
	id := a.ID()
	w.writeHeader(id, "aopo:AdverseOutcomePathway", "AOP "+a.StableID, a.Page())
	w.Literal(id, "dc:title", a.Title)
	w.Literal(id, "dcterms:alternative", a.ShortName)
	w.Literal(id, "dc:source", a.Source)
	w.Literal(id, "dcterms:created", a.Created)
	w.Literal(id, "dcterms:modified", a.Modified)
	for _, d := range a.Descriptions {
		w.Literal(id, "dc:description", d)
	}
	w.Literal(id, "nci:C25217", a.Assessment.Description)
	w.Literal(id, "nci:C48192", a.Assessment.EssentialitySummary)
	w.Literal(id, "aopo:AopContext", a.Assessment.Applicability)
	w.Literal(id, "aopo:has_evidence", a.Assessment.WeightOfEvidenceSummary)
	w.Literal(id, "edam:operation_3799", a.Assessment.QuantitativeConsiderations)
	w.Literal(id, "nci:C25725", a.PotentialApplications)
	w.Literal(id, "dc:creator", a.Authors)
	w.Literal(id, "dcterms:accessRights", a.WikiStatus)
	w.Literal(id, "dcterms:abstract", a.Abstract)
	w.Literal(id, "nci:C25688", a.OECDStatus)
	w.Literal(id, "nci:C25688", a.SAAOPStatus)

	for _, ke := range a.KeyEvents.Items() {
		w.Link(id, "aopo:has_key_event", ke)
	}
	for _, ker := range a.KeyEventRelationships.Items() {
		w.Link(id, "aopo:has_key_event_relationship", ker)
	}
	for _, ke := range a.MolecularInitiatingEvents.Items() {
		w.Link(id, "aopo:has_molecular_initiating_event", ke)
	}
	for _, ke := range a.AdverseOutcomes.Items() {
		w.Link(id, "aopo:has_adverse_outcome", ke)
	}
	for _, s := range a.Stressors.Items() {
		w.Link(id, "nci:C54571", s)
	}
	w.writeApplicability(id, a.Applicability)
}

func (w *Writer) writeKeyEvent(ke *aop.KeyEvent) {
	id := ke.ID()
	w.writeHeader(id, "aopo:KeyEvent", "KE "+ke.StableID, ke.Page())
	w.Literal(id, "dc:title", ke.Title)
	w.Literal(id, "dcterms:alternative", ke.ShortName)
	w.Literal(id, "dc:source", ke.Source)
	w.Literal(id, "dc:description", ke.Description)
	w.Literal(id, "mmo:0000000", ke.MeasurementMethodology)
	w.Literal(id, "nci:C25664", ke.OrganizationLevel)
	w.writeApplicability(id, ke.Applicability)
	for _, s := range ke.Stressors.Items() {
		w.Link(id, "nci:C54571", s)
	}
	w.termRef(id, "aopo:CellTypeContext", ke.CellTerm)
	w.termRef(id, "aopo:OrganContext", ke.OrganTerm)

	var processes, objects, actions []*aop.Term
	for i, be := range ke.BiologicalEvents {
		node := "_:ke" + ke.StableID + "_bioevent" + strconv.Itoa(i)
		w.Link(id, "aopo:hasBiologicalEvent", node)
		w.Link(node, "a", "aopo:BiologicalEvent")
		w.termRef(node, "aopo:hasProcess", be.Process)
		w.termRef(node, "aopo:hasObject", be.Object)
		w.termRef(node, "aopo:hasAction", be.Action)
		processes = append(processes, be.Process)
		objects = append(objects, be.Object)
		actions = append(actions, be.Action)
	}
	w.termRefs(id, "go:0008150", processes)
	w.termRefs(id, "pato:0001241", objects)
	w.termRefs(id, "pato:0000001", actions)

	for _, a := range ke.AOPs.Items() {
		w.Link(id, "dcterms:isPartOf", a)
	}
}

// termRefs writes the distinct terms sorted by identity.
func (w *Writer) termRefs(id, pred string, terms []*aop.Term) {
	seen := make(map[string]*aop.Term)
	for _, t := range terms {
		if !t.IsNone() && t.ID != "" {
			seen[t.ID] = t
		}
	}
	ids := make([]string, 0, len(seen))
	for k := range seen {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	for _, k := range ids {
		w.termRef(id, pred, seen[k])
	}
}

func (w *Writer) writeKER(ker *aop.KeyEventRelationship) {
	id := ker.ID()
	w.writeHeader(id, "aopo:KeyEventRelationship", "KER "+ker.StableID, ker.Page())
	w.Literal(id, "dcterms:created", ker.Created)
	w.Literal(id, "dcterms:modified", ker.Modified)
	w.Link(id, "aopo:has_upstream_key_event", ker.Upstream)
	w.Link(id, "aopo:has_downstream_key_event", ker.Downstream)
	w.Literal(id, "dc:description", ker.Description)
	w.Literal(id, "nci:C80263", ker.BiologicalPlausibility)
	w.Literal(id, "edam:data_2042", ker.EmpiricalSupport)
	w.Literal(id, "nci:C71478", ker.Uncertainties)
	w.writeApplicability(id, ker.Applicability)
	for _, a := range ker.AOPs.Items() {
		w.Link(id, "dcterms:isPartOf", a)
	}
}

var termClass = map[aop.EntityType]string{
	aop.EntityTaxonomy:          "ncbitaxon:131567",
	aop.EntityBiologicalProcess: "go:0008150",
	aop.EntityBiologicalObject:  "pato:0001241",
	aop.EntityBiologicalAction:  "pato:0000001",
	aop.EntityCellTerm:          "aopo:CellTypeContext",
	aop.EntityOrganTerm:         "aopo:OrganContext",
}

// writeTerm writes a term node.  Terms with a literal identity are only
// ever objects.
func (w *Writer) writeTerm(t *aop.Term) {
	if !t.Subject() {
		return
	}
	w.Link(t.ID, "a", termClass[t.Kind])
	w.Link(t.ID, "dc:identifier", t.ID)
	w.Literal(t.ID, "dc:title", t.Name)
	w.Literal(t.ID, "dc:source", t.Source)
}

func (w *Writer) writeStressor(s *aop.Stressor, g *aop.Graph) {
	id := s.ID()
	w.Link(id, "a", "nci:C54571")
	w.Link(id, "dc:identifier", id)
	w.Literal(id, "rdfs:label", "Stressor "+s.StableID)
	w.LinkIRI(id, "foaf:page", s.Page())
	w.Literal(id, "dc:title", s.Name)
	w.Literal(id, "dcterms:created", s.Created)
	w.Literal(id, "dcterms:modified", s.Modified)
	w.Literal(id, "dc:description", s.Description)
	for _, link := range s.Chemicals {
		if chems := g.ChemicalsByID(link.ChemicalID); len(chems) > 0 && !chems[0].Literal {
			w.Link(id, "aopo:has_chemical_entity", link.ChemicalID)
		}
	}
	for _, ke := range s.KeyEvents.Items() {
		w.Link(id, "dcterms:isPartOf", ke)
	}
	for _, a := range s.AOPs.Items() {
		w.Link(id, "dcterms:isPartOf", a)
	}
}

// writeChemicals writes one node per chemical identity.  Records sharing a
// registry number contribute synonyms, identifiers and stressors to it.
func (w *Writer) writeChemicals(g *aop.Graph) {
	done := make(map[string]bool)
	for _, c := range g.Chemicals {
		if c.Literal || c.ID == "" || done[c.ID] {
			continue
		}
		done[c.ID] = true
		id := c.ID
		w.Link(id, "dc:identifier", id)
		w.Link(id, "a", "cheminf:000000")
		w.Link(id, "a", "cheminf:000446")
		w.Literal(id, "cheminf:000446", c.CASRN)
		w.Literal(id, "dc:title", c.Name)
		if c.InChIKey != "" {
			key := aop.CanonicalID("inchikey", c.InChIKey)
			w.Link(id, "cheminf:000059", key)
			w.Literal(key, "dc:source", "InChIKey")
		}
		if c.CompToxID != "" {
			ct := aop.CanonicalID("comptox", c.CompToxID)
			w.Link(id, "cheminf:000568", ct)
			w.Literal(ct, "dc:source", "CompTox")
		}
		w.Literal(id, "dc:source", "CAS")

		var xrefs, synonyms, stressors aop.OrderedSet
		for _, rec := range g.ChemicalsByID(id) {
			xrefs.AddAll(rec.XRefs.Items()...)
			synonyms.AddAll(rec.Synonyms...)
			stressors.AddAll(rec.Stressors.Items()...)
		}
		for _, x := range xrefs.Items() {
			w.Link(id, "skos:exactMatch", x)
		}
		for _, s := range synonyms.Items() {
			w.Literal(id, "dcterms:alternative", s)
		}
		for _, s := range stressors.Items() {
			w.Link(id, "dcterms:isPartOf", s)
		}
	}
}

func (w *Writer) writeIdentifier(x *aop.ExternalIdentifier) {
	if x.TypeIRI != "" {
		w.Link(x.ID, "a", x.TypeIRI)
		w.Literal(x.ID, x.TypeIRI, x.Value)
	}
	if isGeneNamespace(x.Namespace) {
		w.Link(x.ID, "a", "edam:data_1025")
	}
	w.Literal(x.ID, "dc:identifier", x.ID)
	w.Literal(x.ID, "dc:source", x.Source)
	if x.Namespace == xref.UniProt.Prefix {
		purl := "http://purl.uniprot.org/uniprot/" + x.Value
		w.LinkIRI(x.ID, "rdfs:seeAlso", purl)
		w.LinkIRI(x.ID, "owl:sameAs", purl)
	}
}

func isGeneNamespace(prefix string) bool {
	for _, ns := range xref.KindGene.Namespaces() {
		if ns.Prefix == prefix {
			return true
		}
	}
	return false
}
