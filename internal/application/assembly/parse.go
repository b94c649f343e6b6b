package assembly

import (
	"strings"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/internal/domain/ontology"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/source/aopxml"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// Top-level entity elements of the export.
const (
	tagAOP                  = "aop"
	tagKeyEvent             = "key-event"
	tagKeyEventRelationship = "key-event-relationship"
	tagStressor             = "stressor"
	tagChemical             = "chemical"
	tagTaxonomy             = "taxonomy"
	tagBiologicalProcess    = "biological-process"
	tagBiologicalObject     = "biological-object"
	tagBiologicalAction     = "biological-action"
)

// noCAS marks placeholder registry numbers in the export.
const noCAS = "NOCAS"

func (c *Context) parseTerms() {
	for _, src := range []struct {
		tag   string
		table *ontology.Table
	}{
		{tagTaxonomy, c.Taxonomy},
		{tagBiologicalAction, c.Actions},
		{tagBiologicalProcess, c.Processes},
		{tagBiologicalObject, c.Objects},
	} {
		for _, n := range c.Doc.Elements(src.tag) {
			src.table.Add(n.Attr("id"), n.String("source"), n.String("source-id"), n.String("name"))
		}
		for _, t := range src.table.Terms() {
			c.Graph.AddTerm(t)
		}
	}
}

func (c *Context) parseChemicals() {
	for _, n := range c.Doc.Elements(tagChemical) {
		chem := &aop.Chemical{
			LocalID:   n.Attr("id"),
			InChIKey:  n.String("jchem-inchi-key"),
			CompToxID: n.String("dsstox-id"),
			Name:      n.String("preferred-name"),
		}
		casrn, hasCAS := n.Value("casrn")
		switch {
		case hasCAS && casrn != "" && !strings.Contains(casrn, noCAS):
			chem.CASRN = casrn
			chem.ID = aop.CanonicalID(aop.NamespaceCAS, casrn)
		default:
			chem.ID = casrn
			chem.Literal = true
		}
		for _, s := range n.All("synonyms", "synonym") {
			if s.Text != "" {
				chem.Synonyms = append(chem.Synonyms, s.Text)
			}
		}
		c.chemicals[chem.LocalID] = chem
		c.Graph.AddChemical(chem)
	}
}

func (c *Context) parseStressors() error {
	for _, n := range c.Doc.Elements(tagStressor) {
		localID := n.Attr("id")
		stableID, err := c.Refs.Resolve(aop.EntityStressor, localID)
		if err != nil {
			return err
		}
		s := &aop.Stressor{
			LocalID:     localID,
			StableID:    stableID,
			Name:        n.String("name"),
			Description: stripHTML(n.String("description")),
			Created:     n.String("creation-timestamp"),
			Modified:    n.String("last-modification-timestamp"),
		}
		if s.Name == "" {
			return errors.EmptyRequiredField(string(aop.EntityStressor), localID, "name")
		}
		for _, ci := range n.All("chemicals", "chemical-initiator") {
			chemID := ci.Attr("chemical-id")
			chem, ok := c.chemicals[chemID]
			if !ok {
				return errors.UnknownReference(string(aop.EntityChemical), chemID)
			}
			s.Chemicals = append(s.Chemicals, aop.ChemicalLink{LocalID: chem.LocalID, ChemicalID: chem.ID, UserTerm: ci.Attr("user-term")})
		}
		c.Graph.AddStressor(s)
	}
	return nil
}

func (c *Context) parseAOPs() error {
	for _, n := range c.Doc.Elements(tagAOP) {
		localID := n.Attr("id")
		stableID, err := c.Refs.Resolve(aop.EntityAOP, localID)
		if err != nil {
			return err
		}
		a := &aop.AdverseOutcomePathway{
			LocalID:               localID,
			StableID:              stableID,
			Title:                 n.String("title"),
			ShortName:             n.String("short-name"),
			Authors:               stripHTML(n.String("authors")),
			Abstract:              stripHTML(n.String("abstract")),
			WikiStatus:            n.String("status", "wiki-status"),
			OECDStatus:            n.String("status", "oecd-status"),
			SAAOPStatus:           n.String("status", "saaop-status"),
			OECDProject:           n.String("oecd-project"),
			Source:                n.String("source"),
			Created:               n.String("creation-timestamp"),
			Modified:              n.String("last-modification-timestamp"),
			PotentialApplications: stripHTML(n.String("potential-applications")),
			Assessment: aop.Assessment{
				Description:                stripHTML(n.String("overall-assessment", "description")),
				EssentialitySummary:        stripHTML(n.String("overall-assessment", "key-event-essentiality-summary")),
				Applicability:              stripHTML(n.String("overall-assessment", "applicability")),
				WeightOfEvidenceSummary:    stripHTML(n.String("overall-assessment", "weight-of-evidence-summary")),
				QuantitativeConsiderations: stripHTML(n.String("overall-assessment", "quantitative-considerations")),
			},
			KERs:             make(map[string]aop.KERMembership),
			StressorEvidence: make(map[string]string),
		}
		if a.Title == "" {
			return errors.EmptyRequiredField(string(aop.EntityAOP), localID, "title")
		}
		if bg := stripHTML(n.String("background")); bg != "" {
			a.Descriptions = append(a.Descriptions, bg)
		}
		for _, appl := range n.All("applicability") {
			c.parseSexAndLifeStage(appl, &a.Applicability)
		}

		for _, ke := range n.All("key-events", "key-event") {
			local := ke.Attr("key-event-id")
			id, err := c.Refs.Canonical(aop.EntityKeyEvent, local)
			if err != nil {
				return err
			}
			c.keyEventRefs = append(c.keyEventRefs, keyEventRef{local: local, id: id})
			a.KeyEvents.Add(id)
		}
		for _, rel := range n.All("key-event-relationships", "relationship") {
			id, err := c.Refs.Canonical(aop.EntityKER, rel.Attr("id"))
			if err != nil {
				return err
			}
			a.KeyEventRelationships.Add(id)
			a.KERs[id] = aop.KERMembership{
				Adjacency:                 rel.String("adjacency"),
				QuantitativeUnderstanding: rel.String("quantitative-understanding-value"),
				Evidence:                  rel.String("evidence"),
			}
		}
		for _, mie := range n.All("molecular-initiating-event") {
			local := mie.Attr("key-event-id")
			id, err := c.Refs.Canonical(aop.EntityKeyEvent, local)
			if err != nil {
				return err
			}
			c.keyEventRefs = append(c.keyEventRefs, keyEventRef{local: local, id: id})
			a.MolecularInitiatingEvents.Add(id)
			a.KeyEvents.Add(id)
			if ev := stripHTML(mie.String("evidence-supporting-chemical-initiation")); ev != "" {
				a.Descriptions = append(a.Descriptions, ev)
			}
		}
		for _, ao := range n.All("adverse-outcome") {
			local := ao.Attr("key-event-id")
			id, err := c.Refs.Canonical(aop.EntityKeyEvent, local)
			if err != nil {
				return err
			}
			c.keyEventRefs = append(c.keyEventRefs, keyEventRef{local: local, id: id})
			a.AdverseOutcomes.Add(id)
			a.KeyEvents.Add(id)
			if ex := stripHTML(ao.String("examples")); ex != "" {
				a.Descriptions = append(a.Descriptions, ex)
			}
		}
		for _, st := range n.All("aop-stressors", "aop-stressor") {
			id, err := c.Refs.Canonical(aop.EntityStressor, st.Attr("stressor-id"))
			if err != nil {
				return err
			}
			a.Stressors.Add(id)
			a.StressorEvidence[id] = st.String("evidence")
		}
		c.Graph.AddAOP(a)
	}
	return nil
}

func (c *Context) parseKeyEvents() error {
	for _, n := range c.Doc.Elements(tagKeyEvent) {
		localID := n.Attr("id")
		stableID, err := c.Refs.Resolve(aop.EntityKeyEvent, localID)
		if err != nil {
			return err
		}
		ke := &aop.KeyEvent{
			LocalID:                localID,
			StableID:               stableID,
			Title:                  n.String("title"),
			ShortName:              n.String("short-name"),
			OrganizationLevel:      n.String("biological-organization-level"),
			Description:            stripHTML(n.String("description")),
			MeasurementMethodology: stripHTML(n.String("measurement-methodology")),
			Source:                 n.String("source"),
			StressorEvidence:       make(map[string]string),
		}
		if ke.Title == "" {
			return errors.EmptyRequiredField(string(aop.EntityKeyEvent), localID, "title")
		}
		for _, appl := range n.All("applicability") {
			if err := c.parseApplicability(appl, &ke.Applicability); err != nil {
				return err
			}
		}
		for _, ev := range n.All("biological-events", "biological-event") {
			be, err := c.parseBiologicalEvent(ev)
			if err != nil {
				return err
			}
			ke.BiologicalEvents = append(ke.BiologicalEvents, be)
		}
		ke.CellTerm = c.contextTerm(aop.EntityCellTerm, n.Child("cell-term"))
		ke.OrganTerm = c.contextTerm(aop.EntityOrganTerm, n.Child("organ-term"))

		for _, st := range n.All("key-event-stressors", "key-event-stressor") {
			id, err := c.Refs.Canonical(aop.EntityStressor, st.Attr("stressor-id"))
			if err != nil {
				return err
			}
			ke.Stressors.Add(id)
			ke.StressorEvidence[id] = st.String("evidence")
		}
		c.Graph.AddKeyEvent(ke)
	}
	return nil
}

func (c *Context) parseKeyEventRelationships() error {
	for _, n := range c.Doc.Elements(tagKeyEventRelationship) {
		localID := n.Attr("id")
		stableID, err := c.Refs.Resolve(aop.EntityKER, localID)
		if err != nil {
			return err
		}
		ker := &aop.KeyEventRelationship{
			LocalID:     localID,
			StableID:    stableID,
			Description: stripHTML(n.String("description")),
			Source:      n.String("source"),
			Created:     n.String("creation-timestamp"),
			Modified:    n.String("last-modification-timestamp"),
		}
		for _, w := range n.All("weight-of-evidence") {
			if v := stripHTML(w.String("biological-plausibility")); v != "" {
				ker.BiologicalPlausibility = v
			}
			if v := stripHTML(w.String("emperical-support-linkage")); v != "" {
				ker.EmpiricalSupport = v
			}
			if v := stripHTML(w.String("uncertainties-or-inconsistencies")); v != "" {
				ker.Uncertainties = v
			}
		}

		up := n.String("title", "upstream-id")
		if up == "" {
			return errors.EmptyRequiredField(string(aop.EntityKER), localID, "upstream-id")
		}
		down := n.String("title", "downstream-id")
		if down == "" {
			return errors.EmptyRequiredField(string(aop.EntityKER), localID, "downstream-id")
		}
		if ker.Upstream, err = c.Refs.Canonical(aop.EntityKeyEvent, up); err != nil {
			return err
		}
		if ker.Downstream, err = c.Refs.Canonical(aop.EntityKeyEvent, down); err != nil {
			return err
		}
		c.keyEventRefs = append(c.keyEventRefs,
			keyEventRef{local: up, id: ker.Upstream},
			keyEventRef{local: down, id: ker.Downstream})

		for _, appl := range n.All("taxonomic-applicability") {
			if err := c.parseApplicability(appl, &ker.Applicability); err != nil {
				return err
			}
		}
		c.Graph.AddKeyEventRelationship(ker)
	}
	return nil
}

func (c *Context) parseSexAndLifeStage(appl *aopxml.Node, out *aop.Applicability) {
	for _, s := range appl.All("sex") {
		out.Sex = append(out.Sex, aop.Annotation{Evidence: s.String("evidence"), Value: s.String("sex")})
	}
	for _, l := range appl.All("life-stage") {
		out.LifeStage = append(out.LifeStage, aop.Annotation{Evidence: l.String("evidence"), Value: l.String("life-stage")})
	}
}

func (c *Context) parseApplicability(appl *aopxml.Node, out *aop.Applicability) error {
	c.parseSexAndLifeStage(appl, out)
	for _, tx := range appl.All("taxonomy") {
		term, err := c.Taxonomy.Lookup(tx.Attr("taxonomy-id"))
		if err != nil {
			return err
		}
		if term.IsNone() {
			continue
		}
		out.Taxonomy = append(out.Taxonomy, aop.TaxonAnnotation{Evidence: tx.String("evidence"), Term: term})
	}
	return nil
}

func (c *Context) parseBiologicalEvent(ev *aopxml.Node) (aop.BiologicalEvent, error) {
	var (
		be  aop.BiologicalEvent
		err error
	)
	if be.Process, err = c.Processes.Lookup(ev.Attr("process-id")); err != nil {
		return be, err
	}
	if be.Object, err = c.Objects.Lookup(ev.Attr("object-id")); err != nil {
		return be, err
	}
	if be.Action, err = c.Actions.Lookup(ev.Attr("action-id")); err != nil {
		return be, err
	}
	return be, nil
}

// checkKeyEventReferences fails when an AOP or KER points at a key event
// that is registered in the reference table but has no key-event element.
func (c *Context) checkKeyEventReferences() error {
	for _, ref := range c.keyEventRefs {
		if _, ok := c.Graph.KeyEvent(ref.id); !ok {
			return errors.UnknownReference(string(aop.EntityKeyEvent), ref.local)
		}
	}
	return nil
}
