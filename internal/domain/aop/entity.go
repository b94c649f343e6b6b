// Package aop holds the pre-serialization graph model of an AOP-Wiki export:
// pathways, key events, relationships, stressors, chemicals, ontology terms,
// genes and the external identifiers they resolve to.
//
// Every AOP-Wiki entity carries two identifiers.  LocalID is the transient
// id of one export and is only meaningful while the export is parsed.
// StableID is the AOP-Wiki number reused across exports; ID() combines it
// with the entity namespace and is the identity every consumer must use.
package aop

import "strings"

// EntityType names the kinds of node in the graph.
type EntityType string

const (
	EntityAOP               EntityType = "AOP"
	EntityKeyEvent          EntityType = "KE"
	EntityKER               EntityType = "KER"
	EntityStressor          EntityType = "Stressor"
	EntityChemical          EntityType = "Chemical"
	EntityTaxonomy          EntityType = "Taxonomy"
	EntityBiologicalProcess EntityType = "BiologicalProcess"
	EntityBiologicalObject  EntityType = "BiologicalObject"
	EntityBiologicalAction  EntityType = "BiologicalAction"
	EntityCellTerm          EntityType = "CellTerm"
	EntityOrganTerm         EntityType = "OrganTerm"
	EntityGene              EntityType = "Gene"
	EntityIdentifier        EntityType = "ExternalIdentifier"
)

// Namespace prefixes of the four AOP-Wiki entity kinds.
const (
	NamespaceAOP      = "aop"
	NamespaceKE       = "aop.events"
	NamespaceKER      = "aop.relationships"
	NamespaceStressor = "aop.stressor"
	NamespaceHGNC     = "hgnc"
	NamespaceCAS      = "cas"
)

// IdentifiersOrgBase is the resolver base used for public entity pages.
const IdentifiersOrgBase = "https://identifiers.org/"

// CanonicalID joins a namespace prefix and a local value ("aop.events:888").
func CanonicalID(namespace, value string) string {
	return namespace + ":" + value
}

// SplitCanonicalID is the inverse of CanonicalID.  It splits at the first
// colon; ok is false when there is none.
func SplitCanonicalID(id string) (namespace, value string, ok bool) {
	i := strings.IndexByte(id, ':')
	if i < 0 {
		return "", id, false
	}
	return id[:i], id[i+1:], true
}

// Annotation is one (evidence, value) applicability pair such as a sex or a
// life stage.
type Annotation struct {
	Evidence string
	Value    string
}

// TaxonAnnotation is a taxonomic applicability entry.
type TaxonAnnotation struct {
	Evidence string
	Term     *Term
}

// Applicability collects the list-valued, append-only applicability
// annotations of an AOP, KE or KER.
type Applicability struct {
	Sex       []Annotation
	LifeStage []Annotation
	Taxonomy  []TaxonAnnotation
}

// Empty reports whether no annotation was recorded.
func (a Applicability) Empty() bool {
	return len(a.Sex) == 0 && len(a.LifeStage) == 0 && len(a.Taxonomy) == 0
}

// KERMembership carries the per-pathway attributes of a KER inside an AOP.
type KERMembership struct {
	Adjacency                 string
	QuantitativeUnderstanding string
	Evidence                  string
}

// Assessment holds the overall-assessment texts of an AOP.
type Assessment struct {
	Description                string
	EssentialitySummary        string
	Applicability              string
	WeightOfEvidenceSummary    string
	QuantitativeConsiderations string
}

// AdverseOutcomePathway is a top-level pathway.  Edge sets hold canonical
// ids of the referenced KEs, KERs and stressors.
type AdverseOutcomePathway struct {
	LocalID  string
	StableID string

	Title                 string
	ShortName             string
	Descriptions          []string
	Authors               string
	Abstract              string
	WikiStatus            string
	OECDStatus            string
	SAAOPStatus           string
	OECDProject           string
	Source                string
	Created               string
	Modified              string
	Assessment            Assessment
	PotentialApplications string
	Applicability         Applicability

	KeyEvents                 OrderedSet
	KeyEventRelationships     OrderedSet
	MolecularInitiatingEvents OrderedSet
	AdverseOutcomes           OrderedSet
	Stressors                 OrderedSet

	// KERs maps a KER canonical id to its per-pathway attributes.
	KERs map[string]KERMembership
	// StressorEvidence maps a stressor canonical id to its evidence call.
	StressorEvidence map[string]string
}

// ID returns the canonical identity.
func (a *AdverseOutcomePathway) ID() string { return CanonicalID(NamespaceAOP, a.StableID) }

// Page returns the public page of the pathway.
func (a *AdverseOutcomePathway) Page() string { return IdentifiersOrgBase + NamespaceAOP + "/" + a.StableID }

// BiologicalEvent is a (process, object, action) triple describing what a
// key event measures.  Absent components are nil.
type BiologicalEvent struct {
	Process *Term
	Object  *Term
	Action  *Term
}

// KeyEvent is a measurable change in a biological system.
type KeyEvent struct {
	LocalID  string
	StableID string

	Title                  string
	ShortName              string
	OrganizationLevel      string
	Description            string
	MeasurementMethodology string
	Source                 string
	Applicability          Applicability
	CellTerm               *Term
	OrganTerm              *Term
	BiologicalEvents       []BiologicalEvent

	// Genes holds hgnc canonical ids found in Description.
	Genes            OrderedSet
	Stressors        OrderedSet
	StressorEvidence map[string]string

	// AOPs is derived from AOP key-event edges after parsing.
	AOPs OrderedSet
}

func (k *KeyEvent) ID() string   { return CanonicalID(NamespaceKE, k.StableID) }
func (k *KeyEvent) Page() string { return IdentifiersOrgBase + NamespaceKE + "/" + k.StableID }

// KeyEventRelationship is a directed edge between two key events.
type KeyEventRelationship struct {
	LocalID  string
	StableID string

	// Upstream and Downstream are KE canonical ids.
	Upstream   string
	Downstream string

	Description            string
	BiologicalPlausibility string
	EmpiricalSupport       string
	Uncertainties          string
	Source                 string
	Created                string
	Modified               string
	Applicability          Applicability

	// Genes is the union of the mentions found in Description,
	// BiologicalPlausibility and EmpiricalSupport.
	Genes OrderedSet
	AOPs  OrderedSet
}

func (k *KeyEventRelationship) ID() string { return CanonicalID(NamespaceKER, k.StableID) }
func (k *KeyEventRelationship) Page() string {
	return IdentifiersOrgBase + NamespaceKER + "/" + k.StableID
}

// ChemicalLink ties a stressor to a chemical with the display term the
// curator used.  LocalID names the chemical record; ChemicalID is its graph
// id, which chemicals without a registry number may share.
type ChemicalLink struct {
	LocalID    string
	ChemicalID string
	UserTerm   string
}

// Stressor is an agent that triggers key events.
type Stressor struct {
	LocalID  string
	StableID string

	Name        string
	Description string
	Created     string
	Modified    string
	Chemicals   []ChemicalLink

	KeyEvents OrderedSet
	AOPs      OrderedSet
}

func (s *Stressor) ID() string   { return CanonicalID(NamespaceStressor, s.StableID) }
func (s *Stressor) Page() string { return IdentifiersOrgBase + NamespaceStressor + "/" + s.StableID }

// Chemical is a stressor chemical.  When the export has no usable CAS
// registry number the chemical has a literal identity: ID holds the raw
// value and Literal is true, and the chemical is never a graph subject.
type Chemical struct {
	LocalID string
	ID      string
	Literal bool

	CASRN     string
	InChIKey  string
	CompToxID string
	Name      string
	Synonyms  []string

	// XRefs holds canonical ids of resolved ExternalIdentifiers.
	XRefs     OrderedSet
	Stressors OrderedSet
}

// Gene is an HGNC gene mentioned in KE or KER text.
type Gene struct {
	ID     string
	Symbol string
	XRefs  OrderedSet
}

// NewGene builds the gene node for an approved symbol.
func NewGene(symbol string) *Gene {
	return &Gene{ID: CanonicalID(NamespaceHGNC, symbol), Symbol: symbol}
}

// ExternalIdentifier is one cross-reference node, shared by every owner that
// resolved to it.
type ExternalIdentifier struct {
	ID        string
	Namespace string
	Value     string
	Source    string
	TypeIRI   string
	Owners    OrderedSet
}
