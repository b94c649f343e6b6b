// Package xref holds the cross-reference model produced by identifier
// resolution: the namespaces a chemical or gene key may map into, the
// mapping-service code tables, per-key reference sets and results, and the
// run-wide registry of unique identifiers.
package xref

import (
	"strings"

	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// Kind selects the key type and code table of a resolution.
type Kind string

const (
	KindChemical Kind = "chemical"
	KindGene     Kind = "gene"
)

// ParseKind accepts "chemical" or "gene" in any case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindChemical:
		return KindChemical, nil
	case KindGene:
		return KindGene, nil
	}
	return "", errors.New(errors.ErrCodeUnknownMappingKind, "unknown mapping kind").WithDetail("kind=" + s)
}

// SystemCode is the mapping-service code of the key type: CAS for chemicals,
// HGNC symbol for genes.
func (k Kind) SystemCode() string {
	if k == KindGene {
		return "H"
	}
	return "Ca"
}

// Namespace describes one target database.
type Namespace struct {
	Prefix string
	Label  string
	// TypeIRI is the prefixed class of the identifier node; for chemicals it
	// is also the predicate linking the chemical to it.
	TypeIRI string
}

var (
	ChEBI      = &Namespace{"chebi", "ChEBI", "cheminf:000407"}
	ChemSpider = &Namespace{"chemspider", "ChemSpider", "cheminf:000405"}
	ChEMBL     = &Namespace{"chembl.compound", "ChEMBL", "cheminf:000412"}
	DrugBank   = &Namespace{"drugbank", "DrugBank", "cheminf:000406"}
	HMDB       = &Namespace{"hmdb", "HMDB", "cheminf:000408"}
	KEGG       = &Namespace{"kegg.compound", "KEGG", "cheminf:000409"}
	LIPIDMAPS  = &Namespace{"lipidmaps", "LIPID MAPS", "cheminf:000564"}
	PubChem    = &Namespace{"pubchem.compound", "PubChem", "cheminf:000140"}
	Wikidata   = &Namespace{"wikidata", "Wikidata", "cheminf:000567"}

	EntrezGene = &Namespace{"ncbigene", "Entrez Gene", "edam:data_1027"}
	Ensembl    = &Namespace{"ensembl", "Ensembl", "edam:data_1033"}
	UniProt    = &Namespace{"uniprot", "UniProt", "edam:data_2291"}
)

// Mapping turns one service value into a canonical value of Namespace.
type Mapping struct {
	Namespace *Namespace
	Transform func(string) string
}

// Apply returns the canonical value.
func (m Mapping) Apply(v string) string {
	if m.Transform == nil {
		return v
	}
	return m.Transform(v)
}

// stripChEBI removes the redundant "CHEBI:" prefix of ChEBI values.
func stripChEBI(v string) string {
	if i := strings.LastIndex(v, "CHEBI:"); i >= 0 {
		return v[i+len("CHEBI:"):]
	}
	return v
}

var (
	chebiMapping = Mapping{ChEBI, stripChEBI}

	chemicalCodes = map[string]Mapping{
		"Ce":  chebiMapping,
		"Cs":  {Namespace: ChemSpider},
		"Cl":  {Namespace: ChEMBL},
		"Dr":  {Namespace: DrugBank},
		"Ch":  {Namespace: HMDB},
		"Ck":  {Namespace: KEGG},
		"Kd":  {Namespace: KEGG},
		"Lm":  {Namespace: LIPIDMAPS},
		"Cpc": {Namespace: PubChem},
		"Wd":  {Namespace: Wikidata},
	}
	chemicalDatabases = map[string]Mapping{
		"ChEBI":            chebiMapping,
		"Chemspider":       {Namespace: ChemSpider},
		"ChEMBL compound":  {Namespace: ChEMBL},
		"DrugBank":         {Namespace: DrugBank},
		"HMDB":             {Namespace: HMDB},
		"KEGG Compound":    {Namespace: KEGG},
		"KEGG Drug":        {Namespace: KEGG},
		"LIPID MAPS":       {Namespace: LIPIDMAPS},
		"PubChem-compound": {Namespace: PubChem},
		"Wikidata":         {Namespace: Wikidata},
	}

	geneCodes = map[string]Mapping{
		"L":  {Namespace: EntrezGene},
		"En": {Namespace: Ensembl},
		"S":  {Namespace: UniProt},
	}
	geneDatabases = map[string]Mapping{
		"Entrez Gene":    {Namespace: EntrezGene},
		"Ensembl":        {Namespace: Ensembl},
		"Uniprot-TrEMBL": {Namespace: UniProt},
	}
)

// ByCode looks up a batch-response system code.  Unknown codes report
// false and are ignored by callers.
func (k Kind) ByCode(code string) (Mapping, bool) {
	table := chemicalCodes
	if k == KindGene {
		table = geneCodes
	}
	m, ok := table[code]
	return m, ok
}

// ByDatabase looks up a single-key response database name.
func (k Kind) ByDatabase(name string) (Mapping, bool) {
	table := chemicalDatabases
	if k == KindGene {
		table = geneDatabases
	}
	m, ok := table[name]
	return m, ok
}

// Namespaces returns the target namespaces of k in emission order.
func (k Kind) Namespaces() []*Namespace {
	if k == KindGene {
		return []*Namespace{EntrezGene, Ensembl, UniProt}
	}
	return []*Namespace{ChEBI, ChemSpider, Wikidata, ChEMBL, PubChem, DrugBank, KEGG, LIPIDMAPS, HMDB}
}

// LookupNamespace finds a namespace by prefix across both kinds.
func LookupNamespace(prefix string) (*Namespace, bool) {
	for _, k := range []Kind{KindChemical, KindGene} {
		for _, ns := range k.Namespaces() {
			if ns.Prefix == prefix {
				return ns, true
			}
		}
	}
	return nil, false
}
