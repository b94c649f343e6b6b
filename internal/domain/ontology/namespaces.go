package ontology

import (
	"sort"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
)

const (
	obo            = "http://purl.obolibrary.org/obo/"
	identifiersOrg = aop.IdentifiersOrgBase
)

// Namespaces maps every prefix used by the graph to its IRI base.
var Namespaces = map[string]string{
	"rdf":     "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs":    "http://www.w3.org/2000/01/rdf-schema#",
	"owl":     "http://www.w3.org/2002/07/owl#",
	"xsd":     "http://www.w3.org/2001/XMLSchema#",
	"dc":      "http://purl.org/dc/elements/1.1/",
	"dcterms": "http://purl.org/dc/terms/",
	"foaf":    "http://xmlns.com/foaf/0.1/",
	"skos":    "http://www.w3.org/2004/02/skos/core#",
	"void":    "http://rdfs.org/ns/void#",
	"pav":     "http://purl.org/pav/",
	"dcat":    "http://www.w3.org/ns/dcat#",

	"aopo":    "http://aopkb.org/aop_ontology#",
	"nci":     "http://ncicb.nci.nih.gov/xml/owl/EVS/Thesaurus.owl#",
	"cheminf": "http://semanticscience.org/resource/CHEMINF_",
	"edam":    "http://edamontology.org/",

	"pato":      obo + "PATO_",
	"go":        obo + "GO_",
	"mi":        obo + "MI_",
	"mp":        obo + "MP_",
	"hp":        obo + "HP_",
	"pco":       obo + "PCO_",
	"nbo":       obo + "NBO_",
	"vt":        obo + "VT_",
	"rbo":       obo + "RBO_",
	"ido":       obo + "IDO_",
	"pr":        obo + "PR_",
	"cl":        obo + "CL_",
	"uberon":    obo + "UBERON_",
	"chebio":    obo + "CHEBI_",
	"mmo":       obo + "MMO_",
	"mesh":      "http://purl.bioontology.org/ontology/MESH/",
	"ncbitaxon": "http://purl.bioontology.org/ontology/NCBITAXON/",
	"fma":       "http://purl.org/sig/ont/fma/fma",

	"aop":               identifiersOrg + "aop/",
	"aop.events":        identifiersOrg + "aop.events/",
	"aop.relationships": identifiersOrg + "aop.relationships/",
	"aop.stressor":      identifiersOrg + "aop.stressor/",
	"cas":               identifiersOrg + "cas/",
	"inchikey":          identifiersOrg + "inchikey/",
	"comptox":           identifiersOrg + "comptox/",
	"chebi":             identifiersOrg + "chebi/CHEBI:",
	"chemspider":        identifiersOrg + "chemspider/",
	"chembl.compound":   identifiersOrg + "chembl.compound/",
	"drugbank":          identifiersOrg + "drugbank/",
	"hmdb":              identifiersOrg + "hmdb/",
	"kegg.compound":     identifiersOrg + "kegg.compound/",
	"lipidmaps":         identifiersOrg + "lipidmaps/",
	"pubchem.compound":  identifiersOrg + "pubchem.compound/",
	"wikidata":          identifiersOrg + "wikidata/",
	"hgnc":              identifiersOrg + "hgnc.symbol/",
	"ncbigene":          identifiersOrg + "ncbigene/",
	"ensembl":           identifiersOrg + "ensembl/",
	"uniprot":           identifiersOrg + "uniprot/",
}

// Expand turns a prefixed name ("go:0006915") into an absolute IRI.  ok is
// false when the prefix is unknown or there is no colon.
func Expand(curie string) (string, bool) {
	prefix, local, ok := aop.SplitCanonicalID(curie)
	if !ok {
		return "", false
	}
	base, ok := Namespaces[prefix]
	if !ok {
		return "", false
	}
	return base + local, true
}

// Prefixes returns the known prefixes in sorted order.
func Prefixes() []string {
	out := make([]string, 0, len(Namespaces))
	for p := range Namespaces {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
