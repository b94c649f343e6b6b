// Package rdf serializes an assembled AOP-Wiki graph as N-Triples.  Three
// files are produced: the core graph, the gene-mapping extension and a VoID
// description of both.
package rdf

import (
	"sort"
	"strings"

	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

const identifiersOrg = "https://identifiers.org/"

// DatasetBase is the base IRI of the dataset descriptions.
const DatasetBase = "https://aopwiki.rdf.bigcat-bioinformatics.org/"

// Prefixes maps every prefix used by the exporter to its namespace IRI.
var Prefixes = map[string]string{
	"": DatasetBase,

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
	"freq":    "http://purl.org/cld/freq/",

	"aopo":    "http://aopkb.org/aop_ontology#",
	"nci":     "http://ncicb.nci.nih.gov/xml/owl/EVS/Thesaurus.owl#",
	"edam":    "http://edamontology.org/",
	"cheminf": "http://semanticscience.org/resource/CHEMINF_",
	"pato":    "http://purl.obolibrary.org/obo/PATO_",
	"mmo":     "http://purl.obolibrary.org/obo/MMO_",

	"ncbitaxon": "http://purl.bioontology.org/ontology/NCBITAXON/",
	"go":        "http://purl.obolibrary.org/obo/GO_",
	"mi":        "http://purl.obolibrary.org/obo/MI_",
	"mp":        "http://purl.obolibrary.org/obo/MP_",
	"hp":        "http://purl.obolibrary.org/obo/HP_",
	"pco":       "http://purl.obolibrary.org/obo/PCO_",
	"nbo":       "http://purl.obolibrary.org/obo/NBO_",
	"vt":        "http://purl.obolibrary.org/obo/VT_",
	"rbo":       "http://purl.obolibrary.org/obo/RBO_",
	"ido":       "http://purl.obolibrary.org/obo/IDO_",
	"pr":        "http://purl.obolibrary.org/obo/PR_",
	"cl":        "http://purl.obolibrary.org/obo/CL_",
	"uberon":    "http://purl.obolibrary.org/obo/UBERON_",
	"chebio":    "http://purl.obolibrary.org/obo/CHEBI_",
	"fma":       "http://purl.obolibrary.org/obo/FMA_",
	"mesh":      "http://id.nlm.nih.gov/mesh/",

	"aop":               identifiersOrg + "aop/",
	"aop.events":        identifiersOrg + "aop.events/",
	"aop.relationships": identifiersOrg + "aop.relationships/",
	"aop.stressor":      identifiersOrg + "aop.stressor/",
	"cas":               identifiersOrg + "cas/",
	"inchikey":          identifiersOrg + "inchikey/",
	"comptox":           "https://comptox.epa.gov/dashboard/",
	"chebi":             identifiersOrg + "chebi/CHEBI:",
	"chemspider":        identifiersOrg + "chemspider/",
	"wikidata":          identifiersOrg + "wikidata/",
	"chembl.compound":   identifiersOrg + "chembl.compound/",
	"pubchem.compound":  identifiersOrg + "pubchem.compound/",
	"drugbank":          identifiersOrg + "drugbank/",
	"kegg.compound":     identifiersOrg + "kegg.compound/",
	"lipidmaps":         identifiersOrg + "lipidmaps/",
	"hmdb":              identifiersOrg + "hmdb/",
	"hgnc":              identifiersOrg + "hgnc.symbol/",
	"ncbigene":          identifiersOrg + "ncbigene/",
	"ensembl":           identifiersOrg + "ensembl/",
	"uniprot":           identifiersOrg + "uniprot/",
}

// Expand turns a prefixed name ("aop.events:888") into a full IRI.  The
// empty prefix names dataset descriptions.
func Expand(curie string) (string, error) {
	i := strings.IndexByte(curie, ':')
	if i < 0 {
		return "", errors.New(errors.ErrCodeExportFailed, "not a prefixed name").WithDetail("value=" + curie)
	}
	base, ok := Prefixes[curie[:i]]
	if !ok {
		return "", errors.New(errors.ErrCodeExportFailed, "unknown prefix").WithDetail("value=" + curie)
	}
	return base + curie[i+1:], nil
}

// PrefixNames returns the known prefixes in sorted order.
func PrefixNames() []string {
	out := make([]string, 0, len(Prefixes))
	for p := range Prefixes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
