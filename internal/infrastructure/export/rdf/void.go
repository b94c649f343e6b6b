package rdf

import (
	"sort"
	"strconv"
	"time"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
)

const (
	aopWikiHome      = "https://aopwiki.org"
	aopWikiDownloads = "https://aopwiki.org/downloads/"
	hgncDownload     = "https://www.genenames.org/download/custom/"
	bridgeDbHome     = "https://www.bridgedb.org/"
	createdBy        = "https://zenodo.org/badge/latestdoi/146466058"
)

// Stats carries the triple counts of the data files.
type Stats struct {
	CoreTriples  int
	GenesTriples int
}

// WriteVoID describes the two data files, the gene lexicon and the mapping
// service they were built with.
func (w *Writer) WriteVoID(meta aop.Metadata, stats Stats) error {
	core := ":" + CoreFile
	genes := ":" + GenesFile
	lexicon := ":HGNCgenes"
	mapping := ":BridgeDb"

	day := meta.GeneratedAt.UTC().Format(time.DateOnly)

	w.dataset(core, "AOP-Wiki RDF data from the AOP-Wiki database", day, meta)
	w.Literal(core, "void:triples", strconv.Itoa(stats.CoreTriples))
	w.Link(core, "pav:createdWith", mapping)

	w.dataset(genes, "AOP-Wiki RDF extension with gene mappings based on approved names and symbols", day, meta)
	w.Literal(genes, "void:triples", strconv.Itoa(stats.GenesTriples))
	w.Link(genes, "pav:createdWith", lexicon)
	w.LinkIRI(genes, "dcat:downloadURL", hgncDownload)

	w.Link(lexicon, "a", "void:Dataset")
	w.Link(lexicon, "a", "void:Linkset")
	w.Literal(lexicon, "dc:description", "HGNC approved symbols and names for genes")
	w.LinkIRI(lexicon, "dcat:downloadURL", hgncDownload)
	w.Literal(lexicon, "dc:title", meta.LexiconName)
	if !meta.LexiconModified.IsZero() {
		w.Literal(lexicon, "pav:importedOn", meta.LexiconModified.UTC().Format(time.RFC3339))
	}

	w.Link(mapping, "a", "void:Dataset")
	w.Link(mapping, "a", "void:Linkset")
	w.Literal(mapping, "dc:description", "BridgeDb identifier mapping service")
	w.LinkIRI(mapping, "foaf:homepage", bridgeDbHome)
	keys := make([]string, 0, len(meta.MappingProperties))
	for k := range meta.MappingProperties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.Literal(mapping, "rdfs:comment", k+": "+meta.MappingProperties[k])
	}
	return w.Flush()
}

func (w *Writer) dataset(id, description, day string, meta aop.Metadata) {
	w.Link(id, "a", "void:Dataset")
	w.Literal(id, "dc:description", description)
	if day != "" && !meta.GeneratedAt.IsZero() {
		w.Date(id, "pav:createdOn", day)
		w.Date(id, "dcterms:modified", day)
	}
	w.Literal(id, "pav:createdWith", meta.SourceName)
	w.LinkIRI(id, "pav:createdBy", createdBy)
	w.LinkIRI(id, "foaf:homepage", aopWikiHome)
	w.Link(id, "dcterms:accrualPeriodicity", "freq:quarterly")
	if meta.SourceName != "" {
		w.LinkIRI(id, "dcat:downloadURL", aopWikiDownloads+meta.SourceName)
	}
	if meta.RunID != "" {
		w.Literal(id, "dcterms:identifier", meta.RunID)
	}
}
