package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		kind     aop.EntityType
		source   string
		sourceID string
		label    string
		wantID   string
		literal  bool
	}{
		{"go process", aop.EntityBiologicalProcess, "GO", "GO:0006915", "apoptosis", "go:0006915", false},
		{"mesh process keeps id", aop.EntityBiologicalProcess, "MESH", "D017209", "apoptosis", "mesh:D017209", false},
		{"pco process", aop.EntityBiologicalProcess, "PCO", "PCO_0000001", "population", "pco:0000001", false},
		{"unknown process source", aop.EntityBiologicalProcess, "WIKI", "W123", "x", "W123", true},
		{"uberon object", aop.EntityBiologicalObject, "UBERON", "UBERON:0002107", "liver", "uberon:0002107", false},
		{"chebi object", aop.EntityBiologicalObject, "CHEBI", "CHEBI:16842", "formaldehyde", "chebio:16842", false},
		{"fma object", aop.EntityBiologicalObject, "FMA", "FMA:7088", "heart", "fma:7088", false},
		{"unknown object source", aop.EntityBiologicalObject, "SNOMED", "123", "x", "123", true},
		{"cell term", aop.EntityCellTerm, "CL", "CL:0000182", "hepatocyte", "cl:0000182", false},
		{"organ term", aop.EntityOrganTerm, "UBERON", "UBERON:0002107", "liver", "uberon:0002107", false},
		{"organ from cl is literal", aop.EntityOrganTerm, "CL", "CL:0000182", "hepatocyte", "CL:0000182", true},
		{"ncbi taxonomy", aop.EntityTaxonomy, "NCBI", "9606", "human", "ncbitaxon:9606", false},
		{"non-ncbi taxonomy", aop.EntityTaxonomy, "ITIS", "180092", "human", "180092", true},
		{"action uses name", aop.EntityBiologicalAction, "WIKI", "3", "decreased", "decreased", true},
		{"short source id", aop.EntityBiologicalProcess, "GO", "GO:", "broken", "GO:", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, literal := Canonicalize(tt.kind, tt.source, tt.sourceID, tt.label)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.literal, literal)
		})
	}
}

func TestTable_Lookup(t *testing.T) {
	tbl := NewTable(aop.EntityBiologicalProcess)
	tbl.Add("p1", "GO", "GO:0006915", "apoptosis")
	tbl.Add("p2", "WIKI", "W1", "custom")

	term, err := tbl.Lookup("p1")
	require.NoError(t, err)
	assert.Equal(t, "go:0006915", term.ID)
	assert.True(t, term.Subject())

	none, err := tbl.Lookup("")
	require.NoError(t, err)
	assert.True(t, none.IsNone())

	_, err = tbl.Lookup("p404")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownReference))

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, aop.EntityBiologicalProcess, tbl.Kind())
}

func TestTable_ReplaceKeepsOrder(t *testing.T) {
	tbl := NewTable(aop.EntityTaxonomy)
	tbl.Add("t1", "NCBI", "9606", "human")
	tbl.Add("t2", "NCBI", "10090", "mouse")
	tbl.Add("t1", "NCBI", "9606", "Homo sapiens")

	terms := tbl.Terms()
	require.Len(t, terms, 2)
	assert.Equal(t, "Homo sapiens", terms[0].Name)
	assert.Equal(t, "ncbitaxon:10090", terms[1].ID)
}

func TestExpand(t *testing.T) {
	iri, ok := Expand("go:0006915")
	assert.True(t, ok)
	assert.Equal(t, "http://purl.obolibrary.org/obo/GO_0006915", iri)

	iri, ok = Expand("aop.events:888")
	assert.True(t, ok)
	assert.Equal(t, "https://identifiers.org/aop.events/888", iri)

	iri, ok = Expand("cheminf:000446")
	assert.True(t, ok)
	assert.Equal(t, "http://semanticscience.org/resource/CHEMINF_000446", iri)

	_, ok = Expand("nope:1")
	assert.False(t, ok)
	_, ok = Expand("literal")
	assert.False(t, ok)
}

func TestPrefixes_Sorted(t *testing.T) {
	p := Prefixes()
	assert.Len(t, p, len(Namespaces))
	assert.IsIncreasing(t, p)
}
