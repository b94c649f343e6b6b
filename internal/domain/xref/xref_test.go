package xref

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Gene ")
	require.NoError(t, err)
	assert.Equal(t, KindGene, k)
	assert.Equal(t, "H", k.SystemCode())

	k, err = ParseKind("chemical")
	require.NoError(t, err)
	assert.Equal(t, "Ca", k.SystemCode())

	_, err = ParseKind("protein")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownMappingKind))
}

func TestCodeTables(t *testing.T) {
	tests := []struct {
		kind  Kind
		code  string
		value string
		ns    string
		want  string
	}{
		{KindChemical, "Ce", "CHEBI:16842", "chebi", "16842"},
		{KindChemical, "Cs", "692", "chemspider", "692"},
		{KindChemical, "Kd", "D00017", "kegg.compound", "D00017"},
		{KindChemical, "Ck", "C00067", "kegg.compound", "C00067"},
		{KindChemical, "Cpc", "712", "pubchem.compound", "712"},
		{KindGene, "L", "672", "ncbigene", "672"},
		{KindGene, "S", "P38398", "uniprot", "P38398"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			m, ok := tt.kind.ByCode(tt.code)
			require.True(t, ok)
			assert.Equal(t, tt.ns, m.Namespace.Prefix)
			assert.Equal(t, tt.want, m.Apply(tt.value))
		})
	}

	_, ok := KindChemical.ByCode("X")
	assert.False(t, ok)
	_, ok = KindGene.ByCode("Ce")
	assert.False(t, ok)
}

func TestDatabaseTables(t *testing.T) {
	m, ok := KindChemical.ByDatabase("ChEBI")
	require.True(t, ok)
	assert.Equal(t, "16842", m.Apply("CHEBI:16842"))

	m, ok = KindGene.ByDatabase("Uniprot-TrEMBL")
	require.True(t, ok)
	assert.Same(t, UniProt, m.Namespace)

	_, ok = KindGene.ByDatabase("ChEBI")
	assert.False(t, ok)
}

func TestNamespaces(t *testing.T) {
	assert.Len(t, KindChemical.Namespaces(), 9)
	assert.Len(t, KindGene.Namespaces(), 3)

	ns, ok := LookupNamespace("ensembl")
	require.True(t, ok)
	assert.Equal(t, "edam:data_1033", ns.TypeIRI)
	_, ok = LookupNamespace("cas")
	assert.False(t, ok)
}

func TestSet(t *testing.T) {
	var s Set
	assert.True(t, s.Add("chebi", "16842"))
	assert.False(t, s.Add("chebi", "16842"))
	assert.True(t, s.Add("wikidata", "Q161210"))
	assert.False(t, s.Add("chebi", ""))
	assert.Equal(t, 2, s.Len())

	other := NewSet(Reference{"chebi", "16842"}, Reference{"chebi", "29484"})
	s.Merge(other)
	s.Merge(nil)

	assert.Equal(t, []string{"16842", "29484"}, s.Values("chebi"))
	assert.Equal(t, "chebi:16842", s.Refs()[0].ID())
	assert.Equal(t, 3, s.Len())

	var empty *Set
	assert.Zero(t, empty.Len())
	assert.Nil(t, empty.Refs())
}

func TestRegistry_Concurrent(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Record(NewSet(Reference{"chebi", "16842"}, Reference{"pubchem.compound", "712"}))
		}()
	}
	wg.Wait()
	reg.Record(nil)

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"16842"}, reg.Values("chebi"))
	assert.ElementsMatch(t, []string{"chebi", "pubchem.compound"}, reg.Namespaces())
	assert.Nil(t, reg.Values("hmdb"))
}

func TestResult_Failed(t *testing.T) {
	assert.False(t, Result{Key: "50-00-0", Refs: NewSet()}.Failed())
	assert.True(t, Result{Key: "x", Err: errors.New(errors.ErrCodeResolutionSoftFailure, "boom")}.Failed())
}
