package reference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/source/aopxml"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

const export = `<data xmlns="http://www.aopkb.org/aop-xml">
  <vendor-specific>
    <aop-reference id="a-1" aop-wiki-id="3"/>
    <key-event-reference id="k-1" aop-wiki-id="888"/>
    <key-event-reference id="k-2" aop-wiki-id="889"/>
    <key-event-relationship-reference id="r-1" aop-wiki-id="55"/>
    <stressor-reference id="s-1" aop-wiki-id="12"/>
  </vendor-specific>
</data>`

func buildResolver(t *testing.T) *Resolver {
	t.Helper()
	doc, err := aopxml.Parse(strings.NewReader(export), "http://www.aopkb.org/aop-xml")
	require.NoError(t, err)
	r, err := Build(doc)
	require.NoError(t, err)
	return r
}

func TestBuild_Counts(t *testing.T) {
	r := buildResolver(t)
	assert.Equal(t, 1, r.Count(aop.EntityAOP))
	assert.Equal(t, 2, r.Count(aop.EntityKeyEvent))
	assert.Equal(t, 1, r.Count(aop.EntityKER))
	assert.Equal(t, 1, r.Count(aop.EntityStressor))
	assert.Equal(t, 0, r.Count(aop.EntityChemical))
}

func TestResolve(t *testing.T) {
	r := buildResolver(t)

	tests := []struct {
		entity    aop.EntityType
		localID   string
		stable    string
		canonical string
	}{
		{aop.EntityAOP, "a-1", "3", "aop:3"},
		{aop.EntityKeyEvent, "k-2", "889", "aop.events:889"},
		{aop.EntityKER, "r-1", "55", "aop.relationships:55"},
		{aop.EntityStressor, "s-1", "12", "aop.stressor:12"},
	}
	for _, tt := range tests {
		t.Run(string(tt.entity), func(t *testing.T) {
			got, err := r.Resolve(tt.entity, tt.localID)
			require.NoError(t, err)
			assert.Equal(t, tt.stable, got)

			canonical, err := r.Canonical(tt.entity, tt.localID)
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, canonical)
			assert.True(t, r.Has(tt.entity, tt.localID))
		})
	}
}

func TestResolve_UnknownReference(t *testing.T) {
	r := buildResolver(t)

	_, err := r.Resolve(aop.EntityKeyEvent, "k-404")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownReference))
	assert.Contains(t, err.Error(), "k-404")
	assert.Contains(t, err.Error(), "KE")

	// Tables are separate per entity type.
	_, err = r.Canonical(aop.EntityAOP, "k-1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownReference))
	assert.False(t, r.Has(aop.EntityAOP, "k-1"))
}

func TestResolve_UnknownEntityType(t *testing.T) {
	r := New()
	_, err := r.Resolve(aop.EntityChemical, "c-1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownEntityType))
}

func TestRegister(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(aop.EntityKeyEvent, "k-1", "1"))
	require.NoError(t, r.Register(aop.EntityKeyEvent, "k-1", "1"))

	err := r.Register(aop.EntityKeyEvent, "k-1", "2")
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateReference))

	err = r.Register(aop.EntityKeyEvent, "", "2")
	assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedDocument))

	err = r.Register(aop.EntityGene, "g", "2")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownEntityType))
}

func TestBuild_RejectsIncompleteEntry(t *testing.T) {
	doc, err := aopxml.Parse(strings.NewReader(`<data><vendor-specific><aop-reference id="a-1"/></vendor-specific></data>`), "")
	require.NoError(t, err)
	_, err = Build(doc)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedDocument))
}
