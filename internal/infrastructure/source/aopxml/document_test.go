package aopxml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

const ns = "http://www.aopkb.org/aop-xml"

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<data xmlns="http://www.aopkb.org/aop-xml">
  <chemical id="c1">
    <casrn>50-00-0</casrn>
    <preferred-name>Formaldehyde &amp; friends&nbsp;</preferred-name>
    <synonyms>
      <synonym>Methanal</synonym>
      <synonym>Formalin</synonym>
    </synonyms>
  </chemical>
  <key-event id="ke1">
    <title>  Inhibition of complex I  </title>
    <biological-events>
      <biological-event process-id="p1" object-id="o1" action-id="a1"/>
    </biological-events>
  </key-event>
  <vendor-specific>
    <aop-reference id="aop1" aop-wiki-id="3"/>
    <key-event-reference id="ke1" aop-wiki-id="888"/>
  </vendor-specific>
</data>`

func parseSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(sampleExport), ns)
	require.NoError(t, err)
	return doc
}

func TestParse_TreeShape(t *testing.T) {
	doc := parseSample(t)

	assert.Equal(t, ns, doc.Namespace)
	assert.Equal(t, TagRoot, doc.Root.Tag)
	require.Len(t, doc.Elements("chemical"), 1)
	require.Len(t, doc.Elements("key-event"), 1)

	chem := doc.Elements("chemical")[0]
	assert.Equal(t, "c1", chem.Attr("id"))
	assert.Equal(t, "50-00-0", chem.String("casrn"))
	assert.Equal(t, "Formaldehyde & friends ", chem.String("preferred-name"))

	synonyms := chem.All("synonyms", "synonym")
	require.Len(t, synonyms, 2)
	assert.Equal(t, "Methanal", synonyms[0].Text)
	assert.Equal(t, "Formalin", synonyms[1].Text)
}

func TestNode_TextIsTrimmed(t *testing.T) {
	doc := parseSample(t)
	ke := doc.Elements("key-event")[0]
	assert.Equal(t, "Inhibition of complex I", ke.String("title"))
}

func TestNode_MissingPaths(t *testing.T) {
	doc := parseSample(t)
	ke := doc.Elements("key-event")[0]

	v, ok := ke.Value("description")
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.Nil(t, ke.Find("cell-term", "name"))
	assert.Nil(t, ke.All("key-event-stressors", "key-event-stressor"))
	assert.Empty(t, ke.Find("cell-term").Attr("id"))
}

func TestNode_Descendants(t *testing.T) {
	doc := parseSample(t)
	events := doc.Root.Descendants("biological-event")
	require.Len(t, events, 1)
	assert.Equal(t, "p1", events[0].Attr("process-id"))
	assert.Equal(t, "a1", events[0].Attr("action-id"))
}

func TestDocument_VendorSpecific(t *testing.T) {
	doc := parseSample(t)
	vs := doc.VendorSpecific()
	require.NotNil(t, vs)
	refs := vs.All(TagAOPReference)
	require.Len(t, refs, 1)
	assert.Equal(t, "3", refs[0].Attr("aop-wiki-id"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		ns   string
	}{
		{"empty", "", ns},
		{"wrong root", `<root xmlns="http://www.aopkb.org/aop-xml"><vendor-specific/></root>`, ns},
		{"wrong namespace", `<data xmlns="urn:other"><vendor-specific/></data>`, ns},
		{"no vendor section", `<data xmlns="http://www.aopkb.org/aop-xml"><aop id="1"/></data>`, ns},
		{"truncated", `<data xmlns="http://www.aopkb.org/aop-xml"><vendor-specific>`, ns},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.xml), tt.ns)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedDocument))
		})
	}
}

func TestParse_NamespaceCheckDisabled(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<data xmlns="urn:other"><vendor-specific/></data>`), "")
	require.NoError(t, err)
	assert.Equal(t, "urn:other", doc.Namespace)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aop-wiki.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o644))

	doc, err := ParseFile(path, ns)
	require.NoError(t, err)
	assert.Len(t, doc.Elements("chemical"), 1)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.xml"), ns)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedDocument))
}
