package gene

import (
	_ "embed"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

//go:embed exceptions.yaml
var defaultExceptions []byte

// ExceptionRule suppresses a gene whose match context contains any of
// ContextAny.  When Alias is set the matched bare alias must equal it.
type ExceptionRule struct {
	Gene            string   `yaml:"gene"`
	Alias           string   `yaml:"alias,omitempty"`
	ContextAny      []string `yaml:"context_any"`
	CaseInsensitive bool     `yaml:"case_insensitive,omitempty"`
	Reason          string   `yaml:"reason,omitempty"`
}

func (r ExceptionRule) matches(gene, alias, context string) bool {
	if r.Gene != gene {
		return false
	}
	if r.Alias != "" && r.Alias != alias {
		return false
	}
	if r.CaseInsensitive {
		context = strings.ToLower(context)
	}
	for _, needle := range r.ContextAny {
		if r.CaseInsensitive {
			needle = strings.ToLower(needle)
		}
		if strings.Contains(context, needle) {
			return true
		}
	}
	return false
}

// ExceptionTable is a versioned list of curated false positives.
type ExceptionTable struct {
	Version string          `yaml:"version"`
	Rules   []ExceptionRule `yaml:"rules"`

	byGene map[string][]int
}

// Match returns the first rule that suppresses (gene, alias, context).
func (t *ExceptionTable) Match(gene, alias, context string) (ExceptionRule, bool) {
	if t == nil {
		return ExceptionRule{}, false
	}
	for _, i := range t.byGene[gene] {
		if t.Rules[i].matches(gene, alias, context) {
			return t.Rules[i], true
		}
	}
	return ExceptionRule{}, false
}

// Len returns the number of rules.
func (t *ExceptionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rules)
}

// ParseExceptionTable decodes and validates a YAML exception table.
func ParseExceptionTable(data []byte) (*ExceptionTable, error) {
	var t ExceptionTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExceptionTableBroken, "decoding exception table")
	}
	if t.Version == "" {
		return nil, errors.New(errors.ErrCodeExceptionTableBroken, "exception table has no version")
	}
	t.byGene = make(map[string][]int, len(t.Rules))
	for i, r := range t.Rules {
		if r.Gene == "" || len(r.ContextAny) == 0 {
			return nil, errors.New(errors.ErrCodeExceptionTableBroken, "exception rule needs gene and context_any").
				WithDetail("rule=" + r.Gene + " version=" + t.Version)
		}
		t.byGene[r.Gene] = append(t.byGene[r.Gene], i)
	}
	return &t, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *ExceptionTable
)

// DefaultExceptionTable returns the built-in table.
func DefaultExceptionTable() *ExceptionTable {
	defaultOnce.Do(func() {
		t, err := ParseExceptionTable(defaultExceptions)
		if err != nil {
			panic("gene: embedded exception table is invalid: " + err.Error())
		}
		defaultTable = t
	})
	return defaultTable
}

// LoadExceptionTable reads the table at path, or returns the built-in table
// when path is empty.
func LoadExceptionTable(path string) (*ExceptionTable, error) {
	if path == "" {
		return DefaultExceptionTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExceptionTableBroken, "reading exception table").
			WithDetail("path=" + path)
	}
	return ParseExceptionTable(data)
}
