// Package gene finds HGNC gene mentions in free text.
//
// The Lexicon is built once from the HGNC custom download (tab separated,
// one header row, columns: HGNC ID, approved symbol, approved name, previous
// symbols, synonyms, ...).  For every gene it keeps a loose alias set used
// as a cheap screen, and a delimited variant set (each alias wrapped in every
// ordered pair of delimiters) used to confirm a word-bounded match.  The
// Extractor runs screen, confirm and a false-positive filter bank over one
// text field at a time.
package gene

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// Delimiters are the characters that may bound a gene alias in text.
var Delimiters = []string{" ", "(", ")", "[", "]", ",", "."}

// delimiterCutset is Delimiters as a strings.Trim cutset.
const delimiterCutset = " ()[],."

// clusterMarker marks gene-family cluster placeholders in the symbol column.
const clusterMarker = "@"

const (
	colSymbol   = 1
	colName     = 2
	colPrevious = 3
	colSynonyms = 4
	minColumns  = 3
)

// Entry is the indexed form of one gene.
type Entry struct {
	Symbol           string
	Name             string
	LooseAliases     []string
	DelimitedAliases []string
}

// ID returns the canonical gene id ("hgnc:BRCA1").
func (e *Entry) ID() string { return "hgnc:" + e.Symbol }

// Lexicon is the immutable gene index shared by extractors.
type Lexicon struct {
	entries  []*Entry
	bySymbol map[string]int

	// Malformed counts rows skipped for missing columns.
	Malformed int
	// Clusters counts rows excluded as gene-family clusters.
	Clusters int
}

// NewLexicon returns an empty lexicon; Add fills it.
func NewLexicon() *Lexicon {
	return &Lexicon{bySymbol: make(map[string]int)}
}

// Add indexes one gene.  aliases are previous symbols and synonyms.  A
// repeated symbol replaces the earlier entry in place.  Symbols carrying the
// cluster marker are ignored and Add returns nil.
func (l *Lexicon) Add(symbol, name string, aliases ...string) *Entry {
	if symbol == "" || strings.Contains(symbol, clusterMarker) {
		return nil
	}
	e := &Entry{Symbol: symbol, Name: name}
	seen := make(map[string]struct{})
	add := func(a string) {
		if a == "" {
			return
		}
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		e.LooseAliases = append(e.LooseAliases, a)
	}
	add(symbol)
	add(name)
	for _, a := range aliases {
		add(a)
	}
	e.DelimitedAliases = make([]string, 0, len(e.LooseAliases)*len(Delimiters)*len(Delimiters))
	for _, a := range e.LooseAliases {
		for _, left := range Delimiters {
			for _, right := range Delimiters {
				e.DelimitedAliases = append(e.DelimitedAliases, left+a+right)
			}
		}
	}

	if i, ok := l.bySymbol[symbol]; ok {
		l.entries[i] = e
	} else {
		l.bySymbol[symbol] = len(l.entries)
		l.entries = append(l.entries, e)
	}
	return e
}

// Entries returns the genes in table order.  The slice must not be
// modified.
func (l *Lexicon) Entries() []*Entry { return l.entries }

// Lookup returns the entry of symbol.
func (l *Lexicon) Lookup(symbol string) (*Entry, bool) {
	i, ok := l.bySymbol[symbol]
	if !ok {
		return nil, false
	}
	return l.entries[i], true
}

// Len returns the number of indexed genes.
func (l *Lexicon) Len() int { return len(l.entries) }

// LoadLexicon parses an HGNC table.  The first line is the header.  Rows
// with fewer than three columns are logged, counted in Malformed and
// skipped; they never abort loading.  Only read errors are returned.
func LoadLexicon(r io.Reader, log logging.Logger) (*Lexicon, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	l := NewLexicon()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		if line == 1 {
			continue
		}
		row := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(row) == "" {
			continue
		}
		cols := strings.Split(row, "\t")
		if len(cols) < minColumns || cols[colSymbol] == "" {
			l.Malformed++
			log.Warn("skipping malformed lexicon row",
				logging.Err(errors.MalformedLexiconRow(line, len(cols))),
				logging.Int("line", line))
			continue
		}
		symbol := cols[colSymbol]
		if strings.Contains(symbol, clusterMarker) {
			l.Clusters++
			continue
		}
		var aliases []string
		for _, c := range []int{colPrevious, colSynonyms} {
			if c < len(cols) {
				aliases = append(aliases, splitList(cols[c])...)
			}
		}
		l.Add(symbol, cols[colName], aliases...)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLexiconUnreadable, "reading gene lexicon").
			WithDetail("line=" + strconv.Itoa(line))
	}
	log.Info("gene lexicon loaded",
		logging.Int("genes", l.Len()),
		logging.Int("malformed_rows", l.Malformed),
		logging.Int("clusters", l.Clusters))
	return l, nil
}

// splitList splits an HGNC sub-list ("BRCC1, RNF53").
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ", ")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
