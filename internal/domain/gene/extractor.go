package gene

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
)

// ContextRadius is the number of characters kept on each side of a match for
// false-positive filtering.
const ContextRadius = 50

// shortAliasLen is the alias length at or below which a bracketed context
// rejects the match.
const shortAliasLen = 2

const bracketChars = "()[]{}"

var romanNumeral = regexp.MustCompile(`^[IVX]+$`)

// Match is one confirmed delimited variant.
type Match struct {
	GeneID  string
	Variant string
	Alias   string
	Context string
}

// Rejection explains why a gene was dropped for a text.
type Rejection struct {
	Match
	Reason string
}

// Extractor finds gene mentions.  It is safe for concurrent use: the
// lexicon and exception table are read-only.
type Extractor struct {
	lexicon    *Lexicon
	exceptions *ExceptionTable
	log        logging.Logger
}

// NewExtractor builds an extractor over lex.  A nil exceptions table means
// the built-in one.
func NewExtractor(lex *Lexicon, exceptions *ExceptionTable, log logging.Logger) *Extractor {
	if exceptions == nil {
		exceptions = DefaultExceptionTable()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Extractor{lexicon: lex, exceptions: exceptions, log: log}
}

// Extract returns the canonical ids of the genes mentioned in text, in
// lexicon order, without duplicates.
func (x *Extractor) Extract(text string) []string {
	matches, _ := x.ExtractDetailed(text)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	last := ""
	for _, m := range matches {
		if m.GeneID != last {
			out = append(out, m.GeneID)
			last = m.GeneID
		}
	}
	return out
}

// ExtractDetailed returns every confirmed variant of the accepted genes and
// the first rejection of every dropped gene.
func (x *Extractor) ExtractDetailed(text string) ([]Match, []Rejection) {
	if text == "" || x.lexicon == nil {
		return nil, nil
	}
	var (
		accepted []Match
		rejected []Rejection
	)
	for _, e := range x.lexicon.Entries() {
		if !screen(e, text) {
			continue
		}
		matches := confirm(e, text)
		if len(matches) == 0 {
			continue
		}
		if rej, bad := x.filter(e, matches); bad {
			x.log.Debug("gene mention rejected",
				logging.String("gene", rej.GeneID),
				logging.String("alias", rej.Alias),
				logging.String("reason", rej.Reason))
			rejected = append(rejected, rej)
			continue
		}
		accepted = append(accepted, matches...)
	}
	return accepted, rejected
}

func screen(e *Entry, text string) bool {
	for _, a := range e.LooseAliases {
		if strings.Contains(text, a) {
			return true
		}
	}
	return false
}

func confirm(e *Entry, text string) []Match {
	var out []Match
	id := e.ID()
	for _, v := range e.DelimitedAliases {
		i := strings.Index(text, v)
		if i < 0 {
			continue
		}
		out = append(out, Match{
			GeneID:  id,
			Variant: v,
			Alias:   strings.Trim(v, delimiterCutset),
			Context: window(text, i, i+len(v), ContextRadius),
		})
	}
	return out
}

// filter applies the false-positive bank.  One rejected variant drops the
// whole gene.
func (x *Extractor) filter(e *Entry, matches []Match) (Rejection, bool) {
	for _, m := range matches {
		if reason := x.falsePositive(e.Symbol, m); reason != "" {
			return Rejection{Match: m, Reason: reason}, true
		}
	}
	return Rejection{}, false
}

func (x *Extractor) falsePositive(symbol string, m Match) string {
	alias := m.Alias
	switch {
	case len(alias) == 1 && alias[0] >= 'A' && alias[0] <= 'Z':
		return "single letter alias"
	case romanNumeral.MatchString(alias):
		return "roman numeral alias"
	case utf8.RuneCountInString(alias) <= shortAliasLen && strings.ContainsAny(m.Context, bracketChars):
		return "short alias in bracketed context"
	}
	if rule, ok := x.exceptions.Match(symbol, alias, m.Context); ok {
		if rule.Reason != "" {
			return "exception: " + rule.Reason
		}
		return "exception table"
	}
	return ""
}

// window returns text[start:end] widened by radius characters on each side.
func window(text string, start, end, radius int) string {
	for n := 0; n < radius && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	for n := 0; n < radius && end < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}
