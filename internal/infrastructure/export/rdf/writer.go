package rdf

import (
	"bufio"
	"fmt"
	"io"

	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

const xsdDate = "<http://www.w3.org/2001/XMLSchema#date>"

// Writer emits N-Triples statements.  Subjects, predicates and IRI objects
// are given as prefixed names.  A statement whose term cannot be encoded is
// skipped and counted; the first write error is sticky.
type Writer struct {
	w       *bufio.Writer
	log     logging.Logger
	n       int
	skipped int
	err     error
}

// NewWriter wraps w.
func NewWriter(w io.Writer, log logging.Logger) *Writer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Writer{w: bufio.NewWriterSize(w, 1<<16), log: log}
}

// Triples returns the number of statements written.
func (w *Writer) Triples() int { return w.n }

// Skipped returns the number of statements dropped for unencodable terms.
func (w *Writer) Skipped() int { return w.skipped }

// Flush writes buffered output and returns the first error seen.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = errors.Wrap(err, errors.ErrCodeExportFailed, "flushing n-triples")
	}
	return w.err
}

func (w *Writer) emit(s, p, o rdf.Term) {
	if w.err != nil {
		return
	}
	st := rdf.Statement{Subject: s, Predicate: p, Object: o}
	if _, err := fmt.Fprintln(w.w, st.String()); err != nil {
		w.err = errors.Wrap(err, errors.ErrCodeExportFailed, "writing n-triples")
		return
	}
	w.n++
}

func (w *Writer) skip(value string, err error) {
	w.skipped++
	w.log.Debug("statement skipped", logging.String("value", value), logging.Err(err))
}

// curie encodes a prefixed name.
func (w *Writer) curie(name string) (rdf.Term, bool) {
	iri, err := Expand(name)
	if err != nil {
		w.skip(name, err)
		return rdf.Term{}, false
	}
	return w.iri(iri)
}

// iri encodes a full IRI.
func (w *Writer) iri(iri string) (rdf.Term, bool) {
	t, err := rdf.NewIRITerm(iri)
	if err != nil {
		w.skip(iri, err)
		return rdf.Term{}, false
	}
	return t, true
}

func (w *Writer) subjectPredicate(subj, pred string) (rdf.Term, rdf.Term, bool) {
	s, ok := w.resource(subj)
	if !ok {
		return s, rdf.Term{}, false
	}
	var p rdf.Term
	if pred == "a" {
		p, ok = w.curie("rdf:type")
	} else {
		p, ok = w.curie(pred)
	}
	return s, p, ok
}

// resource encodes a subject: a prefixed name, or a blank node when the
// name starts with "_:".
func (w *Writer) resource(name string) (rdf.Term, bool) {
	if len(name) > 2 && name[:2] == "_:" {
		t, err := rdf.NewBlankTerm(name[2:])
		if err != nil {
			w.skip(name, err)
			return rdf.Term{}, false
		}
		return t, true
	}
	return w.curie(name)
}

// Link writes subj pred obj where obj is a prefixed name or blank node.
func (w *Writer) Link(subj, pred, obj string) {
	if obj == "" {
		return
	}
	s, p, ok := w.subjectPredicate(subj, pred)
	if !ok {
		return
	}
	o, ok := w.resource(obj)
	if !ok {
		return
	}
	w.emit(s, p, o)
}

// LinkIRI writes subj pred <iri>.
func (w *Writer) LinkIRI(subj, pred, iri string) {
	s, p, ok := w.subjectPredicate(subj, pred)
	if !ok {
		return
	}
	o, ok := w.iri(iri)
	if !ok {
		return
	}
	w.emit(s, p, o)
}

// Literal writes a plain literal.  Empty text writes nothing.
func (w *Writer) Literal(subj, pred, text string) {
	w.typed(subj, pred, text, "")
}

// Date writes an xsd:date literal.
func (w *Writer) Date(subj, pred, text string) {
	w.typed(subj, pred, text, xsdDate)
}

func (w *Writer) typed(subj, pred, text, qual string) {
	if text == "" {
		return
	}
	s, p, ok := w.subjectPredicate(subj, pred)
	if !ok {
		return
	}
	o, err := rdf.NewLiteralTerm(text, qual)
	if err != nil {
		w.skip(text, err)
		return
	}
	w.emit(s, p, o)
}
