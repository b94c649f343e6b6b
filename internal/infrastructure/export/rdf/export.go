package rdf

import (
	"os"
	"path/filepath"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// Output file names.
const (
	CoreFile  = "AOPWikiRDF.nt"
	GenesFile = "AOPWikiRDF-Genes.nt"
	VoIDFile  = "AOPWikiRDF-Void.nt"
)

// Result lists the files written by Export.
type Result struct {
	Files   []string
	Stats   Stats
	Skipped int
}

// Export writes the three N-Triples files of g into dir, creating it when
// needed.
func Export(g *aop.Graph, dir string, log logging.Logger) (*Result, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.Named("rdf")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "creating output directory").
			WithDetail("dir=" + dir)
	}

	res := &Result{}
	write := func(name string, fn func(*Writer) error) (int, error) {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeExportFailed, "creating output file").
				WithDetail("path=" + path)
		}
		w := NewWriter(f, log)
		werr := fn(w)
		cerr := f.Close()
		if werr != nil {
			return 0, werr
		}
		if cerr != nil {
			return 0, errors.Wrap(cerr, errors.ErrCodeExportFailed, "closing output file").
				WithDetail("path=" + path)
		}
		res.Files = append(res.Files, path)
		res.Skipped += w.Skipped()
		log.Info("n-triples written",
			logging.String("path", path),
			logging.Int("triples", w.Triples()),
			logging.Int("skipped", w.Skipped()))
		return w.Triples(), nil
	}

	var err error
	if res.Stats.CoreTriples, err = write(CoreFile, func(w *Writer) error { return w.WriteCore(g) }); err != nil {
		return nil, err
	}
	if res.Stats.GenesTriples, err = write(GenesFile, func(w *Writer) error { return w.WriteGenes(g) }); err != nil {
		return nil, err
	}
	if _, err = write(VoIDFile, func(w *Writer) error { return w.WriteVoID(g.Metadata, res.Stats) }); err != nil {
		return nil, err
	}
	return res, nil
}
