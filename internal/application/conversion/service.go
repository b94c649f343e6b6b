// Package conversion runs one AOP-Wiki export through the whole pipeline:
// lexicon loading, parsing, assembly, export and bookkeeping.
package conversion

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/aopwiki-graph/internal/application/assembly"
	"github.com/turtacn/aopwiki-graph/internal/application/resolution"
	"github.com/turtacn/aopwiki-graph/internal/config"
	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/internal/domain/gene"
	"github.com/turtacn/aopwiki-graph/internal/domain/run"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/export/rdf"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/source/aopxml"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/storage/minio"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// ObjectStore reads inputs from and writes outputs to object storage.
type ObjectStore interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
	UploadOutputs(ctx context.Context, runID string, files []string) ([]minio.Uploaded, error)
}

// EventPublisher announces finished runs.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key, eventType string, payload any) error
}

// Metrics observes run lifecycles.
type Metrics interface {
	RunStarted(source string)
	RunFinished(source string, s prometheus.RunSnapshot)
	RecordEvent(topic string, err error)
}

// PropertiesSource reports the mapping service's data source versions.
type PropertiesSource interface {
	Properties(ctx context.Context) (map[string]string, error)
}

// Dependencies are the collaborators of a Service. Resolver is required;
// every other field may be nil, which disables that concern.
type Dependencies struct {
	Resolver   resolution.Service
	Properties PropertiesSource
	Store      ObjectStore
	Graph      repositories.GraphRepository
	Ledger     run.Repository
	Publisher  EventPublisher
	Metrics    Metrics
	Logger     logging.Logger
}

// Options are the static settings of a Service.
type Options struct {
	OutputDir      string
	Sinks          []string
	Namespace      string
	ConvertedTopic string
	ExceptionsPath string
}

// OptionsFromConfig maps the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputDir:      cfg.Output.Dir,
		Sinks:          cfg.Output.Sinks,
		Namespace:      cfg.Source.Namespace,
		ConvertedTopic: cfg.Kafka.ConvertedTopic,
		ExceptionsPath: cfg.Lexicon.ExceptionsPath,
	}
}

// Request names the inputs of one run. A local path wins over an object
// location. An empty OutputDir uses the service default.
type Request struct {
	SourcePath    string
	SourceBucket  string
	SourceObject  string
	LexiconPath   string
	LexiconBucket string
	LexiconObject string
	OutputDir     string
}

// RequestFromConfig builds the request described by the source and lexicon
// config sections.
func RequestFromConfig(cfg *config.Config) Request {
	return Request{
		SourcePath:    cfg.Source.XMLPath,
		SourceBucket:  cfg.Source.Bucket,
		SourceObject:  cfg.Source.Object,
		LexiconPath:   cfg.Lexicon.HGNCPath,
		LexiconBucket: cfg.Lexicon.Bucket,
		LexiconObject: cfg.Lexicon.Object,
	}
}

func (r Request) sourceName() string {
	if r.SourcePath != "" {
		return filepath.Base(r.SourcePath)
	}
	return path.Base(r.SourceObject)
}

func (r Request) lexiconName() string {
	if r.LexiconPath != "" {
		return filepath.Base(r.LexiconPath)
	}
	if r.LexiconObject != "" {
		return path.Base(r.LexiconObject)
	}
	return ""
}

// RunSummary describes a finished run, successful or not.
type RunSummary struct {
	Run      *run.Run
	Report   *aop.Report
	Files    []string
	Triples  rdf.Stats
	Graph    *repositories.WriteStats
	Uploaded []minio.Uploaded
}

// Service runs conversions. It is safe for sequential reuse; concurrent
// runs should use separate output directories.
type Service struct {
	deps   Dependencies
	opts   Options
	logger logging.Logger
	now    func() time.Time
}

func NewService(deps Dependencies, opts Options) (*Service, error) {
	if deps.Resolver == nil {
		return nil, errors.New(errors.ErrCodeValidation, "conversion requires a resolver")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = config.DefaultOutputDir
	}
	if len(opts.Sinks) == 0 {
		opts.Sinks = []string{config.SinkNTriples}
	}
	if opts.Namespace == "" {
		opts.Namespace = config.DefaultSourceNamespace
	}
	if opts.ConvertedTopic == "" {
		opts.ConvertedTopic = kafka.TopicGraphConverted
	}
	log := deps.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{deps: deps, opts: opts, logger: log.Named("conversion"), now: time.Now}, nil
}

func (s *Service) hasSink(name string) bool {
	for _, v := range s.opts.Sinks {
		if v == name {
			return true
		}
	}
	return false
}

// Run executes one conversion. The returned summary is non-nil whenever the
// run was started, including failed runs; err is the first fatal error.
func (s *Service) Run(ctx context.Context, req Request) (*RunSummary, error) {
	if req.SourcePath == "" && req.SourceObject == "" {
		return nil, errors.New(errors.ErrCodeValidation, "no source export given")
	}
	if req.LexiconPath == "" && req.LexiconObject == "" {
		return nil, errors.New(errors.ErrCodeValidation, "no gene lexicon given")
	}
	if req.OutputDir == "" {
		req.OutputDir = s.opts.OutputDir
	}

	rn := run.NewRun(req.sourceName(), req.lexiconName(), s.now())
	log := s.logger.With(logging.RunID(rn.ID.String()), logging.String("source", rn.Source))

	if s.deps.Ledger != nil {
		if err := s.deps.Ledger.Start(ctx, rn); err != nil {
			return nil, err
		}
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.RunStarted(rn.Source)
	}
	log.Info("conversion started", logging.String("lexicon", rn.Lexicon))

	sum := &RunSummary{Run: rn}
	err := s.execute(ctx, rn.ID, req, sum, log)
	if err != nil {
		rn.Fail(err, s.now())
		log.Error("conversion failed", logging.Err(err))
	} else {
		rn.Succeed(sum.Report, sum.outputs(), s.now())
		log.Info("conversion finished",
			logging.Duration("duration", rn.Duration()),
			logging.Int("gene_mentions", rn.GeneMentions),
			logging.Int("soft_failures", rn.SoftFailures))
	}

	// Bookkeeping runs on a fresh context so a cancelled run is still
	// recorded.
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	s.finish(bctx, sum, log)

	if err != nil {
		code := errors.GetCode(err)
		if code == errors.CodeUnknown {
			code = errors.ErrCodeRunFailed
		}
		return sum, errors.Wrap(err, code, "conversion run failed").
			WithDetail("run_id=" + rn.ID.String())
	}
	return sum, nil
}

func (s *Service) execute(ctx context.Context, runID uuid.UUID, req Request, sum *RunSummary, log logging.Logger) error {
	lex, lexModified, err := s.loadLexicon(ctx, req, log)
	if err != nil {
		return err
	}
	exceptions, err := gene.LoadExceptionTable(s.opts.ExceptionsPath)
	if err != nil {
		return err
	}
	log.Debug("exception table loaded", logging.Int("rules", exceptions.Len()))

	doc, err := s.loadDocument(ctx, req)
	if err != nil {
		return err
	}

	meta := aop.Metadata{
		RunID:           runID.String(),
		SourceName:      req.sourceName(),
		LexiconName:     req.lexiconName(),
		LexiconModified: lexModified,
		GeneratedAt:     s.now().UTC(),
	}
	if s.deps.Properties != nil {
		props, perr := s.deps.Properties.Properties(ctx)
		if perr != nil {
			log.Warn("mapping service properties unavailable", logging.Err(perr))
		} else {
			meta.MappingProperties = props
		}
	}

	extractor := gene.NewExtractor(lex, exceptions, log)
	g, rep, err := assembly.NewAssembler(extractor, s.deps.Resolver, log).Assemble(ctx, doc, meta)
	if err != nil {
		return err
	}
	rep.MalformedLexiconRows = lex.Malformed
	sum.Report = rep

	// N-Triples are always written; they are the payload of the object
	// store upload.
	res, err := rdf.Export(g, req.OutputDir, log)
	if err != nil {
		return err
	}
	sum.Files = res.Files
	sum.Triples = res.Stats

	if s.hasSink(config.SinkNeo4j) {
		if s.deps.Graph == nil {
			log.Warn("neo4j sink configured without a graph repository; skipped")
		} else {
			if err := s.deps.Graph.EnsureConstraints(ctx); err != nil {
				return err
			}
			if sum.Graph, err = s.deps.Graph.WriteGraph(ctx, g); err != nil {
				return err
			}
		}
	}
	if s.hasSink(config.SinkMinIO) {
		if s.deps.Store == nil {
			log.Warn("minio sink configured without an object store; skipped")
		} else if sum.Uploaded, err = s.deps.Store.UploadOutputs(ctx, runID.String(), res.Files); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) loadLexicon(ctx context.Context, req Request, log logging.Logger) (*gene.Lexicon, time.Time, error) {
	var (
		rc       io.ReadCloser
		modified time.Time
		where    string
	)
	if req.LexiconPath != "" {
		where = req.LexiconPath
		f, err := os.Open(req.LexiconPath)
		if err != nil {
			return nil, time.Time{}, errors.Wrap(err, errors.ErrCodeLexiconUnreadable, "opening gene lexicon").
				WithDetail("path=" + where)
		}
		if st, err := f.Stat(); err == nil {
			modified = st.ModTime().UTC()
		}
		rc = f
	} else {
		where = req.LexiconBucket + "/" + req.LexiconObject
		if s.deps.Store == nil {
			return nil, time.Time{}, errors.New(errors.ErrCodeLexiconUnreadable, "lexicon is an object but no object store is configured").
				WithDetail("object=" + where)
		}
		obj, err := s.deps.Store.Open(ctx, req.LexiconBucket, req.LexiconObject)
		if err != nil {
			return nil, time.Time{}, errors.Wrap(err, errors.ErrCodeLexiconUnreadable, "opening gene lexicon").
				WithDetail("object=" + where)
		}
		modified = s.now().UTC()
		rc = obj
	}
	defer rc.Close()

	lex, err := gene.LoadLexicon(rc, log)
	if err != nil {
		return nil, time.Time{}, errors.Wrap(err, errors.ErrCodeLexiconUnreadable, "reading gene lexicon").
			WithDetail(where)
	}
	return lex, modified, nil
}

func (s *Service) loadDocument(ctx context.Context, req Request) (*aopxml.Document, error) {
	var (
		rc   io.ReadCloser
		name string
	)
	if req.SourcePath != "" {
		name = req.SourcePath
		f, err := os.Open(req.SourcePath)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMalformedDocument, "opening source export").
				WithDetail("path=" + name)
		}
		rc = f
	} else {
		name = req.SourceObject
		if s.deps.Store == nil {
			return nil, errors.New(errors.ErrCodeValidation, "source is an object but no object store is configured")
		}
		obj, err := s.deps.Store.Open(ctx, req.SourceBucket, req.SourceObject)
		if err != nil {
			return nil, err
		}
		rc = obj
	}
	defer rc.Close()

	var r io.Reader = rc
	if strings.HasSuffix(name, ".gz") {
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMalformedDocument, "opening gzip stream").
				WithDetail("source=" + name)
		}
		defer zr.Close()
		r = zr
	}
	return aopxml.Parse(r, s.opts.Namespace)
}

func (sum *RunSummary) outputs() []string {
	out := make([]string, 0, len(sum.Files)+len(sum.Uploaded))
	out = append(out, sum.Files...)
	for _, u := range sum.Uploaded {
		out = append(out, "s3://"+u.Bucket+"/"+u.Object)
	}
	return out
}

// finish records the outcome in the ledger, the metrics and the event
// stream. None of these can change the outcome of the run.
func (s *Service) finish(ctx context.Context, sum *RunSummary, log logging.Logger) {
	rn := sum.Run
	if s.deps.Ledger != nil {
		if err := s.deps.Ledger.Finish(ctx, rn); err != nil {
			log.Warn("failed to record run completion", logging.Err(err))
		}
	}
	if s.deps.Metrics != nil {
		snap := prometheus.RunSnapshot{
			Status:       string(rn.Status),
			Duration:     rn.Duration(),
			Counts:       rn.Counts,
			GeneMentions: rn.GeneMentions,
			SoftFailures: softFailuresByKind(sum.Report),
			Triples: map[string]int{
				rdf.CoreFile:  sum.Triples.CoreTriples,
				rdf.GenesFile: sum.Triples.GenesTriples,
			},
		}
		s.deps.Metrics.RunFinished(rn.Source, snap)
	}
	if s.deps.Publisher != nil {
		payload := kafka.GraphConvertedPayload{
			RunID:        rn.ID.String(),
			Source:       rn.Source,
			Status:       string(rn.Status),
			Counts:       rn.Counts,
			GeneMentions: rn.GeneMentions,
			SoftFailures: rn.SoftFailures,
			Outputs:      rn.Outputs,
			DurationMs:   rn.Duration().Milliseconds(),
			Error:        rn.Error,
		}
		err := s.deps.Publisher.PublishEvent(ctx, s.opts.ConvertedTopic, rn.ID.String(), kafka.EventGraphConverted, payload)
		if err != nil {
			log.Warn("failed to publish conversion event", logging.Err(err))
		}
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordEvent(s.opts.ConvertedTopic, err)
		}
	}
}

func softFailuresByKind(rep *aop.Report) map[string]int {
	if rep == nil || len(rep.SoftFailures) == 0 {
		return nil
	}
	out := make(map[string]int)
	for _, f := range rep.SoftFailures {
		out[f.Kind]++
	}
	return out
}
