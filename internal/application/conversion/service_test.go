package conversion

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/aopwiki-graph/internal/config"
	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/internal/domain/run"
	"github.com/turtacn/aopwiki-graph/internal/domain/xref"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/export/rdf"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/storage/minio"
	"github.com/turtacn/aopwiki-graph/internal/testutil"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

const (
	sourceFixture  = "testdata/aop-wiki.xml"
	lexiconFixture = "testdata/hgnc.txt"
)

type stubResolver struct{}

func (stubResolver) ResolveBatch(_ context.Context, kind xref.Kind, keys []string) (map[string]xref.Result, error) {
	out := make(map[string]xref.Result, len(keys))
	for _, k := range keys {
		refs := xref.NewSet()
		if k == "BRCA1" {
			refs = xref.NewSet(xref.Reference{Namespace: "ncbigene", Value: "672"})
		}
		out[k] = xref.Result{Key: k, Refs: refs, Path: xref.PathBatch}
	}
	return out, nil
}

func (stubResolver) Registry() *xref.Registry { return xref.NewRegistry() }

type MockLedger struct{ mock.Mock }

func (m *MockLedger) Start(ctx context.Context, r *run.Run) error  { return m.Called(ctx, r).Error(0) }
func (m *MockLedger) Finish(ctx context.Context, r *run.Run) error { return m.Called(ctx, r).Error(0) }

func (m *MockLedger) Get(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.Run), args.Error(1)
}

func (m *MockLedger) ListRecent(ctx context.Context, limit int) ([]*run.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*run.Run), args.Error(1)
}

type MockMetrics struct{ mock.Mock }

func (m *MockMetrics) RunStarted(source string) { m.Called(source) }
func (m *MockMetrics) RunFinished(source string, s prometheus.RunSnapshot) {
	m.Called(source, s)
}
func (m *MockMetrics) RecordEvent(topic string, err error) { m.Called(topic, err) }

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) PublishEvent(ctx context.Context, topic, key, eventType string, payload any) error {
	return m.Called(ctx, topic, key, eventType, payload).Error(0)
}

type MockStore struct{ mock.Mock }

func (m *MockStore) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, object)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStore) UploadOutputs(ctx context.Context, runID string, files []string) ([]minio.Uploaded, error) {
	args := m.Called(ctx, runID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]minio.Uploaded), args.Error(1)
}

type MockGraph struct{ mock.Mock }

func (m *MockGraph) EnsureConstraints(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockGraph) WriteGraph(ctx context.Context, g *aop.Graph) (*repositories.WriteStats, error) {
	args := m.Called(ctx, g)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.WriteStats), args.Error(1)
}

type MockProperties struct{ mock.Mock }

func (m *MockProperties) Properties(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

type ConversionServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	outDir    string
	logger    *testutil.MockLogger
	ledger    *MockLedger
	metrics   *MockMetrics
	publisher *MockPublisher
	store     *MockStore
	graph     *MockGraph
	props     *MockProperties
}

func (s *ConversionServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.outDir = s.T().TempDir()
	s.logger = testutil.NewMockLogger()
	s.ledger = new(MockLedger)
	s.metrics = new(MockMetrics)
	s.publisher = new(MockPublisher)
	s.store = new(MockStore)
	s.graph = new(MockGraph)
	s.props = new(MockProperties)
}

func (s *ConversionServiceTestSuite) newService(sinks ...string) *Service {
	svc, err := NewService(Dependencies{
		Resolver:   stubResolver{},
		Properties: s.props,
		Store:      s.store,
		Graph:      s.graph,
		Ledger:     s.ledger,
		Publisher:  s.publisher,
		Metrics:    s.metrics,
		Logger:     s.logger,
	}, Options{OutputDir: s.outDir, Sinks: sinks})
	s.Require().NoError(err)
	return svc
}

func (s *ConversionServiceTestSuite) expectBookkeeping(status run.Status) {
	s.ledger.On("Start", mock.Anything, mock.AnythingOfType("*run.Run")).Return(nil).Once()
	s.ledger.On("Finish", mock.Anything, mock.MatchedBy(func(r *run.Run) bool {
		return r.Status == status
	})).Return(nil).Once()
	s.metrics.On("RunStarted", "aop-wiki.xml").Once()
	s.metrics.On("RunFinished", "aop-wiki.xml", mock.MatchedBy(func(snap prometheus.RunSnapshot) bool {
		return snap.Status == string(status)
	})).Once()
	s.publisher.On("PublishEvent", mock.Anything, kafka.TopicGraphConverted, mock.Anything, kafka.EventGraphConverted,
		mock.MatchedBy(func(p kafka.GraphConvertedPayload) bool { return p.Status == string(status) })).
		Return(nil).Once()
	s.metrics.On("RecordEvent", kafka.TopicGraphConverted, nil).Once()
}

func (s *ConversionServiceTestSuite) assertAll() {
	s.ledger.AssertExpectations(s.T())
	s.metrics.AssertExpectations(s.T())
	s.publisher.AssertExpectations(s.T())
	s.store.AssertExpectations(s.T())
	s.graph.AssertExpectations(s.T())
	s.props.AssertExpectations(s.T())
}

func (s *ConversionServiceTestSuite) TestRun_LocalFiles() {
	s.expectBookkeeping(run.StatusSucceeded)
	s.props.On("Properties", mock.Anything).Return(map[string]string{"DATASOURCES_HMDB_VERSION": "5.0"}, nil)

	sum, err := s.newService().Run(s.ctx, Request{SourcePath: sourceFixture, LexiconPath: lexiconFixture})
	s.Require().NoError(err)
	s.Require().NotNil(sum)

	s.Equal(run.StatusSucceeded, sum.Run.Status)
	s.Equal("hgnc.txt", sum.Run.Lexicon)
	s.Equal(1, sum.Report.MalformedLexiconRows)
	s.Positive(sum.Report.GeneMentions)
	s.Positive(sum.Triples.CoreTriples)
	s.Nil(sum.Graph)
	s.Empty(sum.Uploaded)

	s.Require().Len(sum.Files, 3)
	for _, name := range []string{rdf.CoreFile, rdf.GenesFile, rdf.VoIDFile} {
		_, statErr := os.Stat(filepath.Join(s.outDir, name))
		s.NoError(statErr, name)
	}
	s.Equal(sum.Files, sum.Run.Outputs)
	s.True(s.logger.HasMessage("info", "conversion finished"))
	s.assertAll()
}

func (s *ConversionServiceTestSuite) TestRun_AllSinks() {
	s.expectBookkeeping(run.StatusSucceeded)
	s.props.On("Properties", mock.Anything).Return(nil, assert.AnError)
	s.graph.On("EnsureConstraints", mock.Anything).Return(nil).Once()
	s.graph.On("WriteGraph", mock.Anything, mock.AnythingOfType("*aop.Graph")).
		Return(&repositories.WriteStats{Nodes: 10, Relationships: 12}, nil).Once()
	s.store.On("UploadOutputs", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(files []string) bool {
		return len(files) == 3
	})).Return([]minio.Uploaded{{Bucket: "aopwiki", Object: "runs/x/AOPWikiRDF.nt"}}, nil).Once()

	svc := s.newService(config.SinkNTriples, config.SinkNeo4j, config.SinkMinIO)
	sum, err := svc.Run(s.ctx, Request{SourcePath: sourceFixture, LexiconPath: lexiconFixture})
	s.Require().NoError(err)

	s.Equal(10, sum.Graph.Nodes)
	s.Require().Len(sum.Uploaded, 1)
	s.Contains(sum.Run.Outputs, "s3://aopwiki/runs/x/AOPWikiRDF.nt")
	s.True(s.logger.HasMessage("warn", "mapping service properties unavailable"))
	s.assertAll()
}

func (s *ConversionServiceTestSuite) TestRun_GzipObjectSource() {
	raw, err := os.ReadFile(sourceFixture)
	s.Require().NoError(err)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write(raw)
	s.Require().NoError(err)
	s.Require().NoError(zw.Close())

	s.ledger.On("Start", mock.Anything, mock.Anything).Return(nil)
	s.ledger.On("Finish", mock.Anything, mock.Anything).Return(nil)
	s.metrics.On("RunStarted", "aop-wiki-xml-2024-01-01.gz")
	s.metrics.On("RunFinished", "aop-wiki-xml-2024-01-01.gz", mock.Anything)
	s.metrics.On("RecordEvent", mock.Anything, mock.Anything)
	s.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.props.On("Properties", mock.Anything).Return(map[string]string{}, nil)
	s.store.On("Open", mock.Anything, "aopwiki", "exports/aop-wiki-xml-2024-01-01.gz").
		Return(io.NopCloser(&buf), nil).Once()

	sum, err := s.newService().Run(s.ctx, Request{
		SourceBucket: "aopwiki",
		SourceObject: "exports/aop-wiki-xml-2024-01-01.gz",
		LexiconPath:  lexiconFixture,
	})
	s.Require().NoError(err)
	s.Equal("aop-wiki-xml-2024-01-01.gz", sum.Run.Source)
	s.Positive(sum.Triples.CoreTriples)
	s.store.AssertExpectations(s.T())
}

func (s *ConversionServiceTestSuite) TestRun_UnreadableLexicon() {
	s.expectBookkeeping(run.StatusFailed)

	sum, err := s.newService().Run(s.ctx, Request{SourcePath: sourceFixture, LexiconPath: "testdata/missing.txt"})
	s.Require().Error(err)
	s.True(errors.IsCode(err, errors.ErrCodeLexiconUnreadable))
	s.Require().NotNil(sum)
	s.Equal(run.StatusFailed, sum.Run.Status)
	s.NotEmpty(sum.Run.Error)
	s.True(s.logger.HasMessage("error", "conversion failed"))
	s.assertAll()
}

func (s *ConversionServiceTestSuite) TestRun_GraphSinkFailure() {
	s.expectBookkeeping(run.StatusFailed)
	s.props.On("Properties", mock.Anything).Return(map[string]string{}, nil)
	s.graph.On("EnsureConstraints", mock.Anything).
		Return(errors.New(errors.ErrCodeGraphSinkWrite, "neo4j unavailable")).Once()

	_, err := s.newService(config.SinkNeo4j).Run(s.ctx, Request{SourcePath: sourceFixture, LexiconPath: lexiconFixture})
	s.True(errors.IsCode(err, errors.ErrCodeGraphSinkWrite))
	s.assertAll()
}

func (s *ConversionServiceTestSuite) TestRun_LedgerStartFailureAborts() {
	s.ledger.On("Start", mock.Anything, mock.Anything).
		Return(errors.New(errors.ErrCodeRunLedgerFailure, "ledger down")).Once()

	sum, err := s.newService().Run(s.ctx, Request{SourcePath: sourceFixture, LexiconPath: lexiconFixture})
	s.Nil(sum)
	s.True(errors.IsCode(err, errors.ErrCodeRunLedgerFailure))
	s.metrics.AssertNotCalled(s.T(), "RunStarted", mock.Anything)
	s.publisher.AssertNotCalled(s.T(), "PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ConversionServiceTestSuite) TestRun_BookkeepingFailuresAreLogged() {
	s.ledger.On("Start", mock.Anything, mock.Anything).Return(nil)
	s.ledger.On("Finish", mock.Anything, mock.Anything).Return(assert.AnError)
	s.metrics.On("RunStarted", mock.Anything)
	s.metrics.On("RunFinished", mock.Anything, mock.Anything)
	s.metrics.On("RecordEvent", kafka.TopicGraphConverted, assert.AnError).Once()
	s.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	s.props.On("Properties", mock.Anything).Return(map[string]string{}, nil)

	sum, err := s.newService().Run(s.ctx, Request{SourcePath: sourceFixture, LexiconPath: lexiconFixture})
	s.Require().NoError(err)
	s.Equal(run.StatusSucceeded, sum.Run.Status)
	s.True(s.logger.HasMessage("warn", "failed to record run completion"))
	s.True(s.logger.HasMessage("warn", "failed to publish conversion event"))
	s.metrics.AssertExpectations(s.T())
}

func (s *ConversionServiceTestSuite) TestRun_MissingInputs() {
	svc := s.newService()
	_, err := svc.Run(s.ctx, Request{LexiconPath: lexiconFixture})
	s.True(errors.IsCode(err, errors.ErrCodeValidation))

	_, err = svc.Run(s.ctx, Request{SourcePath: sourceFixture})
	s.True(errors.IsCode(err, errors.ErrCodeValidation))
	s.ledger.AssertNotCalled(s.T(), "Start", mock.Anything, mock.Anything)
}

func TestConversionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ConversionServiceTestSuite))
}

func TestNewService_Defaults(t *testing.T) {
	_, err := NewService(Dependencies{}, Options{})
	require.Error(t, err)

	svc, err := NewService(Dependencies{Resolver: stubResolver{}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultOutputDir, svc.opts.OutputDir)
	assert.Equal(t, []string{config.SinkNTriples}, svc.opts.Sinks)
	assert.Equal(t, kafka.TopicGraphConverted, svc.opts.ConvertedTopic)
	assert.True(t, svc.hasSink(config.SinkNTriples))
	assert.False(t, svc.hasSink(config.SinkNeo4j))
}

func TestRun_NoOptionalDependencies(t *testing.T) {
	svc, err := NewService(Dependencies{Resolver: stubResolver{}}, Options{OutputDir: t.TempDir(), Sinks: []string{config.SinkNeo4j, config.SinkMinIO}})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	sum, err := svc.Run(context.Background(), Request{SourcePath: sourceFixture, LexiconPath: lexiconFixture})
	require.NoError(t, err)
	assert.Equal(t, run.StatusSucceeded, sum.Run.Status)
	assert.Len(t, sum.Files, 3)
	assert.Zero(t, sum.Run.Duration())
}

func TestSoftFailuresByKind(t *testing.T) {
	assert.Nil(t, softFailuresByKind(nil))
	got := softFailuresByKind(&aop.Report{SoftFailures: []aop.SoftFailure{
		{Kind: "gene", Key: "TP53"}, {Kind: "gene", Key: "P53"}, {Kind: "chemical", Key: "50-00-0"},
	}})
	assert.Equal(t, map[string]int{"gene": 2, "chemical": 1}, got)
}
