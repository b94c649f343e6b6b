package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
	"github.com/turtacn/aopwiki-graph/internal/domain/run"
	pkgerrors "github.com/turtacn/aopwiki-graph/pkg/errors"
)

type execCall struct {
	sql  string
	args []any
}

// fakeDB records Exec calls and serves canned rows.
type fakeDB struct {
	execs   []execCall
	execTag string
	execErr error
	row     pgx.Row
	rows    pgx.Rows
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag(f.execTag), f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return f.rows, nil }
func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row      { return f.row }

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

type fakeRows struct {
	scans []scanFunc
	i     int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool                                   { r.i++; return r.i <= len(r.scans) }
func (r *fakeRows) Scan(dest ...any) error                       { return r.scans[r.i-1](dest...) }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func rowFor(rn *run.Run, counts string) scanFunc {
	return func(dest ...any) error {
		*dest[0].(*uuid.UUID) = rn.ID
		*dest[1].(*string) = rn.Source
		*dest[2].(*string) = rn.Lexicon
		*dest[3].(*string) = string(rn.Status)
		*dest[4].(*time.Time) = rn.StartedAt
		*dest[5].(**time.Time) = rn.FinishedAt
		*dest[6].(*[]byte) = []byte(counts)
		*dest[7].(*int) = rn.GeneMentions
		*dest[8].(*int) = rn.SoftFailures
		*dest[9].(*[]string) = rn.Outputs
		*dest[10].(*string) = rn.Error
		return nil
	}
}

type RunRepoTestSuite struct {
	suite.Suite
	db   *fakeDB
	repo run.Repository
	now  time.Time
}

func (s *RunRepoTestSuite) SetupTest() {
	s.db = &fakeDB{execTag: "UPDATE 1"}
	s.repo = NewPostgresRunRepo(s.db, nil)
	s.now = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

func (s *RunRepoTestSuite) TestStart() {
	rn := run.NewRun("aop-wiki-xml-2024-01-01", "HGNCgenes.txt", s.now)
	s.Require().NoError(s.repo.Start(context.Background(), rn))
	s.Require().Len(s.db.execs, 1)
	s.Contains(s.db.execs[0].sql, "INSERT INTO conversion_runs")
	s.Equal([]any{rn.ID, rn.Source, rn.Lexicon, "running", s.now}, s.db.execs[0].args)
}

func (s *RunRepoTestSuite) TestStart_Error() {
	s.db.execErr = errors.New("connection reset")
	err := s.repo.Start(context.Background(), run.NewRun("x", "", s.now))
	s.Require().Error(err)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeRunLedgerFailure))
}

func (s *RunRepoTestSuite) TestFinish() {
	rn := run.NewRun("x", "", s.now)
	rn.Succeed(&aop.Report{Counts: map[aop.EntityType]int{aop.EntityAOP: 3}}, nil, s.now.Add(time.Minute))
	s.Require().NoError(s.repo.Finish(context.Background(), rn))

	args := s.db.execs[0].args
	s.Equal("succeeded", args[1])
	s.JSONEq(`{"AOP":3}`, string(args[3].([]byte)))
	s.Equal([]string{}, args[6])
}

func (s *RunRepoTestSuite) TestFinish_NotFound() {
	s.db.execTag = "UPDATE 0"
	rn := run.NewRun("x", "", s.now)
	rn.Fail(errors.New("boom"), s.now)
	err := s.repo.Finish(context.Background(), rn)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound))
}

func (s *RunRepoTestSuite) TestGet() {
	want := run.NewRun("src", "lex", s.now)
	want.Succeed(nil, []string{"a.nt"}, s.now.Add(time.Second))
	want.GeneMentions = 4
	s.db.row = rowFor(want, `{"KE":2}`)

	got, err := s.repo.Get(context.Background(), want.ID)
	s.Require().NoError(err)
	s.Equal(want.ID, got.ID)
	s.Equal(run.StatusSucceeded, got.Status)
	s.Equal(map[string]int{"KE": 2}, got.Counts)
	s.Equal(4, got.GeneMentions)
	s.Equal([]string{"a.nt"}, got.Outputs)
	s.Equal(time.Second, got.Duration())
}

func (s *RunRepoTestSuite) TestGet_NotFound() {
	s.db.row = scanFunc(func(...any) error { return pgx.ErrNoRows })
	_, err := s.repo.Get(context.Background(), uuid.New())
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound))
}

func (s *RunRepoTestSuite) TestListRecent() {
	a := run.NewRun("a", "", s.now)
	b := run.NewRun("b", "", s.now.Add(time.Hour))
	s.db.rows = &fakeRows{scans: []scanFunc{rowFor(b, `{}`), rowFor(a, ``)}}

	runs, err := s.repo.ListRecent(context.Background(), 0)
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal("b", runs[0].Source)
	s.Equal(run.StatusRunning, runs[1].Status)
	s.Nil(runs[1].Counts)
}

func TestRunRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RunRepoTestSuite))
}
