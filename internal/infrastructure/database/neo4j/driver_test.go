package neo4j

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/aopwiki-graph/pkg/errors"
)

type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) VerifyConnectivity(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *MockDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) internalSession {
	return m.Called(ctx, config).Get(0).(internalSession)
}
func (m *MockDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockSession struct {
	mock.Mock
	tx Transaction
}

func (m *MockSession) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	return work(m.tx)
}
func (m *MockSession) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	return work(m.tx)
}
func (m *MockSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockTransaction struct {
	mock.Mock
}

func (m *MockTransaction) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	args := m.Called(ctx, cypher, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Result), args.Error(1)
}

type MockResult struct {
	Records []*neo4j.Record
	current int
	err     error
}

func (m *MockResult) Next(ctx context.Context) bool {
	if m.current < len(m.Records) {
		m.current++
		return true
	}
	return false
}
func (m *MockResult) Record() *neo4j.Record {
	if m.current == 0 {
		return nil
	}
	return m.Records[m.current-1]
}
func (m *MockResult) Err() error                                             { return m.err }
func (m *MockResult) Consume(ctx context.Context) (neo4j.ResultSummary, error) { return nil, nil }

func newMockedDriver(t *testing.T) (*Driver, *MockDriver, *MockTransaction) {
	t.Helper()
	md := new(MockDriver)
	tx := new(MockTransaction)
	session := &MockSession{tx: tx}
	md.On("NewSession", mock.Anything, mock.Anything).Return(session)
	session.On("Close", mock.Anything).Return(nil)
	return newDriver(md, "", logging.NewNopLogger()), md, tx
}

func TestNewDriver_DefaultDatabase(t *testing.T) {
	d, _, _ := newMockedDriver(t)
	assert.Equal(t, "neo4j", d.database)
}

func TestDriver_HealthCheck(t *testing.T) {
	d, md, tx := newMockedDriver(t)
	md.On("VerifyConnectivity", mock.Anything).Return(nil)
	tx.On("Run", mock.Anything, "RETURN 1 AS health", mock.Anything).
		Return(&MockResult{Records: []*neo4j.Record{{Keys: []string{"health"}, Values: []any{int64(1)}}}}, nil)

	require.NoError(t, d.HealthCheck(context.Background()))
	md.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestDriver_HealthCheck_Unreachable(t *testing.T) {
	d, md, _ := newMockedDriver(t)
	md.On("VerifyConnectivity", mock.Anything).Return(errors.New("refused"))

	err := d.HealthCheck(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func TestDriver_ExecuteWrite_WrapsError(t *testing.T) {
	d, _, tx := newMockedDriver(t)
	tx.On("Run", mock.Anything, "MERGE (n)", mock.Anything).Return(nil, errors.New("boom"))

	_, err := d.ExecuteWrite(context.Background(), func(tx Transaction) (any, error) {
		return tx.Run(context.Background(), "MERGE (n)", nil)
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeGraphSinkWrite))
}

func TestDriver_CloseOnce(t *testing.T) {
	d, md, _ := newMockedDriver(t)
	md.On("Close", mock.Anything).Return(nil).Once()

	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))
	md.AssertNumberOfCalls(t, "Close", 1)
}

func TestCollectRecords(t *testing.T) {
	res := &MockResult{Records: []*neo4j.Record{
		{Keys: []string{"id"}, Values: []any{"aop:1"}},
		{Keys: []string{"id"}, Values: []any{"aop:2"}},
	}}
	ids, err := CollectRecords(context.Background(), res, func(r *neo4j.Record) (string, error) {
		return r.Values[0].(string), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"aop:1", "aop:2"}, ids)
}
