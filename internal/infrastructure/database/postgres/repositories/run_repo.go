package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/aopwiki-graph/internal/domain/run"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const runColumns = `id, source, lexicon, status, started_at, finished_at, counts,
	gene_mentions, soft_failures, outputs, error`

type postgresRunRepo struct {
	db  DBTX
	log logging.Logger
}

func NewPostgresRunRepo(db DBTX, log logging.Logger) run.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresRunRepo{db: db, log: log}
}

func (r *postgresRunRepo) Start(ctx context.Context, rn *run.Run) error {
	query := `
		INSERT INTO conversion_runs (id, source, lexicon, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, rn.ID, rn.Source, rn.Lexicon, string(rn.Status), rn.StartedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRunLedgerFailure, "failed to record run start").
			WithDetail("run_id=" + rn.ID.String())
	}
	return nil
}

func (r *postgresRunRepo) Finish(ctx context.Context, rn *run.Run) error {
	counts, err := json.Marshal(rn.Counts)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode run counts")
	}
	outputs := rn.Outputs
	if outputs == nil {
		outputs = []string{}
	}
	query := `
		UPDATE conversion_runs
		SET status = $2, finished_at = $3, counts = $4, gene_mentions = $5,
			soft_failures = $6, outputs = $7, error = $8
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		rn.ID, string(rn.Status), rn.FinishedAt, counts, rn.GeneMentions,
		rn.SoftFailures, outputs, rn.Error,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRunLedgerFailure, "failed to record run completion").
			WithDetail("run_id=" + rn.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeNotFound, "run not found").WithDetail("run_id=" + rn.ID.String())
	}
	return nil
}

func (r *postgresRunRepo) Get(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	query := `SELECT ` + runColumns + ` FROM conversion_runs WHERE id = $1`
	rn, err := scanRun(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeNotFound, "run not found").WithDetail("run_id=" + id.String())
		}
		return nil, errors.Wrap(err, errors.ErrCodeRunLedgerFailure, "failed to load run")
	}
	return rn, nil
}

func (r *postgresRunRepo) ListRecent(ctx context.Context, limit int) ([]*run.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + ` FROM conversion_runs ORDER BY started_at DESC LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRunLedgerFailure, "failed to list runs")
	}
	defer rows.Close()

	var out []*run.Run
	for rows.Next() {
		rn, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeRunLedgerFailure, "failed to scan run")
		}
		out = append(out, rn)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRunLedgerFailure, "failed to list runs")
	}
	return out, nil
}

func scanRun(row pgx.Row) (*run.Run, error) {
	var (
		rn       run.Run
		status   string
		finished *time.Time
		counts   []byte
	)
	if err := row.Scan(
		&rn.ID, &rn.Source, &rn.Lexicon, &status, &rn.StartedAt, &finished, &counts,
		&rn.GeneMentions, &rn.SoftFailures, &rn.Outputs, &rn.Error,
	); err != nil {
		return nil, err
	}
	rn.Status = run.Status(status)
	rn.FinishedAt = finished
	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &rn.Counts); err != nil {
			return nil, err
		}
	}
	return &rn, nil
}
