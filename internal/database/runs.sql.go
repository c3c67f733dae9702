package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const createRun = `-- name: CreateRun :exec
INSERT INTO tailor_runs (
id, status, job_ad_length)
VALUES ( $1, $2, $3)
`

type CreateRunParams struct {
	ID          uuid.UUID
	Status      string
	JobAdLength int32
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(ctx, createRun, arg.ID, arg.Status, arg.JobAdLength)
	return err
}

const updateRunStatus = `-- name: UpdateRunStatus :exec
UPDATE tailor_runs
SET status=$1, error=$2, updated_at=CURRENT_TIMESTAMP
WHERE id=$3
`

type UpdateRunStatusParams struct {
	Status string
	Error  sql.NullString
	ID     uuid.UUID
}

func (q *Queries) UpdateRunStatus(ctx context.Context, arg UpdateRunStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateRunStatus, arg.Status, arg.Error, arg.ID)
	return err
}
