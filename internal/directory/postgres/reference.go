package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/access-approval/internal/directory"
	"github.com/jmoiron/sqlx"
)

const (
	selectUsers = `SELECT id, login, worker_id, is_active, created_at FROM users`

	selectWorkers = `SELECT w.id, w.full_name,
		d.id AS department_id, d.name AS department_name,
		p.id AS position_id, p.name AS position_name
	FROM workers w
	JOIN departments d ON d.id = w.department_id
	JOIN positions p ON p.id = w.position_id`
)

type userRow struct {
	ID        int64     `db:"id"`
	Login     string    `db:"login"`
	WorkerID  int64     `db:"worker_id"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

func (u userRow) toDomain() *directory.User {
	return &directory.User{
		ID:        u.ID,
		Login:     u.Login,
		WorkerID:  u.WorkerID,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

type workerRow struct {
	ID             int64  `db:"id"`
	FullName       string `db:"full_name"`
	DepartmentID   int64  `db:"department_id"`
	DepartmentName string `db:"department_name"`
	PositionID     int64  `db:"position_id"`
	PositionName   string `db:"position_name"`
}

func (w workerRow) toDomain() *directory.Worker {
	return &directory.Worker{
		ID:         w.ID,
		FullName:   w.FullName,
		Department: directory.Department{ID: w.DepartmentID, Name: w.DepartmentName},
		Position:   directory.Position{ID: w.PositionID, Name: w.PositionName},
	}
}

// ReferenceReader runs the admin listings as plain sqlx queries, bypassing the ORM.
type ReferenceReader struct {
	db *sqlx.DB
}

func NewReferenceReader(db *sqlx.DB) *ReferenceReader {
	return &ReferenceReader{db: db}
}

func (r *ReferenceReader) ListUsers(ctx context.Context) ([]*directory.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, selectUsers+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]*directory.User, len(rows))
	for i, row := range rows {
		users[i] = row.toDomain()
	}
	return users, nil
}

func (r *ReferenceReader) GetUser(ctx context.Context, id int64) (*directory.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(selectUsers+` WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, directory.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (r *ReferenceReader) ListWorkers(ctx context.Context) ([]*directory.Worker, error) {
	var rows []workerRow
	if err := r.db.SelectContext(ctx, &rows, selectWorkers+` ORDER BY w.id`); err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	workers := make([]*directory.Worker, len(rows))
	for i, row := range rows {
		workers[i] = row.toDomain()
	}
	return workers, nil
}

func (r *ReferenceReader) GetWorker(ctx context.Context, id int64) (*directory.Worker, error) {
	var row workerRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(selectWorkers+` WHERE w.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, directory.ErrWorkerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get worker %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (r *ReferenceReader) ListDepartments(ctx context.Context) ([]*directory.Department, error) {
	var departments []*directory.Department
	if err := r.db.SelectContext(ctx, &departments, `SELECT id, name FROM departments ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

func (r *ReferenceReader) ListPositions(ctx context.Context) ([]*directory.Position, error) {
	var positions []*directory.Position
	if err := r.db.SelectContext(ctx, &positions, `SELECT id, name FROM positions ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}
