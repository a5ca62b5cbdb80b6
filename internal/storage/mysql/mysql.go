// Package mysql provides a MySQL-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The blank-import side effect of github.com/go-sql-driver/mysql
// registers the "mysql" driver with database/sql; we also use the
// driver's own Config type to build the DSN, which is safer than
// formatting the string by hand.
//
// Every statement is parameterized — no field value is ever
// concatenated into statement text.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/escolalab/estudantes-api/internal/config"
	"github.com/escolalab/estudantes-api/internal/storage"
	"github.com/escolalab/estudantes-api/internal/types"
)

// MySQL is the concrete implementation of storage.Storage.
// It holds a *sql.DB, which is a connection pool managed by database/sql
// and safe for concurrent use by multiple goroutines. The pool is owned
// by the composition root and injected into every handler — there is no
// package-level connection state.
type MySQL struct {
	Db *sql.DB

	// QueryTimeout bounds each statement when the caller's context has
	// no deadline of its own. Zero disables the bound.
	QueryTimeout time.Duration
}

// New opens a connection pool to the MySQL server described by cfg,
// verifies connectivity (retrying with exponential backoff, so a
// database that is still booting does not kill the process), and
// creates the estudantes table if it does not already exist.
func New(cfg *config.Config) (*MySQL, error) {
	dsn := mysqldrv.NewConfig()
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port))
	dsn.User = cfg.Database.User
	dsn.Passwd = cfg.Database.Password
	dsn.DBName = cfg.Database.Name

	// sql.Open does not dial yet — it only validates the driver name and
	// DSN. The first real connection happens on the ping below.
	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("mysql.New: open db: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping under exponential backoff. A transient refusal (container
	// orchestration starting the database after us) is retried until
	// ConnectMaxElapsed runs out; only then does startup fail.
	ping := func() (struct{}, error) {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return struct{}{}, db.PingContext(pingCtx)
	}
	_, err = backoff.Retry(context.Background(), ping,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(cfg.Database.ConnectMaxElapsed),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql.New: ping: %w", err)
	}

	// Idempotent — safe to run on every startup.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS estudantes (
			id                   INT          NOT NULL AUTO_INCREMENT,
			nome                 VARCHAR(255) NOT NULL,
			idade                INT          NOT NULL,
			notaPrimeiroSemestre DOUBLE       NOT NULL,
			notaSegundoSemestre  DOUBLE       NOT NULL,
			nomeProfessor        VARCHAR(255) NOT NULL,
			numeroSala           INT          NOT NULL,
			PRIMARY KEY (id)
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql.New: create table: %w", err)
	}

	return &MySQL{Db: db, QueryTimeout: cfg.Database.QueryTimeout}, nil
}

// Close releases all pooled connections. Called once at shutdown.
func (s *MySQL) Close() error { return s.Db.Close() }

// opCtx applies the configured per-statement timeout unless the caller
// already set a deadline. The returned cancel must always be called.
func (s *MySQL) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.QueryTimeout)
}

// CreateEstudante inserts a new row and returns the auto-generated
// primary-key id.
func (s *MySQL) CreateEstudante(ctx context.Context, e types.Estudante) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	stmt, err := s.Db.PrepareContext(ctx, `
		INSERT INTO estudantes
			(nome, idade, notaPrimeiroSemestre, notaSegundoSemestre, nomeProfessor, numeroSala)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("CreateEstudante: prepare: %w", err)
	}
	// defer ensures the statement is closed on every exit path.
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		e.Nome, e.Idade, e.NotaPrimeiroSemestre, e.NotaSegundoSemestre,
		e.NomeProfessor, e.NumeroSala,
	)
	if err != nil {
		return 0, fmt.Errorf("CreateEstudante: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateEstudante: last insert id: %w", err)
	}

	return lastID, nil
}

// GetEstudanteByID fetches exactly one row matched by primary key.
// Returns storage.ErrEstudanteNotFound when no row matches.
func (s *MySQL) GetEstudanteByID(ctx context.Context, id int64) (types.Estudante, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	stmt, err := s.Db.PrepareContext(ctx, `
		SELECT id, nome, idade, notaPrimeiroSemestre, notaSegundoSemestre, nomeProfessor, numeroSala
		FROM estudantes WHERE id = ? LIMIT 1
	`)
	if err != nil {
		return types.Estudante{}, fmt.Errorf("GetEstudanteByID: prepare: %w", err)
	}
	defer stmt.Close()

	var e types.Estudante

	// Scan's variable order must match the SELECT column order.
	err = stmt.QueryRowContext(ctx, id).Scan(
		&e.ID,
		&e.Nome,
		&e.Idade,
		&e.NotaPrimeiroSemestre,
		&e.NotaSegundoSemestre,
		&e.NomeProfessor,
		&e.NumeroSala,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Estudante{}, storage.ErrEstudanteNotFound
		}
		return types.Estudante{}, fmt.Errorf("GetEstudanteByID: scan: %w", err)
	}

	return e, nil
}

// ListEstudantes returns every row as a slice, in store-native order.
// Callers must not depend on that order.
func (s *MySQL) ListEstudantes(ctx context.Context) ([]types.Estudante, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	stmt, err := s.Db.PrepareContext(ctx, `
		SELECT id, nome, idade, notaPrimeiroSemestre, notaSegundoSemestre, nomeProfessor, numeroSala
		FROM estudantes
	`)
	if err != nil {
		return nil, fmt.Errorf("ListEstudantes: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListEstudantes: query: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty table encodes as [] rather than null.
	estudantes := make([]types.Estudante, 0)

	for rows.Next() {
		var e types.Estudante
		if err := rows.Scan(
			&e.ID,
			&e.Nome,
			&e.Idade,
			&e.NotaPrimeiroSemestre,
			&e.NotaSegundoSemestre,
			&e.NomeProfessor,
			&e.NumeroSala,
		); err != nil {
			return nil, fmt.Errorf("ListEstudantes: scan row: %w", err)
		}
		estudantes = append(estudantes, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEstudantes: rows iteration: %w", err)
	}

	return estudantes, nil
}

// UpdateEstudanteByID overwrites every mutable field of the row with the
// given id. The id itself is never changed. Returns the number of rows
// affected so the caller can tell whether anything matched.
func (s *MySQL) UpdateEstudanteByID(ctx context.Context, id int64, e types.Estudante) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	stmt, err := s.Db.PrepareContext(ctx, `
		UPDATE estudantes
		SET nome = ?, idade = ?, notaPrimeiroSemestre = ?, notaSegundoSemestre = ?,
			nomeProfessor = ?, numeroSala = ?
		WHERE id = ?
	`)
	if err != nil {
		return 0, fmt.Errorf("UpdateEstudanteByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		e.Nome, e.Idade, e.NotaPrimeiroSemestre, e.NotaSegundoSemestre,
		e.NomeProfessor, e.NumeroSala, id,
	)
	if err != nil {
		return 0, fmt.Errorf("UpdateEstudanteByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("UpdateEstudanteByID: rows affected: %w", err)
	}

	return affected, nil
}

// DeleteEstudanteByID removes a row by primary key. Deleting an id that
// does not exist is not an error — the affected count is simply zero.
func (s *MySQL) DeleteEstudanteByID(ctx context.Context, id int64) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM estudantes WHERE id = ?")
	if err != nil {
		return 0, fmt.Errorf("DeleteEstudanteByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("DeleteEstudanteByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteEstudanteByID: rows affected: %w", err)
	}

	return affected, nil
}
