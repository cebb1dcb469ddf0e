package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/Tokebay/shorturl/internal/app/shortcode"
	"github.com/Tokebay/shorturl/internal/logger"
	"github.com/Tokebay/shorturl/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	insertUserQuery = `INSERT INTO users (username, password_hash) VALUES ($1, $2)`
	selectUserQuery = `SELECT password_hash FROM users WHERE username = $1`
	insertURLQuery  = `INSERT INTO short_urls (code, original_url, owner) VALUES ($1, $2, $3) ON CONFLICT (code) DO NOTHING`
	selectURLQuery  = `SELECT original_url FROM short_urls WHERE code = $1 AND owner = $2`
	updateURLQuery  = `UPDATE short_urls SET original_url = $1 WHERE code = $2 AND owner = $3`
	deleteURLQuery  = `DELETE FROM short_urls WHERE code = $1 AND owner = $2`
)

// pgxPool подмножество *pgxpool.Pool, которое нужно хранилищу (и которое умеет pgxmock).
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type PostgreSQLStorage struct {
	db        pgxPool
	generator *shortcode.Generator
}

// NewPostgreSQLStorage подключается по DSN и накатывает миграции
func NewPostgreSQLStorage(ctx context.Context, dsn string, generator *shortcode.Generator) (*PostgreSQLStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := Migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewPostgreSQLStorageWithPool(pool, generator), nil
}

func NewPostgreSQLStorageWithPool(db pgxPool, generator *shortcode.Generator) *PostgreSQLStorage {
	if generator == nil {
		generator = shortcode.NewGenerator()
	}
	return &PostgreSQLStorage{db: db, generator: generator}
}

// Migrate накатывает встроенные миграции goose.
func Migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (s *PostgreSQLStorage) CreateUser(ctx context.Context, cred models.Credential) error {
	_, err := s.db.Exec(ctx, insertUserQuery, cred.Username, cred.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrUserExists
		}
		logger.Log.Error("Error insert user", zap.Error(err))
		return err
	}
	return nil
}

func (s *PostgreSQLStorage) GetUser(ctx context.Context, username string) (models.Credential, error) {
	cred := models.Credential{Username: username}
	err := s.db.QueryRow(ctx, selectUserQuery, username).Scan(&cred.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Credential{}, ErrUserNotFound
	}
	if err != nil {
		return models.Credential{}, err
	}
	return cred, nil
}

// CreateURL занимает код через ON CONFLICT DO NOTHING: 0 строк значит код занят, пробуем следующий.
func (s *PostgreSQLStorage) CreateURL(ctx context.Context, targetURL, owner string) (models.Mapping, error) {
	code, err := s.generator.Allocate(targetURL, func(code string) (bool, error) {
		tag, err := s.db.Exec(ctx, insertURLQuery, code, targetURL, owner)
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() == 1, nil
	})
	if err != nil {
		return models.Mapping{}, err
	}
	return models.Mapping{Code: code, TargetURL: targetURL, Owner: owner}, nil
}

func (s *PostgreSQLStorage) GetURL(ctx context.Context, code, requester string) (models.Mapping, error) {
	m := models.Mapping{Code: code, Owner: requester}
	err := s.db.QueryRow(ctx, selectURLQuery, code, requester).Scan(&m.TargetURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Mapping{}, ErrNotFoundOrDenied
	}
	if err != nil {
		return models.Mapping{}, err
	}
	return m, nil
}

func (s *PostgreSQLStorage) UpdateURL(ctx context.Context, code, targetURL, requester string) (models.Mapping, error) {
	tag, err := s.db.Exec(ctx, updateURLQuery, targetURL, code, requester)
	if err != nil {
		return models.Mapping{}, err
	}
	if tag.RowsAffected() == 0 {
		return models.Mapping{}, ErrNotFoundOrDenied
	}
	return models.Mapping{Code: code, TargetURL: targetURL, Owner: requester}, nil
}

func (s *PostgreSQLStorage) DeleteURL(ctx context.Context, code, requester string) error {
	tag, err := s.db.Exec(ctx, deleteURLQuery, code, requester)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFoundOrDenied
	}
	return nil
}

func (s *PostgreSQLStorage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgreSQLStorage) Close() error {
	s.db.Close()
	return nil
}
