// Package storage хранилища пользователей и коротких ссылок: в памяти (с журналом в файле),
// PostgreSQL и Redis. Все реализации проверяют владельца ссылки сами.
package storage

import (
	"context"
	"errors"

	"github.com/Tokebay/shorturl/internal/models"
)

var (
	// ErrNotFoundOrDenied кода нет или он принадлежит другому пользователю.
	// Эти случаи намеренно не различаются.
	ErrNotFoundOrDenied = errors.New("url not found or access denied")
	ErrUserExists       = errors.New("username already taken")
	ErrUserNotFound     = errors.New("user not found")
)

type URLStorage interface {
	CreateURL(ctx context.Context, targetURL, owner string) (models.Mapping, error)
	GetURL(ctx context.Context, code, requester string) (models.Mapping, error)
	UpdateURL(ctx context.Context, code, targetURL, requester string) (models.Mapping, error)
	DeleteURL(ctx context.Context, code, requester string) error
}

type UserStorage interface {
	CreateUser(ctx context.Context, cred models.Credential) error
	GetUser(ctx context.Context, username string) (models.Credential, error)
}

// Storage то, что нужно серверу от бэкенда.
type Storage interface {
	URLStorage
	UserStorage
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Storage = (*MapStorage)(nil)
	_ Storage = (*PostgreSQLStorage)(nil)
	_ Storage = (*RedisStorage)(nil)
)
