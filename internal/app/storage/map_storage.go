package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/Tokebay/shorturl/internal/app/shortcode"
	"github.com/Tokebay/shorturl/internal/models"
)

// MapStorage хранилище в памяти процесса. Если задан журнал, каждая мутация
// сначала пишется в файл и только потом применяется.
type MapStorage struct {
	mu        sync.RWMutex
	mapping   map[string]models.Mapping
	users     map[string]models.Credential
	generator *shortcode.Generator
	journal   *Producer
}

func NewMapStorage(generator *shortcode.Generator) *MapStorage {
	if generator == nil {
		generator = shortcode.NewGenerator()
	}
	return &MapStorage{
		mapping:   make(map[string]models.Mapping),
		users:     make(map[string]models.Credential),
		generator: generator,
	}
}

// SetJournal подключает журнал. Вызывать до начала обслуживания запросов.
func (ms *MapStorage) SetJournal(p *Producer) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.journal = p
}

func (ms *MapStorage) CreateUser(_ context.Context, cred models.Credential) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.users[cred.Username]; ok {
		return ErrUserExists
	}
	if err := ms.record(Event{Type: EventUserCreated, Username: cred.Username, PasswordHash: cred.PasswordHash}); err != nil {
		return err
	}
	ms.users[cred.Username] = cred
	return nil
}

func (ms *MapStorage) GetUser(_ context.Context, username string) (models.Credential, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	cred, ok := ms.users[username]
	if !ok {
		return models.Credential{}, ErrUserNotFound
	}
	return cred, nil
}

// CreateURL выбирает свободный код и вставляет запись под одной блокировкой.
func (ms *MapStorage) CreateURL(_ context.Context, targetURL, owner string) (models.Mapping, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	code, err := ms.generator.Generate(targetURL, func(c string) bool {
		_, ok := ms.mapping[c]
		return ok
	})
	if err != nil {
		return models.Mapping{}, err
	}

	m := models.Mapping{Code: code, TargetURL: targetURL, Owner: owner}
	if err := ms.record(Event{Type: EventURLCreated, Code: code, URL: targetURL, Owner: owner}); err != nil {
		return models.Mapping{}, err
	}
	ms.mapping[code] = m
	return m, nil
}

func (ms *MapStorage) GetURL(_ context.Context, code, requester string) (models.Mapping, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	m, ok := ms.mapping[code]
	if !ok || m.Owner != requester {
		return models.Mapping{}, ErrNotFoundOrDenied
	}
	return m, nil
}

func (ms *MapStorage) UpdateURL(_ context.Context, code, targetURL, requester string) (models.Mapping, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	m, ok := ms.mapping[code]
	if !ok || m.Owner != requester {
		return models.Mapping{}, ErrNotFoundOrDenied
	}
	if err := ms.record(Event{Type: EventURLUpdated, Code: code, URL: targetURL, Owner: m.Owner}); err != nil {
		return models.Mapping{}, err
	}
	m.TargetURL = targetURL
	ms.mapping[code] = m
	return m, nil
}

func (ms *MapStorage) DeleteURL(_ context.Context, code, requester string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	m, ok := ms.mapping[code]
	if !ok || m.Owner != requester {
		return ErrNotFoundOrDenied
	}
	if err := ms.record(Event{Type: EventURLDeleted, Code: code, Owner: m.Owner}); err != nil {
		return err
	}
	delete(ms.mapping, code)
	return nil
}

// Restore применяет события журнала без повторной записи в журнал.
func (ms *MapStorage) Restore(events []Event) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for i, e := range events {
		switch e.Type {
		case EventUserCreated:
			ms.users[e.Username] = models.Credential{Username: e.Username, PasswordHash: e.PasswordHash}
		case EventURLCreated, EventURLUpdated:
			ms.mapping[e.Code] = models.Mapping{Code: e.Code, TargetURL: e.URL, Owner: e.Owner}
		case EventURLDeleted:
			delete(ms.mapping, e.Code)
		default:
			return fmt.Errorf("restore event %d: unknown type %q", i, e.Type)
		}
	}
	return nil
}

func (ms *MapStorage) Ping(context.Context) error {
	return nil
}

func (ms *MapStorage) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.journal == nil {
		return nil
	}
	return ms.journal.Close()
}

// record пишет событие в журнал. Вызывается под ms.mu.
func (ms *MapStorage) record(e Event) error {
	if ms.journal == nil {
		return nil
	}
	if err := ms.journal.WriteEvent(&e); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}
