package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Tokebay/shorturl/config"
	"github.com/Tokebay/shorturl/internal/app/auth"
	"github.com/Tokebay/shorturl/internal/app/shortcode"
	"github.com/Tokebay/shorturl/internal/app/storage"
	"github.com/Tokebay/shorturl/internal/app/token"
	"github.com/Tokebay/shorturl/internal/app/validator"
	"github.com/Tokebay/shorturl/internal/logger"
	"github.com/Tokebay/shorturl/internal/metrics"
	"github.com/Tokebay/shorturl/internal/models"
	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

var errValidation = errors.New("validation error")

type URLShortener struct {
	config  *config.Config
	storage storage.Storage
	codec   *token.Codec
	gate    *auth.Gate
	hasher  auth.PasswordHasher
	metrics *metrics.Metrics
	now     func() time.Time
	// хеш для сравнения, когда пользователя нет: время ответа не выдает, зарегистрирован ли логин
	dummyHash string
}

func NewURLShortener(cfg *config.Config, st storage.Storage, codec *token.Codec, hasher auth.PasswordHasher, m *metrics.Metrics) (*URLShortener, error) {
	if m == nil {
		m = metrics.New()
	}
	dummy, err := hasher.Hash("dummy password for unknown users")
	if err != nil {
		return nil, err
	}

	us := &URLShortener{
		config:    cfg,
		storage:   st,
		codec:     codec,
		hasher:    hasher,
		metrics:   m,
		now:       time.Now,
		dummyHash: dummy,
	}
	us.gate = auth.NewGate(codec,
		auth.WithTokenTTL(cfg.TokenTTL),
		auth.WithFailureRecorder(m),
		auth.WithGateClock(func() time.Time { return us.now() }),
	)
	return us, nil
}

// Метод для подмены текущего времени в тестах
func (us *URLShortener) SetNowFunc(fn func() time.Time) {
	us.now = fn
}

// Routes собирает маршрутизатор. Операции со ссылками доступны только с bearer-токеном.
func (us *URLShortener) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(logger.LoggerMiddleware)
	r.Use(logger.RecoveryMiddleware)
	r.Use(GzipMiddleware)

	r.Get("/ping", us.PingHandler)
	r.Method(http.MethodGet, "/metrics", us.metrics.Handler())

	r.Post("/users", us.RegisterHandler)
	r.Post("/users/login", us.LoginHandler)

	r.Group(func(r chi.Router) {
		r.Use(us.gate.Middleware)
		r.Post("/", us.ShortenURLHandler)
		r.Get("/{id}", us.GetURLHandler)
		r.Put("/{id}", us.UpdateURLHandler)
		r.Delete("/{id}", us.DeleteURLHandler)
	})
	return r
}

func (us *URLShortener) ShortenURLHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.ShortenRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Error decoding JSON", http.StatusBadRequest)
		return
	}
	if !validator.IsValidURL(req.Value) {
		us.metrics.URLOp("create", "invalid")
		http.Error(w, "URL not valid", http.StatusBadRequest)
		return
	}

	m, err := us.storage.CreateURL(r.Context(), req.Value, id.Username)
	if err != nil {
		us.writeError(w, "create", err)
		return
	}

	us.metrics.URLOp("create", "ok")
	logger.Log.Debug("URL shortened", zap.String("id", m.Code), zap.String("owner", m.Owner))
	writeJSON(w, http.StatusCreated, models.MappingResponse{ID: m.Code, Value: m.TargetURL})
}

// GetURLHandler отдает JSON со статусом 301 (как в исходном API), Location не ставится.
// С StrictStatus отвечает 200.
func (us *URLShortener) GetURLHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	m, err := us.storage.GetURL(r.Context(), chi.URLParam(r, "id"), id.Username)
	if err != nil {
		us.writeError(w, "get", err)
		return
	}

	status := http.StatusMovedPermanently
	if us.config.StrictStatus {
		status = http.StatusOK
	}
	us.metrics.URLOp("get", "ok")
	writeJSON(w, status, models.MappingResponse{ID: m.Code, Value: m.TargetURL})
}

func (us *URLShortener) UpdateURLHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Error decoding JSON", http.StatusBadRequest)
		return
	}
	// невалидный URL отвечает тем же 404, что и чужой или несуществующий код,
	// и проверяется до обращения к хранилищу
	if !validator.IsValidURL(req.URL) {
		us.metrics.URLOp("update", "invalid")
		http.Error(w, "ID not found or access denied", http.StatusNotFound)
		return
	}

	m, err := us.storage.UpdateURL(r.Context(), chi.URLParam(r, "id"), req.URL, id.Username)
	if err != nil {
		us.writeError(w, "update", err)
		return
	}

	us.metrics.URLOp("update", "ok")
	writeJSON(w, http.StatusOK, models.MappingResponse{ID: m.Code, Value: m.TargetURL})
}

func (us *URLShortener) DeleteURLHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := us.storage.DeleteURL(r.Context(), chi.URLParam(r, "id"), id.Username); err != nil {
		us.writeError(w, "delete", err)
		return
	}

	us.metrics.URLOp("delete", "ok")
	w.WriteHeader(http.StatusNoContent)
}

// writeError единственное место, где ошибки превращаются в HTTP-статусы.
func (us *URLShortener) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFoundOrDenied):
		us.metrics.URLOp(op, "not_found")
		http.Error(w, "ID not found or access denied", http.StatusNotFound)
	case errors.Is(err, shortcode.ErrCodeSpaceExhausted):
		us.metrics.URLOp(op, "exhausted")
		logger.Log.Error("No free short code", zap.Error(err))
		http.Error(w, "No free short code, try again later", http.StatusServiceUnavailable)
	case errors.Is(err, storage.ErrUserExists):
		us.metrics.UserOp(op, "conflict")
		http.Error(w, "Username already taken", http.StatusConflict)
	case errors.Is(err, errValidation), errors.Is(err, auth.ErrEmptyPassword), errors.Is(err, auth.ErrPasswordTooLong):
		us.metrics.UserOp(op, "invalid")
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrBadCredentials):
		us.metrics.UserOp(op, "denied")
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		logger.Log.Error("Request failed", zap.String("op", op), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "error creating JSON response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		logger.Log.Error("Error writing response", zap.Error(err))
	}
}
