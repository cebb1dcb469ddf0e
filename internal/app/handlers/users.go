package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Tokebay/shorturl/internal/app/auth"
	"github.com/Tokebay/shorturl/internal/app/storage"
	"github.com/Tokebay/shorturl/internal/app/token"
	"github.com/Tokebay/shorturl/internal/logger"
	"github.com/Tokebay/shorturl/internal/models"
	"go.uber.org/zap"
)

func (us *URLShortener) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Error decoding JSON", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		us.writeError(w, "register", fmt.Errorf("%w: username and password are required", errValidation))
		return
	}

	hash, err := us.hasher.Hash(req.Password)
	if err != nil {
		us.writeError(w, "register", err)
		return
	}
	if err := us.storage.CreateUser(r.Context(), models.Credential{Username: req.Username, PasswordHash: hash}); err != nil {
		us.writeError(w, "register", err)
		return
	}

	us.metrics.UserOp("register", "ok")
	logger.Log.Info("User registered", zap.String("username", req.Username))
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte("User created"))
}

func (us *URLShortener) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Error decoding JSON", http.StatusBadRequest)
		return
	}

	hash := us.dummyHash
	cred, err := us.storage.GetUser(r.Context(), req.Username)
	switch {
	case err == nil:
		hash = cred.PasswordHash
	case !errors.Is(err, storage.ErrUserNotFound):
		us.writeError(w, "login", err)
		return
	}

	// сравнение выполняется всегда, даже для несуществующего пользователя
	cmpErr := us.hasher.Compare(hash, req.Password)
	if err != nil || cmpErr != nil {
		us.writeError(w, "login", auth.ErrBadCredentials)
		return
	}

	tok, err := us.codec.Issue(token.NewLoginClaims(req.Username, us.now()))
	if err != nil {
		us.writeError(w, "login", err)
		return
	}

	us.metrics.TokensIssued.Inc()
	us.metrics.UserOp("login", "ok")
	writeJSON(w, http.StatusOK, models.TokenResponse{Token: tok})
}
