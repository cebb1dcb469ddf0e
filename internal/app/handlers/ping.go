package handlers

import (
	"net/http"

	"github.com/Tokebay/shorturl/internal/logger"
	"go.uber.org/zap"
)

// проверяем соединение с хранилищем
func (us *URLShortener) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := us.storage.Ping(r.Context()); err != nil {
		logger.Log.Error("Error ping storage", zap.Error(err))
		http.Error(w, "Error connect to storage", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
