package models

// ShortenRequest тело POST /
type ShortenRequest struct {
	Value string `json:"value"`
}

// UpdateRequest тело PUT /{id}
type UpdateRequest struct {
	URL string `json:"url"`
}

// MappingResponse ответ на создание, чтение и обновление ссылки
type MappingResponse struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// UserRequest тело регистрации и логина
type UserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
