package models

// Mapping связка короткого кода и оригинального URL с владельцем
type Mapping struct {
	Code      string `json:"code"`
	TargetURL string `json:"target_url"`
	Owner     string `json:"owner"`
}

// Credential учетная запись пользователя. Пароль хранится только в виде хеша.
type Credential struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}
