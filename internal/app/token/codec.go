// Package token выпускает и проверяет компактные токены формата JWT (HS256)
// без сторонних JWT-библиотек: base64url(header).base64url(payload).base64url(signature).
package token

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrEmptySecret       = errors.New("token secret is empty")
	ErrMalformedToken    = errors.New("malformed token")
	ErrSignatureMismatch = errors.New("token signature mismatch")
	ErrMalformedPayload  = errors.New("malformed token payload")
)

const (
	ClaimUsername = "username"
	ClaimIssuedAt = "iat"
)

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// Сериализуется в {"alg":"HS256","typ":"JWT"}, порядок полей фиксирован структурой.
var defaultHeader = header{Alg: "HS256", Typ: "JWT"}

var enc = base64.RawURLEncoding

// Claims полезная нагрузка токена.
type Claims map[string]any

// NewLoginClaims нагрузка, которую получает пользователь после логина.
// iat хранится как float64, в том же виде, в каком его вернет Verify.
func NewLoginClaims(username string, now time.Time) Claims {
	return Claims{
		ClaimUsername: username,
		ClaimIssuedAt: float64(now.Unix()),
	}
}

// Username возвращает имя пользователя, если оно есть и это непустая строка.
func (c Claims) Username() (string, bool) {
	name, ok := c[ClaimUsername].(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// IssuedAt время выпуска. После Verify числа приходят как float64.
func (c Claims) IssuedAt() (time.Time, bool) {
	switch v := c[ClaimIssuedAt].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return time.Time{}, false
		}
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	case int:
		return time.Unix(int64(v), 0), true
	default:
		return time.Time{}, false
	}
}

// Codec подписывает и проверяет токены секретом процесса.
// Verify(Issue(c)) равен c, если значения в c имеют типы, которые дает json.Unmarshal
// (float64, string, bool, []any, map[string]any, nil).
type Codec struct {
	secret []byte
}

func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Codec{secret: bytes.Clone(secret)}, nil
}

func (c *Codec) Issue(claims Claims) (string, error) {
	h, err := json.Marshal(defaultHeader)
	if err != nil {
		return "", fmt.Errorf("encode token header: %w", err)
	}
	p, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode token payload: %w", err)
	}

	base := enc.EncodeToString(h) + "." + enc.EncodeToString(p)
	return base + "." + c.sign(base), nil
}

// Verify проверяет подпись и возвращает нагрузку.
// Payload декодируется только после проверки подписи.
func (c *Codec) Verify(tok string) (Claims, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, ErrMalformedToken
	}

	expected := c.sign(parts[0] + "." + parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, ErrSignatureMismatch
	}

	raw, err := enc.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	// "null" декодируется без ошибки
	if claims == nil {
		return nil, ErrMalformedPayload
	}
	return claims, nil
}

func (c *Codec) sign(base string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(base))
	return enc.EncodeToString(mac.Sum(nil))
}
