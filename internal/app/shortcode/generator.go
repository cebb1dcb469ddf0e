// Package shortcode выдает короткие идентификаторы для ссылок.
//
// Код это первые 6 hex-символов SHA-256 от URL и момента вызова. Код не секрет,
// от него требуется только уникальность в пределах хранилища.
package shortcode

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

const (
	// CodeLength длина кода в hex-символах. Пространство кодов 16^6.
	CodeLength = 6
	// DefaultMaxAttempts сколько кандидатов перебираем, прежде чем сдаться.
	DefaultMaxAttempts = 100
)

var ErrCodeSpaceExhausted = errors.New("short code space exhausted")

type Generator struct {
	maxAttempts int
	now         func() time.Time
}

type Option func(*Generator)

// WithMaxAttempts ограничивает число попыток. n <= 0 игнорируется.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Candidate возвращает кандидата для попытки attempt. Номер попытки подмешивается к хешу,
// чтобы кандидаты различались даже при грубом таймере.
func (g *Generator) Candidate(targetURL string, attempt int) string {
	h := sha256.New()
	h.Write([]byte(targetURL))
	h.Write([]byte(strconv.FormatInt(g.now().UnixNano(), 10)))
	if attempt > 0 {
		h.Write([]byte(":" + strconv.Itoa(attempt)))
	}
	return hex.EncodeToString(h.Sum(nil))[:CodeLength]
}

// Generate возвращает первый код, который taken считает свободным.
// Вызывающий обязан держать блокировку своего хранилища от проверки до вставки.
func (g *Generator) Generate(targetURL string, taken func(code string) bool) (string, error) {
	return g.Allocate(targetURL, func(code string) (bool, error) {
		return !taken(code), nil
	})
}

// Allocate перебирает кандидатов, пока claim не займет один из них.
// claim должен атомарно проверить и занять код и вернуть true при успехе.
func (g *Generator) Allocate(targetURL string, claim func(code string) (bool, error)) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code := g.Candidate(targetURL, attempt)
		ok, err := claim(code)
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
