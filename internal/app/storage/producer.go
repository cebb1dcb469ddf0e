package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Tokebay/shorturl/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventType string

const (
	EventUserCreated EventType = "user_created"
	EventURLCreated  EventType = "url_created"
	EventURLUpdated  EventType = "url_updated"
	EventURLDeleted  EventType = "url_deleted"
)

// Event одна строка журнала (JSON lines).
type Event struct {
	UUID         string    `json:"uuid"`
	Type         EventType `json:"type"`
	Code         string    `json:"code,omitempty"`
	URL          string    `json:"original_url,omitempty"`
	Owner        string    `json:"owner,omitempty"`
	Username     string    `json:"username,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
}

// Producer дописывает события в конец файла.
type Producer struct {
	file     *os.File
	filePath string
	// write пишет строку целиком и сбрасывает ее на диск
	write func(line []byte) error
}

func NewProducer(filePath string) (*Producer, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	p := &Producer{
		file:     file,
		filePath: filePath,
	}
	p.write = p.writeLine
	return p, nil
}

// WriteEvent не потокобезопасен, вызывающий сериализует записи сам.
// При ошибке файл обрезается до прежнего размера, недописанная строка не остается.
func (p *Producer) WriteEvent(e *Event) error {
	if e.UUID == "" {
		e.UUID = uuid.NewString()
	}
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	line = append(line, '\n')

	info, err := p.file.Stat()
	if err != nil {
		return fmt.Errorf("stat journal: %w", err)
	}
	if err := p.write(line); err != nil {
		if terr := p.file.Truncate(info.Size()); terr != nil {
			return errors.Join(err, fmt.Errorf("truncate journal: %w", terr))
		}
		return err
	}
	return nil
}

func (p *Producer) writeLine(line []byte) error {
	if _, err := p.file.Write(line); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if err := p.file.Close(); err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}
	return nil
}

// LoadEvents читает журнал целиком. Отсутствующий файл это пустой журнал.
// Оборванная последняя строка (падение во время записи) пропускается,
// битая строка в середине журнала это ошибка.
func LoadEvents(filePath string) ([]Event, error) {
	file, err := os.Open(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var events []Event
	for lineNo := 1; ; lineNo++ {
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, readErr
		}
		last := errors.Is(readErr, io.EOF)

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var e Event
			if err := json.Unmarshal(trimmed, &e); err != nil {
				if !last {
					return nil, fmt.Errorf("decode event at line %d: %w", lineNo, err)
				}
				logger.Log.Warn("Skipping torn journal tail",
					zap.String("file", filePath),
					zap.Int("line", lineNo),
					zap.Error(err),
				)
				break
			}
			events = append(events, e)
		}

		if last {
			break
		}
	}

	return events, nil
}
