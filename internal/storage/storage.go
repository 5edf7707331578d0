package storage

import (
	"context"
	"errors"
	mathrand "math/rand"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound возвращается, если файла по пути нет
var ErrNotFound = errors.New("storage: file not found")

// FileStore - хранилище загруженных файлов
type FileStore interface {
	// Save сохраняет данные и возвращает путь, по которому их можно прочитать
	Save(ctx context.Context, data []byte, pathHint string) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// BuildKey строит уникальный ключ вида "<dir>/<ulid>_<name>" из подсказки
func BuildKey(pathHint string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	entropyMu.Unlock()

	dir, name := path.Split(path.Clean("/" + strings.ReplaceAll(pathHint, "\\", "/")))
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "_" {
		name = "file"
	}
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return id + "_" + name
	}
	return dir + "/" + id + "_" + name
}
