package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/bnema/roundtable/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	sessionFileMode  = 0o600
	sessionDirMode   = 0o700
	sessionExtension = ".toml"
	tempFilePattern  = ".session-*.toml.tmp"
)

// Repository archives sessions as one TOML file each under dir.
type Repository struct {
	dir string
	mu  *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SessionArchive = (*Repository)(nil)

func NewRepository(dir string) (*Repository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("session archive directory is empty")
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve session archive directory: %w", err)
	}
	absDir = filepath.Clean(absDir)

	return &Repository{dir: absDir, mu: lockForPath(absDir)}, nil
}

// Save writes record, replacing an earlier save of the same session.
func (r *Repository) Save(ctx context.Context, record domain.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.pathForID(record.ID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return writeSchema(path, toSchema(record))
}

func (r *Repository) Get(ctx context.Context, id string) (domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.SessionRecord{}, err
	}

	path, err := r.pathForID(id)
	if err != nil {
		return domain.SessionRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := readSchema(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.SessionRecord{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if err != nil {
		return domain.SessionRecord{}, err
	}

	return fromSchema(file), nil
}

func (r *Repository) List(ctx context.Context) ([]domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.SessionRecord{}, nil
		}
		return nil, fmt.Errorf("read session archive: %w", err)
	}

	records := make([]domain.SessionRecord, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != sessionExtension {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file, err := readSchema(filepath.Join(r.dir, name))
		if err != nil {
			return nil, err
		}
		records = append(records, fromSchema(file))
	}

	slices.SortStableFunc(records, func(a, b domain.SessionRecord) int {
		return b.SavedAt.Compare(a.SavedAt)
	})
	return records, nil
}

func (r *Repository) pathForID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" || trimmed != filepath.Base(trimmed) || strings.HasPrefix(trimmed, ".") {
		return "", fmt.Errorf("invalid session id %q", id)
	}

	return filepath.Join(r.dir, trimmed+sessionExtension), nil
}

func readSchema(path string) (fileSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, err
		}
		return fileSchema{}, fmt.Errorf("read session file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode session file %s: %w", filepath.Base(path), err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func writeSchema(path string, file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(path), sessionDirMode); err != nil {
		return fmt.Errorf("create session archive directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}

	if err := tempFile.Chmod(sessionFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}

	cleanup = false
	return nil
}
