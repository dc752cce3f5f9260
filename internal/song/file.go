package song

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/partkeeper/partkeeper/internal/kvstore"
)

// FileRepository keeps the whole library in one JSON document, newest song
// first. The document is re-read on every call so hand edits are picked up.
type FileRepository struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *FileRepository) List(_ context.Context) (Library, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read()
}

func (r *FileRepository) Get(_ context.Context, id string) (Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := r.read()
	if err != nil {
		return Song{}, err
	}
	idx := indexOf(lib.Songs, id)
	if idx < 0 {
		return Song{}, ErrNotFound
	}
	return lib.Songs[idx], nil
}

func (r *FileRepository) Create(_ context.Context, in Input) (Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := r.read()
	if err != nil {
		return Song{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Song{}, fmt.Errorf("generate song id: %w", err)
	}
	now := r.now()
	s := in.toSong(id.String(), now)
	lib.Songs = append([]Song{s}, lib.Songs...)
	lib.Meta.UpdatedAt = now
	if err := r.write(lib); err != nil {
		return Song{}, err
	}
	return cloneSong(s), nil
}

func (r *FileRepository) Update(_ context.Context, id string, in Input) (Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := r.read()
	if err != nil {
		return Song{}, err
	}
	idx := indexOf(lib.Songs, id)
	if idx < 0 {
		return Song{}, ErrNotFound
	}
	now := r.now()
	s := in.toSong(id, now)
	lib.Songs[idx] = s
	lib.Meta.UpdatedAt = now
	if err := r.write(lib); err != nil {
		return Song{}, err
	}
	return cloneSong(s), nil
}

func (r *FileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := r.read()
	if err != nil {
		return err
	}
	idx := indexOf(lib.Songs, id)
	if idx < 0 {
		return ErrNotFound
	}
	lib.Songs = append(lib.Songs[:idx], lib.Songs[idx+1:]...)
	lib.Meta.UpdatedAt = r.now()
	return r.write(lib)
}

func (r *FileRepository) read() (Library, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Library{Meta: Meta{Version: currentVersion, UpdatedAt: r.now()}, Songs: []Song{}}, nil
	}
	if err != nil {
		return Library{}, fmt.Errorf("read songs file: %w", err)
	}
	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return Library{}, fmt.Errorf("parse songs file: %w", err)
	}
	if lib.Meta.Version == 0 {
		lib.Meta.Version = currentVersion
	}
	for i := range lib.Songs {
		lib.Songs[i] = cloneSong(lib.Songs[i])
	}
	if lib.Songs == nil {
		lib.Songs = []Song{}
	}
	return lib, nil
}

func (r *FileRepository) write(lib Library) error {
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("encode songs file: %w", err)
	}
	if err := kvstore.WriteFileAtomic(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write songs file: %w", err)
	}
	return nil
}

func indexOf(songs []Song, id string) int {
	for i, s := range songs {
		if s.ID == id {
			return i
		}
	}
	return -1
}
