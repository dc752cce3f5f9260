package song

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	songs   map[string]Song
	created map[string]time.Time
	meta    Meta
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		songs:   make(map[string]Song),
		created: make(map[string]time.Time),
		meta:    Meta{Version: currentVersion, UpdatedAt: time.Now().UTC()},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) List(_ context.Context) (Library, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	songs := make([]Song, 0, len(r.songs))
	for _, s := range r.songs {
		songs = append(songs, cloneSong(s))
	}
	sortNewestFirst(songs, r.created)
	return Library{Meta: r.meta, Songs: songs}, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.songs[id]
	if !ok {
		return Song{}, ErrNotFound
	}
	return cloneSong(s), nil
}

func (r *MemoryRepository) Create(_ context.Context, in Input) (Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return Song{}, err
	}
	now := r.now()
	// Nudge forward so creation order stays strict within one clock tick.
	for _, created := range r.created {
		if !now.After(created) {
			now = created.Add(time.Microsecond)
		}
	}
	s := in.toSong(id.String(), now)
	r.songs[s.ID] = cloneSong(s)
	r.created[s.ID] = now
	r.meta.UpdatedAt = now
	return cloneSong(s), nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, in Input) (Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.songs[id]; !ok {
		return Song{}, ErrNotFound
	}
	now := r.now()
	s := in.toSong(id, now)
	r.songs[id] = cloneSong(s)
	r.meta.UpdatedAt = now
	return cloneSong(s), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.songs[id]; !ok {
		return ErrNotFound
	}
	delete(r.songs, id)
	delete(r.created, id)
	r.meta.UpdatedAt = r.now()
	return nil
}
