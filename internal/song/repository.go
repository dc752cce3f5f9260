package song

import (
	"context"
	"sort"
	"time"
)

// Repository is the song record store. Every mutation bumps the library
// meta timestamp.
type Repository interface {
	List(ctx context.Context) (Library, error)
	Get(ctx context.Context, id string) (Song, error)
	Create(ctx context.Context, in Input) (Song, error)
	Update(ctx context.Context, id string, in Input) (Song, error)
	Delete(ctx context.Context, id string) error
}

const currentVersion = 1

func cloneSong(s Song) Song {
	out := s
	out.Tags = append([]string(nil), s.Tags...)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	out.Parts = make(map[Role]string, len(s.Parts))
	for role, ref := range s.Parts {
		out.Parts[role] = ref
	}
	return out
}

// sortNewestFirst orders songs by creation, newest first, matching the
// postgres backend.
func sortNewestFirst(songs []Song, created map[string]time.Time) {
	sort.SliceStable(songs, func(i, j int) bool {
		return created[songs[i].ID].After(created[songs[j].ID])
	})
}
