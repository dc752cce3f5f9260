package song

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/partkeeper/partkeeper/internal/database"
)

const songColumns = `id::text, title, artist, tags, default_role, parts, lyrics, source, sound_track_url, notes, updated_at`

type PostgresRepository struct {
	db database.DBTX
}

func NewPostgresRepository(db database.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) (Library, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+songColumns+` FROM songs ORDER BY created_at DESC`)
	if err != nil {
		return Library{}, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]Song, 0)
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return Library{}, err
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return Library{}, fmt.Errorf("iterate songs: %w", err)
	}

	meta := Meta{Version: currentVersion, UpdatedAt: time.Now().UTC()}
	err = r.db.QueryRow(ctx,
		`SELECT version, updated_at FROM library_meta WHERE id = 'main'`,
	).Scan(&meta.Version, &meta.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Library{}, fmt.Errorf("query library meta: %w", err)
	}

	return Library{Meta: meta, Songs: songs}, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Song, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+songColumns+` FROM songs WHERE id = $1`, id)
	s, err := scanSong(row)
	if err != nil {
		return Song{}, notFoundOr(err)
	}
	return s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, in Input) (Song, error) {
	parts, err := encodeParts(in.Parts)
	if err != nil {
		return Song{}, err
	}

	var id string
	var updatedAt time.Time
	err = r.db.QueryRow(ctx,
		`INSERT INTO songs (title, artist, tags, default_role, parts, lyrics, source, sound_track_url, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id::text, updated_at`,
		in.Title, in.Artist, nonNilTags(in.Tags), roleParam(in.DefaultRole), parts,
		in.Lyrics, in.Source, in.SoundTrackURL, in.Notes,
	).Scan(&id, &updatedAt)
	if err != nil {
		return Song{}, fmt.Errorf("insert song: %w", err)
	}

	r.touchMeta(ctx)
	return cloneSong(in.toSong(id, updatedAt)), nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, in Input) (Song, error) {
	parts, err := encodeParts(in.Parts)
	if err != nil {
		return Song{}, err
	}

	var updatedAt time.Time
	err = r.db.QueryRow(ctx,
		`UPDATE songs
		 SET title = $1, artist = $2, tags = $3, default_role = $4, parts = $5,
		     lyrics = $6, source = $7, sound_track_url = $8, notes = $9, updated_at = now()
		 WHERE id = $10
		 RETURNING updated_at`,
		in.Title, in.Artist, nonNilTags(in.Tags), roleParam(in.DefaultRole), parts,
		in.Lyrics, in.Source, in.SoundTrackURL, in.Notes, id,
	).Scan(&updatedAt)
	if err != nil {
		return Song{}, notFoundOr(err)
	}

	r.touchMeta(ctx)
	return cloneSong(in.toSong(id, updatedAt)), nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM songs WHERE id = $1`, id)
	if err != nil {
		return notFoundOr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.touchMeta(ctx)
	return nil
}

// touchMeta bumps the library timestamp. The song change already happened, so
// a failure here is logged rather than returned.
func (r *PostgresRepository) touchMeta(ctx context.Context) {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO library_meta (id, version, updated_at) VALUES ('main', $1, now())
		 ON CONFLICT (id) DO UPDATE SET updated_at = now()`,
		currentVersion,
	); err != nil {
		slog.Error("songs: failed to update library meta", "error", err)
	}
}

func scanSong(row pgx.Row) (Song, error) {
	var s Song
	var defaultRole *string
	var parts []byte
	if err := row.Scan(
		&s.ID, &s.Title, &s.Artist, &s.Tags, &defaultRole, &parts,
		&s.Lyrics, &s.Source, &s.SoundTrackURL, &s.Notes, &s.UpdatedAt,
	); err != nil {
		return Song{}, fmt.Errorf("scan song: %w", err)
	}
	if defaultRole != nil {
		role := Role(*defaultRole)
		s.DefaultRole = &role
	}
	s.Parts = map[Role]string{}
	if len(parts) > 0 {
		if err := json.Unmarshal(parts, &s.Parts); err != nil {
			return Song{}, fmt.Errorf("decode parts: %w", err)
		}
	}
	return cloneSong(s), nil
}

func encodeParts(parts map[Role]string) ([]byte, error) {
	if parts == nil {
		parts = map[Role]string{}
	}
	b, err := json.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("encode parts: %w", err)
	}
	return b, nil
}

func roleParam(r *Role) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// notFoundOr maps a missing row, or an id that is not a valid uuid, to
// ErrNotFound.
func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return ErrNotFound
	}
	return err
}
