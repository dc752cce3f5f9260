package song

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/partkeeper/partkeeper/internal/validate"
)

// Role is a quartet voice part.
type Role string

const (
	FirstTenor  Role = "1st-tenor"
	SecondTenor Role = "2nd-tenor"
	Baritone    Role = "baritone"
	Bass        Role = "bass"
)

// Roles lists every voice part in score order, top to bottom.
var Roles = []Role{FirstTenor, SecondTenor, Baritone, Bass}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

var (
	ErrNotFound = errors.New("song not found")
	ErrInvalid  = errors.New("invalid song")
)

type Song struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Artist        *string         `json:"artist,omitempty"`
	Tags          []string        `json:"tags"`
	DefaultRole   *Role           `json:"defaultRole,omitempty"`
	Parts         map[Role]string `json:"parts"`
	Lyrics        *string         `json:"lyrics,omitempty"`
	Source        *string         `json:"source,omitempty"`
	SoundTrackURL *string         `json:"soundTrackUrl,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Input is a song without the fields the store assigns.
type Input struct {
	Title         string          `json:"title"`
	Artist        *string         `json:"artist,omitempty"`
	Tags          []string        `json:"tags"`
	DefaultRole   *Role           `json:"defaultRole,omitempty"`
	Parts         map[Role]string `json:"parts"`
	Lyrics        *string         `json:"lyrics,omitempty"`
	Source        *string         `json:"source,omitempty"`
	SoundTrackURL *string         `json:"soundTrackUrl,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
}

type Meta struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Library struct {
	Meta  Meta   `json:"meta"`
	Songs []Song `json:"songs"`
}

func (in Input) toSong(id string, updatedAt time.Time) Song {
	return Song{
		ID:            id,
		Title:         in.Title,
		Artist:        in.Artist,
		Tags:          in.Tags,
		DefaultRole:   in.DefaultRole,
		Parts:         in.Parts,
		Lyrics:        in.Lyrics,
		Source:        in.Source,
		SoundTrackURL: in.SoundTrackURL,
		Notes:         in.Notes,
		UpdatedAt:     updatedAt,
	}
}

// Normalize trims text, drops empty optional fields, empty parts and
// duplicate tags, and validates what is left.
func (in Input) Normalize() (Input, error) {
	out := Input{
		Title:         strings.TrimSpace(in.Title),
		Artist:        trimOptional(in.Artist),
		Lyrics:        trimOptional(in.Lyrics),
		Source:        trimOptional(in.Source),
		SoundTrackURL: trimOptional(in.SoundTrackURL),
		Notes:         trimOptional(in.Notes),
		DefaultRole:   in.DefaultRole,
		Tags:          []string{},
		Parts:         map[Role]string{},
	}

	if out.Title == "" {
		return Input{}, invalid("title is required")
	}

	seen := make(map[string]bool)
	for _, tag := range in.Tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		if msg := validate.TagName(tag); msg != "" {
			return Input{}, invalid(msg)
		}
		seen[key] = true
		out.Tags = append(out.Tags, tag)
	}

	for role, ref := range in.Parts {
		if !role.Valid() {
			return Input{}, invalid(fmt.Sprintf("unknown part %q", role))
		}
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if msg := validate.MediaRef(ref); msg != "" {
			return Input{}, invalid(msg)
		}
		out.Parts[role] = ref
	}

	if out.DefaultRole != nil && !out.DefaultRole.Valid() {
		return Input{}, invalid(fmt.Sprintf("unknown default part %q", *out.DefaultRole))
	}

	checks := []string{
		validate.Title(out.Title),
		validate.TagCount(len(out.Tags)),
		validateOptional(out.Artist, validate.Artist),
		validateOptional(out.Lyrics, validate.Lyrics),
		validateOptional(out.Source, validate.Source),
		validateOptional(out.SoundTrackURL, validate.URL),
		validateOptional(out.Notes, validate.Notes),
	}
	for _, msg := range checks {
		if msg != "" {
			return Input{}, invalid(msg)
		}
	}
	return out, nil
}

// Matches reports whether query appears in the title, artist or any tag,
// ignoring case. An empty query matches everything.
func (s Song) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(s.Title), query) {
		return true
	}
	if s.Artist != nil && strings.Contains(strings.ToLower(*s.Artist), query) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func Filter(songs []Song, query string) []Song {
	out := make([]Song, 0, len(songs))
	for _, s := range songs {
		if s.Matches(query) {
			out = append(out, s)
		}
	}
	return out
}

// PartFor picks the part to practise: the requested role if the song has it,
// then the song's default role, then the first available part in score order.
func (s Song) PartFor(requested Role) (Role, string, bool) {
	if ref, ok := s.Parts[requested]; ok && ref != "" {
		return requested, ref, true
	}
	if s.DefaultRole != nil {
		if ref, ok := s.Parts[*s.DefaultRole]; ok && ref != "" {
			return *s.DefaultRole, ref, true
		}
	}
	for _, role := range Roles {
		if ref, ok := s.Parts[role]; ok && ref != "" {
			return role, ref, true
		}
	}
	return "", "", false
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

// ValidationMessage strips the sentinel prefix for display.
func ValidationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), ErrInvalid.Error()+": ")
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validateOptional(s *string, check func(string) string) string {
	if s == nil {
		return ""
	}
	return check(*s)
}
