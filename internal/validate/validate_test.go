package validate

import (
	"strings"
	"testing"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid", "Sweet Adeline", ""},
		{"empty", "", ""},
		{"at limit", string(make([]byte, MaxTitleLength)), ""},
		{"over limit", string(make([]byte, MaxTitleLength+1)), "title must be 200 characters or fewer"},
		{"multibyte at limit", strings.Repeat("é", MaxTitleLength), ""},
		{"multibyte over limit", strings.Repeat("ø", MaxTitleLength+1), "title must be 200 characters or fewer"},
	}
	for _, tt := range tests {
		if got := Title(tt.input); got != tt.want {
			t.Errorf("Title(%q [len=%d]) = %q, want %q", tt.name, len(tt.input), got, tt.want)
		}
	}
}

func TestArtist(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid", "The Buffalo Bills", ""},
		{"at limit", string(make([]byte, MaxArtistLength)), ""},
		{"over limit", string(make([]byte, MaxArtistLength+1)), "artist must be 200 characters or fewer"},
	}
	for _, tt := range tests {
		if got := Artist(tt.input); got != tt.want {
			t.Errorf("Artist(%q [len=%d]) = %q, want %q", tt.name, len(tt.input), got, tt.want)
		}
	}
}

func TestTagName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid", "ballad", ""},
		{"at limit", string(make([]byte, MaxTagNameLength)), ""},
		{"over limit", string(make([]byte, MaxTagNameLength+1)), "tag name must be 50 characters or fewer"},
	}
	for _, tt := range tests {
		if got := TagName(tt.input); got != tt.want {
			t.Errorf("TagName(%q [len=%d]) = %q, want %q", tt.name, len(tt.input), got, tt.want)
		}
	}
}

func TestLongTextFields(t *testing.T) {
	tests := []struct {
		name  string
		check func(string) string
		max   int
		want  string
	}{
		{"lyrics", Lyrics, MaxLyricsLength, "lyrics must be 20000 characters or fewer"},
		{"notes", Notes, MaxNotesLength, "notes must be 5000 characters or fewer"},
		{"source", Source, MaxSourceLength, "source must be 500 characters or fewer"},
		{"part link", MediaRef, MaxMediaRefLength, "part link must be 500 characters or fewer"},
		{"url", URL, MaxURLLength, "URL must be 1000 characters or fewer"},
		{"file name", FileName, MaxFileNameLength, "file name must be 255 characters or fewer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(string(make([]byte, tt.max))); got != "" {
				t.Errorf("expected no error at limit, got %q", got)
			}
			if got := tt.check(string(make([]byte, tt.max+1))); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagCount(t *testing.T) {
	if got := TagCount(MaxTagsPerSong); got != "" {
		t.Errorf("expected no error at limit, got %q", got)
	}
	if got := TagCount(MaxTagsPerSong + 1); got != "a song can have at most 30 tags" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestFieldLimits(t *testing.T) {
	fl := FieldLimits()
	if fl["title"] != MaxTitleLength {
		t.Errorf("FieldLimits()[title] = %d, want %d", fl["title"], MaxTitleLength)
	}
	if fl["partLink"] != MaxMediaRefLength {
		t.Errorf("FieldLimits()[partLink] = %d, want %d", fl["partLink"], MaxMediaRefLength)
	}
	if len(fl) != 10 {
		t.Errorf("FieldLimits() returned %d entries, expected 10", len(fl))
	}
}
