package validate

import (
	"fmt"
	"unicode/utf8"
)

// Text field length limits, also served to the web client through /api/limits.
const (
	MaxTitleLength    = 200
	MaxArtistLength   = 200
	MaxTagNameLength  = 50
	MaxTagsPerSong    = 30
	MaxLyricsLength   = 20000
	MaxNotesLength    = 5000
	MaxSourceLength   = 500
	MaxMediaRefLength = 500
	MaxURLLength      = 1000
	MaxFileNameLength = 255
)

func checkLen(value string, max int, field string) string {
	if utf8.RuneCountInString(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func Title(s string) string    { return checkLen(s, MaxTitleLength, "title") }
func Artist(s string) string   { return checkLen(s, MaxArtistLength, "artist") }
func TagName(s string) string  { return checkLen(s, MaxTagNameLength, "tag name") }
func Lyrics(s string) string   { return checkLen(s, MaxLyricsLength, "lyrics") }
func Notes(s string) string    { return checkLen(s, MaxNotesLength, "notes") }
func Source(s string) string   { return checkLen(s, MaxSourceLength, "source") }
func MediaRef(s string) string { return checkLen(s, MaxMediaRefLength, "part link") }
func URL(s string) string      { return checkLen(s, MaxURLLength, "URL") }
func FileName(s string) string { return checkLen(s, MaxFileNameLength, "file name") }

func TagCount(n int) string {
	if n > MaxTagsPerSong {
		return fmt.Sprintf("a song can have at most %d tags", MaxTagsPerSong)
	}
	return ""
}

// FieldLimits returns a map of field names to max lengths for the /api/limits endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"title":    MaxTitleLength,
		"artist":   MaxArtistLength,
		"tagName":  MaxTagNameLength,
		"tags":     MaxTagsPerSong,
		"lyrics":   MaxLyricsLength,
		"notes":    MaxNotesLength,
		"source":   MaxSourceLength,
		"partLink": MaxMediaRefLength,
		"url":      MaxURLLength,
		"fileName": MaxFileNameLength,
	}
}
