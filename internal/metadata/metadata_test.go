package metadata

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bogem/id3v2"
)

func discardResolver() *Resolver {
	return NewResolver(log.New(io.Discard, "", 0), false)
}

func writeTaggedFile(t *testing.T, path string, frames map[string]string, comment string) {
	t.Helper()

	tag := id3v2.NewEmptyTag()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	for id, text := range frames {
		tag.AddTextFrame(id, id3v2.EncodingUTF8, text)
	}
	if comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Text:     comment,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if _, err := tag.WriteTo(f); err != nil {
		t.Fatalf("write id3 tag: %v", err)
	}
	if _, err := f.Write([]byte("not really audio")); err != nil {
		t.Fatalf("write body: %v", err)
	}
}

func TestResolveTitleWithoutTags(t *testing.T) {
	if got := ResolveTitle("/music/01-track.mp3", Tags{}); got != "01-track" {
		t.Fatalf("expected title fallback to file stem, got %q", got)
	}
}

func TestResolveTitleConcatenatesTags(t *testing.T) {
	tags := Tags{}
	tags.Add(TagTitle, "Intro")
	if got := ResolveTitle("/music/01-track.mp3", tags); got != "01-trackIntro" {
		t.Fatalf("expected concatenated title, got %q", got)
	}

	tags.Add(TagComment, "Live")
	if got := ResolveTitle("/music/01-track.mp3", tags); got != "01-trackIntro Live" {
		t.Fatalf("expected comment appended after a space, got %q", got)
	}
}

func TestResolveTitleFromID3Frames(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "01-track.mp3")
	writeTaggedFile(t, path, map[string]string{"TIT2": "Intro"}, "")

	resolved := discardResolver().Resolve(path, false)
	if resolved.Title != "01-trackIntro" {
		t.Fatalf("expected 01-trackIntro, got %q", resolved.Title)
	}
}

func TestTagsLookupUsesFirstValue(t *testing.T) {
	tags := Tags{TagDate: {"2020", "2021"}}
	value, ok := tags.Lookup(TagDate)
	if !ok || value != "2020" {
		t.Fatalf("expected first value 2020, got %q (%t)", value, ok)
	}

	if _, ok := tags.Lookup(TagTitle); ok {
		t.Fatalf("expected missing tag lookup to report absence")
	}

	tags.Add(TagComment, "")
	if value, ok := tags.Lookup(TagComment); !ok || value != "" {
		t.Fatalf("expected an empty value to count as present, got %q (%t)", value, ok)
	}
}

func TestResolveTimestampFromDateTag(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "episode.mp3")
	writeTaggedFile(t, path, map[string]string{"TDRC": "2021-07"}, "")

	resolver := discardResolver()
	got := resolver.ResolveTimestamp(path, resolver.ReadTags(path), false)

	want, err := time.ParseInLocation("2006-01", "2021-07", time.Local)
	if err != nil {
		t.Fatalf("parse expected: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestResolveTimestampMalformedDateFallsBackToModTime(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "episode.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mtime := time.Date(2019, 5, 4, 3, 2, 1, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	var buf bytes.Buffer
	resolver := NewResolver(log.New(&buf, "", 0), false)

	tags := Tags{}
	tags.Add(TagDate, "not-a-date")
	got := resolver.ResolveTimestamp(path, tags, false)
	if !got.Equal(mtime) {
		t.Fatalf("expected modification time %s, got %s", mtime, got)
	}
	if !strings.Contains(buf.String(), "warning:") {
		t.Fatalf("expected a warning for the malformed date, got %q", buf.String())
	}

	got = resolver.ResolveTimestamp(path, Tags{}, false)
	if !got.Equal(mtime) {
		t.Fatalf("expected modification time without a date tag, got %s", got)
	}
}

func TestResolveTimestampMissingFileNeverZero(t *testing.T) {
	got := discardResolver().ResolveTimestamp("/does/not/exist.mp3", Tags{}, false)
	if got.IsZero() {
		t.Fatalf("expected a non-zero fallback timestamp")
	}
}

func TestParseDateLayouts(t *testing.T) {
	cases := map[string]string{
		"2021-07-14:10:20:30": "2006-01-02:15:04:05",
		"2021-07-14:10:20":    "2006-01-02:15:04",
		"2021-07-14:10":       "2006-01-02:15",
		"2021-07-14":          "2006-01-02",
		"2021-07":             "2006-01",
		"2021":                "2006",
	}
	for value, layout := range cases {
		want, err := time.ParseInLocation(layout, value, time.Local)
		if err != nil {
			t.Fatalf("parse %s: %v", value, err)
		}
		got, ok := ParseDate(value)
		if !ok || !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %s, %t; want %s", value, got, ok, want)
		}
	}

	if _, ok := ParseDate("14/07/2021"); ok {
		t.Fatalf("expected unsupported layout to fail")
	}
}

func TestParseDateAcceptsUnpaddedFields(t *testing.T) {
	cases := map[string]time.Time{
		"2021-07-4":       time.Date(2021, 7, 4, 0, 0, 0, 0, time.Local),
		"2021-7-4":        time.Date(2021, 7, 4, 0, 0, 0, 0, time.Local),
		"2021-7":          time.Date(2021, 7, 1, 0, 0, 0, 0, time.Local),
		"2021-7-4:9":      time.Date(2021, 7, 4, 9, 0, 0, 0, time.Local),
		"2021-7-4:9:5":    time.Date(2021, 7, 4, 9, 5, 0, 0, time.Local),
		"2021-7-4:9:5:3":  time.Date(2021, 7, 4, 9, 5, 3, 0, time.Local),
		"2021-12-25:23:0": time.Date(2021, 12, 25, 23, 0, 0, 0, time.Local),
	}
	for value, want := range cases {
		got, ok := ParseDate(value)
		if !ok || !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %s, %t; want %s", value, got, ok, want)
		}
	}
}

func TestSyntheticTimestampNumericOrdering(t *testing.T) {
	ep2 := SyntheticTimestamp("/shows/ep2.mp3")
	ep10 := SyntheticTimestamp("/shows/ep10.mp3")
	if !ep10.After(ep2) {
		t.Fatalf("expected ep10 (%s) after ep2 (%s)", ep10, ep2)
	}

	if want := SyntheticEpoch.Add(2 * time.Hour); !ep2.Equal(want) {
		t.Fatalf("expected %s, got %s", want, ep2)
	}

	if got := SyntheticTimestamp("/shows/s01e05.mp3"); !got.Equal(SyntheticEpoch.Add(5 * time.Hour)) {
		t.Fatalf("expected the last digit run to win, got %s", got)
	}
}

func TestSyntheticTimestampWithoutDigits(t *testing.T) {
	got := SyntheticTimestamp("/shows/ep.mp3")
	want := SyntheticEpoch.Add(time.Duration('e'+'p') * time.Second)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestSyntheticTimestampClampsHugeNumbers(t *testing.T) {
	huge := SyntheticTimestamp("/shows/ep99999999999999999999999.mp3")
	big := SyntheticTimestamp("/shows/ep1000000.mp3")
	if !huge.After(big) {
		t.Fatalf("expected clamped value to still sort after smaller numbers")
	}
}

func TestResolveWithOrderByName(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "ep3.mp3")
	writeTaggedFile(t, path, map[string]string{"TDRC": "2001"}, "")

	resolved := discardResolver().Resolve(path, true)
	if !resolved.Timestamp.Equal(SyntheticEpoch.Add(3 * time.Hour)) {
		t.Fatalf("expected synthetic timestamp to override the date tag, got %s", resolved.Timestamp)
	}
}

func TestResolveWithInvalidMP3(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "broken.mp3")
	content := []byte("not really an mp3")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	resolved := discardResolver().Resolve(path, false)
	if resolved.DurationSeconds != nil {
		t.Fatalf("expected duration to be absent on decode error")
	}
	if resolved.Title != "broken" {
		t.Fatalf("expected fallback title, got %q", resolved.Title)
	}
	if resolved.SizeBytes != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), resolved.SizeBytes)
	}
	if resolved.MimeType == nil || *resolved.MimeType != "audio/mpeg" {
		t.Fatalf("expected audio/mpeg mime type, got %v", resolved.MimeType)
	}
}

func TestResolveDurationUndecodableIsAbsent(t *testing.T) {
	root := t.TempDir()
	for _, ext := range []string{".m4a", ".aac", ".flac", ".ogg", ".m4b"} {
		path := filepath.Join(root, "track"+ext)
		if err := os.WriteFile(path, []byte("audio data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", ext, err)
		}

		if _, ok := discardResolver().ResolveDuration(path); ok {
			t.Fatalf("expected unknown duration for %s", ext)
		}
	}
}

func TestComputeMP3DurationErrors(t *testing.T) {
	if _, err := computeMP3Duration("/does/not/exist.mp3"); err == nil {
		t.Fatalf("expected error when file is missing")
	}

	root := t.TempDir()
	path := filepath.Join(root, "bad.mp3")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	duration, err := computeMP3Duration(path)
	if err == nil {
		t.Fatalf("expected decode error for invalid mp3 data")
	}
	if duration != 0 {
		t.Fatalf("expected zero duration on error, got %f", duration)
	}
}

func TestReadID3DistinguishesMissingContainer(t *testing.T) {
	root := t.TempDir()
	plain := filepath.Join(root, "plain.mp3")
	if err := os.WriteFile(plain, []byte("this file has no id3 header at all"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := readID3(plain); !errors.Is(err, ErrNoID3) {
		t.Fatalf("expected ErrNoID3, got %v", err)
	}

	if _, err := readID3(filepath.Join(root, "missing.mp3")); err == nil || errors.Is(err, ErrNoID3) {
		t.Fatalf("expected an I/O error for a missing file, got %v", err)
	}

	tagged := filepath.Join(root, "tagged.mp3")
	writeTaggedFile(t, tagged, map[string]string{"TIT2": "Pilot"}, "first take")
	tags, err := readID3(tagged)
	if err != nil {
		t.Fatalf("readID3: %v", err)
	}
	if value, _ := tags.Lookup(TagTitle); value != "Pilot" {
		t.Fatalf("expected TIT2 value Pilot, got %q", value)
	}
	if value, _ := tags.Lookup(TagComment); value != "first take" {
		t.Fatalf("expected COMM value, got %q", value)
	}
}

func TestReadTagsLogsUnexpectedErrors(t *testing.T) {
	var buf bytes.Buffer
	resolver := NewResolver(log.New(&buf, "", 0), false)

	tags := resolver.ReadTags("/does/not/exist.mp3")
	if len(tags) != 0 {
		t.Fatalf("expected no tags for missing file, got %v", tags)
	}
	if !strings.Contains(buf.String(), "warning:") {
		t.Fatalf("expected warning to be logged, got %q", buf.String())
	}
}

func TestResolveMimeType(t *testing.T) {
	cases := map[string]string{
		"book.m4b":  AudiobookMimeType,
		"BOOK.M4B":  AudiobookMimeType,
		"song.MP3":  "audio/mpeg",
		"track.m4a": "audio/mp4",
		"take.flac": "audio/flac",
	}
	for name, want := range cases {
		got, ok := ResolveMimeType(name)
		if !ok || got != want {
			t.Fatalf("ResolveMimeType(%q) = %q, %t; want %q", name, got, ok, want)
		}
	}

	if _, ok := ResolveMimeType("README"); ok {
		t.Fatalf("expected no mime type without an extension")
	}
	if _, ok := ResolveMimeType("file.zzunknownzz"); ok {
		t.Fatalf("expected no mime type for unknown extension")
	}
}

func TestIsAudio(t *testing.T) {
	for _, name := range []string{"a.mp3", "b.m4b", "c.ogg", "d.WAV"} {
		if !IsAudio(name) {
			t.Fatalf("expected %s to be audio", name)
		}
	}
	for _, name := range []string{"cover.png", "notes.txt", "noext"} {
		if IsAudio(name) {
			t.Fatalf("expected %s not to be audio", name)
		}
	}
}
