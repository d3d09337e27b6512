package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/dhowden/tag"
)

// ErrNoID3 reports that a file carries no readable ID3v2 container.
var ErrNoID3 = errors.New("no id3v2 tag")

const id3Magic = "ID3"

// TagName identifies a tag the resolver knows how to use.
type TagName int

const (
	TagTitle TagName = iota
	TagComment
	TagDate
)

func (n TagName) String() string {
	switch n {
	case TagTitle:
		return "title"
	case TagComment:
		return "comment"
	case TagDate:
		return "date"
	default:
		return fmt.Sprintf("tag(%d)", int(n))
	}
}

// Tags maps tag names to their raw values. Only the first value of each
// sequence is used for resolution.
type Tags map[TagName][]string

// Lookup returns the first value recorded for name.
func (t Tags) Lookup(name TagName) (string, bool) {
	values := t[name]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Add appends value under name. An empty value still marks the tag as
// present: an empty comment frame adds a trailing space to the title.
func (t Tags) Add(name TagName, value string) {
	t[name] = append(t[name], value)
}

func (t Tags) addNonBlank(name TagName, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	t.Add(name, value)
}

// fill copies every tag from other that t does not have yet.
func (t Tags) fill(other Tags) {
	for name, values := range other {
		if len(t[name]) > 0 || len(values) == 0 {
			continue
		}
		t[name] = append([]string(nil), values...)
	}
}

// ReadTags collects tags for path. ID3v2 frames take precedence; other
// containers only contribute a title or comment when they are ID3 as well,
// but any container may supply the date. Failures are logged
// and never returned.
func (r *Resolver) ReadTags(path string) Tags {
	tags := Tags{}

	frames, err := readID3(path)
	switch {
	case err == nil:
		tags.fill(frames)
	case errors.Is(err, ErrNoID3):
	default:
		r.logger.Printf("warning: read id3 tags for %s: %v", path, err)
	}

	container, err := readContainerTags(path)
	switch {
	case err == nil:
		tags.fill(container)
	case errors.Is(err, tag.ErrNoTagsFound):
	default:
		r.logger.Printf("warning: read tags for %s: %v", path, err)
	}

	return tags
}

func readID3(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	magic := make([]byte, len(id3Magic))
	if _, err := io.ReadFull(f, magic); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrNoID3
		}
		return nil, err
	}
	if string(magic) != id3Magic {
		return nil, ErrNoID3
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	id3, err := id3v2.ParseReader(f, id3v2.Options{Parse: true})
	if err != nil {
		if errors.Is(err, id3v2.ErrUnsupportedVersion) {
			return nil, ErrNoID3
		}
		return nil, err
	}

	if !id3.HasFrames() {
		return nil, ErrNoID3
	}

	tags := Tags{}
	if frame, ok := firstTextFrame(id3, "TIT2"); ok {
		tags.Add(TagTitle, frame.Text)
	}
	for _, frame := range id3.GetFrames("COMM") {
		if comment, ok := frame.(id3v2.CommentFrame); ok {
			tags.Add(TagComment, comment.Text)
		}
	}
	for _, id := range []string{"TDRC", "TYER"} {
		if frame, ok := firstTextFrame(id3, id); ok {
			tags.addNonBlank(TagDate, frame.Text)
		}
	}
	return tags, nil
}

func firstTextFrame(id3 *id3v2.Tag, id string) (id3v2.TextFrame, bool) {
	for _, frame := range id3.GetFrames(id) {
		if text, ok := frame.(id3v2.TextFrame); ok {
			return text, true
		}
	}
	return id3v2.TextFrame{}, false
}

// dateKeys lists the raw keys different containers use for a release date.
var dateKeys = []string{"date", "DATE", "year", "TDRC", "TYER", "TDA", "\xa9day"}

func readContainerTags(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}

	tags := Tags{}
	if isID3Format(meta.Format()) {
		tags.addNonBlank(TagTitle, meta.Title())
		tags.addNonBlank(TagComment, meta.Comment())
	}

	raw := meta.Raw()
	for _, key := range dateKeys {
		if value, ok := raw[key].(string); ok {
			tags.addNonBlank(TagDate, value)
		}
	}
	if year := meta.Year(); year > 0 {
		tags.Add(TagDate, fmt.Sprintf("%04d", year))
	}
	return tags, nil
}

func isID3Format(format tag.Format) bool {
	switch format {
	case tag.ID3v1, tag.ID3v2_2, tag.ID3v2_3, tag.ID3v2_4:
		return true
	}
	return false
}
