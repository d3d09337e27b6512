package metadata

import (
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date tag layouts, most specific first. The unpadded month, day, hour,
// minute and second fields accept one or two digits, so "2021-7-4" and
// "2021-07-04" both parse.
var dateLayouts = []string{
	"2006-1-2:15:4:5",
	"2006-1-2:15:4",
	"2006-1-2:15",
	"2006-1-2",
	"2006-1",
	"2006",
}

// SyntheticEpoch is the base of timestamps derived from filenames.
var SyntheticEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	syntheticUnitSeconds = 3600
	maxSyntheticUnits    = 1 << 40
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// Resolved holds the metadata derived for a single file.
type Resolved struct {
	Title           string
	Timestamp       time.Time
	SizeBytes       int64
	DurationSeconds *int
	MimeType        *string
}

// Resolver derives episode metadata from filenames, tags, container data and
// stat information. It never fails: every problem degrades to a fallback value
// and a logged warning.
type Resolver struct {
	logger *log.Logger
	debug  bool
}

// NewResolver creates a Resolver. A nil logger uses log.Default().
func NewResolver(logger *log.Logger, debug bool) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{logger: logger, debug: debug}
}

// Resolve runs every resolution step for path.
func (r *Resolver) Resolve(path string, orderByName bool) Resolved {
	var size int64
	if info, err := os.Stat(path); err != nil {
		r.logger.Printf("warning: stat %s: %v", path, err)
	} else {
		size = info.Size()
	}

	tags := r.ReadTags(path)
	resolved := Resolved{
		Title:     ResolveTitle(path, tags),
		Timestamp: r.ResolveTimestamp(path, tags, orderByName),
		SizeBytes: size,
	}

	if seconds, ok := r.ResolveDuration(path); ok {
		resolved.DurationSeconds = &seconds
	}
	if mimeType, ok := ResolveMimeType(path); ok {
		resolved.MimeType = &mimeType
	}

	if r.debug {
		r.logger.Printf("resolved %s: title=%q timestamp=%s size=%d", path, resolved.Title, resolved.Timestamp.Format(time.RFC3339), size)
	}
	return resolved
}

// ResolveTitle returns the filename stem followed by the title tag (no
// separator) and the comment tag (space separated) when present.
func ResolveTitle(path string, tags Tags) string {
	title := stem(path)
	if value, ok := tags.Lookup(TagTitle); ok {
		title += value
	}
	if value, ok := tags.Lookup(TagComment); ok {
		title += " " + value
	}
	return title
}

// ResolveTimestamp returns the ordering timestamp for path. With orderByName
// the value is synthesised from the filename; otherwise the date tag is parsed
// and the modification time is the fallback.
func (r *Resolver) ResolveTimestamp(path string, tags Tags, orderByName bool) time.Time {
	if orderByName {
		return SyntheticTimestamp(path)
	}

	if value, ok := tags.Lookup(TagDate); ok && strings.TrimSpace(value) != "" {
		if ts, ok := ParseDate(value); ok {
			return ts
		}
		r.logger.Printf("warning: unparseable date tag %q in %s; using modification time", value, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		r.logger.Printf("warning: stat %s: %v", path, err)
		return time.Unix(0, 0).UTC()
	}
	return info.ModTime()
}

// ParseDate parses a date tag in the local time zone using the first layout
// that matches.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// SyntheticTimestamp derives a deterministic timestamp from the filename.
// The last run of digits counts hours after SyntheticEpoch, so "ep10" sorts
// after "ep2". Names without digits use the sum of their code points as
// seconds.
func SyntheticTimestamp(path string) time.Time {
	name := stem(path)

	runs := digitRun.FindAllString(name, -1)
	if len(runs) > 0 {
		units, err := strconv.ParseInt(runs[len(runs)-1], 10, 64)
		if err != nil || units > maxSyntheticUnits {
			units = maxSyntheticUnits
		}
		return time.Unix(SyntheticEpoch.Unix()+units*syntheticUnitSeconds, 0).UTC()
	}

	var sum int64
	for _, r := range name {
		sum += int64(r)
	}
	return time.Unix(SyntheticEpoch.Unix()+sum, 0).UTC()
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
