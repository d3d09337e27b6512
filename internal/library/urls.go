package library

import (
	"fmt"
	"regexp"
	"strings"
)

// StaticPrefix is the URL path under which files of the root are served.
const StaticPrefix = "/static"

var slashRun = regexp.MustCompile(`/+`)

// PublicURL builds the fully qualified URL of a file below the channel root.
// Runs of slashes in the path collapse to one, and the path never starts with
// a slash when rootURL already ends in one.
func PublicURL(rootURL, staticPrefix, relativeDirectory, filename string) string {
	path := slashRun.ReplaceAllString(staticPrefix+"/"+relativeDirectory+"/"+filename, "/")
	if strings.HasSuffix(rootURL, "/") {
		path = strings.TrimPrefix(path, "/")
	}
	return rootURL + escapePath(path)
}

// escapePath percent-encodes every byte of p except unreserved characters
// and the slash, so sub-delimiters such as "&", "+" and ";" are encoded too.
func escapePath(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		if isUnreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
