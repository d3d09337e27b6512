package library

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

var coverExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// CoverLocator finds cover images next to audio files. Each directory is
// listed at most once per locator, so a locator should live for a single
// assembly pass.
type CoverLocator struct {
	root    string
	rootURL string
	logger  *log.Logger
	seen    map[string]*string
}

// NewCoverLocator creates a locator that builds URLs relative to root.
func NewCoverLocator(root, rootURL string, logger *log.Logger) *CoverLocator {
	if logger == nil {
		logger = log.Default()
	}
	return &CoverLocator{
		root:    root,
		rootURL: rootURL,
		logger:  logger,
		seen:    make(map[string]*string),
	}
}

// Locate returns the URL of the first cover image in dir, in name order.
func (c *CoverLocator) Locate(dir string) (string, bool) {
	dir = filepath.Clean(dir)
	if cached, ok := c.seen[dir]; ok {
		if cached == nil {
			return "", false
		}
		return *cached, true
	}

	var result *string
	if name, ok := c.findCover(dir); ok {
		coverURL := PublicURL(c.rootURL, StaticPrefix, relativeDirectory(c.root, dir), name)
		result = &coverURL
	}
	c.seen[dir] = result

	if result == nil {
		return "", false
	}
	return *result, true
}

func (c *CoverLocator) findCover(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		c.logger.Printf("warning: list %s for cover art: %v", dir, err)
		return "", false
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isCoverImage(entry.Name()) {
			return entry.Name(), true
		}
	}
	return "", false
}

func isCoverImage(name string) bool {
	_, ok := coverExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func relativeDirectory(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}
