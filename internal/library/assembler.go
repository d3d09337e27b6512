package library

import (
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"podcats/internal/metadata"
	"podcats/internal/models"
)

// DefaultDescription is used when no channel description is configured.
const DefaultDescription = "Feed generated by podcats."

// Options configures an Assembler.
type Options struct {
	Root        string
	RootURL     string
	Title       string
	Link        string
	Description string
	Language    string
	Author      string
	OrderByName bool
}

// Assembler walks a directory tree and builds the ordered channel. Nothing is
// cached between calls: every Assemble reflects the filesystem as it is now.
type Assembler struct {
	opts     Options
	resolver *metadata.Resolver
	logger   *log.Logger
}

// NewAssembler creates an Assembler for the configured root.
func NewAssembler(opts Options, resolver *metadata.Resolver, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.Default()
	}
	if resolver == nil {
		resolver = metadata.NewResolver(logger, false)
	}
	opts.Root = filepath.Clean(opts.Root)

	return &Assembler{
		opts:     opts,
		resolver: resolver,
		logger:   logger,
	}
}

// Root returns the directory scanned for episodes.
func (a *Assembler) Root() string {
	return a.opts.Root
}

// Assemble scans the root and returns the channel with its episodes sorted
// by ascending timestamp. Traversal errors abort the scan; per-file metadata
// problems never do.
func (a *Assembler) Assemble() (models.Channel, error) {
	covers := NewCoverLocator(a.opts.Root, a.opts.RootURL, a.logger)

	var episodes []models.Episode
	err := filepath.WalkDir(a.opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !metadata.IsAudio(path) {
			return nil
		}
		episodes = append(episodes, a.buildEpisode(path, covers))
		return nil
	})
	if err != nil {
		return models.Channel{}, fmt.Errorf("walk %s: %w", a.opts.Root, err)
	}

	models.SortEpisodes(episodes)

	channel := models.Channel{
		RootDirectory: a.opts.Root,
		RootURL:       a.opts.RootURL,
		Title:         a.opts.Title,
		Link:          a.opts.Link,
		Description:   a.opts.Description,
		Language:      a.opts.Language,
		Author:        a.opts.Author,
		Episodes:      episodes,
	}
	if channel.Title == "" {
		channel.Title = filepath.Base(strings.TrimRight(a.opts.Root, string(filepath.Separator)))
	}
	if channel.Link == "" {
		channel.Link = a.opts.RootURL
	}
	if channel.Description == "" {
		channel.Description = DefaultDescription
	}
	if len(episodes) > 0 && episodes[0].CoverImageURL != nil {
		image := *episodes[0].CoverImageURL
		channel.ImageURL = &image
	}

	return channel, nil
}

func (a *Assembler) buildEpisode(path string, covers *CoverLocator) models.Episode {
	resolved := a.resolver.Resolve(path, a.opts.OrderByName)

	dir := filepath.Dir(path)
	relDir := relativeDirectory(a.opts.Root, dir)
	filename := filepath.Base(path)

	episode := models.Episode{
		Path:              path,
		Filename:          filename,
		RelativeDirectory: relDir,
		Title:             resolved.Title,
		Timestamp:         resolved.Timestamp,
		SizeBytes:         resolved.SizeBytes,
		DurationSeconds:   resolved.DurationSeconds,
		MimeType:          resolved.MimeType,
		PublicURL:         PublicURL(a.opts.RootURL, StaticPrefix, relDir, filename),
	}
	if coverURL, ok := covers.Locate(dir); ok {
		episode.CoverImageURL = &coverURL
	}
	return episode
}
