package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"podcats/internal/config"
	"podcats/internal/feed"
	"podcats/internal/library"
	"podcats/internal/metadata"
)

// commandContext carries the persistent flag values shared by every command.
type commandContext struct {
	configPath  string
	host        string
	port        string
	url         string
	title       string
	link        string
	description string
	language    string
	author      string
	debug       bool
	orderByName bool
	newestFirst bool
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&c.host, "host", "", "listen hostname or IP address (default localhost)")
	flags.StringVar(&c.port, "port", "", "listen TCP port (default 5000)")
	flags.StringVar(&c.url, "url", "", "public base URL used in the feed instead of http://host:port")
	flags.StringVar(&c.title, "title", "", "feed title (default: directory name)")
	flags.StringVar(&c.link, "link", "", "feed link (default: base URL)")
	flags.StringVar(&c.description, "description", "", "feed description")
	flags.StringVar(&c.language, "language", "", "feed language as a BCP 47 tag")
	flags.StringVar(&c.author, "author", "", "feed author")
	flags.BoolVar(&c.debug, "debug", false, "log per-file metadata resolution")
	flags.BoolVar(&c.orderByName, "order-by-name", false, "order episodes by the numbers in their filenames")
	flags.BoolVar(&c.newestFirst, "newest-first", false, "list the newest episode first")
}

// legacyFlagNames maps the flag spellings of earlier podcats releases to the
// current ones.
var legacyFlagNames = map[string]string{
	"public-url":          "url",
	"force-order-by-name": "order-by-name",
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if current, ok := legacyFlagNames[name]; ok {
		name = current
	}
	return pflag.NormalizedName(name)
}

// settings loads file and environment configuration, then applies every flag
// the user set explicitly.
func (c *commandContext) settings(cmd *cobra.Command) (config.Settings, error) {
	settings, err := config.Load(c.configPath)
	if err != nil {
		return config.Settings{}, err
	}

	flags := cmd.Flags()
	overrides := []struct {
		name string
		dst  *string
		src  string
	}{
		{"host", &settings.Host, c.host},
		{"port", &settings.Port, c.port},
		{"url", &settings.URL, c.url},
		{"title", &settings.Title, c.title},
		{"link", &settings.Link, c.link},
		{"description", &settings.Description, c.description},
		{"language", &settings.Language, c.language},
		{"author", &settings.Author, c.author},
	}
	for _, o := range overrides {
		if flags.Changed(o.name) {
			*o.dst = o.src
		}
	}
	if flags.Changed("debug") {
		settings.Debug = c.debug
	}
	if flags.Changed("order-by-name") {
		settings.OrderByName = c.orderByName
	}
	if flags.Changed("newest-first") {
		settings.NewestFirst = c.newestFirst
	}

	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

// environment is everything a command needs to produce documents for one
// directory.
type environment struct {
	settings  config.Settings
	root      string
	logger    *log.Logger
	assembler *library.Assembler
	renderer  *feed.Renderer
}

func (c *commandContext) prepare(cmd *cobra.Command, dir string) (*environment, error) {
	settings, err := c.settings(cmd)
	if err != nil {
		return nil, err
	}

	root, err := config.ResolveDirectory(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve directory: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr())
	resolver := metadata.NewResolver(logger, settings.Debug)
	assembler := library.NewAssembler(library.Options{
		Root:        root,
		RootURL:     settings.RootURL(),
		Title:       settings.Title,
		Link:        settings.Link,
		Description: settings.Description,
		Language:    settings.Language,
		Author:      settings.Author,
		OrderByName: settings.OrderByName,
	}, resolver, logger)

	return &environment{
		settings:  settings,
		root:      root,
		logger:    logger,
		assembler: assembler,
		renderer:  feed.NewRenderer(feed.Options{NewestFirst: settings.NewestFirst}),
	}, nil
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "podcats ", log.LstdFlags|log.Lmsgprefix)
}
