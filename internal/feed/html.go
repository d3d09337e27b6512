package feed

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"podcats/internal/models"
)

const pageSource = `<!DOCTYPE html>
<html lang="{{ if .Language }}{{ .Language }}{{ else }}en{{ end }}">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
<link rel="alternate" type="application/rss+xml" title="{{ .Title }}" href="{{ .FeedURL }}">
</head>
<body>
<header>
{{- if .ImageURL }}
<img class="cover" src="{{ .ImageURL }}" alt="" width="160">
{{- end }}
<h1><a href="{{ .Link }}">{{ .Title }}</a></h1>
<p class="description">{{ .Description }}</p>
<p class="feed"><a href="{{ .FeedURL }}">RSS feed</a></p>
</header>
<ol class="episodes">
{{- range .Episodes }}
<li class="episode">
{{- if .CoverURL }}
<img class="cover" src="{{ .CoverURL }}" alt="" width="64">
{{- end }}
<h2><a href="{{ .URL }}">{{ .Title }}</a></h2>
<dl>
<dt>File</dt><dd class="filename">{{ .Filename }}</dd>
<dt>Directory</dt><dd class="directory">{{ .Directory }}</dd>
<dt>Size</dt><dd class="size">{{ .Size }}</dd>
<dt>Duration</dt><dd class="duration">{{ .Duration }}</dd>
<dt>Date</dt><dd class="date"><time datetime="{{ .DateISO }}">{{ .Date }}</time></dd>
</dl>
{{- if .MimeType }}
<audio controls preload="none" src="{{ .URL }}"></audio>
{{- end }}
</li>
{{- end }}
</ol>
</body>
</html>
`

type pageTemplate struct {
	tmpl *template.Template
}

type pageData struct {
	Title       string
	Link        string
	Description string
	Language    string
	FeedURL     string
	ImageURL    string
	Episodes    []pageEpisode
}

type pageEpisode struct {
	Title     string
	URL       string
	CoverURL  string
	Filename  string
	Directory string
	Size      string
	Duration  string
	Date      string
	DateISO   string
	MimeType  string
}

func newPageTemplate() *pageTemplate {
	return &pageTemplate{
		tmpl: template.Must(template.New("index").Parse(pageSource)),
	}
}

// RenderHTML writes the channel as a browsable HTML page.
func (r *Renderer) RenderHTML(w io.Writer, channel models.Channel) error {
	data := pageData{
		Title:       channel.Title,
		Link:        channel.Link,
		Description: channel.Description,
		Language:    channel.Language,
		FeedURL:     channel.RootURL,
	}
	if data.FeedURL == "" {
		data.FeedURL = "/"
	}
	if channel.ImageURL != nil {
		data.ImageURL = *channel.ImageURL
	}

	for _, ep := range r.ordered(channel.Episodes) {
		item := pageEpisode{
			Title:     ep.Title,
			URL:       ep.PublicURL,
			Filename:  ep.Filename,
			Directory: ep.RelativeDirectory,
			Size:      humanize.Bytes(uint64(max(ep.SizeBytes, 0))),
			Duration:  "unknown",
			Date:      ep.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"),
			DateISO:   ep.Timestamp.UTC().Format(time.RFC3339),
		}
		if item.Directory == "" {
			item.Directory = "/"
		}
		if ep.CoverImageURL != nil {
			item.CoverURL = *ep.CoverImageURL
		}
		if ep.DurationSeconds != nil {
			item.Duration = FormatDuration(*ep.DurationSeconds)
		}
		if ep.MimeType != nil {
			item.MimeType = *ep.MimeType
		}
		data.Episodes = append(data.Episodes, item)
	}

	if err := r.page.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render html index: %w", err)
	}
	return nil
}
