package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"podcats/internal/models"
)

const defaultEnclosureType = "application/octet-stream"

// RenderRSS writes the channel as an RSS 2.0 document.
func (r *Renderer) RenderRSS(w io.Writer, channel models.Channel) error {
	episodes := r.ordered(channel.Episodes)

	rss := rssFeed{
		Version:  "2.0",
		AtomNS:   "http://www.w3.org/2005/Atom",
		ITunesNS: "http://www.itunes.com/dtds/podcast-1.0.dtd",
		Channel: rssChannel{
			Title:        channel.Title,
			Link:         channel.Link,
			Description:  channel.Description,
			Language:     channel.Language,
			Generator:    r.opts.Generator,
			ITunesAuthor: channel.Author,
		},
	}

	if channel.RootURL != "" {
		rss.Channel.AtomLink = &rssAtomLink{
			Href: channel.RootURL,
			Rel:  "self",
			Type: "application/rss+xml",
		}
	}

	if latest := models.LatestTimestamp(episodes); !latest.IsZero() {
		rss.Channel.LastBuildDate = formatPubDate(latest)
	}

	if channel.ImageURL != nil {
		rss.Channel.Image = &rssImage{
			URL:   *channel.ImageURL,
			Title: channel.Title,
			Link:  channel.Link,
		}
		rss.Channel.ITunesImage = &rssITunesImage{Href: *channel.ImageURL}
	}

	for _, ep := range episodes {
		item := rssItem{
			Title:       ep.Title,
			GUID:        rssGUID{IsPermaLink: "true", Value: ep.PublicURL},
			PubDate:     formatPubDate(ep.Timestamp),
			Description: episodeDescription(ep),
			Enclosure: rssEnclosure{
				URL:    ep.PublicURL,
				Length: ep.SizeBytes,
				Type:   defaultEnclosureType,
			},
		}
		if ep.MimeType != nil {
			item.Enclosure.Type = *ep.MimeType
		}
		if ep.DurationSeconds != nil {
			item.ITunesDuration = FormatDuration(*ep.DurationSeconds)
		}
		if ep.CoverImageURL != nil {
			item.ITunesImage = &rssITunesImage{Href: *ep.CoverImageURL}
		}
		rss.Channel.Items = append(rss.Channel.Items, item)
	}

	output, err := xml.MarshalIndent(rss, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rss: %w", err)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := w.Write(output); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// formatPubDate renders t in RFC 2822 form, in UTC.
func formatPubDate(t time.Time) string {
	return t.UTC().Format(time.RFC1123Z)
}

func episodeDescription(ep models.Episode) string {
	if ep.RelativeDirectory == "" {
		return ep.Filename
	}
	return ep.RelativeDirectory + "/" + ep.Filename
}

type rssFeed struct {
	XMLName  xml.Name   `xml:"rss"`
	Version  string     `xml:"version,attr"`
	AtomNS   string     `xml:"xmlns:atom,attr"`
	ITunesNS string     `xml:"xmlns:itunes,attr"`
	Channel  rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string          `xml:"title"`
	Link          string          `xml:"link"`
	Description   string          `xml:"description"`
	Language      string          `xml:"language,omitempty"`
	LastBuildDate string          `xml:"lastBuildDate,omitempty"`
	Generator     string          `xml:"generator,omitempty"`
	AtomLink      *rssAtomLink    `xml:"atom:link,omitempty"`
	ITunesAuthor  string          `xml:"itunes:author,omitempty"`
	Image         *rssImage       `xml:"image,omitempty"`
	ITunesImage   *rssITunesImage `xml:"itunes:image,omitempty"`
	Items         []rssItem       `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssImage struct {
	URL   string `xml:"url"`
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

type rssITunesImage struct {
	Href string `xml:"href,attr"`
}

type rssItem struct {
	Title          string          `xml:"title"`
	GUID           rssGUID         `xml:"guid"`
	PubDate        string          `xml:"pubDate"`
	Description    string          `xml:"description"`
	Enclosure      rssEnclosure    `xml:"enclosure"`
	ITunesDuration string          `xml:"itunes:duration,omitempty"`
	ITunesImage    *rssITunesImage `xml:"itunes:image,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}
