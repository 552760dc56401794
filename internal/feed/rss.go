package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

const (
	contentNamespace = "http://purl.org/rss/1.0/modules/content/"
	atomNamespace    = "http://www.w3.org/2005/Atom"
)

type rssFeed struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	XMLNSCont string     `xml:"xmlns:content,attr"`
	XMLNSAtom string     `xml:"xmlns:atom,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	PubDate       string    `xml:"pubDate,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        rssGUID  `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
	Description string   `xml:"description"`
	Content     rssCDATA `xml:"content:encoded"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr,omitempty"`
	Value       string `xml:",chardata"`
}

type rssCDATA struct {
	Value string `xml:",cdata"`
}

func formatDate(t time.Time) string {
	return t.Format(time.RFC1123Z)
}

// Marshal renders f as an RSS 2.0 document.
func (f *Feed) Marshal() ([]byte, error) {
	channel := rssChannel{
		Title:         f.Channel.Title,
		Link:          f.Channel.Link,
		Description:   f.Channel.Description,
		Language:      f.Channel.Language,
		LastBuildDate: formatDate(f.Built),
		AtomLink: atomLink{
			Href: f.Channel.SelfLink,
			Rel:  "self",
			Type: "application/rss+xml",
		},
	}
	if len(f.Items) > 0 {
		channel.PubDate = formatDate(f.Items[0].Published)
	} else {
		channel.PubDate = formatDate(f.Built)
	}

	for _, item := range f.Items {
		channel.Items = append(channel.Items, rssItem{
			Title:       item.Title,
			Link:        item.Link,
			GUID:        rssGUID{IsPermaLink: "false", Value: item.GUID},
			PubDate:     formatDate(item.Published),
			Description: item.Description,
			Content:     rssCDATA{Value: item.Content},
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(rssFeed{
		Version:   "2.0",
		XMLNSCont: contentNamespace,
		XMLNSAtom: atomNamespace,
		Channel:   channel,
	}); err != nil {
		return nil, fmt.Errorf("feed: encode rss: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("feed: flush rss: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
