// Package extract fetches an arbitrary page and reduces it to readable
// text: boilerplate elements stripped, title and meta description lifted
// out, whitespace collapsed. JSON bodies are passed through untouched.
package extract

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/klaud-0x/klaud-api/internal/apierr"
	"github.com/klaud-0x/klaud-api/internal/pipeline"
)

var whitespace = regexp.MustCompile(`\s+`)

type Page struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	Length      int    `json:"length"`
	Truncated   bool   `json:"truncated"`
}

type Client struct {
	HTTP *http.Client
}

func NewClient() *Client {
	return &Client{HTTP: &http.Client{}}
}

// Extract fetches target and returns its content capped at maxChars.
// Length reports the pre-truncation text length.
func (c *Client) Extract(ctx context.Context, target string, maxChars int) (*Page, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apierr.BadRequestf(
			"/api/extract?url=https://example.com&max=5000",
			"invalid URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apierr.Upstreamf(err, "building extract request")
	}
	req.Header.Set("User-Agent", "KlaudAPI/2.0 (research-tool)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json,*/*")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apierr.Upstreamf(err, "fetching %s", target)
	}
	defer resp.Body.Close()

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apierr.Upstreamf(err, "reading %s", target)
		}
		content, truncated := pipeline.Truncate(string(raw), maxChars)
		return &Page{
			URL:       target,
			Type:      "json",
			Content:   content,
			Length:    len(raw),
			Truncated: truncated,
		}, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apierr.Upstreamf(err, "parsing %s", target)
	}
	page := fromDocument(doc, maxChars)
	page.URL = target
	return page, nil
}

// fromDocument is the pure HTML→Page mapping.
func fromDocument(doc *goquery.Document, maxChars int) *Page {
	title := collapse(doc.Find("title").First().Text())
	description, _ := doc.Find(`meta[name="description"]`).First().Attr("content")

	doc.Find("script, style, nav, header, footer").Remove()
	text := collapse(doc.Find("body").Text())

	content, truncated := pipeline.Truncate(text, maxChars)
	return &Page{
		Title:       title,
		Description: description,
		Type:        "html",
		Content:     content,
		Length:      len(text),
		Truncated:   truncated,
	}
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
