// Package arxiv searches the arXiv Atom export API.
package arxiv

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/klaud-0x/klaud-api/internal/apierr"
	"github.com/klaud-0x/klaud-api/internal/pipeline"
)

const DefaultBaseURL = "http://export.arxiv.org/api/query"

const maxAuthors = 5

var whitespace = regexp.MustCompile(`\s+`)

type Paper struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Abstract   string   `json:"abstract"`
	Truncated  bool     `json:"truncated"`
	Categories []string `json:"categories"`
	Published  string   `json:"published"`
	Updated    string   `json:"updated"`
	URL        string   `json:"url"`
	PDF        string   `json:"pdf"`
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Categories []struct {
		Term string `xml:"term,attr"`
	} `xml:"category"`
	Links []struct {
		Href string `xml:"href,attr"`
		Type string `xml:"type,attr"`
	} `xml:"link"`
}

type Client struct {
	BaseURL     string
	HTTP        *http.Client
	AbstractCap int
}

func NewClient(abstractCap int) *Client {
	return &Client{BaseURL: DefaultBaseURL, HTTP: &http.Client{}, AbstractCap: abstractCap}
}

// Search queries arXiv. category optionally narrows the search (cs.AI,
// q-bio, ...); sort is submittedDate, relevance, or lastUpdatedDate.
func (c *Client) Search(ctx context.Context, query, category string, limit int, sort string) ([]Paper, error) {
	searchQuery := "all:" + query
	if category != "" {
		searchQuery = "cat:" + category + " AND all:" + query
	}
	params := url.Values{
		"search_query": {searchQuery},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(limit)},
		"sortBy":       {sort},
		"sortOrder":    {"descending"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apierr.Upstreamf(err, "building arXiv request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apierr.Upstreamf(err, "arXiv unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.Upstreamf(nil, "arXiv returned HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.Upstreamf(err, "reading arXiv response")
	}

	papers, err := parseFeed(body, c.AbstractCap)
	if err != nil {
		return nil, apierr.Upstreamf(err, "parsing arXiv feed")
	}
	return papers, nil
}

// parseFeed maps the Atom feed to the normalized paper shape.
func parseFeed(body []byte, abstractCap int) ([]Paper, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, err
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		abstract, truncated := pipeline.Truncate(collapse(e.Summary), abstractCap)

		authors := make([]string, 0, maxAuthors)
		for _, a := range e.Authors {
			if len(authors) == maxAuthors {
				break
			}
			authors = append(authors, a.Name)
		}

		categories := make([]string, 0, len(e.Categories))
		for _, cat := range e.Categories {
			categories = append(categories, cat.Term)
		}

		// The PDF link is derived from the abstract URL when the feed
		// does not carry an explicit application/pdf link.
		pdf := ""
		for _, l := range e.Links {
			if l.Type == "application/pdf" {
				pdf = l.Href
				break
			}
		}
		if pdf == "" && e.ID != "" {
			pdf = strings.Replace(e.ID, "/abs/", "/pdf/", 1)
		}

		papers = append(papers, Paper{
			ID:         strings.TrimPrefix(e.ID, "http://arxiv.org/abs/"),
			Title:      collapse(e.Title),
			Authors:    authors,
			Abstract:   abstract,
			Truncated:  truncated,
			Categories: categories,
			Published:  e.Published,
			Updated:    e.Updated,
			URL:        e.ID,
			PDF:        pdf,
		})
	}
	return papers, nil
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
