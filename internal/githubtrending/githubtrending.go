// Package githubtrending approximates GitHub's trending page with the
// search API: repositories created inside the requested window, ordered by
// stars.
package githubtrending

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/klaud-0x/klaud-api/internal/apierr"
	"github.com/klaud-0x/klaud-api/internal/pipeline"
)

const DefaultBaseURL = "https://api.github.com"

const maxTopics = 5

var sinceWindows = map[string]int{
	"daily":   1,
	"weekly":  7,
	"monthly": 30,
}

type Repo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Truncated   bool     `json:"truncated"`
	URL         string   `json:"url"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Language    string   `json:"language"`
	Created     string   `json:"created"`
	Topics      []string `json:"topics"`
}

type Result struct {
	TotalFound int
	Repos      []Repo
}

type searchResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		FullName        string   `json:"full_name"`
		Description     string   `json:"description"`
		HTMLURL         string   `json:"html_url"`
		StargazersCount int      `json:"stargazers_count"`
		ForksCount      int      `json:"forks_count"`
		Language        string   `json:"language"`
		CreatedAt       string   `json:"created_at"`
		Topics          []string `json:"topics"`
	} `json:"items"`
	Message string `json:"message"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	// DescriptionCap bounds repo descriptions in the normalized output.
	DescriptionCap int
	// now is swappable for tests of the date window.
	now func() time.Time
}

func NewClient(descriptionCap int) *Client {
	return &Client{
		BaseURL:        DefaultBaseURL,
		HTTP:           &http.Client{},
		DescriptionCap: descriptionCap,
		now:            time.Now,
	}
}

// Trending searches for repositories created within the since window
// ("daily", "weekly", "monthly"), optionally filtered by language, ordered
// by stars descending.
func (c *Client) Trending(ctx context.Context, language, since string, limit int) (*Result, error) {
	days, ok := sinceWindows[since]
	if !ok {
		days = 1
	}
	cutoff := c.now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	q := "created:>" + cutoff
	if language != "" {
		q += " language:" + language
	}
	params := url.Values{
		"q":        {q},
		"sort":     {"stars"},
		"order":    {"desc"},
		"per_page": {strconv.Itoa(limit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search/repositories?"+params.Encode(), nil)
	if err != nil {
		return nil, apierr.Upstreamf(err, "building GitHub request")
	}
	req.Header.Set("User-Agent", "KlaudAPI/2.0")
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apierr.Upstreamf(err, "GitHub unreachable")
	}
	defer resp.Body.Close()

	var search searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, apierr.Upstreamf(err, "parsing GitHub response")
	}
	if resp.StatusCode != http.StatusOK || search.Items == nil {
		msg := search.Message
		if msg == "" {
			msg = "unknown"
		}
		return nil, apierr.Upstreamf(nil, "GitHub API error: %s", msg)
	}

	repos := make([]Repo, 0, len(search.Items))
	for _, it := range search.Items {
		desc, truncated := pipeline.Truncate(it.Description, c.DescriptionCap)
		topics := it.Topics
		if len(topics) > maxTopics {
			topics = topics[:maxTopics]
		}
		repos = append(repos, Repo{
			Name:        it.FullName,
			Description: desc,
			Truncated:   truncated,
			URL:         it.HTMLURL,
			Stars:       it.StargazersCount,
			Forks:       it.ForksCount,
			Language:    it.Language,
			Created:     it.CreatedAt,
			Topics:      topics,
		})
	}
	return &Result{TotalFound: search.TotalCount, Repos: repos}, nil
}
