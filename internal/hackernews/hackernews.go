// Package hackernews serves the curated front-page feed: fetch the top
// story ids, pull the items concurrently, filter by topic, rank by score.
package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/klaud-0x/klaud-api/internal/apierr"
)

const DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"

var topicPatterns = map[string]*regexp.Regexp{
	"ai":       regexp.MustCompile(`(?i)\b(ai|llm|gpt|claude|openai|anthropic|ml|machine.?learn|neural|transformer|diffusion|agent|rag|embedding|fine.?tun|gemini|mistral|llama)`),
	"crypto":   regexp.MustCompile(`(?i)\b(crypto|bitcoin|ethereum|web3|defi|nft|blockchain|token|solana|base\s|usdt|usdc)`),
	"dev":      regexp.MustCompile(`(?i)\b(rust|go|python|javascript|typescript|react|node|api|database|sql|git|docker|k8s|deploy|linux|aws)`),
	"science":  regexp.MustCompile(`(?i)\b(research|paper|study|journal|physics|biology|chemistry|math|quantum|genome|crispr|drug|cancer)`),
	"security": regexp.MustCompile(`(?i)\b(hack|breach|vulnerability|cve|zero.?day|exploit|malware|ransomware|encrypt|auth|security)`),
	"all":      regexp.MustCompile(`.`),
}

// Topics lists the recognized topic filters.
func Topics() []string {
	names := make([]string, 0, len(topicPatterns))
	for name := range topicPatterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Story struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Score    int    `json:"score"`
	Comments int    `json:"comments"`
	Time     string `json:"time"`
	HNURL    string `json:"hn_url"`
}

type item struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	// CandidatePool is how many top stories are pulled before filtering.
	CandidatePool int
}

func NewClient(candidatePool int) *Client {
	return &Client{
		BaseURL:       DefaultBaseURL,
		HTTP:          &http.Client{},
		CandidatePool: candidatePool,
	}
}

// Feed returns up to limit stories matching topic, highest score first.
// An unknown topic falls back to the "ai" filter. Individual item fetches
// that fail are omitted from the result, not fatal.
func (c *Client) Feed(ctx context.Context, topic string, limit int) ([]Story, error) {
	ids, err := c.topStories(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > c.CandidatePool {
		ids = ids[:c.CandidatePool]
	}

	items := make([]*item, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			it, err := c.item(gctx, id)
			if err != nil {
				// Degrade to omitting the story.
				return nil
			}
			items[i] = it
			return nil
		})
	}
	_ = g.Wait()

	pattern, ok := topicPatterns[topic]
	if !ok {
		pattern = topicPatterns["ai"]
	}

	var matched []*item
	for _, it := range items {
		if it == nil || it.Title == "" {
			continue
		}
		if topic == "all" || pattern.MatchString(it.Title) || pattern.MatchString(it.URL) {
			matched = append(matched, it)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Score > matched[j].Score
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	stories := make([]Story, 0, len(matched))
	for _, it := range matched {
		hnURL := fmt.Sprintf("https://news.ycombinator.com/item?id=%d", it.ID)
		url := it.URL
		if url == "" {
			url = hnURL
		}
		stories = append(stories, Story{
			Title:    it.Title,
			URL:      url,
			Score:    it.Score,
			Comments: it.Descendants,
			Time:     time.Unix(it.Time, 0).UTC().Format(time.RFC3339),
			HNURL:    hnURL,
		})
	}
	return stories, nil
}

func (c *Client) topStories(ctx context.Context) ([]int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/topstories.json", nil)
	if err != nil {
		return nil, apierr.Upstreamf(err, "building Hacker News request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apierr.Upstreamf(err, "Hacker News unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.Upstreamf(nil, "Hacker News returned HTTP %d", resp.StatusCode)
	}

	var ids []int
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, apierr.Upstreamf(err, "parsing Hacker News story list")
	}
	return ids, nil
}

func (c *Client) item(ctx context.Context, id int) (*item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/item/%d.json", c.BaseURL, id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("item %d: HTTP %d", id, resp.StatusCode)
	}
	var it item
	if err := json.NewDecoder(resp.Body).Decode(&it); err != nil {
		return nil, err
	}
	return &it, nil
}
