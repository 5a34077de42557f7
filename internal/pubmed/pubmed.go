// Package pubmed searches PubMed abstracts through the NCBI eutils pair:
// esearch (JSON id list) followed by efetch (abstract XML).
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/klaud-0x/klaud-api/internal/apierr"
	"github.com/klaud-0x/klaud-api/internal/pipeline"
)

const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

type Article struct {
	PMID      string `json:"pmid"`
	Title     string `json:"title"`
	Abstract  string `json:"abstract"`
	Truncated bool   `json:"truncated"`
	Journal   string `json:"journal"`
	Year      string `json:"year"`
	URL       string `json:"url"`
}

type Result struct {
	Query      string
	TotalFound int
	Articles   []Article
}

type esearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type efetchSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []efetchArticle `xml:"PubmedArticle"`
}

type efetchArticle struct {
	PMID          string   `xml:"MedlineCitation>PMID"`
	Title         string   `xml:"MedlineCitation>Article>ArticleTitle"`
	AbstractParts []string `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	Journal       string   `xml:"MedlineCitation>Article>Journal>Title"`
	Year          string   `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate>Year"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	// AbstractCap bounds abstract length in the normalized output.
	AbstractCap int
}

func NewClient(abstractCap int) *Client {
	return &Client{BaseURL: DefaultBaseURL, HTTP: &http.Client{}, AbstractCap: abstractCap}
}

// Search runs an abstract search. sort is "date" or "relevance". A query
// that matches nothing yields an empty Articles slice, not an error.
func (c *Client) Search(ctx context.Context, query string, limit int, sort string) (*Result, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {strconv.Itoa(limit)},
		"sort":    {sort},
		"retmode": {"json"},
	}
	body, err := c.get(ctx, c.BaseURL+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var search esearchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, apierr.Upstreamf(err, "parsing PubMed search response")
	}

	total, _ := strconv.Atoi(search.ESearchResult.Count)
	result := &Result{Query: query, TotalFound: total, Articles: []Article{}}
	ids := search.ESearchResult.IDList
	if len(ids) == 0 {
		return result, nil
	}

	fetchParams := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"rettype": {"abstract"},
		"retmode": {"xml"},
	}
	xmlBody, err := c.get(ctx, c.BaseURL+"/efetch.fcgi?"+fetchParams.Encode())
	if err != nil {
		return nil, err
	}

	articles, err := parseArticles(xmlBody, c.AbstractCap)
	if err != nil {
		return nil, apierr.Upstreamf(err, "parsing PubMed article XML")
	}
	result.Articles = articles
	return result, nil
}

// parseArticles maps efetch XML to the normalized article shape. Pure,
// exercised directly in tests with captured payloads.
func parseArticles(body []byte, abstractCap int) ([]Article, error) {
	var set efetchSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(set.Articles))
	for _, a := range set.Articles {
		abstract := strings.TrimSpace(strings.Join(a.AbstractParts, " "))
		abstract, truncated := pipeline.Truncate(abstract, abstractCap)
		articles = append(articles, Article{
			PMID:      a.PMID,
			Title:     a.Title,
			Abstract:  abstract,
			Truncated: truncated,
			Journal:   a.Journal,
			Year:      a.Year,
			URL:       "https://pubmed.ncbi.nlm.nih.gov/" + a.PMID + "/",
		})
	}
	return articles, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apierr.Upstreamf(err, "building PubMed request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apierr.Upstreamf(err, "PubMed unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.Upstreamf(nil, "PubMed returned HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
