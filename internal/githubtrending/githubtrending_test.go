package githubtrending

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klaud-0x/klaud-api/internal/apierr"
)

const searchFixture = `{
  "total_count": 412,
  "items": [
    {"full_name":"octo/fast-llm","description":"A very fast inference engine",
     "html_url":"https://github.com/octo/fast-llm","stargazers_count":900,
     "forks_count":40,"language":"Rust","created_at":"2026-08-30T10:00:00Z",
     "topics":["llm","inference","rust","gpu","cuda","extra-topic"]},
    {"full_name":"octo/tiny","description":null,
     "html_url":"https://github.com/octo/tiny","stargazers_count":120,
     "forks_count":3,"language":"Go","created_at":"2026-08-31T10:00:00Z",
     "topics":[]}
  ]
}`

func fixedClient(srv *httptest.Server) *Client {
	c := NewClient(200)
	c.BaseURL = srv.URL
	c.HTTP = srv.Client()
	c.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}
	return c
}

func TestTrendingBuildsWindowQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	res, err := fixedClient(srv).Trending(context.Background(), "rust", "weekly", 10)
	require.NoError(t, err)
	assert.Equal(t, "created:>2026-08-25 language:rust", gotQuery)
	assert.Equal(t, 412, res.TotalFound)
	require.Len(t, res.Repos, 2)
	assert.Equal(t, "octo/fast-llm", res.Repos[0].Name)
	assert.Len(t, res.Repos[0].Topics, 5, "topics are capped")
}

func TestTrendingUnknownSinceDefaultsToDaily(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	_, err := fixedClient(srv).Trending(context.Background(), "", "fortnightly", 10)
	require.NoError(t, err)
	assert.Equal(t, "created:>2026-08-31", gotQuery)
}

func TestTrendingAPIErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}))
	defer srv.Close()

	_, err := fixedClient(srv).Trending(context.Background(), "", "daily", 10)
	require.Error(t, err)
	assert.Equal(t, apierr.UpstreamUnavailable, apierr.KindOf(err))
	assert.Contains(t, err.Error(), "API rate limit exceeded")
}

func TestTrendingDescriptionTruncation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	c := fixedClient(srv)
	c.DescriptionCap = 6
	res, err := c.Trending(context.Background(), "", "daily", 10)
	require.NoError(t, err)
	assert.Equal(t, "A very", res.Repos[0].Description)
	assert.True(t, res.Repos[0].Truncated)
	assert.False(t, res.Repos[1].Truncated)
}
