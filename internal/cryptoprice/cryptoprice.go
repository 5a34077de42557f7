// Package cryptoprice serves market prices with a two-upstream fallback
// chain: CoinGecko first, CoinCap when CoinGecko fails or answers empty.
// Both upstreams normalize to the same Asset shape; meta carries which one
// answered.
package cryptoprice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/klaud-0x/klaud-api/internal/apierr"
	"github.com/klaud-0x/klaud-api/internal/pipeline"
)

const (
	DefaultGeckoBaseURL = "https://api.coingecko.com/api/v3"
	DefaultCapBaseURL   = "https://api.coincap.io/v2"

	userAgent = "Mozilla/5.0 (compatible; KlaudAPI/2.0)"
)

type Asset struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	PriceUSD  float64 `json:"price_usd"`
	Change24h float64 `json:"change_24h"`
	MarketCap float64 `json:"market_cap"`
	Volume24h float64 `json:"volume_24h"`
	Rank      int     `json:"rank,omitempty"`
}

type Client struct {
	GeckoBaseURL string
	CapBaseURL   string
	HTTP         *http.Client
}

func NewClient() *Client {
	return &Client{
		GeckoBaseURL: DefaultGeckoBaseURL,
		CapBaseURL:   DefaultCapBaseURL,
		HTTP:         &http.Client{},
	}
}

// Coin looks up a single asset by its CoinGecko/CoinCap id. The chain
// distinguishes "no upstream reachable" from "both reachable, coin
// unknown": the latter is NotFound.
func (c *Client) Coin(ctx context.Context, coin string) (*Asset, string, error) {
	sources := []pipeline.Source[*Asset]{
		{Name: "coingecko", Fetch: func(ctx context.Context) (*Asset, error) {
			return c.geckoCoin(ctx, coin)
		}, Usable: func(a *Asset) bool { return a != nil }},
		{Name: "coincap", Fetch: func(ctx context.Context) (*Asset, error) {
			return c.capCoin(ctx, coin)
		}, Usable: func(a *Asset) bool { return a != nil }},
	}

	asset, source, err := pipeline.FirstUsable(ctx, sources)
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) && ae.Err == nil {
			// Every upstream answered; the coin just does not exist.
			return nil, "", apierr.NotFoundf(
				"Use CoinGecko/CoinCap ID (e.g., bitcoin, ethereum, solana)",
				"coin %q not found", coin)
		}
		return nil, "", err
	}
	return asset, source, nil
}

// List returns the top assets by market cap.
func (c *Client) List(ctx context.Context, limit int) ([]Asset, string, error) {
	sources := []pipeline.Source[[]Asset]{
		{Name: "coingecko", Fetch: func(ctx context.Context) ([]Asset, error) {
			return c.geckoList(ctx, limit)
		}, Usable: func(a []Asset) bool { return len(a) > 0 }},
		{Name: "coincap", Fetch: func(ctx context.Context) ([]Asset, error) {
			return c.capList(ctx, limit)
		}, Usable: func(a []Asset) bool { return len(a) > 0 }},
	}
	return pipeline.FirstUsable(ctx, sources)
}

type geckoPrice struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
	USDMarketCap float64 `json:"usd_market_cap"`
	USD24hVol    float64 `json:"usd_24h_vol"`
}

func (c *Client) geckoCoin(ctx context.Context, coin string) (*Asset, error) {
	params := url.Values{
		"ids":                 {coin},
		"vs_currencies":       {"usd"},
		"include_24hr_change": {"true"},
		"include_market_cap":  {"true"},
		"include_24hr_vol":    {"true"},
	}
	var prices map[string]geckoPrice
	if err := c.getJSON(ctx, c.GeckoBaseURL+"/simple/price?"+params.Encode(), &prices); err != nil {
		return nil, err
	}
	p, ok := prices[coin]
	if !ok {
		return nil, nil
	}
	return &Asset{
		ID:        coin,
		PriceUSD:  p.USD,
		Change24h: p.USD24hChange,
		MarketCap: p.USDMarketCap,
		Volume24h: p.USD24hVol,
	}, nil
}

type geckoMarket struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	CurrentPrice  float64 `json:"current_price"`
	Change24h     float64 `json:"price_change_percentage_24h"`
	MarketCap     float64 `json:"market_cap"`
	TotalVolume   float64 `json:"total_volume"`
	MarketCapRank int     `json:"market_cap_rank"`
}

func (c *Client) geckoList(ctx context.Context, limit int) ([]Asset, error) {
	params := url.Values{
		"vs_currency":             {"usd"},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(limit)},
		"page":                    {"1"},
		"sparkline":               {"false"},
		"price_change_percentage": {"24h"},
	}
	var markets []geckoMarket
	if err := c.getJSON(ctx, c.GeckoBaseURL+"/coins/markets?"+params.Encode(), &markets); err != nil {
		return nil, err
	}
	assets := make([]Asset, 0, len(markets))
	for _, m := range markets {
		assets = append(assets, Asset{
			ID:        m.ID,
			Symbol:    strings.ToUpper(m.Symbol),
			Name:      m.Name,
			PriceUSD:  m.CurrentPrice,
			Change24h: m.Change24h,
			MarketCap: m.MarketCap,
			Volume24h: m.TotalVolume,
			Rank:      m.MarketCapRank,
		})
	}
	return assets, nil
}

// capAsset carries CoinCap's all-strings numeric fields.
type capAsset struct {
	ID               string `json:"id"`
	Rank             string `json:"rank"`
	Symbol           string `json:"symbol"`
	Name             string `json:"name"`
	PriceUSD         string `json:"priceUsd"`
	ChangePercent24h string `json:"changePercent24Hr"`
	MarketCapUSD     string `json:"marketCapUsd"`
	VolumeUSD24h     string `json:"volumeUsd24Hr"`
}

func (a capAsset) normalize() Asset {
	rank, _ := strconv.Atoi(a.Rank)
	return Asset{
		ID:        a.ID,
		Symbol:    a.Symbol,
		Name:      a.Name,
		PriceUSD:  parseFloat(a.PriceUSD),
		Change24h: parseFloat(a.ChangePercent24h),
		MarketCap: parseFloat(a.MarketCapUSD),
		Volume24h: parseFloat(a.VolumeUSD24h),
		Rank:      rank,
	}
}

func (c *Client) capCoin(ctx context.Context, coin string) (*Asset, error) {
	var payload struct {
		Data *capAsset `json:"data"`
	}
	if err := c.getJSON(ctx, c.CapBaseURL+"/assets/"+url.PathEscape(coin), &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return nil, nil
	}
	asset := payload.Data.normalize()
	return &asset, nil
}

func (c *Client) capList(ctx context.Context, limit int) ([]Asset, error) {
	var payload struct {
		Data []capAsset `json:"data"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/assets?limit=%d", c.CapBaseURL, limit), &payload); err != nil {
		return nil, err
	}
	assets := make([]Asset, 0, len(payload.Data))
	for _, a := range payload.Data {
		assets = append(assets, a.normalize())
	}
	return assets, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		// CoinCap answers 404 for unknown assets; treat as an empty body
		// so the caller can report NotFound rather than a dead upstream.
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
