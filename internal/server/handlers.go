package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/klaud-0x/klaud-api/internal/apierr"
	"github.com/klaud-0x/klaud-api/internal/hackernews"
)

func (s *Server) handleStatus(c *gin.Context) {
	id := s.identity(c)
	limit := s.tierLimit(id)

	// Admit only reads; status never consumes quota.
	d := s.gate.Admit(c.Request.Context(), id, limit)

	plan := "free"
	if id.Elevated {
		plan = "pro"
	}
	remaining := d.Limit - d.Usage
	if remaining < 0 {
		remaining = 0
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"plan":      plan,
		"usage":     d.Usage,
		"limit":     d.Limit,
		"remaining": remaining,
		"endpoints": endpoints,
		"version":   version,
	})
}

func (s *Server) handleHN(c *gin.Context) {
	topic := c.DefaultQuery("topic", "ai")
	limit := intParam(c, "limit", s.cfg.Feed.DefaultLimit, s.cfg.Feed.MaxLimit)

	stories, err := s.clients.HN.Feed(c.Request.Context(), topic, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"topic":            topic,
		"count":            len(stories),
		"stories":          stories,
		"available_topics": hackernews.Topics(),
	})
}

func (s *Server) handlePubMed(c *gin.Context) {
	query, err := requireParam(c, "q", "/api/pubmed?q=CRISPR+cancer&limit=5")
	if err != nil {
		s.fail(c, err)
		return
	}
	limit := intParam(c, "limit", s.cfg.Search.DefaultLimit, s.cfg.Search.MaxLimit)
	sort := enumParam(c, "sort", "date", "date", "relevance")

	res, err := s.clients.PubMed.Search(c.Request.Context(), query, limit, sort)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":       res.Query,
		"count":       len(res.Articles),
		"total_found": res.TotalFound,
		"articles":    res.Articles,
	})
}

func (s *Server) handleArxiv(c *gin.Context) {
	query, err := requireParam(c, "q", "/api/arxiv?q=large+language+models&limit=5")
	if err != nil {
		s.fail(c, err)
		return
	}
	limit := intParam(c, "limit", s.cfg.Search.DefaultLimit, s.cfg.Search.MaxLimit)
	sort := enumParam(c, "sort", "submittedDate", "submittedDate", "relevance", "lastUpdatedDate")
	category := c.Query("cat")

	papers, err := s.clients.Arxiv.Search(c.Request.Context(), query, category, limit, sort)
	if err != nil {
		s.fail(c, err)
		return
	}
	if category == "" {
		category = "all"
	}
	c.JSON(http.StatusOK, gin.H{
		"query":    query,
		"category": category,
		"count":    len(papers),
		"papers":   papers,
	})
}

func (s *Server) handleCrypto(c *gin.Context) {
	updated := time.Now().UTC().Format(time.RFC3339)

	if coin := c.Query("coin"); coin != "" {
		asset, source, err := s.clients.Crypto.Coin(c.Request.Context(), coin)
		if err != nil {
			s.fail(c, err)
			return
		}
		body := gin.H{
			"coin":       coin,
			"price_usd":  asset.PriceUSD,
			"change_24h": asset.Change24h,
			"market_cap": asset.MarketCap,
			"volume_24h": asset.Volume24h,
			"source":     source,
			"updated":    updated,
		}
		if asset.Rank > 0 {
			body["rank"] = asset.Rank
		}
		c.JSON(http.StatusOK, body)
		return
	}

	limit := intParam(c, "limit", s.cfg.Market.DefaultLimit, s.cfg.Market.MaxLimit)
	assets, source, err := s.clients.Crypto.List(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(assets),
		"coins":   assets,
		"source":  source,
		"updated": updated,
	})
}

func (s *Server) handleGitHub(c *gin.Context) {
	lang := c.Query("lang")
	since := enumParam(c, "since", "daily", "daily", "weekly", "monthly")
	limit := intParam(c, "limit", s.cfg.Repos.DefaultLimit, s.cfg.Repos.MaxLimit)

	res, err := s.clients.GitHub.Trending(c.Request.Context(), lang, since, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	language := lang
	if language == "" {
		language = "all"
	}
	c.JSON(http.StatusOK, gin.H{
		"language":    language,
		"since":       since,
		"count":       len(res.Repos),
		"total_found": res.TotalFound,
		"repos":       res.Repos,
	})
}

func (s *Server) handleExtract(c *gin.Context) {
	target, err := requireParam(c, "url", "/api/extract?url=https://example.com&max=5000")
	if err != nil {
		s.fail(c, err)
		return
	}
	maxChars := intParam(c, "max", s.cfg.Extract.DefaultMaxChars, s.cfg.Extract.HardMaxChars)

	page, err := s.clients.Extract.Extract(c.Request.Context(), target, maxChars)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) handleDrugs(c *gin.Context) {
	query := c.Query("q")
	target := c.Query("target")
	limit := intParam(c, "limit", s.cfg.Drugs.DefaultLimit, s.cfg.Drugs.MaxLimit)

	if query == "" && target == "" {
		s.fail(c, &apierr.Error{
			Kind:    apierr.BadRequest,
			Message: "Missing parameter. Use ?q=drug_name or ?target=gene_name",
			Examples: []string{
				"/api/drugs?q=aspirin",
				"/api/drugs?q=imatinib&limit=3",
				"/api/drugs?target=EGFR",
				"/api/drugs?target=BRCA1&limit=5",
			},
		})
		return
	}

	if target != "" {
		res, err := s.clients.Chembl.DrugsForTarget(c.Request.Context(), target, limit)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"target":           target,
			"target_name":      res.TargetName,
			"target_type":      res.TargetType,
			"organism":         res.Organism,
			"target_chembl_id": res.TargetChemblID,
			"count":            len(res.Drugs),
			"drugs":            res.Drugs,
		})
		return
	}

	molecules, err := s.clients.Chembl.SearchMolecules(c.Request.Context(), query, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":     query,
		"count":     len(molecules),
		"molecules": molecules,
	})
}
