package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleLanding(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(landingHTML))
}

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Klaud API — Research &amp; Dev Tools for AI Agents</title>
<meta name="description" content="Free API for AI agents: HN feed, PubMed, arXiv, crypto prices, GitHub trending, web extraction, drug lookup. 20 free requests/day.">
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:'Inter',system-ui,sans-serif;background:#0a0e17;color:#e0e6ed;line-height:1.7}
a{color:#60a5fa;text-decoration:none}
.hero{text-align:center;padding:60px 20px 40px}
.hero h1{font-size:2.8em;color:#fff}
.hero h1 span{color:#60a5fa}
.container{max-width:900px;margin:0 auto;padding:0 20px}
h2{color:#fff;margin:48px 0 20px;text-align:center}
.ep{background:#111827;border-radius:12px;padding:20px;border:1px solid #1e293b;margin:12px 0}
.ep .path{color:#fbbf24;font-family:monospace}
.ep .desc{color:#94a3b8;font-size:0.9em;margin-top:6px}
.ep .params{color:#64748b;font-size:0.8em;margin-top:8px;font-family:monospace}
code{display:block;background:#111827;padding:14px;border-radius:8px;font-family:monospace;margin:10px 0;color:#e2e8f0}
.footer{text-align:center;padding:40px 20px;color:#334155;font-size:0.8em}
</style>
</head>
<body>
<div class="hero">
  <h1><span>Klaud</span> API</h1>
  <p>Research &amp; dev tools for AI agents. Fast JSON APIs, no auth required. 20 free requests/day, 1,000/day with a Pro key.</p>
</div>
<div class="container">
<h2>Endpoints</h2>
<div class="ep"><span class="path">GET /api/hn</span><div class="desc">Curated Hacker News feed filtered by topic: ai, crypto, dev, science, security, all.</div><div class="params">?topic=ai&amp;limit=10</div></div>
<div class="ep"><span class="path">GET /api/pubmed</span><div class="desc">PubMed abstract search. Titles, abstracts, PMIDs, journals.</div><div class="params">?q=cancer+immunotherapy&amp;limit=5</div></div>
<div class="ep"><span class="path">GET /api/arxiv</span><div class="desc">arXiv paper search. Filter by category, sort by date or relevance.</div><div class="params">?q=LLM+agents&amp;cat=cs.AI&amp;limit=5</div></div>
<div class="ep"><span class="path">GET /api/crypto</span><div class="desc">Crypto prices. Top coins or single coin lookup, CoinGecko with CoinCap fallback.</div><div class="params">?coin=bitcoin or ?limit=10</div></div>
<div class="ep"><span class="path">GET /api/github</span><div class="desc">Recently created GitHub repos ranked by stars. Filter by language and window.</div><div class="params">?lang=python&amp;since=weekly</div></div>
<div class="ep"><span class="path">GET /api/extract</span><div class="desc">Extract clean text from any URL. Strips boilerplate, returns structured content.</div><div class="params">?url=https://...&amp;max=5000</div></div>
<div class="ep"><span class="path">GET /api/drugs</span><div class="desc">Drug &amp; molecule search via ChEMBL. Lookup by name or find drugs by target gene.</div><div class="params">?q=imatinib or ?target=EGFR</div></div>
<div class="ep"><span class="path">GET /api/status</span><div class="desc">Your plan, usage and remaining quota. Never counts against the quota.</div></div>
<h2>Try it</h2>
<code>curl "https://api.example.com/api/hn?topic=ai&amp;limit=3"</code>
<code>curl "https://api.example.com/api/drugs?target=EGFR&amp;limit=3"</code>
</div>
<div class="footer">Klaud API v2.1</div>
</body>
</html>`
