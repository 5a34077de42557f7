// Package server wires the HTTP surface: routing, caller identity, the
// quota gate, parameter coercion, and the response envelope around every
// pipeline.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/klaud-0x/klaud-api/config"
	"github.com/klaud-0x/klaud-api/internal/arxiv"
	"github.com/klaud-0x/klaud-api/internal/chembl"
	"github.com/klaud-0x/klaud-api/internal/cryptoprice"
	"github.com/klaud-0x/klaud-api/internal/extract"
	"github.com/klaud-0x/klaud-api/internal/githubtrending"
	"github.com/klaud-0x/klaud-api/internal/hackernews"
	"github.com/klaud-0x/klaud-api/internal/pubmed"
	"github.com/klaud-0x/klaud-api/internal/quota"
)

const version = "2.1"

// endpoints is the public capability list, returned by status and
// unknown-endpoint responses.
var endpoints = []string{
	"/api/hn", "/api/pubmed", "/api/arxiv", "/api/crypto",
	"/api/github", "/api/extract", "/api/drugs",
}

// Clients bundles the upstream pipelines the server dispatches to.
type Clients struct {
	HN      *hackernews.Client
	PubMed  *pubmed.Client
	Arxiv   *arxiv.Client
	Crypto  *cryptoprice.Client
	GitHub  *githubtrending.Client
	Extract *extract.Client
	Chembl  *chembl.Client
}

type Server struct {
	cfg      config.AppConfig
	log      *logrus.Logger
	resolver *quota.Resolver
	gate     *quota.Gate
	clients  Clients
	engine   *gin.Engine
}

func New(cfg config.AppConfig, log *logrus.Logger, resolver *quota.Resolver, gate *quota.Gate, clients Clients) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log,
		resolver: resolver,
		gate:     gate,
		clients:  clients,
	}

	r := gin.New()
	r.Use(s.requestLogger(), s.recovery(), corsMiddleware())

	r.GET("/", s.handleLanding)

	api := r.Group("/api", s.identityMiddleware())
	api.GET("/status", s.handleStatus)

	// Everything below consumes quota. NoRoute and status stay outside the
	// gate so capability checks and introspection are free.
	gated := api.Group("", s.quotaMiddleware())
	gated.GET("/hn", s.handleHN)
	gated.GET("/pubmed", s.handlePubMed)
	gated.GET("/arxiv", s.handleArxiv)
	gated.GET("/crypto", s.handleCrypto)
	gated.GET("/github", s.handleGitHub)
	gated.GET("/extract", s.handleExtract)
	gated.GET("/drugs", s.handleDrugs)

	r.NoRoute(s.handleUnknown)

	s.engine = r
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) handleUnknown(c *gin.Context) {
	if len(c.Request.URL.Path) >= 5 && c.Request.URL.Path[:5] == "/api/" {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Unknown endpoint",
			"endpoints": append(append([]string{}, endpoints...), "/api/status"),
		})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}
