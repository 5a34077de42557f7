package main

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/klaud-0x/klaud-api/config"
	"github.com/klaud-0x/klaud-api/internal/arxiv"
	"github.com/klaud-0x/klaud-api/internal/chembl"
	"github.com/klaud-0x/klaud-api/internal/cryptoprice"
	"github.com/klaud-0x/klaud-api/internal/envhelper"
	"github.com/klaud-0x/klaud-api/internal/extract"
	"github.com/klaud-0x/klaud-api/internal/githubtrending"
	"github.com/klaud-0x/klaud-api/internal/hackernews"
	"github.com/klaud-0x/klaud-api/internal/pubmed"
	"github.com/klaud-0x/klaud-api/internal/quota"
	"github.com/klaud-0x/klaud-api/internal/server"
)

func main() {
	// Load environment variables
	envhelper.LoadEnv()
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// The gate fails open without redis, so a missing store is a
		// warning, not a startup failure.
		log.WithField("addr", cfg.RedisAddr).Warn("quota store unreachable at startup: ", err)
	} else {
		log.Println("Quota store pinged successfully.")
	}
	cancel()

	store := quota.NewStore(rdb)

	srv := server.New(cfg, log, quota.NewResolver(store), quota.NewGate(store, log), server.Clients{
		HN:      hackernews.NewClient(cfg.Feed.CandidatePool),
		PubMed:  pubmed.NewClient(cfg.Search.AbstractCap),
		Arxiv:   arxiv.NewClient(cfg.Search.AbstractCap),
		Crypto:  cryptoprice.NewClient(),
		GitHub:  githubtrending.NewClient(cfg.Repos.DescriptionCap),
		Extract: extract.NewClient(),
		Chembl:  chembl.NewClient(cfg.Drugs.CandidateLimit, cfg.Drugs.OverFetchFactor),
	})

	log.WithField("addr", cfg.Addr).Info("listening")
	if err := srv.Run(cfg.Addr); err != nil {
		log.Fatal("Error running server: ", err)
	}
}
