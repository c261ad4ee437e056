package cli

import (
	"go.uber.org/zap"

	"github.com/ppiankov/seoforge/internal/cache"
	"github.com/ppiankov/seoforge/internal/discovery"
	"github.com/ppiankov/seoforge/internal/model"
	"github.com/ppiankov/seoforge/internal/orchestrator"
	"github.com/ppiankov/seoforge/internal/search"
	"github.com/ppiankov/seoforge/internal/util"
	"github.com/ppiankov/seoforge/internal/worker"
)

// probeRedirects caps redirects followed while checking a reference
const probeRedirects = 5

// newOrchestrator wires the search client, its cache and limiter, the
// discovery finders and the optional reference prober
func newOrchestrator(cfg *model.Config, log *zap.Logger) *orchestrator.Orchestrator {
	client := search.NewClient(cfg.Search, cfg.HTTP,
		search.WithCache(cache.New(cfg.Search)),
		search.WithLimiter(worker.NewLimiter(cfg.Search.RequestsPerSecond, cfg.Search.Burst)),
		search.WithLogger(log.Named("search")),
	)

	opts := []discovery.Option{discovery.WithLogger(log.Named("discovery"))}
	if cfg.Discovery.VerifyReferences {
		httpClient := util.NewHTTPClient(cfg.Search.Timeout, util.ProxySettings{
			HTTPProxy:  cfg.HTTP.HTTPProxy,
			HTTPSProxy: cfg.HTTP.HTTPSProxy,
			NoProxy:    cfg.HTTP.NoProxy,
		}, probeRedirects)
		prober := discovery.NewProber(httpClient, cfg.HTTP.UserAgent, cfg.Discovery.ProbeWorkers,
			worker.NewLimiter(cfg.Search.RequestsPerSecond*2, cfg.Search.Burst), log.Named("probe"))
		opts = append(opts, discovery.WithProber(prober))
	}

	return orchestrator.New(cfg,
		orchestrator.WithLogger(log.Named("orchestrator")),
		orchestrator.WithReferenceFinder(discovery.NewReferenceFinder(client, cfg.Discovery, opts...)),
		orchestrator.WithVideoFinder(discovery.NewVideoFinder(client, cfg.Discovery, opts...)),
	)
}
