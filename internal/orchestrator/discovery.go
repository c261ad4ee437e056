package orchestrator

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/seoforge/internal/discovery"
	"github.com/ppiankov/seoforge/internal/model"
)

// ReferenceDiscoverer finds citations for a topic
type ReferenceDiscoverer interface {
	Discover(ctx context.Context, topic, apiKey string) ([]model.DiscoveredReference, error)
}

// VideoDiscoverer finds at most one embeddable video for a topic
type VideoDiscoverer interface {
	Discover(ctx context.Context, topic, apiKey string) (*model.DiscoveredVideo, error)
}

// discoveryRun is one launch of both discovery tasks. Its tasks never fail
// the group; a failed or panicking task leaves its result empty.
type discoveryRun struct {
	group  errgroup.Group
	cancel context.CancelFunc
	once   sync.Once

	refs  []model.DiscoveredReference
	video *model.DiscoveredVideo
}

func (o *Orchestrator) startDiscovery(ctx context.Context, req model.GenerationRequest, log *zap.Logger) *discoveryRun {
	dctx, cancel := withTimeout(ctx, o.cfg.Retry.DiscoveryTimeout)
	run := &discoveryRun{cancel: cancel}
	apiKey := req.Credentials.SearchAPIKey

	if len(req.References) > 0 {
		// Supplied references are already validated
		run.refs = discovery.RankReferences(req.References, 0, 0)
	} else if o.references != nil && apiKey != "" {
		run.group.Go(func() error {
			defer settle(log, "references")
			refs, err := o.references.Discover(dctx, req.Topic, apiKey)
			if err != nil {
				log.Warn("reference discovery failed", zap.Error(err))
				return nil
			}
			run.refs = refs
			return nil
		})
	}

	if o.videos != nil && apiKey != "" {
		run.group.Go(func() error {
			defer settle(log, "video")
			video, err := o.videos.Discover(dctx, req.Topic, apiKey)
			if err != nil {
				log.Warn("video discovery failed", zap.Error(err))
				return nil
			}
			run.video = video
			return nil
		})
	}

	if apiKey == "" && (o.references != nil || o.videos != nil) {
		log.Info("search API key missing, discovery skipped")
	}
	return run
}

// wait joins both tasks; it may be called more than once
func (r *discoveryRun) wait() ([]model.DiscoveredReference, *model.DiscoveredVideo) {
	r.once.Do(func() {
		_ = r.group.Wait()
		r.cancel()
	})
	return r.refs, r.video
}

// stop cancels unfinished tasks and joins them
func (r *discoveryRun) stop() {
	r.cancel()
	r.wait()
}

func settle(log *zap.Logger, task string) {
	if p := recover(); p != nil {
		log.Error("discovery task panicked", zap.String("task", task), zap.Any("panic", p))
	}
}
