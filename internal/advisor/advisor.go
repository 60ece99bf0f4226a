// Package advisor produces the answer text for a classified question, using
// the remote model when it is available and the canned table otherwise.
package advisor

import (
	"context"
	"time"

	"github.com/kisanmitra/advisory/internal/catalog"
	"github.com/kisanmitra/advisory/internal/metrics"
	"github.com/kisanmitra/advisory/internal/models"
	"go.uber.org/zap"
)

// RemoteSource is a response strategy that may fail.
type RemoteSource interface {
	Advise(ctx context.Context, query string, category models.Category, language string) (string, error)
}

// Canned returns fixed answers from the catalog. It never fails.
type Canned struct {
	catalog *catalog.Catalog
}

func NewCanned(cat *catalog.Catalog) *Canned {
	return &Canned{catalog: cat}
}

func (c *Canned) Advise(category models.Category, language string) string {
	return c.catalog.Canned(language, category)
}

// Answer is the advisory text and whether the remote model produced it.
type Answer struct {
	Text       string
	UsedRemote bool
}

// Source reports the wire tag for the answer.
func (a Answer) Source() string {
	return models.SourceTag(a.UsedRemote)
}

// Advisor composes a remote strategy with the canned fallback. A nil remote
// means the process runs in fallback-only mode.
type Advisor struct {
	remote RemoteSource
	canned *Canned
	logger *zap.Logger
}

func New(remote RemoteSource, canned *Canned, logger *zap.Logger) *Advisor {
	return &Advisor{
		remote: remote,
		canned: canned,
		logger: logger,
	}
}

// RemoteEnabled reports whether a remote strategy was configured at startup.
func (a *Advisor) RemoteEnabled() bool {
	return a.remote != nil
}

// Respond always yields text. Remote failures are logged and replaced by the
// canned answer; nothing is retried.
func (a *Advisor) Respond(ctx context.Context, query string, category models.Category, language string) Answer {
	if a.remote == nil {
		a.logger.Debug("Remote advisor not configured, using canned answer",
			zap.String("category", string(category)),
			zap.String("language", language))
		return a.fallback(category, language)
	}

	start := time.Now()
	text, err := a.remote.Advise(ctx, query, category, language)
	metrics.RemoteLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RemoteFailures.Inc()
		a.logger.Error("Remote advisor failed, using canned answer",
			zap.Error(err),
			zap.String("category", string(category)),
			zap.String("language", language))
		return a.fallback(category, language)
	}

	return Answer{Text: text, UsedRemote: true}
}

func (a *Advisor) fallback(category models.Category, language string) Answer {
	return Answer{Text: a.canned.Advise(category, language), UsedRemote: false}
}
