// Package service runs the advisory pipeline shared by every front-end:
// classify the question, obtain an answer, and record it in the query log.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kisanmitra/advisory/internal/advisor"
	"github.com/kisanmitra/advisory/internal/classifier"
	"github.com/kisanmitra/advisory/internal/metrics"
	"github.com/kisanmitra/advisory/internal/models"
	"github.com/kisanmitra/advisory/internal/storage"
	"go.uber.org/zap"
)

// ErrEmptyQuery is returned when the question is blank after trimming.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Responder is the answer strategy used by the pipeline.
type Responder interface {
	Respond(ctx context.Context, query string, category models.Category, language string) advisor.Answer
	RemoteEnabled() bool
}

// Result is what a front-end reports back to the farmer.
type Result struct {
	Response string
	Category models.Category
	Language string
	IsDemo   bool
	Source   string
}

type Advisory struct {
	classifier classifier.Classifier
	responder  Responder
	log        storage.QueryLog
	logger     *zap.Logger
	now        func() time.Time
}

func NewAdvisory(clf classifier.Classifier, responder Responder, log storage.QueryLog, logger *zap.Logger) *Advisory {
	return &Advisory{
		classifier: clf,
		responder:  responder,
		log:        log,
		logger:     logger,
		now:        time.Now,
	}
}

// RemoteEnabled reports whether answers may come from the remote model.
func (s *Advisory) RemoteEnabled() bool {
	return s.responder.RemoteEnabled()
}

// Ask answers one question. Only ErrEmptyQuery is returned; advisor and
// storage failures are absorbed here.
func (s *Advisory) Ask(ctx context.Context, query, language string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		metrics.QueriesRejected.Inc()
		return nil, ErrEmptyQuery
	}
	if language == "" {
		language = models.DefaultLanguage
	}

	s.logger.Info("Processing query",
		zap.String("query", preview(query, 50)),
		zap.String("language", language))

	category := s.classifier.Classify(query)
	s.logger.Debug("Detected category", zap.String("category", string(category)))

	answer := s.responder.Respond(ctx, query, category, language)
	metrics.QueriesAnswered.WithLabelValues(string(category), answer.Source()).Inc()

	record := &models.QueryRecord{
		QueryText:    query,
		ResponseText: answer.Text,
		Category:     category,
		Language:     language,
		UsedRemote:   answer.UsedRemote,
	}
	// The answer is already determined; a dropped client must not lose the record.
	if err := s.log.Append(context.WithoutCancel(ctx), record); err != nil {
		metrics.QueryLogWriteErrors.Inc()
		s.logger.Error("Failed to save query",
			zap.Error(err),
			zap.String("category", string(category)))
	} else {
		s.logger.Debug("Query saved", zap.Int64("id", record.ID))
	}

	return &Result{
		Response: answer.Text,
		Category: category,
		Language: language,
		IsDemo:   !answer.UsedRemote,
		Source:   answer.Source(),
	}, nil
}

// Stats reads the query log counters for the current UTC day.
func (s *Advisory) Stats(ctx context.Context) (models.Stats, error) {
	return storage.Summarize(ctx, s.log, s.now())
}

// Recent lists the newest records first.
func (s *Advisory) Recent(ctx context.Context, limit int) ([]models.QueryRecord, error) {
	return s.log.Recent(ctx, limit)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
