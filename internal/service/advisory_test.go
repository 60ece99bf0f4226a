package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kisanmitra/advisory/internal/advisor"
	"github.com/kisanmitra/advisory/internal/catalog"
	"github.com/kisanmitra/advisory/internal/classifier"
	"github.com/kisanmitra/advisory/internal/metrics"
	"github.com/kisanmitra/advisory/internal/models"
	"github.com/kisanmitra/advisory/internal/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingRemote struct{}

func (failingRemote) Advise(ctx context.Context, query string, category models.Category, language string) (string, error) {
	return "", errors.New("upstream timeout")
}

type fixedRemote string

func (f fixedRemote) Advise(ctx context.Context, query string, category models.Category, language string) (string, error) {
	return string(f), nil
}

// brokenLog fails every operation.
type brokenLog struct{ storage.MemoryLog }

func (b *brokenLog) Append(ctx context.Context, r *models.QueryRecord) error {
	return errors.New("database is locked")
}

func (b *brokenLog) CountAll(ctx context.Context) (int64, error) {
	return 0, errors.New("database is locked")
}

func newAdvisory(remote advisor.RemoteSource, log storage.QueryLog) (*Advisory, *catalog.Catalog) {
	cat := catalog.MustLoad()
	a := advisor.New(remote, advisor.NewCanned(cat), zap.NewNop())
	return NewAdvisory(classifier.NewKeywordClassifier(cat.Groups()), a, log, zap.NewNop()), cat
}

func TestAsk_EmptyQueryIsRejectedAndNotLogged(t *testing.T) {
	log := storage.NewMemoryLog()
	svc, _ := newAdvisory(nil, log)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Ask(context.Background(), q, "ml")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}

	total, err := log.CountAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAsk_DemoMode(t *testing.T) {
	log := storage.NewMemoryLog()
	svc, cat := newAdvisory(nil, log)

	res, err := svc.Ask(context.Background(), "  My tomato leaves have yellow spots ", "en")
	require.NoError(t, err)

	assert.Equal(t, models.CategoryCrop, res.Category)
	assert.Equal(t, cat.Canned("en", models.CategoryCrop), res.Response)
	assert.Equal(t, "en", res.Language)
	assert.True(t, res.IsDemo)
	assert.Equal(t, "demo", res.Source)
	assert.False(t, svc.RemoteEnabled())

	recent, err := log.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "My tomato leaves have yellow spots", recent[0].QueryText)
	assert.Equal(t, res.Response, recent[0].ResponseText)
	assert.False(t, recent[0].UsedRemote)
}

func TestAsk_DefaultsLanguage(t *testing.T) {
	svc, _ := newAdvisory(nil, storage.NewMemoryLog())

	res, err := svc.Ask(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, models.CategoryGeneral, res.Category)
}

func TestAsk_UnknownLanguagePassesThrough(t *testing.T) {
	log := storage.NewMemoryLog()
	svc, cat := newAdvisory(nil, log)

	res, err := svc.Ask(context.Background(), "loan for tractor", "kn")
	require.NoError(t, err)
	assert.Equal(t, "kn", res.Language)
	assert.Equal(t, models.CategorySubsidy, res.Category)
	assert.Equal(t, cat.Canned("en", models.CategorySubsidy), res.Response)

	recent, err := log.Recent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "kn", recent[0].Language)
}

func TestAsk_FailingRemoteMatchesDemoMode(t *testing.T) {
	demo, _ := newAdvisory(nil, storage.NewMemoryLog())
	failing, _ := newAdvisory(failingRemote{}, storage.NewMemoryLog())

	for _, q := range []string{"price of cotton", "മഴ", "fertilizer", "anything"} {
		want, err := demo.Ask(context.Background(), q, "ml")
		require.NoError(t, err)
		got, err := failing.Ask(context.Background(), q, "ml")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.True(t, failing.RemoteEnabled())
}

func TestAsk_RemoteAnswer(t *testing.T) {
	log := storage.NewMemoryLog()
	svc, _ := newAdvisory(fixedRemote("Sow after the first monsoon showers."), log)

	res, err := svc.Ask(context.Background(), "when to sow paddy in rain", "en")
	require.NoError(t, err)
	assert.False(t, res.IsDemo)
	assert.Equal(t, "openai", res.Source)
	assert.Equal(t, "Sow after the first monsoon showers.", res.Response)

	remote, err := log.CountBySource(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), remote)
}

func TestAsk_StorageFailureIsSwallowed(t *testing.T) {
	svc, cat := newAdvisory(nil, &brokenLog{})

	res, err := svc.Ask(context.Background(), "npk ratio", "en")
	require.NoError(t, err)
	assert.Equal(t, cat.Canned("en", models.CategoryFertilizer), res.Response)
}

func TestAsk_CancelledContextStillRecords(t *testing.T) {
	log := storage.NewMemoryLog()
	svc, _ := newAdvisory(nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Ask(ctx, "wheat", "en")
	require.NoError(t, err)

	total, err := log.CountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestStats_RoundTrip(t *testing.T) {
	log := storage.NewMemoryLog()
	svc, _ := newAdvisory(nil, log)
	svc.now = func() time.Time { return time.Now().UTC() }

	const n = 4
	for i := 0; i < n; i++ {
		_, err := svc.Ask(context.Background(), "question about market rate", "en")
		require.NoError(t, err)
	}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(n), stats.Total)
	assert.Equal(t, int64(n), stats.Remote+stats.Demo)
	assert.Equal(t, int64(n), stats.Demo)
	assert.Equal(t, int64(n), stats.Today)
}

func TestStats_StorageFailure(t *testing.T) {
	svc, _ := newAdvisory(nil, &brokenLog{})

	_, err := svc.Stats(context.Background())
	assert.Error(t, err)
}

func TestAsk_UpdatesCounters(t *testing.T) {
	svc, _ := newAdvisory(nil, &brokenLog{})
	answered := metrics.QueriesAnswered.WithLabelValues("pest", "demo")
	before := testutil.ToFloat64(answered)
	rejected := testutil.ToFloat64(metrics.QueriesRejected)
	writeErrs := testutil.ToFloat64(metrics.QueryLogWriteErrors)

	_, err := svc.Ask(context.Background(), "insect attack", "en")
	require.NoError(t, err)
	_, err = svc.Ask(context.Background(), "  ", "en")
	require.ErrorIs(t, err, ErrEmptyQuery)

	assert.Equal(t, before+1, testutil.ToFloat64(answered))
	assert.Equal(t, rejected+1, testutil.ToFloat64(metrics.QueriesRejected))
	assert.Equal(t, writeErrs+1, testutil.ToFloat64(metrics.QueryLogWriteErrors))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 50))
	assert.Equal(t, "കൃഷി...", preview("കൃഷിയും", 4))
}
