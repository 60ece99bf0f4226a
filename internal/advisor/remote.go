package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kisanmitra/advisory/internal/catalog"
	"github.com/kisanmitra/advisory/internal/models"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	// ErrNoAPIKey is returned by NewRemote when no credential is configured.
	ErrNoAPIKey = errors.New("openai api key not configured")
	// ErrRemoteFailed wraps every failure of a remote completion.
	ErrRemoteFailed = errors.New("remote advisor failed")
)

// Config is the immutable remote configuration assembled at startup.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
	Timeout     time.Duration
}

// Completer is the subset of the OpenAI client the remote advisor calls.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Remote answers questions through an OpenAI chat completion.
type Remote struct {
	client  Completer
	catalog *catalog.Catalog
	cfg     Config
	logger  *zap.Logger
}

// NewRemote builds the OpenAI client. It fails when the key is missing or the
// settings cannot produce a usable client.
func NewRemote(cfg Config, cat *catalog.Catalog, logger *zap.Logger) (*Remote, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai model not configured")
	}
	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("invalid max tokens %d", cfg.MaxTokens)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid openai base url %q", cfg.BaseURL)
		}
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return NewRemoteWithClient(openai.NewClientWithConfig(clientCfg), cfg, cat, logger), nil
}

// NewRemoteWithClient wires an already constructed client.
func NewRemoteWithClient(client Completer, cfg Config, cat *catalog.Catalog, logger *zap.Logger) *Remote {
	return &Remote{
		client:  client,
		catalog: cat,
		cfg:     cfg,
		logger:  logger,
	}
}

// Advise sends the category prompt and the raw question as a two-message
// exchange. Any failure is returned wrapped in ErrRemoteFailed.
func (r *Remote) Advise(ctx context.Context, query string, category models.Category, language string) (string, error) {
	systemPrompt, err := r.catalog.SystemPrompt(category, language)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteFailed, err)
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	r.logger.Info("Calling OpenAI",
		zap.String("category", string(category)),
		zap.String("language", language),
		zap.String("model", r.cfg.Model))

	resp, err := r.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: r.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: query,
				},
			},
			MaxTokens:   r.cfg.MaxTokens,
			Temperature: float32(r.cfg.Temperature),
			TopP:        float32(r.cfg.TopP),
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrRemoteFailed)
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: empty response", ErrRemoteFailed)
	}

	r.logger.Info("OpenAI response received", zap.Int("chars", len(answer)))
	return answer, nil
}

// MaskKey keeps the first 8 and last 4 characters of an API key.
func MaskKey(key string) string {
	if len(key) <= 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + "..." + key[len(key)-4:]
}
