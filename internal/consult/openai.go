package consult

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"fathom/internal/casefile"
	"fathom/internal/logging"
)

// Config tunes the OpenAI-backed consultant. Zero values fall back to
// the defaults below.
type Config struct {
	APIKey          string
	BaseURL         string // override for self-hosted gateways
	Model           string
	AnalysisTimeout time.Duration
	GuidanceTimeout time.Duration
	MaxTokens       int
}

const (
	defaultModel           = openai.GPT4oMini
	defaultAnalysisTimeout = 90 * time.Second
	defaultGuidanceTimeout = 30 * time.Second
	defaultMaxTokens       = 2048
)

// OpenAIConsultant implements Consultant against the OpenAI chat API.
type OpenAIConsultant struct {
	client *openai.Client
	cfg    Config
}

// NewOpenAI builds a consultant from cfg, reading OPENAI_API_KEY when the
// key is not set explicitly.
func NewOpenAI(cfg Config) *OpenAIConsultant {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.AnalysisTimeout == 0 {
		cfg.AnalysisTimeout = defaultAnalysisTimeout
	}
	if cfg.GuidanceTimeout == 0 {
		cfg.GuidanceTimeout = defaultGuidanceTimeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIConsultant{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

// complete runs one bounded chat completion. Timeout, transport error,
// and an empty reply all collapse into ErrUnavailable so callers have a
// single fallback path.
func (o *OpenAIConsultant) complete(ctx context.Context, mode Mode, system, user string) (string, error) {
	budget := o.cfg.GuidanceTimeout
	if mode == ModeAnalysis {
		budget = o.cfg.AnalysisTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.cfg.Model,
		MaxTokens: o.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		logging.New("consult").Warn("completion failed", "mode", string(mode), "error", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIConsultant) Analyze(ctx context.Context, c *casefile.Case, mode Mode) (*Suggestions, error) {
	text, err := o.complete(ctx, mode, analysisSystemPrompt, analysisPrompt(c))
	if err != nil {
		return nil, err
	}
	return ParseSuggestions(text), nil
}

func (o *OpenAIConsultant) RemediationPlan(ctx context.Context, c *casefile.Case, findings []string) (string, error) {
	text, err := o.complete(ctx, ModeGuidance, remediationSystemPrompt, remediationPrompt(c, findings))
	if err != nil {
		return "", err
	}
	return text, nil
}

func (o *OpenAIConsultant) ScopeDraft(ctx context.Context, c *casefile.Case, evidenceText, feedback string) (*ScopeDraft, error) {
	text, err := o.complete(ctx, ModeAnalysis, scopeSystemPrompt, scopePrompt(c, evidenceText, feedback))
	if err != nil {
		return nil, err
	}
	draft := ParseScopeDraft(text)
	if draft.Summary == "" {
		return nil, fmt.Errorf("%w: scope draft missing summary", ErrUnavailable)
	}
	return draft, nil
}

func (o *OpenAIConsultant) ExtractAnswer(ctx context.Context, c *casefile.Case, q casefile.Question, evidenceText string) (*ExtractedAnswer, error) {
	text, err := o.complete(ctx, ModeGuidance, extractSystemPrompt, extractPrompt(c, q, evidenceText))
	if err != nil {
		return nil, err
	}
	return ParseExtraction(text), nil
}

func (o *OpenAIConsultant) ProposeAction(ctx context.Context, req *ActionRequest) (*ProposedAction, error) {
	text, err := o.complete(ctx, ModeGuidance, actionSystemPrompt, actionPrompt(req))
	if err != nil {
		return nil, err
	}
	a := ParseAction(text)
	if err := a.Validate(); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return a, nil
}

var _ Consultant = (*OpenAIConsultant)(nil)
