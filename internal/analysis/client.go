package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/meeting"
)

// ErrAnalysis indicates the model call or its response parsing failed.
// Callers substitute the Failed default rather than aborting the session.
var ErrAnalysis = errors.New("analysis: model failure")

const systemInstruction = `You analyze meeting transcripts. Respond with a single JSON object and nothing else, using exactly this shape:
{"summary": "<3-5 sentence summary>", "actionItems": [{"task": "...", "assignee": "...", "deadline": "..."}], "sentiment": {"positive": <0-100>, "neutral": <0-100>, "negative": <0-100>}}
The three sentiment values must sum to 100. If no action items were discussed, return an empty actionItems array.`

// Config contains LLM analysis configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client performs transcript analysis through a chat completion API.
type Client struct {
	api    openai.Client
	config Config
	logger *slog.Logger
}

// NewClient creates an analysis client.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}
	if config.Model == "" {
		config.Model = openai.ChatModelGPT4oMini
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Client{
		api:    openai.NewClient(opts...),
		config: config,
		logger: logger,
	}, nil
}

// Analyze summarizes a transcript into structured meeting insights.
func (c *Client) Analyze(ctx context.Context, transcript string) (meeting.Analysis, error) {
	if strings.TrimSpace(transcript) == "" {
		return NoAudio(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction),
			openai.UserMessage(transcript),
		},
		Temperature: openai.Float(c.config.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return meeting.Analysis{}, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}
	if len(resp.Choices) == 0 {
		return meeting.Analysis{}, fmt.Errorf("%w: empty completion", ErrAnalysis)
	}

	result, err := parseAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		return meeting.Analysis{}, err
	}

	c.logger.Info("Transcript analyzed",
		slog.String("model", c.config.Model),
		slog.Int("action_items", len(result.ActionItems)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

// parseAnalysis decodes the model's JSON reply. A syntax error triggers
// one repair pass before giving up.
func parseAnalysis(content string) (meeting.Analysis, error) {
	var result meeting.Analysis

	err := json.Unmarshal([]byte(content), &result)
	if err != nil {
		if _, ok := err.(*json.SyntaxError); !ok {
			return meeting.Analysis{}, fmt.Errorf("%w: parse response: %v", ErrAnalysis, err)
		}
		fixed, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return meeting.Analysis{}, fmt.Errorf("%w: repair response: %v", ErrAnalysis, repairErr)
		}
		if err := json.Unmarshal([]byte(fixed), &result); err != nil {
			return meeting.Analysis{}, fmt.Errorf("%w: parse repaired response: %v", ErrAnalysis, err)
		}
	}

	if strings.TrimSpace(result.Summary) == "" {
		return meeting.Analysis{}, fmt.Errorf("%w: response missing summary", ErrAnalysis)
	}
	if result.ActionItems == nil {
		result.ActionItems = []meeting.ActionItem{}
	}
	return result, nil
}

// NoAudio is the analysis recorded for sessions that captured no usable
// speech. No model call is made for these.
func NoAudio() meeting.Analysis {
	return meeting.Analysis{
		Summary:     "No audio.",
		ActionItems: []meeting.ActionItem{},
		Sentiment:   meeting.Sentiment{},
	}
}

// Failed is the analysis recorded when the model call or its parsing
// fails. The transcript itself is still persisted.
func Failed() meeting.Analysis {
	return meeting.Analysis{
		Summary:     "Analysis failed.",
		ActionItems: []meeting.ActionItem{},
		Sentiment:   meeting.Sentiment{Positive: 0, Neutral: 100, Negative: 0},
	}
}
