package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// ErrUnavailable indicates the text-generation backend could not produce a
// usable analysis. Handlers map it to an upstream-failure status.
var ErrUnavailable = errors.New("insight generation unavailable")

const systemPrompt = `You are a senior sales analyst. You receive a JSON document with a sales forecast: historical values, forecasted values with optional bounds, evaluation metrics and model metadata.
Respond with a single JSON object containing exactly these keys, each a concise paragraph of plain text:
- forecast_quality_assessment: judge the fit quality from the evaluation metrics.
- trend_and_seasonality_analysis: describe trend direction and any seasonal pattern visible in history and forecast.
- model_feature_interpretation: interpret the model metadata (and feature importances when present).
- forecast_outlook_summary: summarize the expected sales trajectory.
- marketing_and_business_recommendations: actionable recommendations grounded in the numbers.
Respond with JSON only, no surrounding prose.`

// ChatClient is the chat-completion surface the analyzer consumes.
// *openai.Client satisfies it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Cache is the small key/value surface used to memoize analyses.
// *database.RedisClient satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Analysis is the structured reply of the forecast analyst.
type Analysis struct {
	ForecastQualityAssessment           string `json:"forecast_quality_assessment"`
	TrendAndSeasonalityAnalysis         string `json:"trend_and_seasonality_analysis"`
	ModelFeatureInterpretation          string `json:"model_feature_interpretation"`
	ForecastOutlookSummary              string `json:"forecast_outlook_summary"`
	MarketingAndBusinessRecommendations string `json:"marketing_and_business_recommendations"`
}

// Analyzer sends forecast payloads to a chat-completion backend and caches
// the parsed replies by payload hash.
type Analyzer struct {
	client ChatClient
	cache  Cache
	model  string
	ttl    time.Duration
}

// NewAnalyzer creates a new analyzer. cache may be nil to disable caching.
func NewAnalyzer(client ChatClient, cache Cache, model string, ttl time.Duration) *Analyzer {
	return &Analyzer{client: client, cache: cache, model: model, ttl: ttl}
}

// Analyze produces the five-part analysis for a forecast payload. The second
// return value reports whether the reply was served from cache.
func (a *Analyzer) Analyze(ctx context.Context, payload map[string]interface{}) (*Analysis, bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode analysis payload: %w", err)
	}
	key := cacheKey(body)

	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, key); err == nil && cached != "" {
			var analysis Analysis
			if err := json.Unmarshal([]byte(cached), &analysis); err == nil {
				return &analysis, true, nil
			}
			logrus.WithField("key", key).Warn("Discarding unparseable cached analysis")
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(body)},
		},
		Temperature:    0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, false, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	analysis, err := parseAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if a.cache != nil {
		encoded, err := json.Marshal(analysis)
		if err == nil {
			if err := a.cache.Set(ctx, key, string(encoded), a.ttl); err != nil {
				logrus.WithError(err).Warn("Failed to cache forecast analysis")
			}
		}
	}

	return analysis, false, nil
}

// parseAnalysis decodes the model reply, retrying once after stripping
// markdown code fences that some models wrap JSON in.
func parseAnalysis(content string) (*Analysis, error) {
	var analysis Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		cleaned := stripCodeFence(content)
		if err2 := json.Unmarshal([]byte(cleaned), &analysis); err2 != nil {
			return nil, fmt.Errorf("unparseable analysis reply: %v", err)
		}
	}
	if analysis.ForecastQualityAssessment == "" && analysis.ForecastOutlookSummary == "" {
		return nil, errors.New("analysis reply missing expected fields")
	}
	return &analysis, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func cacheKey(body []byte) string {
	sum := sha256.Sum256(body)
	return "insights:forecast:" + hex.EncodeToString(sum[:])
}
