package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/linlihub/linli-backend/internal/config"
	pkglogger "github.com/linlihub/linli-backend/pkg/logger"
)

// Check types
const (
	CheckTypePrePost = "pre_post"
	CheckTypeEdit    = "edit"
	CheckTypeReport  = "report"
)

// Classifier providers
const (
	ProviderLLM   = "llm"
	ProviderRules = "rules"
)

// Risk score thresholds
const (
	scoreThresholdHigh   = 5
	scoreThresholdMedium = 2
)

var classifierFallbackTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "moderation_classifier_fallback_total",
		Help: "Risk classifications served by the rule-based fallback instead of the LLM",
	},
	[]string{"cause"},
)

// ClassifyResult is the outcome of a risk classification
type ClassifyResult struct {
	RiskLevel   string   `json:"risk_level"`
	RiskScore   int      `json:"risk_score,omitempty"`
	Risks       []string `json:"risks,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Reasoning   string   `json:"reasoning"`
	ShouldBlock bool     `json:"should_block"`
	NeedsReview bool     `json:"needs_review"`
	Provider    string   `json:"provider"`
}

// Classifier evaluates submitted content for risk. It prefers a single LLM
// call and falls back to deterministic rule scoring whenever the provider is
// not configured, unreachable, or returns an unparseable response.
type Classifier struct {
	providerURL string
	apiKey      string
	model       string
	httpClient  *http.Client
}

// NewClassifier creates a new Classifier from moderation config
func NewClassifier(cfg config.ModerationConfig) *Classifier {
	return &Classifier{
		providerURL: strings.TrimRight(cfg.ProviderURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Classify evaluates one piece of content. A failed or misconfigured LLM call
// falls through to the rules for this one request; failures are not cached.
func (c *Classifier) Classify(ctx context.Context, text, category, checkType string) *ClassifyResult {
	if c.apiKey == "" || c.providerURL == "" {
		classifierFallbackTotal.WithLabelValues("not_configured").Inc()
		return c.classifyByRules(text, category, checkType)
	}

	result, err := c.classifyByLLM(ctx, text, category, checkType)
	if err != nil {
		log := pkglogger.WithComponent("classifier")
		log.Warn().Err(err).Msg("LLM classification failed, falling back to rules")
		classifierFallbackTotal.WithLabelValues("llm_error").Inc()
		return c.classifyByRules(text, category, checkType)
	}
	return result
}

// llmResponse is the strict schema expected inside the provider's free-form
// reply. Any schema violation is treated the same as a parse failure.
type llmResponse struct {
	RiskLevel   string   `json:"risk_level"`
	RiskScore   int      `json:"risk_score"`
	Risks       []string `json:"risks"`
	Suggestions []string `json:"suggestions"`
	Reasoning   string   `json:"reasoning"`
}

var validRiskLevels = map[string]bool{
	"low": true, "medium": true, "high": true,
}

const classifierSystemPrompt = `你是社區管理平台的內容風險審查助手。評估使用者貼文是否包含個資、誹謗、威脅或不當內容。
回覆 JSON,格式:
{"risk_level": "low|medium|high", "risk_score": 0-10, "risks": ["..."], "suggestions": ["..."], "reasoning": "..."}
只回覆 JSON,不要其他文字。`

func (c *Classifier) classifyByLLM(ctx context.Context, text, category, checkType string) (*ClassifyResult, error) {
	userMessage := fmt.Sprintf("分類: %s\n檢查階段: %s\n內容:\n%s", category, checkType, text)

	rawText, err := c.callProvider(ctx, classifierSystemPrompt, userMessage)
	if err != nil {
		return nil, err
	}

	parsed, err := parseLLMResponse(rawText)
	if err != nil {
		return nil, err
	}

	result := &ClassifyResult{
		RiskLevel:   parsed.RiskLevel,
		RiskScore:   parsed.RiskScore,
		Risks:       parsed.Risks,
		Suggestions: parsed.Suggestions,
		Reasoning:   parsed.Reasoning,
		Provider:    ProviderLLM,
	}
	result.ShouldBlock = result.RiskLevel == "high" && checkType == CheckTypePrePost
	result.NeedsReview = result.RiskLevel == "high" ||
		(result.RiskLevel == "medium" && category == "alert")
	return result, nil
}

// callProvider makes a single OpenAI-format chat completion call
func (c *Classifier) callProvider(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      c.model,
		"max_tokens": 512,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userMessage},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := c.providerURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider error (%d): %s", resp.StatusCode, truncateStr(string(respBody), 200))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse provider response: %w", err)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty provider response")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// parseLLMResponse locates the JSON object inside free-form reply text and
// validates it against the strict schema
func parseLLMResponse(rawText string) (*llmResponse, error) {
	start := strings.Index(rawText, "{")
	end := strings.LastIndex(rawText, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed llmResponse
	if err := json.Unmarshal([]byte(rawText[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	if !validRiskLevels[parsed.RiskLevel] {
		return nil, fmt.Errorf("invalid risk_level %q", parsed.RiskLevel)
	}
	if parsed.RiskScore < 0 || parsed.RiskScore > 10 {
		return nil, fmt.Errorf("risk_score out of range: %d", parsed.RiskScore)
	}

	return &parsed, nil
}

// classifyByRules is the deterministic fallback path. Unlike the LLM path it
// always flags medium-risk content for review, regardless of category.
func (c *Classifier) classifyByRules(text, category, checkType string) *ClassifyResult {
	scan := Scan(text)
	score := ScoreHits(scan.Hits)

	// Alert posts get a stricter bar
	if category == "alert" {
		score++
	}

	riskLevel := "low"
	switch {
	case score >= scoreThresholdHigh:
		riskLevel = "high"
	case score >= scoreThresholdMedium:
		riskLevel = "medium"
	}

	var risks []string
	seen := map[string]bool{}
	for _, h := range scan.Hits {
		if seen[h.Category] {
			continue
		}
		seen[h.Category] = true
		risks = append(risks, h.Label)
	}

	var suggestions []string
	if len(risks) > 0 {
		suggestions = append(suggestions, "建議移除或遮蔽個人資訊後再發布")
	}

	reasoning := "未偵測到敏感內容"
	if len(risks) > 0 {
		reasoning = fmt.Sprintf("規則比對命中: %s (分數 %d)", strings.Join(risks, "、"), score)
	}

	return &ClassifyResult{
		RiskLevel:   riskLevel,
		RiskScore:   score,
		Risks:       risks,
		Suggestions: suggestions,
		Reasoning:   reasoning,
		ShouldBlock: riskLevel == "high" && checkType == CheckTypePrePost,
		NeedsReview: riskLevel == "high" || riskLevel == "medium",
		Provider:    ProviderRules,
	}
}

// truncateStr shortens a string for log output
func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
