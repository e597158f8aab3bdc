package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	insightDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skilltrack",
		Subsystem: "insights",
		Name:      "generation_duration_seconds",
		Help:      "Duration of insight generation requests",
	}, []string{"model"})

	insightFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skilltrack",
		Subsystem: "insights",
		Name:      "generation_failures_total",
		Help:      "Number of insight generation failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI generator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGenerator produces dashboard insights via the OpenAI chat completion
// API. On any failure callers should fall back to HeuristicGenerator.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGenerator builds a generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 256
	}

	tracer := otel.Tracer("github.com/meryam27/skilltrack-api/pkg/insights")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)),
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Generate asks the model for up to three short insights.
func (g *OpenAIGenerator) Generate(parent context.Context, summary ProfileSummary) ([]string, error) {
	ctx, span := g.tracer.Start(parent, "insights.generate", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: insightSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildInsightPrompt(summary),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	insightDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		insightFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("openai insights: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		insightFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	insights, err := parseInsightResponse(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		insightFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return insights, nil
}

func insightSystemPrompt() string {
	return "You are a study coach for a learning-progress platform. Respond with a JSON object containing an \"insights\" array " +
		"of at most three short, encouraging, factual sentences about the student's activity. Do not invent numbers."
}

func buildInsightPrompt(summary ProfileSummary) string {
	builder := strings.Builder{}
	builder.WriteString("# Student Activity\n")
	fmt.Fprintf(&builder, "Name: %s\n", summary.FirstName)
	fmt.Fprintf(&builder, "Level: %d (XP %d)\n", summary.Level, summary.ExperiencePoints)
	fmt.Fprintf(&builder, "Total study hours: %.1f\n", summary.TotalHours)
	fmt.Fprintf(&builder, "Hours this week: %.1f of a %.1f hour goal\n", summary.WeeklyTotalHours, summary.WeeklyGoalHours)
	fmt.Fprintf(&builder, "Current streak: %d day(s)\n", summary.CurrentStreakDays)
	fmt.Fprintf(&builder, "Competences acquired: %d\n", summary.SkillsCount)
	fmt.Fprintf(&builder, "Global progress: %d%%\n", summary.GlobalProgress)
	builder.WriteString("Return JSON.")

	return builder.String()
}

func parseInsightResponse(content string) ([]string, error) {
	var data struct {
		Insights []string `json:"insights"`
	}

	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, fmt.Errorf("parse insights json: %w", err)
	}

	insights := make([]string, 0, 3)
	for _, insight := range data.Insights {
		trimmed := strings.TrimSpace(insight)
		if trimmed == "" {
			continue
		}
		insights = append(insights, trimmed)
		if len(insights) == 3 {
			break
		}
	}

	if len(insights) == 0 {
		return nil, fmt.Errorf("model returned no insights")
	}

	return insights, nil
}
