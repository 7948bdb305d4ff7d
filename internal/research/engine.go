package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/motivai/motivai-engine/internal/cache"
	"github.com/motivai/motivai-engine/internal/llm"
	"github.com/motivai/motivai-engine/internal/llm/types"
)

const (
	// CompanyInfoTTL bounds how long researched company data is reused.
	CompanyInfoTTL = 24 * time.Hour

	// MarketInsightsTTL bounds how long a day's predictive report is reused.
	MarketInsightsTTL = 24 * time.Hour

	analyticalTemperature = 0.3
	connectionTemperature = 0.6
	creativeTemperature   = 0.8
)

// Engine runs the research/analysis stages. Stages share the completion
// client and the fail-soft cache; concurrent company research for the same
// normalized name is coalesced into one in-flight model call per process.
type Engine struct {
	llm    llm.Client
	cache  cache.Cache
	logger *zap.Logger
	flight singleflight.Group
}

// NewEngine wires the stages to their collaborators.
func NewEngine(client llm.Client, c cache.Cache, logger *zap.Logger) *Engine {
	return &Engine{llm: client, cache: c, logger: logger}
}

// ResearchCompany returns cached-or-fresh company information. Cache-aside:
// a hit skips the model entirely; a miss makes exactly one model call,
// caches the parsed result for 24h, and never caches the fallback so a
// later request can retry generation.
func (e *Engine) ResearchCompany(ctx context.Context, companyName string) (Result[CompanyInfo], error) {
	key := cache.CompanyInfoKey(companyName)

	var cached CompanyInfo
	if cache.GetJSON(ctx, e.cache, key, SchemaCompanyInfo, &cached) {
		return Ok(cached), nil
	}

	v, err, _ := e.flight.Do(key, func() (interface{}, error) {
		// A coalesced waiter may arrive after the leader cached the value.
		var again CompanyInfo
		if cache.GetJSON(ctx, e.cache, key, SchemaCompanyInfo, &again) {
			return Ok(again), nil
		}

		text, _, err := e.llm.Complete(ctx, types.CompletionRequest{
			System:      researchSystemPrompt,
			Prompt:      companyResearchPrompt(companyName),
			Temperature: analyticalTemperature,
			MaxTokens:   1024,
		})
		if err != nil {
			return nil, fmt.Errorf("company research: %w", err)
		}

		var info CompanyInfo
		if perr := parseModelJSON(text, &info); perr != nil {
			e.logger.Warn("company research degraded to fallback",
				zap.String("company", companyName), zap.Error(perr))
			return Degraded(fallbackCompanyInfo(companyName), perr.Error()), nil
		}
		if info.Name == "" {
			info.Name = companyName
		}

		cache.SetJSON(ctx, e.cache, key, SchemaCompanyInfo, info, CompanyInfoTTL)
		return Ok(info), nil
	})
	if err != nil {
		return Result[CompanyInfo]{}, err
	}
	return v.(Result[CompanyInfo]), nil
}

// AnalyzeJobContext extracts structure from a job posting. Specific to one
// posting and one request, so never cached.
func (e *Engine) AnalyzeJobContext(ctx context.Context, jobTitle, companyName, jobDescription string) (Result[JobContext], error) {
	text, _, err := e.llm.Complete(ctx, types.CompletionRequest{
		System:      researchSystemPrompt,
		Prompt:      jobContextPrompt(jobTitle, companyName, jobDescription),
		Temperature: analyticalTemperature,
		MaxTokens:   768,
	})
	if err != nil {
		return Result[JobContext]{}, fmt.Errorf("job context analysis: %w", err)
	}

	var jc JobContext
	if perr := parseModelJSON(text, &jc); perr != nil {
		e.logger.Warn("job context analysis degraded to fallback",
			zap.String("job_title", jobTitle), zap.Error(perr))
		return Degraded(fallbackJobContext(jobTitle, companyName), perr.Error()), nil
	}
	if jc.Title == "" {
		jc.Title = jobTitle
	}
	if jc.Company == "" {
		jc.Company = companyName
	}
	return Ok(jc), nil
}

// GenerateConnectionPoints combines profile, company and job context into
// concrete angles for the letter. Ephemeral: recomputed per request, never
// cached. The company input must be fully resolved before this stage runs.
func (e *Engine) GenerateConnectionPoints(ctx context.Context, profile UserProfile, company CompanyInfo, job JobContext) (Result[[]ConnectionPoint], error) {
	text, _, err := e.llm.Complete(ctx, types.CompletionRequest{
		System:      researchSystemPrompt,
		Prompt:      connectionPointsPrompt(profile, company, job),
		Temperature: connectionTemperature,
		MaxTokens:   768,
	})
	if err != nil {
		return Result[[]ConnectionPoint]{}, fmt.Errorf("connection points: %w", err)
	}

	var points []ConnectionPoint
	if perr := parseModelJSON(text, &points); perr != nil || len(points) == 0 {
		reason := "empty connection point list"
		if perr != nil {
			reason = perr.Error()
		}
		e.logger.Warn("connection points degraded to fallback", zap.String("reason", reason))
		return Degraded(fallbackConnectionPoints(profile, company, job), reason), nil
	}
	return Ok(points), nil
}

// GenerateLetter produces the letter body from all prior stage outputs.
// The output is free text, not JSON; an empty completion is an error
// because there is no sensible generic letter to substitute.
func (e *Engine) GenerateLetter(ctx context.Context, profile UserProfile, company CompanyInfo, job JobContext, points []ConnectionPoint) (string, error) {
	text, _, err := e.llm.Complete(ctx, types.CompletionRequest{
		System:      letterSystemPrompt,
		Prompt:      letterPrompt(profile, company, job, points),
		Temperature: creativeTemperature,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("letter generation: %w", err)
	}
	body := strings.TrimSpace(text)
	if body == "" {
		return "", fmt.Errorf("letter generation: empty completion")
	}
	return body, nil
}

// AnalyzeCV reviews raw CV text.
func (e *Engine) AnalyzeCV(ctx context.Context, cvText string) (Result[CVAnalysis], error) {
	text, _, err := e.llm.Complete(ctx, types.CompletionRequest{
		System:      researchSystemPrompt,
		Prompt:      cvAnalysisPrompt(cvText),
		Temperature: analyticalTemperature,
		MaxTokens:   768,
	})
	if err != nil {
		return Result[CVAnalysis]{}, fmt.Errorf("cv analysis: %w", err)
	}

	var analysis CVAnalysis
	if perr := parseModelJSON(text, &analysis); perr != nil {
		e.logger.Warn("cv analysis degraded to fallback", zap.Error(perr))
		return Degraded(fallbackCVAnalysis(), perr.Error()), nil
	}
	return Ok(analysis), nil
}

// MatchJob scores a profile against an analyzed posting.
func (e *Engine) MatchJob(ctx context.Context, profile UserProfile, job JobContext) (Result[JobMatch], error) {
	text, _, err := e.llm.Complete(ctx, types.CompletionRequest{
		System:      researchSystemPrompt,
		Prompt:      jobMatchPrompt(profile, job),
		Temperature: analyticalTemperature,
		MaxTokens:   512,
	})
	if err != nil {
		return Result[JobMatch]{}, fmt.Errorf("job match: %w", err)
	}

	var match JobMatch
	if perr := parseModelJSON(text, &match); perr != nil {
		e.logger.Warn("job match degraded to fallback", zap.Error(perr))
		return Degraded(fallbackJobMatch(job), perr.Error()), nil
	}
	return Ok(match), nil
}

// PredictInsights returns the day's predictive market report, cache-aside
// under the date key with a 24h TTL. The fallback report is never cached.
func (e *Engine) PredictInsights(ctx context.Context, date time.Time) (Result[MarketInsights], error) {
	key := cache.MarketInsightsKey(date)
	day := date.Format("2006-01-02")

	var cached MarketInsights
	if cache.GetJSON(ctx, e.cache, key, SchemaMarketInsights, &cached) {
		return Ok(cached), nil
	}

	v, err, _ := e.flight.Do(key, func() (interface{}, error) {
		var again MarketInsights
		if cache.GetJSON(ctx, e.cache, key, SchemaMarketInsights, &again) {
			return Ok(again), nil
		}

		text, _, err := e.llm.Complete(ctx, types.CompletionRequest{
			System:      researchSystemPrompt,
			Prompt:      marketInsightsPrompt(day),
			Temperature: analyticalTemperature,
			MaxTokens:   512,
		})
		if err != nil {
			return nil, fmt.Errorf("market insights: %w", err)
		}

		var insights MarketInsights
		if perr := parseModelJSON(text, &insights); perr != nil {
			e.logger.Warn("market insights degraded to fallback",
				zap.String("date", day), zap.Error(perr))
			return Degraded(fallbackMarketInsights(date), perr.Error()), nil
		}
		if insights.Date == "" {
			insights.Date = day
		}

		cache.SetJSON(ctx, e.cache, key, SchemaMarketInsights, insights, MarketInsightsTTL)
		return Ok(insights), nil
	})
	if err != nil {
		return Result[MarketInsights]{}, err
	}
	return v.(Result[MarketInsights]), nil
}
