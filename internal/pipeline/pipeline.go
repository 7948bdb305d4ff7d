// Package pipeline sequences the generation stages into use cases: cover
// letter generation, CV analysis and daily market insights.
//
// A run moves through a fixed set of states; any unrecovered error makes
// FAILED the terminal state for that request. There are no retry
// transitions (the caller resubmits) and no idempotency: every invocation
// mints a new artifact id even for identical inputs.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/motivai/motivai-engine/internal/cache"
	"github.com/motivai/motivai-engine/internal/metrics"
	"github.com/motivai/motivai-engine/internal/research"
	"github.com/motivai/motivai-engine/internal/store"
)

// Pipeline states.
type State string

const (
	StateStart                State = "START"
	StateProfileResolved      State = "PROFILE_RESOLVED"
	StateCompanyResolved      State = "COMPANY_RESOLVED"
	StateContextAnalyzed      State = "CONTEXT_ANALYZED"
	StateConnectionsGenerated State = "CONNECTIONS_GENERATED"
	StateContentGenerated     State = "CONTENT_GENERATED"
	StatePersisted            State = "PERSISTED"
	StateDone                 State = "DONE"
	StateFailed               State = "FAILED"
)

// SchemaArtifact versions cached artifacts.
const SchemaArtifact = 1

// ArtifactTTL bounds how long finished artifacts stay cached by id.
const ArtifactTTL = 24 * time.Hour

// ValidationError reports missing required request fields. It short-circuits
// the pipeline before any cache or model call.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// RunError wraps an unrecovered stage error with the state it interrupted.
type RunError struct {
	State State
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.State, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Request is the cover-letter generation input.
type Request struct {
	JobTitle       string `json:"jobTitle"`
	CompanyName    string `json:"companyName"`
	JobDescription string `json:"jobDescription"`
	UserID         string `json:"userId,omitempty"`

	// GenerateImage is accepted for client compatibility but ignored:
	// image generation happens outside this engine.
	GenerateImage bool `json:"generateImage,omitempty"`
}

// CVRequest is the CV-analysis input. Job fields are optional; when all
// three are present a job-match analysis is included.
type CVRequest struct {
	CVText         string `json:"cvText"`
	JobTitle       string `json:"jobTitle,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
	JobDescription string `json:"jobDescription,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

// Personalization records how each stage resolved, so a genuinely
// personalized artifact is distinguishable from one built on fallbacks.
type Personalization struct {
	CompanyDegraded     bool                       `json:"companyDegraded"`
	ContextDegraded     bool                       `json:"contextDegraded"`
	ConnectionsDegraded bool                       `json:"connectionsDegraded"`
	DegradedReasons     []string                   `json:"degradedReasons,omitempty"`
	Company             research.CompanyInfo       `json:"company"`
	JobContext          research.JobContext        `json:"jobContext"`
	ConnectionPoints    []research.ConnectionPoint `json:"connectionPoints"`
}

// Degraded reports whether any stage fell back to generic content.
func (p Personalization) Degraded() bool {
	return p.CompanyDegraded || p.ContextDegraded || p.ConnectionsDegraded
}

// Artifact is a finished pipeline output.
type Artifact struct {
	ID              string          `json:"id"`
	Kind            string          `json:"kind"`
	JobTitle        string          `json:"jobTitle"`
	CompanyName     string          `json:"companyName"`
	JobDescription  string          `json:"jobDescription"`
	UserID          string          `json:"userId,omitempty"`
	Content         string          `json:"generated_content"`
	Provider        string          `json:"provider"`
	Model           string          `json:"model"`
	Personalization Personalization `json:"personalization"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ModelInfo identifies the completion provider for artifact provenance.
type ModelInfo interface {
	Provider() string
	Model() string
}

// Orchestrator runs the generation use cases.
type Orchestrator struct {
	engine *research.Engine
	store  store.Store
	cache  cache.Cache
	model  ModelInfo
	logger *zap.Logger
	now    func() time.Time
}

// New wires the orchestrator to its collaborators.
func New(engine *research.Engine, st store.Store, c cache.Cache, model ModelInfo, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		store:  st,
		cache:  c,
		model:  model,
		logger: logger,
		now:    time.Now,
	}
}

// GenerateLetter runs the full cover-letter pipeline:
// profile → company → job context → connection points → letter → persist.
// Stage n+1 never starts before stage n's output is available.
func (o *Orchestrator) GenerateLetter(ctx context.Context, req Request) (*Artifact, error) {
	start := o.now()
	state := StateStart

	if err := validateLetterRequest(req); err != nil {
		metrics.GenerationsTotal.WithLabelValues(store.KindCoverLetter, "invalid").Inc()
		return nil, err
	}

	fail := func(err error) (*Artifact, error) {
		metrics.GenerationsTotal.WithLabelValues(store.KindCoverLetter, "failed").Inc()
		o.logger.Error("letter pipeline failed",
			zap.String("state", string(state)),
			zap.String("company", req.CompanyName),
			zap.Error(err))
		return nil, &RunError{State: state, Err: err}
	}

	// 1. Resolve the user profile: cache, then store, then canonical default.
	profile := o.resolveProfile(ctx, req.UserID)
	state = StateProfileResolved

	// 2. Fetch-or-generate company research (cached 24h).
	company, err := o.engine.ResearchCompany(ctx, req.CompanyName)
	if err != nil {
		return fail(err)
	}
	state = StateCompanyResolved

	// 3. Analyze the job posting.
	jobCtx, err := o.engine.AnalyzeJobContext(ctx, req.JobTitle, req.CompanyName, req.JobDescription)
	if err != nil {
		return fail(err)
	}
	state = StateContextAnalyzed

	// 4. Connection points from the fully resolved triple.
	points, err := o.engine.GenerateConnectionPoints(ctx, profile, company.Value, jobCtx.Value)
	if err != nil {
		return fail(err)
	}
	state = StateConnectionsGenerated

	// 5. Letter body from all prior outputs.
	body, err := o.engine.GenerateLetter(ctx, profile, company.Value, jobCtx.Value, points.Value)
	if err != nil {
		return fail(err)
	}
	state = StateContentGenerated

	personalization := Personalization{
		CompanyDegraded:     company.Degraded,
		ContextDegraded:     jobCtx.Degraded,
		ConnectionsDegraded: points.Degraded,
		Company:             company.Value,
		JobContext:          jobCtx.Value,
		ConnectionPoints:    points.Value,
	}
	for _, reason := range []string{company.Reason, jobCtx.Reason, points.Reason} {
		if reason != "" {
			personalization.DegradedReasons = append(personalization.DegradedReasons, reason)
		}
	}

	artifact := &Artifact{
		ID:              uuid.NewString(),
		Kind:            store.KindCoverLetter,
		JobTitle:        req.JobTitle,
		CompanyName:     req.CompanyName,
		JobDescription:  req.JobDescription,
		UserID:          req.UserID,
		Content:         body,
		Provider:        o.model.Provider(),
		Model:           o.model.Model(),
		Personalization: personalization,
		CreatedAt:       o.now().UTC(),
	}

	// 6. Persist. Failure here is pipeline-fatal: no counter, no cache entry.
	if err := o.persist(ctx, artifact); err != nil {
		return fail(err)
	}
	state = StatePersisted

	// 7. Cache the finished artifact and count the day's usage. Both are
	// fail-soft and never undo a successful run. The counter key uses the
	// UTC date, matching every other reader of DailyUsageKey.
	cache.SetJSON(ctx, o.cache, cache.CoverLetterKey(artifact.ID), SchemaArtifact, artifact, ArtifactTTL)
	o.cache.Incr(ctx, cache.DailyUsageKey(o.now().UTC()))
	state = StateDone

	status := "ok"
	if personalization.Degraded() {
		status = "degraded"
	}
	metrics.GenerationsTotal.WithLabelValues(store.KindCoverLetter, status).Inc()
	metrics.GenerationDuration.WithLabelValues(store.KindCoverLetter).Observe(o.now().Sub(start).Seconds())

	o.logger.Info("letter generated",
		zap.String("artifact_id", artifact.ID),
		zap.String("company", req.CompanyName),
		zap.Bool("degraded", personalization.Degraded()))
	return artifact, nil
}

// CVAnalysisReport is the combined output of the CV use case.
type CVAnalysisReport struct {
	Analysis research.CVAnalysis `json:"analysis"`
	Match    *research.JobMatch  `json:"match,omitempty"`
}

// AnalyzeCV runs the CV-analysis use case, optionally followed by a
// job-match analysis, and persists the combined report as an artifact.
func (o *Orchestrator) AnalyzeCV(ctx context.Context, req CVRequest) (*Artifact, error) {
	start := o.now()
	state := StateStart

	if strings.TrimSpace(req.CVText) == "" {
		metrics.GenerationsTotal.WithLabelValues(store.KindCVAnalysis, "invalid").Inc()
		return nil, &ValidationError{Fields: []string{"cvText"}}
	}

	fail := func(err error) (*Artifact, error) {
		metrics.GenerationsTotal.WithLabelValues(store.KindCVAnalysis, "failed").Inc()
		o.logger.Error("cv pipeline failed", zap.String("state", string(state)), zap.Error(err))
		return nil, &RunError{State: state, Err: err}
	}

	profile := o.resolveProfile(ctx, req.UserID)
	state = StateProfileResolved

	analysis, err := o.engine.AnalyzeCV(ctx, req.CVText)
	if err != nil {
		return fail(err)
	}
	state = StateContextAnalyzed

	report := CVAnalysisReport{Analysis: analysis.Value}
	degraded := analysis.Degraded
	reasons := []string{}
	if analysis.Reason != "" {
		reasons = append(reasons, analysis.Reason)
	}

	if req.JobTitle != "" && req.CompanyName != "" && req.JobDescription != "" {
		jobCtx, err := o.engine.AnalyzeJobContext(ctx, req.JobTitle, req.CompanyName, req.JobDescription)
		if err != nil {
			return fail(err)
		}
		match, err := o.engine.MatchJob(ctx, profile, jobCtx.Value)
		if err != nil {
			return fail(err)
		}
		report.Match = &match.Value
		degraded = degraded || jobCtx.Degraded || match.Degraded
		for _, r := range []string{jobCtx.Reason, match.Reason} {
			if r != "" {
				reasons = append(reasons, r)
			}
		}
	}
	state = StateContentGenerated

	content, err := json.Marshal(report)
	if err != nil {
		return fail(fmt.Errorf("encode report: %w", err))
	}

	artifact := &Artifact{
		ID:             uuid.NewString(),
		Kind:           store.KindCVAnalysis,
		JobTitle:       req.JobTitle,
		CompanyName:    req.CompanyName,
		JobDescription: req.JobDescription,
		UserID:         req.UserID,
		Content:        string(content),
		Provider:       o.model.Provider(),
		Model:          o.model.Model(),
		Personalization: Personalization{
			ContextDegraded: degraded,
			DegradedReasons: reasons,
		},
		CreatedAt: o.now().UTC(),
	}

	if err := o.persist(ctx, artifact); err != nil {
		return fail(err)
	}
	state = StateDone

	status := "ok"
	if degraded {
		status = "degraded"
	}
	metrics.GenerationsTotal.WithLabelValues(store.KindCVAnalysis, status).Inc()
	metrics.GenerationDuration.WithLabelValues(store.KindCVAnalysis).Observe(o.now().Sub(start).Seconds())
	return artifact, nil
}

// MarketInsights returns the day's predictive report. Cache-aside only:
// the report is regenerated at most once per day and never persisted.
func (o *Orchestrator) MarketInsights(ctx context.Context, date time.Time) (research.Result[research.MarketInsights], error) {
	return o.engine.PredictInsights(ctx, date)
}

// GetArtifact reads an artifact by id, cache first, store second. A store
// hit backfills the cache.
func (o *Orchestrator) GetArtifact(ctx context.Context, id string) (*Artifact, error) {
	var cached Artifact
	if cache.GetJSON(ctx, o.cache, cache.CoverLetterKey(id), SchemaArtifact, &cached) {
		return &cached, nil
	}

	rec, err := o.store.GetArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	artifact, err := artifactFromRecord(rec)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, o.cache, cache.CoverLetterKey(id), SchemaArtifact, artifact, ArtifactTTL)
	return artifact, nil
}

// resolveProfile returns the user's profile from cache, store, or the
// canonical default. The default is never persisted or cached.
func (o *Orchestrator) resolveProfile(ctx context.Context, userID string) research.UserProfile {
	if userID == "" {
		return research.DefaultProfile()
	}

	var profile research.UserProfile
	key := cache.UserProfileKey(userID)
	if cache.GetJSON(ctx, o.cache, key, research.SchemaUserProfile, &profile) {
		return profile
	}

	rec, err := o.store.GetProfile(ctx, userID)
	if err == nil {
		if jerr := json.Unmarshal([]byte(rec.Profile), &profile); jerr == nil {
			cache.SetJSON(ctx, o.cache, key, research.SchemaUserProfile, profile, ArtifactTTL)
			return profile
		}
		o.logger.Warn("stored profile unreadable, using default", zap.String("user_id", userID))
	}
	return research.DefaultProfile()
}

func (o *Orchestrator) persist(ctx context.Context, a *Artifact) error {
	personalization, err := json.Marshal(a.Personalization)
	if err != nil {
		return fmt.Errorf("encode personalization: %w", err)
	}
	rec := &store.ArtifactRecord{
		ID:              a.ID,
		Kind:            a.Kind,
		JobTitle:        a.JobTitle,
		CompanyName:     a.CompanyName,
		JobDescription:  a.JobDescription,
		UserID:          a.UserID,
		Content:         a.Content,
		Provider:        a.Provider,
		Model:           a.Model,
		Personalization: string(personalization),
		CreatedAt:       a.CreatedAt,
	}
	if err := o.store.SaveArtifact(ctx, rec); err != nil {
		return fmt.Errorf("persist artifact: %w", err)
	}
	return nil
}

func artifactFromRecord(rec *store.ArtifactRecord) (*Artifact, error) {
	a := &Artifact{
		ID:             rec.ID,
		Kind:           rec.Kind,
		JobTitle:       rec.JobTitle,
		CompanyName:    rec.CompanyName,
		JobDescription: rec.JobDescription,
		UserID:         rec.UserID,
		Content:        rec.Content,
		Provider:       rec.Provider,
		Model:          rec.Model,
		CreatedAt:      rec.CreatedAt,
	}
	if rec.Personalization != "" {
		if err := json.Unmarshal([]byte(rec.Personalization), &a.Personalization); err != nil {
			return nil, fmt.Errorf("decode personalization for %s: %w", rec.ID, err)
		}
	}
	return a, nil
}

func validateLetterRequest(req Request) error {
	var missing []string
	if strings.TrimSpace(req.JobTitle) == "" {
		missing = append(missing, "jobTitle")
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		missing = append(missing, "companyName")
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		missing = append(missing, "jobDescription")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
