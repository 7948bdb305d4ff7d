package research

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/motivai/motivai-engine/internal/cache"
	"github.com/motivai/motivai-engine/internal/llm/types"
)

// fakeLLM is a scripted completion client.
type fakeLLM struct {
	mu      sync.Mutex
	calls   []types.CompletionRequest
	respond func(req types.CompletionRequest) (string, error)
}

func (f *fakeLLM) Complete(_ context.Context, req types.CompletionRequest) (string, types.Usage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	text, err := f.respond(req)
	return text, types.Usage{TotalTokens: 10}, err
}

func (f *fakeLLM) Provider() string { return "fake" }
func (f *fakeLLM) Model() string    { return "fake-model" }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

const validCompanyJSON = `{
  "name": "TechCorp", "industry": "Logiciel", "description": "Editeur SaaS",
  "values": ["innovation"], "recentNews": ["levée de fonds"], "culture": "agile",
  "size": "200", "founded": "2015", "headquarters": "Paris",
  "keyPeople": ["Jane Doe"], "products": ["plateforme"], "competitors": ["AutreCorp"],
  "socialImpact": "mécénat", "workEnvironment": "hybride"
}`

func newTestEngine(respond func(types.CompletionRequest) (string, error)) (*Engine, *fakeLLM, *cache.Memory) {
	f := &fakeLLM{respond: respond}
	mem := cache.NewMemory()
	return NewEngine(f, mem, zap.NewNop()), f, mem
}

func TestResearchCompanyCachesFor24h(t *testing.T) {
	e, f, _ := newTestEngine(func(types.CompletionRequest) (string, error) {
		return validCompanyJSON, nil
	})
	ctx := context.Background()

	res, err := e.ResearchCompany(ctx, "TechCorp")
	if err != nil {
		t.Fatalf("ResearchCompany: %v", err)
	}
	if res.Degraded {
		t.Fatalf("unexpected degraded result: %s", res.Reason)
	}
	if res.Value.Industry != "Logiciel" {
		t.Errorf("got %+v", res.Value)
	}
	if f.callCount() != 1 {
		t.Fatalf("expected 1 model call, got %d", f.callCount())
	}

	// Repeat within the TTL window: cache hit, no second model call,
	// regardless of name casing and spacing.
	for _, name := range []string{"TechCorp", "techcorp", "  TECH  CORP "} {
		res, err = e.ResearchCompany(ctx, name)
		if err != nil {
			t.Fatalf("ResearchCompany(%q): %v", name, err)
		}
		if res.Value.Name != "TechCorp" {
			t.Errorf("ResearchCompany(%q) = %+v", name, res.Value)
		}
	}
	if f.callCount() != 1 {
		t.Errorf("cache hit must skip the model, got %d calls", f.callCount())
	}
}

func TestResearchCompanyFallbackIsNotCached(t *testing.T) {
	e, f, mem := newTestEngine(func(types.CompletionRequest) (string, error) {
		return "I'd rather write prose.", nil
	})
	ctx := context.Background()

	res, err := e.ResearchCompany(ctx, "TechCorp")
	if err != nil {
		t.Fatalf("ResearchCompany: %v", err)
	}
	if !res.Degraded {
		t.Fatal("parse failure must yield a degraded result")
	}
	assertCompanyInfoComplete(t, res.Value)

	if mem.Len() != 0 {
		t.Error("fallback must not be cached, so a future request can retry")
	}

	// A later request retries generation instead of reusing the fallback.
	if _, err := e.ResearchCompany(ctx, "TechCorp"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.callCount() != 2 {
		t.Errorf("expected retry model call, got %d calls", f.callCount())
	}
}

func TestResearchCompanyTransportErrorPropagates(t *testing.T) {
	e, _, _ := newTestEngine(func(types.CompletionRequest) (string, error) {
		return "", errors.New("connection reset")
	})
	if _, err := e.ResearchCompany(context.Background(), "TechCorp"); err == nil {
		t.Fatal("transport errors must propagate to the orchestrator")
	}
}

func TestAnalyzeJobContextIsNotCached(t *testing.T) {
	e, f, mem := newTestEngine(func(types.CompletionRequest) (string, error) {
		return `{"title":"Dev","company":"TechCorp","seniority":"senior",
			"keyRequirements":["Go"],"responsibilities":["build"],"keywords":["go"],"tone":"direct"}`, nil
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := e.AnalyzeJobContext(ctx, "Dev", "TechCorp", "Build services.")
		if err != nil {
			t.Fatalf("AnalyzeJobContext: %v", err)
		}
		if res.Degraded || res.Value.Seniority != "senior" {
			t.Errorf("got %+v", res)
		}
	}
	if f.callCount() != 2 {
		t.Errorf("job context must be recomputed per request, got %d calls", f.callCount())
	}
	if mem.Len() != 0 {
		t.Error("job context must not be cached")
	}
}

func TestConnectionPointsFallbackShape(t *testing.T) {
	e, _, _ := newTestEngine(func(types.CompletionRequest) (string, error) {
		return "[]", nil // parses but empty: still degraded
	})

	res, err := e.GenerateConnectionPoints(context.Background(),
		DefaultProfile(), fallbackCompanyInfo("TechCorp"), fallbackJobContext("Dev", "TechCorp"))
	if err != nil {
		t.Fatalf("GenerateConnectionPoints: %v", err)
	}
	if !res.Degraded {
		t.Fatal("empty list must degrade to fallback")
	}
	if len(res.Value) < 3 {
		t.Fatalf("fallback must offer at least 3 points, got %d", len(res.Value))
	}
	for i, p := range res.Value {
		if p.Topic == "" || p.ProfileElement == "" || p.CompanyElement == "" || p.Pitch == "" {
			t.Errorf("point %d has empty fields: %+v", i, p)
		}
	}
}

func TestGenerateLetterEmptyCompletionIsError(t *testing.T) {
	e, _, _ := newTestEngine(func(types.CompletionRequest) (string, error) {
		return "   \n", nil
	})
	_, err := e.GenerateLetter(context.Background(),
		DefaultProfile(), fallbackCompanyInfo("TechCorp"), fallbackJobContext("Dev", "TechCorp"), nil)
	if err == nil {
		t.Fatal("empty letter completion must be an error")
	}
}

func TestAnalyzeCVFallbackShape(t *testing.T) {
	e, _, _ := newTestEngine(func(types.CompletionRequest) (string, error) {
		return "no json here", nil
	})
	res, err := e.AnalyzeCV(context.Background(), "Jean Dupont — 10 ans d'expérience")
	if err != nil {
		t.Fatalf("AnalyzeCV: %v", err)
	}
	if !res.Degraded {
		t.Fatal("parse failure must degrade")
	}
	v := res.Value
	if v.Score == 0 || v.Summary == "" || len(v.Strengths) == 0 ||
		len(v.Weaknesses) == 0 || len(v.Suggestions) == 0 || len(v.MissingKeywords) == 0 {
		t.Errorf("fallback CV analysis has missing fields: %+v", v)
	}
}

func TestPredictInsightsCachedByDate(t *testing.T) {
	e, f, _ := newTestEngine(func(types.CompletionRequest) (string, error) {
		return `{"date":"2026-08-31","trendingSkills":["Go"],"hotIndustries":["tech"],
			"averageApplications":40,"interviewRate":0.2,"advice":["réseauter"]}`, nil
	})
	ctx := context.Background()
	day := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		res, err := e.PredictInsights(ctx, day)
		if err != nil {
			t.Fatalf("PredictInsights: %v", err)
		}
		if res.Degraded || res.Value.Date != "2026-08-31" {
			t.Errorf("got %+v", res)
		}
	}
	if f.callCount() != 1 {
		t.Errorf("same-day insights must be served from cache, got %d calls", f.callCount())
	}
}

func TestConcurrentCompanyResearchCoalesces(t *testing.T) {
	release := make(chan struct{})
	e, f, _ := newTestEngine(func(types.CompletionRequest) (string, error) {
		<-release
		return validCompanyJSON, nil
	})
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ResearchCompany(ctx, "TechCorp")
			errs <- err
		}()
	}

	// Give the goroutines time to pile onto the same flight, then release.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("ResearchCompany: %v", err)
		}
	}
	if got := f.callCount(); got != 1 {
		t.Errorf("concurrent misses must share one model call, got %d", got)
	}
}

func assertCompanyInfoComplete(t *testing.T, c CompanyInfo) {
	t.Helper()
	if c.Name == "" || c.Industry == "" || c.Description == "" || c.Culture == "" ||
		c.Size == "" || c.Founded == "" || c.Headquarters == "" ||
		c.SocialImpact == "" || c.WorkEnvironment == "" {
		t.Errorf("company info has empty scalar fields: %+v", c)
	}
	if len(c.Values) == 0 || len(c.RecentNews) == 0 || len(c.KeyPeople) == 0 ||
		len(c.Products) == 0 || len(c.Competitors) == 0 {
		t.Errorf("company info has empty list fields: %+v", c)
	}
}
