// Package research implements the analysis stages of the generation
// pipeline: company research, job-context analysis, connection points,
// CV analysis, job matching and predictive market insights.
//
// Each stage makes at most one model call per request. The model's text is
// parsed strictly; on parse failure the stage substitutes a hand-authored
// fallback object and reports the result as degraded instead of retrying.
// Transport errors from the model propagate to the orchestrator.
package research

// Schema versions for cached value types. Bump when a shape changes so old
// cache entries read as misses instead of deserializing into mismatched
// structures.
const (
	SchemaCompanyInfo    = 1
	SchemaMarketInsights = 1
	SchemaUserProfile    = 1
)

// Result tags a stage output as genuinely personalized (Ok) or substituted
// from a static fallback after a parse failure (Degraded).
type Result[T any] struct {
	Value    T
	Degraded bool
	Reason   string // parse-failure description when degraded
}

// Ok wraps a successfully parsed stage output.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Degraded wraps a fallback stage output with the reason personalization
// was lost.
func Degraded[T any](v T, reason string) Result[T] {
	return Result[T]{Value: v, Degraded: true, Reason: reason}
}

// CompanyInfo is the researched profile of an employer. Produced at most
// once per company per 24h window; the fallback shape is never cached so a
// later request can retry generation.
type CompanyInfo struct {
	Name            string   `json:"name"`
	Industry        string   `json:"industry"`
	Description     string   `json:"description"`
	Values          []string `json:"values"`
	RecentNews      []string `json:"recentNews"`
	Culture         string   `json:"culture"`
	Size            string   `json:"size"`
	Founded         string   `json:"founded"`
	Headquarters    string   `json:"headquarters"`
	KeyPeople       []string `json:"keyPeople"`
	Products        []string `json:"products"`
	Competitors     []string `json:"competitors"`
	SocialImpact    string   `json:"socialImpact"`
	WorkEnvironment string   `json:"workEnvironment"`
}

// ExperienceEntry is one position in a user's history.
type ExperienceEntry struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Period      string `json:"period"`
	Description string `json:"description"`
}

// EducationEntry is one degree or certification.
type EducationEntry struct {
	Degree string `json:"degree"`
	School string `json:"school"`
	Year   string `json:"year"`
}

// UserProfile is consumed by the stages but owned elsewhere. When a user
// has no stored profile the canonical default is substituted; the default
// itself is never persisted.
type UserProfile struct {
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Summary    string            `json:"summary"`
	Skills     []string          `json:"skills"`
	Experience []ExperienceEntry `json:"experience"`
	Education  []EducationEntry  `json:"education"`
	Languages  []string          `json:"languages"`
	Interests  []string          `json:"interests"`
}

// JobContext is the analyzed content of a job posting. Specific to one
// posting, low reuse value, therefore never cached.
type JobContext struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	Seniority        string   `json:"seniority"`
	KeyRequirements  []string `json:"keyRequirements"`
	Responsibilities []string `json:"responsibilities"`
	Keywords         []string `json:"keywords"`
	Tone             string   `json:"tone"`
}

// ConnectionPoint links an element of the candidate's profile to something
// concrete about the company or role. Ephemeral, recomputed per request.
type ConnectionPoint struct {
	Topic          string `json:"topic"`
	ProfileElement string `json:"profileElement"`
	CompanyElement string `json:"companyElement"`
	Pitch          string `json:"pitch"`
}

// CVAnalysis is the structured review of a CV against current hiring
// practice.
type CVAnalysis struct {
	Score           int      `json:"score"` // 0-100
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Suggestions     []string `json:"suggestions"`
	MissingKeywords []string `json:"missingKeywords"`
}

// JobMatch scores a profile against an analyzed job posting.
type JobMatch struct {
	Score           int      `json:"score"` // 0-100
	Verdict         string   `json:"verdict"`
	MatchingSkills  []string `json:"matchingSkills"`
	MissingSkills   []string `json:"missingSkills"`
	Recommendations []string `json:"recommendations"`
}

// MarketInsights is the predictive job-market report generated once per day.
type MarketInsights struct {
	Date                string   `json:"date"` // YYYY-MM-DD
	TrendingSkills      []string `json:"trendingSkills"`
	HotIndustries       []string `json:"hotIndustries"`
	AverageApplications int      `json:"averageApplications"`
	InterviewRate       float64  `json:"interviewRate"`
	Advice              []string `json:"advice"`
}
