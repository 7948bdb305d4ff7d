package cache

import (
	"strings"
	"time"
)

// Cache key builders. Every cached value in the engine derives its key from
// one of these functions so that the same logical identifier always maps to
// one key.

// UserProfileKey returns the cache key for a user's profile.
func UserProfileKey(userID string) string {
	return "user:profile:" + userID
}

// CoverLetterKey returns the cache key for a generated letter artifact.
func CoverLetterKey(letterID string) string {
	return "letter:" + letterID
}

// CompanyInfoKey returns the cache key for researched company information.
// Company names are normalized so that "Tech Corp", "tech corp" and
// "  TECH   CORP " all map to the same key.
func CompanyInfoKey(companyName string) string {
	return "company:info:" + NormalizeCompanyName(companyName)
}

// MarketInsightsKey returns the cache key for predictive market insights
// for a given day.
func MarketInsightsKey(date time.Time) string {
	return "insights:market:" + date.Format("2006-01-02")
}

// JobAnalysisKey returns the cache key for a job-context analysis.
func JobAnalysisKey(jobID string) string {
	return "job:analysis:" + jobID
}

// DailyUsageKey returns the counter key for generations performed on a day.
func DailyUsageKey(date time.Time) string {
	return "usage:daily:" + date.Format("2006-01-02")
}

// RealTimeStatsKey is the cache key for the latest activity snapshot.
const RealTimeStatsKey = "analytics:realtime"

// SystemMetricsKey is the cache key for the latest system-health snapshot.
const SystemMetricsKey = "analytics:system"

// NormalizeCompanyName lowercases a company name and collapses runs of
// whitespace into single hyphens.
func NormalizeCompanyName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
