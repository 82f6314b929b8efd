// Package normalize turns raw classifier output into a complete
// ClassificationResult. Normalize is total: whatever the model or the API
// did, the caller always gets a fully populated result and never an error.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/brieflyhq/briefly/internal/model"
)

// Sentinel values backfilled when the model omits a field.
const (
	DefaultSummary        = "Email analyzed"
	DefaultActionRequired = "No immediate action required"
	DefaultDeadlines      = "No deadlines"
	DefaultRisks          = "No significant risks or leverage points identified"
	DefaultSenderGoals    = "General communication"
	DefaultUrgency        = "Standard priority"

	parseFailureSummary = "Unable to analyze email"
	quotaSummary        = "AI analysis unavailable - API quota exceeded. Please upgrade your Gemini API plan."
	authSummary         = "AI analysis unavailable - API authentication failed."
)

// Normalize converts a raw classifier response into a canonical result.
// callErr is the error from the classifier call, if any; it takes precedence
// over rawText.
func Normalize(rawText string, callErr error) model.ClassificationResult {
	if callErr != nil {
		return errorResult(callErr)
	}

	var payload map[string]any
	cleaned := stripCodeFences(rawText)
	if cleaned == "" || json.Unmarshal([]byte(cleaned), &payload) != nil {
		return fallbackResult(parseFailureSummary, false, "{}")
	}

	lane := model.LaneOther
	if asBool(payload["matches_user_profile"]) {
		lane = model.LanePriority
	}

	category := parseCategory(asString(payload["importance_level"]))
	lane, category = reconcile(lane, category)

	score, ok := asInt(payload["importance_score"])
	if !ok {
		score = category.DefaultScore()
	}
	score = clampInt(score, 0, 10)

	var matchScore *float64
	if lane == model.LanePriority {
		if v, found := asFloat(payload["match_score"]); found {
			clamped := clampFloat(v, 0, 100)
			matchScore = &clamped
		}
	}

	return model.ClassificationResult{
		Lane:            lane,
		Category:        category,
		ImportanceScore: score,
		MatchScore:      matchScore,
		Summary:         textField(payload, "executive_summary", DefaultSummary),
		ActionRequired:  textField(payload, "action_required", DefaultActionRequired),
		Deadlines:       textField(payload, "deadlines", DefaultDeadlines),
		RisksLeverage:   textField(payload, "risks_leverage", DefaultRisks),
		SenderGoals:     textField(payload, "sender_goals", DefaultSenderGoals),
		UrgencySignals:  textField(payload, "urgency_signals", DefaultUrgency),
		ReplyDraft:      textField(payload, "reply_draft", ""),
		ExtractedInfo:   extractedInfo(payload["extracted_info"]),
		APIError:        false,
	}
}

// errorResult builds the degraded result for a failed API call. The summary
// names the failure class so the dashboard can explain itself.
func errorResult(callErr error) model.ClassificationResult {
	msg := callErr.Error()
	summary := ""
	switch {
	case containsAny(msg, "429", "RESOURCE_EXHAUSTED", "quota"):
		summary = quotaSummary
	case containsAny(msg, "403", "PERMISSION_DENIED"):
		summary = authSummary
	default:
		summary = "Analysis error: " + truncate(msg, 50) + "..."
	}

	info, _ := json.Marshal(map[string]string{"error": truncate(msg, 200)})
	return fallbackResult(summary, true, string(info))
}

func fallbackResult(summary string, apiError bool, info string) model.ClassificationResult {
	return model.ClassificationResult{
		Lane:            model.LaneOther,
		Category:        model.CategoryLow,
		ImportanceScore: model.CategoryLow.DefaultScore(),
		Summary:         summary,
		ActionRequired:  DefaultActionRequired,
		Deadlines:       "None",
		RisksLeverage:   DefaultRisks,
		SenderGoals:     "Unknown",
		UrgencySignals:  "None",
		ReplyDraft:      "",
		ExtractedInfo:   info,
		APIError:        apiError,
	}
}

// reconcile forces the lane/category pair onto the allowed grid. Priority
// items are never LOW; other items are never CRITICAL.
func reconcile(lane model.Lane, category model.Category) (model.Lane, model.Category) {
	if lane != model.LanePriority {
		lane = model.LaneOther
	}
	if category.ValidFor(lane) {
		return lane, category
	}
	if lane == model.LanePriority {
		return lane, model.CategoryStandard
	}
	return lane, model.CategoryHigh
}

func parseCategory(raw string) model.Category {
	lowered := strings.ToLower(raw)
	switch {
	case strings.Contains(lowered, "critical"):
		return model.CategoryCritical
	case strings.Contains(lowered, "important"), strings.Contains(lowered, "high"):
		return model.CategoryHigh
	case strings.Contains(lowered, "useful"), strings.Contains(lowered, "standard"):
		return model.CategoryStandard
	default:
		return model.CategoryLow
	}
}

// stripCodeFences removes markdown wrappers models like to add around JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func textField(payload map[string]any, key, fallback string) string {
	if v := strings.TrimSpace(asString(payload[key])); v != "" {
		return v
	}
	return fallback
}

func extractedInfo(v any) string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return "{}"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		lowered := strings.ToLower(strings.TrimSpace(t))
		return lowered == "true" || lowered == "yes"
	default:
		return false
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func clampFloat(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
