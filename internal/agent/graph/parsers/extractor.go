package parsers

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/negotiation-sim/server/internal/agent/model"
	logx "github.com/negotiation-sim/server/pkg/logger"
)

// Tier identifies which stage of the repair pipeline produced a payload.
type Tier int

const (
	TierDirect Tier = iota + 1
	TierRepaired
	TierFieldRecovery
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierDirect:
		return "direct"
	case TierRepaired:
		return "repaired"
	case TierFieldRecovery:
		return "field_recovery"
	case TierFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// oversized inputs are parsed in full but reported
const (
	maxContentLen = 128 * 1024
	maxErrSnippet = 200
)

// Result is a fully typed payload annotated with the tier that produced it.
type Result[T any] struct {
	Value   T
	Tier    Tier
	Repairs []string
}

// ExtractTurn recovers a counterpart turn (reply, emotion, analysis, feedback).
// It never fails; unusable input yields FallbackTurn.
func ExtractTurn(raw string) (res Result[model.TurnPayload]) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(model.ModeTurn, r)
			res = Result[model.TurnPayload]{Value: FallbackTurn(), Tier: TierFallback}
		}
	}()

	raw = guard(raw)
	m, tier, repairs := structural(raw, hasKey("message"))
	if tier == TierFallback {
		logFallback(model.ModeTurn, raw)
		return Result[model.TurnPayload]{Value: FallbackTurn(), Tier: TierFallback}
	}
	logTier(model.ModeTurn, tier, repairs)
	return Result[model.TurnPayload]{Value: toTurn(m), Tier: tier, Repairs: repairs}
}

// ExtractAnalysis recovers a standalone analysis. It never fails.
func ExtractAnalysis(raw string) (res Result[model.AnalysisResult]) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(model.ModeAnalysis, r)
			res = Result[model.AnalysisResult]{Value: FallbackAnalysis(), Tier: TierFallback}
		}
	}()

	raw = guard(raw)
	m, tier, repairs := structural(raw, hasKey("negotiationScore"))
	if tier == TierFallback {
		logFallback(model.ModeAnalysis, raw)
		return Result[model.AnalysisResult]{Value: FallbackAnalysis(), Tier: TierFallback}
	}
	logTier(model.ModeAnalysis, tier, repairs)
	return Result[model.AnalysisResult]{Value: toAnalysis(m), Tier: tier, Repairs: repairs}
}

// ExtractSuggestions recovers exactly SuggestionSetSize suggestions. Besides
// the structural tiers it can rebuild pairs from loose text/approach fields.
func ExtractSuggestions(raw string) (res Result[[]model.Suggestion]) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(model.ModeSuggestion, r)
			res = Result[[]model.Suggestion]{Value: FallbackSuggestions(), Tier: TierFallback}
		}
	}()

	raw = guard(raw)
	m, tier, repairs := structural(raw, hasSuggestions)
	if tier != TierFallback {
		logTier(model.ModeSuggestion, tier, repairs)
		return Result[[]model.Suggestion]{Value: toSuggestions(m), Tier: tier, Repairs: repairs}
	}

	scope := raw
	if i := strings.IndexByte(raw, '{'); i >= 0 {
		scope = raw[i:]
	}
	if pairs := recoverSuggestionPairs(scope); len(pairs) > 0 {
		logTier(model.ModeSuggestion, TierFieldRecovery, nil)
		return Result[[]model.Suggestion]{Value: normalizeSuggestions(pairs), Tier: TierFieldRecovery}
	}

	logFallback(model.ModeSuggestion, raw)
	return Result[[]model.Suggestion]{Value: FallbackSuggestions(), Tier: TierFallback}
}

// structural runs the direct parse and then the cumulative repairs against
// the substring between the first '{' and the last '}'.
func structural(raw string, accept func(map[string]any) bool) (map[string]any, Tier, []string) {
	candidate, ok := locate(raw)
	if !ok {
		return nil, TierFallback, nil
	}
	if m, ok := parseObject(candidate); ok && accept(m) {
		return m, TierDirect, nil
	}
	applied := make([]string, 0, len(Repairs))
	for _, r := range Repairs {
		candidate = r.Apply(candidate)
		applied = append(applied, r.Name)
		if m, ok := parseObject(candidate); ok && accept(m) {
			return m, TierRepaired, applied
		}
	}
	return nil, TierFallback, nil
}

func locate(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func parseObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func hasKey(key string) func(map[string]any) bool {
	return func(m map[string]any) bool {
		_, ok := m[key]
		return ok
	}
}

func hasSuggestions(m map[string]any) bool {
	return len(suggestionEntries(m)) > 0
}

// ---- typed conversion ----

func toTurn(m map[string]any) model.TurnPayload {
	return model.TurnPayload{
		Message: textValue(m, "message", FallbackMessage),
		Emotion: model.EmotionState{
			Rapport:       intField(m, "rapport", defaultRapport, 0, 100),
			Emotion:       enumField(m, "emotion", model.Emotions, defaultEmotion),
			EmotionReason: textValue(m, "emotionReason", PlaceholderReason),
			Willingness:   intField(m, "willingness", defaultWillingness, 0, 100),
		},
		Analysis: toAnalysis(m),
		Feedback: model.MessageFeedback{
			Rating:   enumField(m, "messageRating", model.MessageRatings, defaultRating),
			Feedback: textValue(m, "messageFeedback", PlaceholderFeedback),
			Impact:   enumField(m, "messageImpact", model.MessageImpacts, defaultImpact),
		},
	}
}

func toAnalysis(m map[string]any) model.AnalysisResult {
	return model.AnalysisResult{
		NegotiationScore: intField(m, "negotiationScore", defaultScore, 0, 100),
		Strengths:        listField(m, "strengths"),
		Weaknesses:       listField(m, "weaknesses"),
		Suggestions:      listField(m, "suggestions"),
		Tactics:          listField(m, "tactics"),
	}
}

func toSuggestions(m map[string]any) []model.Suggestion {
	return normalizeSuggestions(suggestionEntries(m))
}

// suggestionEntries accepts both {text, approach} objects and bare strings.
func suggestionEntries(m map[string]any) []model.Suggestion {
	arr, ok := m["suggestions"].([]any)
	if !ok {
		return nil
	}
	out := make([]model.Suggestion, 0, len(arr))
	for _, item := range arr {
		switch t := item.(type) {
		case map[string]any:
			text, _ := t["text"].(string)
			if singleLine(text) == "" {
				continue
			}
			out = append(out, model.Suggestion{Text: text, Approach: textValue(t, "approach", PlaceholderApproach)})
		case string:
			if singleLine(t) == "" {
				continue
			}
			out = append(out, model.Suggestion{Text: t, Approach: PlaceholderApproach})
		}
	}
	return out
}

// normalizeSuggestions forces single-line texts and pads or truncates to
// exactly SuggestionSetSize entries using the canonical set.
func normalizeSuggestions(in []model.Suggestion) []model.Suggestion {
	out := make([]model.Suggestion, 0, model.SuggestionSetSize)
	for _, s := range in {
		if len(out) == model.SuggestionSetSize {
			break
		}
		text := singleLine(s.Text)
		if text == "" {
			continue
		}
		approach := singleLine(s.Approach)
		if approach == "" {
			approach = PlaceholderApproach
		}
		out = append(out, model.Suggestion{Text: text, Approach: approach})
	}
	fallback := FallbackSuggestions()
	for i := len(out); i < model.SuggestionSetSize; i++ {
		out = append(out, fallback[i])
	}
	return out
}

// ---- helpers ----

// guard reports inputs above maxContentLen. The text is returned whole:
// cutting it would drop the closing brace of an otherwise valid payload.
func guard(raw string) string {
	if len(raw) <= maxContentLen {
		return raw
	}
	logx.Warn().
		Str("component", "response_extractor").
		Int("max_len", maxContentLen).
		Int("orig_len", len(raw)).
		Str("head", safeSnippet(raw)).
		Msg("content exceeds size limit")
	return raw
}

func logTier(mode model.GenerationMode, tier Tier, repairs []string) {
	ev := logx.Debug().
		Str("component", "response_extractor").
		Str("mode", string(mode)).
		Str("tier", tier.String())
	if len(repairs) > 0 {
		ev = ev.Strs("repairs", repairs)
	}
	ev.Msg("payload extracted")
}

func logFallback(mode model.GenerationMode, raw string) {
	logx.Warn().
		Str("component", "response_extractor").
		Str("mode", string(mode)).
		Str("tier", TierFallback.String()).
		Str("snippet", safeSnippet(raw)).
		Msg("no tier recovered a payload, using canonical fallback")
}

func logPanic(mode model.GenerationMode, r any) {
	logx.Error().
		Str("component", "response_extractor").
		Str("mode", string(mode)).
		Msgf("panic recovered: %v", r)
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return truncateRunes(s, maxErrSnippet)
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
