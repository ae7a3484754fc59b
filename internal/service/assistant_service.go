package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/habitstreak/internal/error_values"
	"github.com/limbo/habitstreak/internal/metrics"
	"github.com/limbo/habitstreak/internal/repository"
	"github.com/limbo/habitstreak/pkg/entity"
	"github.com/tidwall/gjson"
)

const (
	maxGeneratedHabits    = 5
	maxGeneratedTitle     = 50
	maxGeneratedDesc      = 100
	maxGeneratedTarget    = 10
	baselineSuggestion    = "Start small: pick one habit you can finish in under two minutes and do it at the same time every day. Once it sticks for a week, raise the target or add a related habit."
	baselineChatReply     = "Thanks for sharing! Here's a quick suggestion: pick one small, high-impact habit you can complete today to build momentum. If you'd like, ask me for a personalized plan based on your habits."
	noHabitsInsight       = "Start by creating your first habit to get personalized insights!"
	insightRecommendation = "Suggestions: Focus on keeping streaks alive by completing at least one small daily habit. " +
		"Consider reducing rarely-completed habits or simplifying them. Celebrate your longest streak and try to beat it!"
)

var baselineHabits = []entity.HabitSuggestion{
	{ID: "baseline-1", Title: "Drink Water", Description: "Stay hydrated throughout the day", Frequency: entity.FrequencyDaily, TargetCount: 8},
	{ID: "baseline-2", Title: "Exercise", Description: "Get your body moving with physical activity", Frequency: entity.FrequencyDaily, TargetCount: 1},
	{ID: "baseline-3", Title: "Read", Description: "Spend time reading books or articles", Frequency: entity.FrequencyDaily, TargetCount: 1},
}

// TextGenerator produces free text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AssistantService answers coaching requests with the generative model and falls back
// to deterministic answers whenever the model is unavailable or misbehaves.
type AssistantService struct {
	habits      repository.HabitsRepositoryI
	completions repository.CompletionsRepositoryI
	chat        repository.ChatMessagesRepositoryI
	gen         TextGenerator
}

func NewAssistantService(habitsRepo repository.HabitsRepositoryI, completionsRepo repository.CompletionsRepositoryI,
	chatRepo repository.ChatMessagesRepositoryI, gen TextGenerator) *AssistantService {
	if habitsRepo == nil || completionsRepo == nil || chatRepo == nil || gen == nil {
		log.Fatal("provided nil dependencies for assistant service")
	}
	return &AssistantService{
		habits:      habitsRepo,
		completions: completionsRepo,
		chat:        chatRepo,
		gen:         gen,
	}
}

func (as *AssistantService) Suggest(ctx context.Context, uid uuid.UUID, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.Join(errorvalues.ErrValidation, errors.New("query is required"))
	}
	habits, err := as.habits.GetAllByUserID(ctx, uid)
	if err != nil {
		return "", errors.New("habits repository error: " + err.Error())
	}
	prompt := fmt.Sprintf("User's current habits: %s\n\nUser query: %s\n\n"+
		"Please provide helpful suggestions for habit tracking, improvement, or new habits.\n"+
		"Keep the response concise and actionable.", habitTitles(habits, ""), query)
	text, err := as.gen.Generate(ctx, prompt)
	if err != nil || text == "" {
		as.fallback(ctx, "suggest", uid, err)
		return baselineSuggestion, nil
	}
	return text, nil
}

// GenerateHabits asks the model for a JSON array of habit proposals.
// Invalid entries are dropped; an unusable answer yields the baseline habits.
func (as *AssistantService) GenerateHabits(ctx context.Context, uid uuid.UUID, query string) ([]entity.HabitSuggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Join(errorvalues.ErrValidation, errors.New("query is required"))
	}
	habits, err := as.habits.GetAllByUserID(ctx, uid)
	if err != nil {
		return nil, errors.New("habits repository error: " + err.Error())
	}
	prompt := fmt.Sprintf(`Generate 3-5 specific, actionable habits based on this request: "%s"

User's existing habits: %s

Return ONLY a valid JSON array with this exact format:
[
  {
    "id": "habit-1",
    "title": "Short habit name (max 50 chars)",
    "description": "Brief description (max 100 chars)",
    "frequency": "daily",
    "target_count": 1
  }
]

Rules:
- Make habits specific and measurable
- Avoid duplicating existing habits
- Use realistic target_count (1-10)
- Keep titles and descriptions concise
- Only use "daily" frequency
- Return valid JSON only, no extra text`, query, habitTitles(habits, "None"))

	text, err := as.gen.Generate(ctx, prompt)
	if err != nil {
		as.fallback(ctx, "generate_habits", uid, err)
		return baseline(), nil
	}
	suggestions := ParseHabitSuggestions(text)
	if len(suggestions) == 0 {
		as.fallback(ctx, "generate_habits", uid, errors.New("unusable model answer"))
		return baseline(), nil
	}
	return suggestions, nil
}

// ParseHabitSuggestions extracts at most five well-formed habits from a model answer.
func ParseHabitSuggestions(text string) []entity.HabitSuggestion {
	text = stripCodeFence(strings.TrimSpace(text))
	if !gjson.Valid(text) {
		return nil
	}
	parsed := gjson.Parse(text)
	if !parsed.IsArray() {
		return nil
	}
	items := parsed.Array()
	if len(items) > maxGeneratedHabits {
		items = items[:maxGeneratedHabits]
	}
	suggestions := make([]entity.HabitSuggestion, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			continue
		}
		title, desc, freq, target := item.Get("title"), item.Get("description"), item.Get("frequency"), item.Get("target_count")
		if !title.Exists() || !desc.Exists() || !freq.Exists() || !target.Exists() {
			continue
		}
		if target.Type != gjson.Number && !isInteger(target.String()) {
			continue
		}
		suggestions = append(suggestions, entity.HabitSuggestion{
			ID:          fmt.Sprintf("ai-%d", i+1),
			Title:       truncateRunes(title.String(), maxGeneratedTitle),
			Description: truncateRunes(desc.String(), maxGeneratedDesc),
			Frequency:   entity.FrequencyDaily,
			TargetCount: int(max(1, min(maxGeneratedTarget, target.Int()))),
		})
	}
	return suggestions
}

// Chat stores the user's message, produces a reply and stores it too.
func (as *AssistantService) Chat(ctx context.Context, uid uuid.UUID, message string) (*entity.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.Join(errorvalues.ErrValidation, errors.New("message is required"))
	}
	if _, err := as.chat.Create(ctx, &entity.ChatMessage{UserID: uid, Role: entity.ChatRoleUser, Text: message}); err != nil {
		return nil, errors.New("chat repository error: " + err.Error())
	}
	reply := baselineChatReply
	habits, err := as.habits.GetAllByUserID(ctx, uid)
	if err == nil {
		prompt := fmt.Sprintf("User's current habits: %s\nUser message: %s\n"+
			"Respond as a concise, encouraging habit coach. Keep it under 120 words.", habitTitles(habits, ""), message)
		var text string
		if text, err = as.gen.Generate(ctx, prompt); err == nil && text != "" {
			reply = text
		}
	}
	if reply == baselineChatReply {
		as.fallback(ctx, "chat", uid, err)
	}
	stored, err := as.chat.Create(ctx, &entity.ChatMessage{UserID: uid, Role: entity.ChatRoleAssistant, Text: reply})
	if err != nil {
		return nil, errors.New("chat repository error: " + err.Error())
	}
	return stored, nil
}

func (as *AssistantService) ChatHistory(ctx context.Context, uid uuid.UUID) ([]*entity.ChatMessage, error) {
	msgs, err := as.chat.GetByUserID(ctx, uid)
	if err != nil {
		return nil, errors.New("chat repository error: " + err.Error())
	}
	return msgs, nil
}

// Insights summarizes user's habits. The computed summary is returned unless the model gives a non-empty answer.
func (as *AssistantService) Insights(ctx context.Context, uid uuid.UUID) (string, error) {
	habits, err := as.habits.GetAllByUserID(ctx, uid)
	if err != nil {
		return "", errors.New("habits repository error: " + err.Error())
	}
	if len(habits) == 0 {
		return noHabitsInsight, nil
	}
	summary := BaselineInsight(habits)

	var data strings.Builder
	for _, h := range habits {
		total, err := as.completions.CountByHabitID(ctx, h.ID)
		if err != nil {
			as.fallback(ctx, "insights", uid, err)
			return summary, nil
		}
		fmt.Fprintf(&data, "- %s: frequency %s, current streak %d, longest streak %d, total completions %d\n",
			h.Title, h.Frequency, h.CurrentStreak, h.LongestStreak, total)
	}
	prompt := "Analyze this user's habit tracking data and provide personalized insights:\n" + data.String() +
		"Please provide a short, encouraging paragraph with strengths and 2-3 actionable suggestions.\n" +
		"Keep it under 120 words."
	text, err := as.gen.Generate(ctx, prompt)
	if err != nil || text == "" {
		as.fallback(ctx, "insights", uid, err)
		return summary, nil
	}
	return text, nil
}

func BaselineInsight(habits []*entity.Habit) string {
	var totalStreak, longest, daily, weekly, monthly int
	for _, h := range habits {
		totalStreak += h.CurrentStreak
		longest = max(longest, h.LongestStreak)
		switch h.Frequency {
		case entity.FrequencyDaily:
			daily++
		case entity.FrequencyWeekly:
			weekly++
		case entity.FrequencyMonthly:
			monthly++
		}
	}
	return fmt.Sprintf("You are tracking %d habits. Your combined current streaks total %d with a longest streak of %d. "+
		"Mix: %d daily, %d weekly, %d monthly.\n\n%s",
		len(habits), totalStreak, longest, daily, weekly, monthly, insightRecommendation)
}

func (as *AssistantService) fallback(ctx context.Context, op string, uid uuid.UUID, cause error) {
	metrics.RecordAssistantFallback(op)
	// unconfigured model
	if cause == nil || cause == errorvalues.ErrUnavailable {
		return
	}
	slog.Default().WarnContext(ctx, "assistant fell back to baseline answer",
		slog.String("operation", op), slog.String("uid", uid.String()), slog.String("error", cause.Error()))
}

func baseline() []entity.HabitSuggestion {
	out := make([]entity.HabitSuggestion, len(baselineHabits))
	copy(out, baselineHabits)
	return out
}

func habitTitles(habits []*entity.Habit, empty string) string {
	if len(habits) == 0 {
		return empty
	}
	titles := make([]string, 0, len(habits))
	for _, h := range habits {
		titles = append(titles, h.Title)
	}
	return strings.Join(titles, ", ")
}

func stripCodeFence(text string) string {
	if _, rest, ok := strings.Cut(text, "```json"); ok {
		body, _, _ := strings.Cut(rest, "```")
		return strings.TrimSpace(body)
	}
	if _, rest, ok := strings.Cut(text, "```"); ok {
		body, _, _ := strings.Cut(rest, "```")
		return strings.TrimSpace(body)
	}
	return text
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func isInteger(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
