package generator

import (
	"context"
	"encoding/json"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// It answers every prompt with a small valid result whose one_liner echoes the policy title.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	title := "policy"
	for _, line := range strings.Split(prompt.User, "\n") {
		if v, ok := strings.CutPrefix(line, "Policy title: "); ok {
			title = v
			break
		}
	}
	doc := map[string]any{
		"meeting_summary": map[string]any{
			"one_liner":  title + ": start small, measure, then expand.",
			"decision":   "Approve a three-month pilot.",
			"talk_track": []any{"Problem framing", "Pilot scope", "Measurement plan"},
		},
		"video_plan": map[string]any{
			"duration": "20s",
			"timeline": []any{
				map[string]any{"t": "0-3s", "scene": "Street at dawn", "voiceover": "Every morning starts here."},
			},
		},
		"image_prompts": map[string]any{"A": "Documentary photo of a city street.", "B": "Aerial view of a district office."},
		"ppt_outline": map[string]any{
			"slides": []any{map[string]any{"title": "Why now", "bullets": []any{"Complaints rising", "Data available"}}},
		},
		"kpi": map[string]any{
			"outcome_kpi": []any{map[string]any{"kpi": "Complaint volume", "measurement": "Monthly complaint log"}},
		},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
