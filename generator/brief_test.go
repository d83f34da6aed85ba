package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagePromptFromBrief(t *testing.T) {
	brief := Node{
		"concept":           "A quiet school gate at 8am.",
		"scene_description": "Parents and children walk past an air sensor.",
		"visual_style":      "soft morning light",
		"key_message":       "Clean air on the way to school",
	}

	p := ImagePromptFromBrief(brief, "")
	assert.True(t, strings.HasPrefix(p, "A quiet school gate"))
	assert.Contains(t, p, "Scene description: Parents and children walk past an air sensor.")
	assert.Contains(t, p, "Visual style: soft morning light")
	assert.Contains(t, p, "Key message to convey: Clean air on the way to school")
	assert.Contains(t, p, "no distorted or warped faces")

	custom := ImagePromptFromBrief(brief, "Flat vector illustration.")
	assert.Contains(t, custom, "Flat vector illustration.")
	assert.NotContains(t, custom, "no distorted or warped faces")
}

func TestVideoPromptFromBrief(t *testing.T) {
	brief := Node{
		"narrative_arc": "Problem, pilot, result.",
		"scenes": []any{
			map[string]any{"timestamp": "0-5s", "scene": "Gate", "visuals": "sensor", "audio": "birds", "message": "we watch"},
			map[string]any{"timestamp": "5-10s", "scene": "Class", "visuals": "dashboard", "audio": "voice", "message": "we act"},
		},
		"style_guide":    "calm",
		"call_to_action": "Join the pilot",
	}
	p := VideoPromptFromBrief(brief, "10s")
	assert.Contains(t, p, "Cinematic documentary style, 10s duration.")
	assert.Contains(t, p, "[0-5s]\nScene: Gate\nVisuals: sensor\nAudio: birds\nMessage: we watch\n\n[5-10s]")
	assert.Contains(t, p, "Style guide: calm")
	assert.Contains(t, p, "Final CTA: Join the pilot")

	assert.Contains(t, VideoPromptFromBrief(Node{}, ""), "20s duration")
}

func TestVideoStylePrompts(t *testing.T) {
	prompts := VideoStylePrompts(Node{"narrative_arc": "arc", "call_to_action": "act"})
	require.Len(t, prompts, 3)
	for _, name := range []string{StyleDocumentary, StyleCinematic, StyleModernDynamic} {
		p, ok := prompts[name]
		require.True(t, ok, name)
		assert.Contains(t, p, "Duration: 10 seconds")
		assert.Contains(t, p, "Narrative: arc")
		assert.Contains(t, p, "Final message: act")
	}
	assert.Contains(t, prompts[StyleCinematic], "drone")
	assert.Contains(t, prompts[StyleDocumentary], "fly-on-the-wall")
}

func TestNewLLM(t *testing.T) {
	ctx := context.Background()

	_, err := NewLLM(ctx, nil)
	assert.Error(t, err)

	_, err = NewLLM(ctx, &LLMSettings{Provider: "nope"})
	assert.Error(t, err)

	_, err = NewLLM(ctx, &LLMSettings{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k"})
	assert.Error(t, err)

	_, err = NewLLM(ctx, &LLMSettings{Provider: "openai", Model: "gpt-4o"})
	assert.Error(t, err)

	c, err := NewLLM(ctx, &LLMSettings{Provider: "openai", Model: "gpt-4o", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAILLM{}, c)

	c, err = NewLLM(ctx, &LLMSettings{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k", BaseURL: "https://api.deepseek.com/v1"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAILLM{}, c)

	c, err = NewLLM(ctx, &LLMSettings{Provider: "mock"})
	require.NoError(t, err)
	raw, err := c.Complete(ctx, BuildPrompt(validRequest()))
	require.NoError(t, err)
	r, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Clean air school zones: start small, measure, then expand.", r.Section("meeting_summary").String("one_liner"))
}
