package generator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResult = `{
  "meeting_summary": {
    "one_liner": "Start with ten schools.",
    "decision": "Approve the pilot.",
    "talk_track": ["Why now", "What changes"],
    "objection_handling": ["Cost: phased budget"]
  },
  "performance": {"positioning": "Fast and measurable."},
  "video_plan": {
    "duration": "20s",
    "creative_brief": {"intent": "Reassure parents."},
    "timeline": [
      {"t": "0-3s", "scene": "School gate", "voiceover": "Every morning."},
      "not an object",
      {"t": "3-6s", "scene": "Sensor", "voiceover": "We measure."}
    ],
    "cta": "Join the pilot"
  },
  "image_prompts": {"A": "photo a", "B": "photo b"},
  "ppt_outline": {"slides": [{"title": "Problem", "bullets": ["PM2.5", 3]}]},
  "kpi": {
    "outcome_kpi": [{"kpi": "Exposure", "meaning": "m", "measurement": "sensor", "target_style": "-10~20%"}],
    "process_kpi": [{"kpi": "Installs", "meaning": "m2", "measurement": "log"}],
    "scorecard": ["exposure", "installs"]
  },
  "zzz_extra": {}
}`

func sample(t *testing.T) Result {
	t.Helper()
	r, err := ParseResponse(sampleResult)
	require.NoError(t, err)
	return r
}

func TestResult_Sections(t *testing.T) {
	assert.Equal(t,
		[]string{"meeting_summary", "performance", "video_plan", "image_prompts", "ppt_outline", "kpi", "zzz_extra"},
		sample(t).Sections())
}

func TestResult_AccessorsDefaultToEmpty(t *testing.T) {
	r := Result{"meeting_summary": "not a map"}
	ms := r.Section("meeting_summary")
	assert.NotNil(t, ms)
	assert.Empty(t, ms.String("one_liner"))
	assert.Empty(t, ms.Strings("talk_track"))
	assert.Empty(t, ms.List("x"))
	assert.Empty(t, r.Section("missing").Map("deeper").String("k"))

	var nilResult Result
	assert.Equal(t, "One-liner:\n\n\nDecision:\n\n\nTalk track:\n", SummaryText(nilResult, ViewInternal))
	assert.Empty(t, VideoPlanText(nilResult))
	assert.Empty(t, PPTOutlineText(nilResult))
	assert.Empty(t, KPIText(nilResult))
}

func TestNode_StringFormatsStoredNumbers(t *testing.T) {
	n := Node{"big": json.Number("9007199254740993"), "ratio": json.Number("0.25"), "f": 2.5, "ok": true}
	assert.Equal(t, "9007199254740993", n.String("big"))
	assert.Equal(t, "0.25", n.String("ratio"))
	assert.Equal(t, "2.5", n.String("f"))
	assert.Equal(t, "true", n.String("ok"))
}

func TestSummaryText(t *testing.T) {
	r := sample(t)
	ext := SummaryText(r, ViewExternal)
	assert.Equal(t, "One-liner:\nStart with ten schools.\n\nDecision:\nApprove the pilot.\n\nTalk track:\nWhy now\nWhat changes", ext)

	internal := SummaryText(r, ViewInternal)
	assert.Contains(t, internal, ext)
	assert.Contains(t, internal, "Objection handling:\n- Cost: phased budget")
	assert.Contains(t, internal, "Positioning:\nFast and measurable.")
}

func TestVideoPlanText(t *testing.T) {
	text := VideoPlanText(sample(t))
	assert.Contains(t, text, "Duration: 20s")
	assert.Contains(t, text, "Intent:\nReassure parents.")
	assert.Contains(t, text, "- 0-3s | School gate | Every morning.\n- 3-6s | Sensor | We measure.\n")
	assert.Contains(t, text, "CTA: Join the pilot")
}

func TestImagePromptPair(t *testing.T) {
	a, b := ImagePromptPair(sample(t))
	assert.Equal(t, "photo a", a)
	assert.Equal(t, "photo b", b)
}

func TestPPTOutlineText(t *testing.T) {
	assert.Equal(t, "1. Problem\n   - PM2.5\n   - 3\n\n", PPTOutlineText(sample(t)))
}

func TestKPIText(t *testing.T) {
	text := KPIText(sample(t))
	assert.Contains(t, text, "Outcome KPI:\n- Exposure\n  meaning: m\n  measurement: sensor\n  target: -10~20%")
	assert.Contains(t, text, "Process KPI:\n- Installs")
	assert.Contains(t, text, "Scorecard:\n- exposure\n- installs")
}

func TestRenderViews(t *testing.T) {
	v := RenderViews(sample(t), ViewExternal)
	assert.Equal(t, "photo a", v.ImageA)
	assert.Equal(t, "photo b", v.ImageB)
	assert.NotEmpty(t, v.Summary)
	assert.NotEmpty(t, v.VideoPlan)
	assert.NotEmpty(t, v.PPTOutline)
	assert.NotEmpty(t, v.KPI)
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Len(t, c.Categories, 10)
	assert.Equal(t, []string{"10s", "20s", "30s"}, c.VideoLengths)
	assert.Equal(t, []Depth{DepthNormal, DepthDeep, DepthVeryDeep}, c.Depths)

	a, ok := c.Audience("Seniors")
	require.True(t, ok)
	assert.Contains(t, a.Focus, "accessibility")
	_, ok = c.Audience("Martians")
	assert.False(t, ok)

	c.Categories[0] = "changed"
	assert.NotEqual(t, "changed", DefaultCatalog().Categories[0])
}
