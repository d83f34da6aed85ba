package generator

import (
	"fmt"
	"strings"
)

// Prompt 表示一次发送给 LLM 的请求。
type Prompt struct {
	System          string
	User            string
	Model           string
	MaxOutputTokens int
}

// depthGuide holds the length targets the prompt asks for at one depth.
type depthGuide struct {
	videoCuts      map[string]string
	imageLines     string
	talkTrack      string
	explainer      string
	marketingChars string
	policyChars    string
}

var depthGuides = map[Depth]depthGuide{
	DepthNormal: {
		videoCuts:      map[string]string{"10s": "4-5", "20s": "6-8", "30s": "8-10"},
		imageLines:     "7-9 lines",
		talkTrack:      "4-6",
		explainer:      "3-5",
		marketingChars: "450-650 characters",
		policyChars:    "650-900 characters",
	},
	DepthDeep: {
		videoCuts:      map[string]string{"10s": "5-6", "20s": "8-10", "30s": "10-12"},
		imageLines:     "9-12 lines",
		talkTrack:      "6-8",
		explainer:      "5-7",
		marketingChars: "650-900 characters",
		policyChars:    "900-1200 characters",
	},
	DepthVeryDeep: {
		videoCuts:      map[string]string{"10s": "6-7", "20s": "10-12", "30s": "12-14"},
		imageLines:     "12-15 lines",
		talkTrack:      "8-10",
		explainer:      "7-9",
		marketingChars: "900-1200 characters",
		policyChars:    "1200-1600 characters",
	},
}

const systemPrompt = "You generate policy and marketing performance material for live client meetings. Output JSON only."

const resultSchema = `{
  "meeting_summary": {
    "one_liner": "one sentence to read aloud in the meeting",
    "decision": "one sentence recommendation that drives a decision",
    "talk_track": ["{talk_track} talking points, one sentence each"],
    "objection_handling": ["4-6 expected objections with a one-line response"]
  },
  "performance": {
    "positioning": "4-7 sentences on why this proposal is strong (speed, structure, risk control, execution)",
    "key_messages": ["5-8 short messages the audience must remember"],
    "next_question_list": ["6-10 follow-up questions that surface needs or drive a decision"]
  },
  "video_plan": {
    "duration": "{video_len}",
    "creative_brief": {
      "intent": "5-8 sentences on purpose, emotion and persuasion points",
      "story_arc": ["intro-problem-turn-solution-conclusion, 1-2 sentences each"],
      "style": {"visual": "", "audio": "", "text_rules": ""}
    },
    "timeline": [
      {"t": "0-3s", "scene": "", "why_this_scene": "", "camera": "", "on_screen_text": "", "voiceover": "", "sfx": ""}
    ],
    "meeting_explainer": ["{explainer} sentences explaining the video plan in the meeting"],
    "cta": "closing call to action"
  },
  "image_prompts": {
    "A": "detailed prompt, at least {image_lines}; setting, lighting, composition, people, forbidden elements; last line states the message",
    "B": "detailed prompt, at least {image_lines}; a completely different angle and situation from A"
  },
  "marketing": {
    "slogan_30": "slogan within 30 characters",
    "core_200": "core message within 200 characters",
    "long_direction": "marketing direction in depth ({marketing_chars}): audiences, channels, tone, forbidden expressions",
    "cta_variations": ["8-12 short calls to action in varied tones"]
  },
  "policy": {
    "summary_300": "policy summary within 300 characters",
    "deep_plan": "policy in depth ({policy_chars}): problem, goals, 3-5 strategies, prepare-pilot-expand steps, budget and staffing as ranges, risks and mitigation, legal and administrative notes",
    "implementation_steps": ["10-16 field checklist items"],
    "risk_register": ["8-12 risks as cause-impact-mitigation"]
  },
  "ppt_outline": {
    "slides": [
      {"title": "", "bullets": ["4-6 bullets"], "visual_hint": "", "speaker_note": "2-3 sentences"}
    ]
  },
  "stats_data": {
    "what_to_measure": [{"metric": "", "why": "", "how": "", "frequency": ""}],
    "example_ranges": ["6-10 example ranges as trends, ratios or bands, never invented point figures"],
    "data_sources_hint": ["4-8 candidate data sources"],
    "interpretation_notes": ["4-7 cautions when reading the indicators"]
  },
  "kpi": {
    "outcome_kpi": [{"kpi": "", "meaning": "", "measurement": "", "target_style": "targets as ranges or stages"}],
    "process_kpi": [{"kpi": "", "meaning": "", "measurement": ""}],
    "scorecard": ["8-12 one-page scorecard items"]
  }
}`

// BuildPrompt 根据请求生成首次调用的提示词。
func BuildPrompt(req GenerationRequest) Prompt {
	guide, ok := depthGuides[req.Depth]
	if !ok {
		guide = depthGuides[DepthDeep]
	}
	cuts := guide.videoCuts[req.VideoLength]
	if cuts == "" {
		cuts = guide.videoCuts["20s"]
	}
	style := "evidence, risks and alternatives included (reasoned)"
	if req.DecisiveMode {
		style = "assertive and decision-driving (sentences read aloud in the meeting)"
	}

	var sb strings.Builder
	sb.WriteString("Produce persuasive, executable policy and marketing material for a client meeting.\n\n")
	sb.WriteString("[Rules]\n")
	sb.WriteString("- Output JSON only. No explanation, markdown, code fences or comments.\n")
	sb.WriteString("- Never cite unrelated statistics.\n")
	sb.WriteString("- Do not invent exact numbers: give a measurement design plus example ranges.\n")
	sb.WriteString("- Respect local-government reality: complaints, budget, schedule, public acceptance.\n")
	sb.WriteString("- No exaggeration; earn trust with executable design and logic.\n\n")
	sb.WriteString("[Input]\n")
	fmt.Fprintf(&sb, "Preset: %s\n", req.Preset)
	fmt.Fprintf(&sb, "Meeting style: %s\n", style)
	fmt.Fprintf(&sb, "Package: %s / Audience: %s / Tone: %s\n", req.Package, req.Target, req.Tone)
	fmt.Fprintf(&sb, "Video length: %s (cut guide: %s cuts)\n", req.VideoLength, cuts)
	fmt.Fprintf(&sb, "Policy title: %s\n", req.PolicyTitle)
	fmt.Fprintf(&sb, "Question: %s\n", req.Question)
	fmt.Fprintf(&sb, "Keywords: %s\n", req.Keywords)
	fmt.Fprintf(&sb, "Constraints: %s\n\n", req.Constraints)
	sb.WriteString("[Output JSON schema]\n")
	sb.WriteString(strings.NewReplacer(
		"{talk_track}", guide.talkTrack,
		"{video_len}", req.VideoLength,
		"{explainer}", guide.explainer,
		"{image_lines}", guide.imageLines,
		"{marketing_chars}", guide.marketingChars,
		"{policy_chars}", guide.policyChars,
	).Replace(resultSchema))
	sb.WriteString("\n\n[Required]\n")
	sb.WriteString("- video_plan.timeline must be dense enough for the video length.\n")
	sb.WriteString("- image_prompts must be long and detailed.\n")
	sb.WriteString("- Statistics and indicators must be specific to the topic.\n")
	sb.WriteString("- JSON only.\n")

	return Prompt{
		System: systemPrompt,
		User:   sb.String(),
	}
}

// BuildRepairPrompt embeds the malformed reply verbatim and asks for a clean re-emission.
func BuildRepairPrompt(raw string) Prompt {
	var sb strings.Builder
	sb.WriteString("Your previous reply was not valid JSON.\n")
	sb.WriteString("Output only a complete, valid JSON object reproducing the same content, ")
	sb.WriteString("with no commentary, no markdown fencing.\n\n")
	sb.WriteString("Previous reply:\n")
	sb.WriteString(raw)
	return Prompt{
		System: "Respond with JSON only.",
		User:   sb.String(),
	}
}
