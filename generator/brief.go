package generator

import (
	"fmt"
	"strings"
)

// defaultImageStyle is appended to image prompts when no override is given.
const defaultImageStyle = `Professional documentary photography, photorealistic.
Location: a modern city street, office or public space that matches the policy context.
People: natural individuals with realistic facial anatomy, proportions and expressions.
Lighting: natural daylight with soft shadows.
Color: natural palette, slightly desaturated.
Composition: rule of thirds, professional framing, sharp focus on subjects, proper depth of field.

Strictly prohibited:
- no visible text, letters or logos
- no distorted or warped faces
- no unnatural body proportions
- no obvious generation artifacts
- no generic stock photo aesthetics`

// ImagePromptFromBrief renders an image brief (concept, scene_description,
// visual_style, key_message) into a text-to-image prompt.
func ImagePromptFromBrief(brief Node, styleOverride string) string {
	style := strings.TrimSpace(styleOverride)
	if style == "" {
		style = defaultImageStyle
	}

	var sb strings.Builder
	sb.WriteString(brief.String("concept"))
	sb.WriteString("\n\nScene description: ")
	sb.WriteString(brief.String("scene_description"))
	sb.WriteString("\n\nVisual style: ")
	sb.WriteString(brief.String("visual_style"))
	sb.WriteString("\n\n")
	sb.WriteString(style)
	sb.WriteString("\n\nKey message to convey: ")
	sb.WriteString(brief.String("key_message"))
	sb.WriteString("\n\nNo text or writing should appear anywhere in the image.")
	return strings.TrimSpace(sb.String())
}

// VideoPromptFromBrief renders a video brief (narrative_arc, scenes, style_guide,
// call_to_action) into a text-to-video prompt.
func VideoPromptFromBrief(brief Node, duration string) string {
	if duration == "" {
		duration = "20s"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cinematic documentary style, %s duration.\n", duration)
	sb.WriteString("Authentic locations and people.\n\n")
	fmt.Fprintf(&sb, "Narrative: %s\n\n", brief.String("narrative_arc"))
	sb.WriteString("Timeline:\n")
	sb.WriteString(sceneTimeline(brief.List("scenes")))
	fmt.Fprintf(&sb, "\n\nStyle guide: %s\n\n", brief.String("style_guide"))
	fmt.Fprintf(&sb, "Final CTA: %s\n\n", brief.String("call_to_action"))
	sb.WriteString("Professional color grading, smooth transitions.\n")
	sb.WriteString("Subtitles in the audience's language, natural ambient sound.")
	return strings.TrimSpace(sb.String())
}

func sceneTimeline(scenes []Node) string {
	blocks := make([]string, 0, len(scenes))
	for _, s := range scenes {
		blocks = append(blocks, fmt.Sprintf("[%s]\nScene: %s\nVisuals: %s\nAudio: %s\nMessage: %s",
			s.String("timestamp"), s.String("scene"), s.String("visuals"),
			s.String("audio"), s.String("message")))
	}
	return strings.Join(blocks, "\n\n")
}

// Video styles returned by VideoStylePrompts.
const (
	StyleDocumentary   = "documentary"
	StyleCinematic     = "cinematic"
	StyleModernDynamic = "modern_dynamic"
)

type videoStyle struct {
	title   string
	visual  []string
	camera  []string
	audio   []string
	mood    string
	pacing  string
	technic string
}

var videoStyles = map[string]videoStyle{
	StyleDocumentary: {
		title:   "Documentary realism",
		visual:  []string{"handheld camera feel, natural movement", "realistic lighting", "observational, fly-on-the-wall approach", "natural grading with slight desaturation"},
		camera:  []string{"medium shots and close-ups", "slight shake for realism", "follow subjects naturally"},
		audio:   []string{"natural ambient sound", "minimal background music", "natural dialogue or voice-over"},
		mood:    "authentic, grounded, trustworthy",
		pacing:  "steady, observational",
		technic: "24fps, cinematic aspect ratio",
	},
	StyleCinematic: {
		title:   "Cinematic drama",
		visual:  []string{"smooth gimbal and slider movement", "dramatic warm and cool lighting", "establishing shots of skyline or architecture", "rich film-style grading"},
		camera:  []string{"wide establishing shots", "slow push-ins and reveals", "overhead drone shots", "smooth tracking shots"},
		audio:   []string{"emotional orchestral score", "designed sound effects", "polished voice-over narration"},
		mood:    "inspiring, emotional, aspirational",
		pacing:  "dynamic with emotional beats",
		technic: "24fps, anamorphic feel",
	},
	StyleModernDynamic: {
		title:   "Modern dynamic",
		visual:  []string{"fast dynamic cuts", "modern lifestyle and technology", "bright energetic visuals", "vibrant saturated grading"},
		camera:  []string{"quick cuts between angles", "time-lapse of city life", "close-ups on details and faces", "match cuts for rhythm"},
		audio:   []string{"upbeat modern music", "rhythmic sound design", "animated on-screen captions synced to cuts"},
		mood:    "energetic, modern, forward-thinking",
		pacing:  "fast, rhythmic, attention-grabbing",
		technic: "30fps or 60fps slow-motion elements, high contrast",
	},
}

// VideoStylePrompts returns one 10-second prompt per style for the same brief.
func VideoStylePrompts(brief Node) map[string]string {
	narrative := brief.String("narrative_arc")
	cta := brief.String("call_to_action")
	out := make(map[string]string, len(videoStyles))
	for name, st := range videoStyles {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%s]\n\n", st.title)
		sb.WriteString("Duration: 10 seconds\nSubtitles only, no foreign-language text on screen\n\n")
		writeBullets(&sb, "Visual style", st.visual)
		writeBullets(&sb, "Camera", st.camera)
		writeBullets(&sb, "Audio", st.audio)
		fmt.Fprintf(&sb, "Narrative: %s\n\n", narrative)
		fmt.Fprintf(&sb, "Mood: %s\nPacing: %s\nFinal message: %s\n\n", st.mood, st.pacing, cta)
		fmt.Fprintf(&sb, "Technical: %s", st.technic)
		out[name] = sb.String()
	}
	return out
}

func writeBullets(sb *strings.Builder, heading string, items []string) {
	sb.WriteString(heading)
	sb.WriteString(":\n")
	for _, it := range items {
		sb.WriteString("- ")
		sb.WriteString(it)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}
