package generator

import (
	"fmt"
	"strings"
)

// Views is the plain-text rendering of one Result, as shown by the CLI and the HTTP API.
type Views struct {
	Summary    string `json:"summary"`
	VideoPlan  string `json:"video_plan"`
	ImageA     string `json:"image_a"`
	ImageB     string `json:"image_b"`
	PPTOutline string `json:"ppt_outline"`
	KPI        string `json:"kpi"`
}

func RenderViews(r Result, viewMode string) Views {
	a, b := ImagePromptPair(r)
	return Views{
		Summary:    SummaryText(r, viewMode),
		VideoPlan:  VideoPlanText(r),
		ImageA:     a,
		ImageB:     b,
		PPTOutline: PPTOutlineText(r),
		KPI:        KPIText(r),
	}
}

// SummaryText 外部模式只给一句话、结论和讲解要点；内部模式追加异议应对与定位。
func SummaryText(r Result, viewMode string) string {
	ms := r.Section("meeting_summary")
	var sb strings.Builder
	fmt.Fprintf(&sb, "One-liner:\n%s\n\n", ms.String("one_liner"))
	fmt.Fprintf(&sb, "Decision:\n%s\n\n", ms.String("decision"))
	sb.WriteString("Talk track:\n")
	sb.WriteString(strings.Join(ms.Strings("talk_track"), "\n"))

	if viewMode == ViewInternal {
		if objections := ms.Strings("objection_handling"); len(objections) > 0 {
			sb.WriteString("\n\nObjection handling:\n")
			sb.WriteString(bulletLines(objections))
		}
		if pos := r.Section("performance").String("positioning"); pos != "" {
			sb.WriteString("\n\nPositioning:\n")
			sb.WriteString(pos)
		}
	}
	return sb.String()
}

func VideoPlanText(r Result) string {
	vp := r.Section("video_plan")
	if len(vp) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Duration: %s\n\n", vp.String("duration"))
	fmt.Fprintf(&sb, "Intent:\n%s\n\n", vp.Map("creative_brief").String("intent"))
	sb.WriteString("Timeline:\n")
	for _, t := range vp.List("timeline") {
		fmt.Fprintf(&sb, "- %s | %s | %s\n", t.String("t"), t.String("scene"), t.String("voiceover"))
	}
	if cta := vp.String("cta"); cta != "" {
		fmt.Fprintf(&sb, "\nCTA: %s\n", cta)
	}
	return sb.String()
}

func ImagePromptPair(r Result) (string, string) {
	ip := r.Section("image_prompts")
	return ip.String("A"), ip.String("B")
}

func PPTOutlineText(r Result) string {
	var sb strings.Builder
	for i, s := range r.Section("ppt_outline").List("slides") {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s.String("title"))
		for _, b := range s.Strings("bullets") {
			fmt.Fprintf(&sb, "   - %s\n", b)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// KPIText lists outcome KPIs, then process KPIs, then the scorecard.
func KPIText(r Result) string {
	kpi := r.Section("kpi")
	var sb strings.Builder
	if outcome := kpi.List("outcome_kpi"); len(outcome) > 0 {
		sb.WriteString("Outcome KPI:\n")
		for _, x := range outcome {
			fmt.Fprintf(&sb, "- %s\n  meaning: %s\n  measurement: %s\n  target: %s\n",
				x.String("kpi"), x.String("meaning"), x.String("measurement"), x.String("target_style"))
		}
		sb.WriteString("\n")
	}
	if process := kpi.List("process_kpi"); len(process) > 0 {
		sb.WriteString("Process KPI:\n")
		for _, x := range process {
			fmt.Fprintf(&sb, "- %s\n  meaning: %s\n  measurement: %s\n",
				x.String("kpi"), x.String("meaning"), x.String("measurement"))
		}
		sb.WriteString("\n")
	}
	if sc := kpi.Strings("scorecard"); len(sc) > 0 {
		sb.WriteString("Scorecard:\n")
		sb.WriteString(bulletLines(sc))
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func bulletLines(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + it
	}
	return strings.Join(lines, "\n")
}
