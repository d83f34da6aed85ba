package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"policy_workbench/generator"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		req      generator.GenerationRequest
		keywords string
		depth    string
		views    bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a meeting package and store it as a new record",
		Long: `Calls the configured LLM once (plus one repair call when the reply is not valid
JSON) and inserts the result as a new record. Prints the record id; with --views,
also prints the text views.

When both attempts fail to parse, the raw reply is printed and the command fails.`,
		Example: `  workbench generate --meeting-title "Weekly review" \
    --policy-title "Night bus expansion" --question "Extend the routes?" \
    --keywords "transport, night" --depth very_deep`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req.Keywords = generator.SplitKeywords(keywords)
			req.Depth = generator.Depth(depth)

			agent, err := a.buildAgent(ctx)
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			sess := generator.NewSession("cli", agent, st, generator.SessionConfig{
				Model:           a.cfg.LLM.Model,
				MaxOutputTokens: a.cfg.LLM.MaxOutputTokens,
				Logger:          a.logger,
			})
			defer sess.Close()

			out := cmd.OutOrStdout()
			id, err := sess.Generate(ctx, req)
			var pe *generator.ParseFailedError
			if errors.As(err, &pe) {
				fmt.Fprintln(out, pe.Raw)
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, id)
			if views {
				snap := sess.Snapshot()
				printViews(out, generator.RenderViews(snap.Result, req.ViewMode))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.MeetingTitle, "meeting-title", "", "meeting title (required)")
	f.StringVar(&req.MeetingDate, "meeting-date", "", "meeting date YYYY-MM-DD (default today)")
	f.StringVar(&req.MeetingTime, "meeting-time", "", "meeting time HH:MM (default 00:00)")
	f.StringVar(&req.Preset, "preset", "", "policy category preset")
	f.StringVar(&req.Package, "package", "", "content package")
	f.StringVar(&req.Target, "target", "", "target audience")
	f.StringVar(&req.Tone, "tone", "", "tone of voice")
	f.StringVar(&req.VideoLength, "video-len", "", "video length: 10s, 20s or 30s (default 20s)")
	f.StringVar(&depth, "depth", "", "depth: normal, deep or very_deep (default deep)")
	f.StringVar(&req.PolicyTitle, "policy-title", "", "policy title (required)")
	f.StringVar(&req.Question, "question", "", "question for the meeting (required)")
	f.StringVar(&keywords, "keywords", "", "comma-separated keywords")
	f.StringVar(&req.Constraints, "constraints", "", "free-form constraints")
	f.BoolVar(&req.DecisiveMode, "decisive", true, "decisive meeting style")
	f.StringVar(&req.ViewMode, "view-mode", generator.ViewExternal, "view mode for --views: external or internal")
	f.BoolVar(&views, "views", false, "print the text views after generating")
	return cmd
}
