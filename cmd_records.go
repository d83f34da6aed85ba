package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"policy_workbench/generator"
	"policy_workbench/store"
)

func newRecordsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Browse and manage stored meeting records",
	}
	cmd.AddCommand(
		newRecordsListCmd(a),
		newRecordsRangeCmd(a),
		newRecordsSearchCmd(a),
		newRecordsShowCmd(a),
		newRecordsLockCmd(a),
	)
	return cmd
}

func newRecordsListCmd(a *app) *cobra.Command {
	var date, month string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records of one day (default today) or one month",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var rows []store.Summary
			if month != "" {
				m, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("--month must be YYYY-MM: %w", err)
				}
				rows, err = st.ListByMonth(cmd.Context(), m.Year(), int(m.Month()))
				if err != nil {
					return err
				}
			} else {
				if date == "" {
					date = time.Now().Format(generator.DateLayout)
				}
				rows, err = st.ListByDate(cmd.Context(), date)
				if err != nil {
					return err
				}
			}
			printSummaries(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "meeting date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&month, "month", "", "meeting month YYYY-MM")
	return cmd
}

func newRecordsRangeCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "range",
		Short: "List records between two dates, inclusive",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			rows, err := st.ListByDateRange(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			printSummaries(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newRecordsSearchCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search titles, payloads and results, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			rows, err := st.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			printSummaries(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 30, "maximum number of rows")
	return cmd
}

func newRecordsShowCmd(a *app) *cobra.Command {
	var (
		asJSON   bool
		viewMode string
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one record as text views or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			rec, err := st.Load(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(rec)
			}
			lock := ""
			if rec.Locked {
				lock = " [locked]"
			}
			fmt.Fprintf(out, "#%d %s %s %s%s\n\n", rec.ID, rec.Date, rec.Time, rec.Title, lock)
			printViews(out, generator.RenderViews(generator.Result(rec.Result), viewMode))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored record as JSON")
	cmd.Flags().StringVar(&viewMode, "view-mode", generator.ViewExternal, "external or internal")
	return cmd
}

func newRecordsLockCmd(a *app) *cobra.Command {
	var unlock bool
	cmd := &cobra.Command{
		Use:   "lock <id>",
		Short: "Lock a record against regeneration (--unlock to release)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.SetLock(cmd.Context(), id, !unlock); err != nil {
				return err
			}
			state := "locked"
			if unlock {
				state = "unlocked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "record %d %s\n", id, state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unlock, "unlock", false, "release the lock instead")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", s)
	}
	return id, nil
}

func printSummaries(w io.Writer, rows []store.Summary) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tTITLE\tLOCKED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", r.ID, r.Date, r.Time, r.Title, r.Locked)
	}
	tw.Flush()
}

func printViews(w io.Writer, v generator.Views) {
	sections := []struct{ name, body string }{
		{"Summary", v.Summary},
		{"Video plan", v.VideoPlan},
		{"Image prompt A", v.ImageA},
		{"Image prompt B", v.ImageB},
		{"PPT outline", v.PPTOutline},
		{"KPI", v.KPI},
	}
	for _, s := range sections {
		body := strings.TrimSpace(s.body)
		if body == "" {
			continue
		}
		fmt.Fprintf(w, "== %s ==\n%s\n\n", s.name, body)
	}
}
