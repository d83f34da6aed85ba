package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"policy_workbench/export"
)

func newExportCmd(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a record as pdf, zip, html or md",
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
			b := export.FromRecord(rec, time.Now())

			var buf bytes.Buffer
			switch format {
			case "pdf":
				err = export.PDF(&buf, b, export.PDFOptions{FontPath: a.cfg.Export.FontPath})
			case "zip":
				err = export.ZIP(&buf, b)
			case "html":
				var page string
				page, err = export.HTML(b)
				buf.WriteString(page)
			case "md":
				buf.WriteString(export.Markdown(b))
			default:
				return fmt.Errorf("unknown format %q (want pdf, zip, html or md)", format)
			}
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}

			if output == "" {
				output = b.FileName(format)
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return err
			}
			a.logger.Info("record exported", zap.Int64("record", id), zap.String("format", format), zap.String("path", output))
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pdf", "pdf, zip, html or md")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default meeting-<id>-<date>.<format>, - for stdout)")
	return cmd
}
