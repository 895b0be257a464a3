package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gwi.com/journal-companion/internal/export"
)

var (
	format     string
	outputPath string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries to a file or stdout",
	Long: `Export every entry of the user in csv, json or yaml.

Without --out the export is written to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.entries.Recent(ctx, s.user, 0)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outputPath, err)
			}
			defer f.Close()
			w = f
		}

		if err := exporter.Export(entries, w); err != nil {
			return fmt.Errorf("failed to export entries: %w", err)
		}
		if outputPath != "" {
			slog.Info("entries exported", "count", len(entries), "path", outputPath)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format (csv, json, yaml)")
	exportCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output file (default stdout)")
}
