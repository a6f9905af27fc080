package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/export"
	"github.com/meridies/eventbid/internal/session"
	"github.com/meridies/eventbid/internal/store"
)

var (
	flagExportFormat    string
	flagExportOut       string
	flagExportNoProject bool
	exportScenario      scenario
)

var exportCmd = &cobra.Command{
	Use:   "export KEY",
	Short: "Export a bid as JSON, CSV, PDF or XLSX",
	Long: "Export a bid with its projection. The format comes from --format or the\n" +
		"--out extension. --out - writes to stdout.\n\n" +
		"  eventbid export barony--spring-war --format pdf\n" +
		"  eventbid export barony--spring-war --out bid.xlsx --attendance 220",
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "", "json, csv, pdf or xlsx (default from --out, else json)")
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output path, or - for stdout (default in the export dir)")
	exportCmd.Flags().BoolVar(&flagExportNoProject, "no-projection", false, "Leave the projection out of the export")
	exportScenario.register(exportCmd.Flags())
	rootCmd.AddCommand(exportCmd)
}

func exportFormat() (export.Format, error) {
	switch {
	case flagExportFormat != "":
		return export.ParseFormat(flagExportFormat)
	case flagExportOut != "" && flagExportOut != "-" && filepath.Ext(flagExportOut) != "":
		return export.FormatFromPath(flagExportOut)
	}
	return export.FormatJSON, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	f, err := exportFormat()
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), args[0], func(_ store.Store, sess *session.Session) error {
		b := sess.Bid()
		snap := export.Snapshot{Bid: b, GeneratedAt: time.Now()}
		if !flagExportNoProject {
			in, err := exportScenario.inputs(b)
			if err != nil {
				return err
			}
			r, err := sess.Project(in)
			if err != nil {
				return err
			}
			snap.Report = &r
		}

		if flagExportOut == "-" {
			return export.Write(os.Stdout, f, snap)
		}
		path := flagExportOut
		if path == "" {
			path = filepath.Join(cfg.General.ExportDir, export.FileName(b, f))
		}
		if err := export.WriteFile(path, f, snap); err != nil {
			return err
		}
		log.Info("exported bid", zap.String("key", sess.Key()), zap.String("format", string(f)), zap.String("path", path))
		fmt.Printf("  Wrote %s\n", path)
		return nil
	})
}
