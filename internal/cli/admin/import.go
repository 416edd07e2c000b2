package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloo-solutions/propertybot/internal/config"
	"github.com/cloo-solutions/propertybot/internal/service"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// ImportCmd returns the import command
func ImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|s3://bucket/key>",
		Short: "Bulk import properties",
		Long: `Imports a semicolon-separated file of id;title;description;single_line rows.
Rows whose id is already stored are skipped, so the same file can be imported repeatedly.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Int("batch-size", 0, "Rows embedded and committed together (overrides PROPERTYBOT_IMPORT_BATCH_SIZE)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations")
	cmd.Flags().Bool("output", false, "Print the final report as JSON")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if batchSize, _ := cmd.Flags().GetInt("batch-size"); batchSize > 0 {
		cfg.ImportBatchSize = batchSize
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	a, err := newApp(ctx, cfg, appOptions{migrate: !noMigrate})
	if err != nil {
		return err
	}
	defer a.Close()

	bar := newImportBar(os.Stderr, args[0])
	report, err := a.importer.ImportFile(ctx, args[0], func(r service.ImportReport) {
		bar.Set(r.Read)
	})
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	outputJSON, _ := cmd.Flags().GetBool("output")
	return printImportReport(cmd.OutOrStdout(), report, outputJSON)
}

func newImportBar(w io.Writer, source string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.CyanString("importing %s", source)),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func printImportReport(w io.Writer, report *service.ImportReport, outputJSON bool) error {
	if outputJSON {
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(output))
		return nil
	}

	fmt.Fprintf(w, "%s %d\n", color.GreenString("Imported:"), report.Imported)
	fmt.Fprintf(w, "%s %d\n", color.YellowString("Skipped: "), report.Skipped)
	if report.Failed > 0 {
		fmt.Fprintf(w, "%s %d (see log for the rejected rows)\n", color.RedString("Failed:  "), report.Failed)
	} else {
		fmt.Fprintf(w, "Failed:   0\n")
	}
	fmt.Fprintf(w, "Rows read: %d\n", report.Read)
	return nil
}
