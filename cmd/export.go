package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pp9653/warera-ranking-sys/feature/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportDir     string
	importCountry string
	fromBucket    bool
)

// exportCmd writes the summary and export document of a country.
var exportCmd = &cobra.Command{
	Use:   "export <country>",
	Short: "Export the cached roster and battalion summary",
	Long: `Writes <country>_<week>_summary.json, <country>_<week>_summary.txt and
<country>_<week>_export.json. Files go to --out, or to the storage bucket when
storage is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		view, err := a.service.Roster(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		sink, err := a.sink(exportDir)
		if err != nil {
			return err
		}

		written, err := report.Export(cmd.Context(), view, sink, time.Now())
		if err != nil {
			return err
		}
		a.log.Info("Roster exported", zap.String("country", view.Country.Name), zap.Strings("files", written))
		for _, w := range written {
			fmt.Println(w)
		}
		return nil
	},
}

// importCmd loads an export document into the cache.
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an export document into the cache",
	Long: `Reads a document written by export and merges it into the cache: players are
upserted, then battalion assignments and medals are re-applied. With --bucket the
file name is read from the storage bucket.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		var r io.ReadCloser
		if fromBucket {
			sink, err := a.sink("")
			if err != nil {
				return err
			}
			bucket, ok := sink.(report.BucketSink)
			if !ok {
				return fmt.Errorf("--bucket requires storage.enabled")
			}
			if r, err = bucket.Open(cmd.Context(), args[0]); err != nil {
				return err
			}
		} else {
			if r, err = os.Open(args[0]); err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
		}
		defer r.Close()

		doc, err := report.ReadDocument(r)
		if err != nil {
			return err
		}
		country := doc.Country
		if importCountry != "" {
			country = importCountry
		}
		if err := a.service.Import(cmd.Context(), country, doc.View()); err != nil {
			return err
		}
		fmt.Printf("Imported %d players into %s\n", len(doc.Players), country)
		return nil
	},
}

// reportCmd prints the battalion summary.
var reportCmd = &cobra.Command{
	Use:   "report <country>",
	Short: "Print the battalion summary of a country",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		view, err := a.service.Roster(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		summary := report.Summarize(view)
		if jsonOutput {
			return printJSON(os.Stdout, summary)
		}
		return report.WriteText(os.Stdout, summary)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "out", "exports", "Directory for exported files (ignored when storage is enabled)")
	importCmd.Flags().StringVar(&importCountry, "country", "", "Import under this country instead of the one in the document")
	importCmd.Flags().BoolVar(&fromBucket, "bucket", false, "Read the file from the storage bucket")
	reportCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")

	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(reportCmd)
}
