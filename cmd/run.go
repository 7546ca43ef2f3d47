package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"bank-ledger/input"
	"bank-ledger/metrics"
)

var (
	outputPath  string
	metricsPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a day file and write the result stream",
	Long: `Reads users, exchange rates, merchants and commands from --input, replays
the commands in order and writes the results as indented JSON to --output
(stdout when omitted).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitWithError(err)
		}
		day, err := input.DecodeFile(inputPath)
		if err != nil {
			exitWithError(err)
		}

		rec := metrics.NewRecorder()
		bank := newBank(cfg, rec)
		results, err := bank.StartDay(day)
		if err != nil {
			exitWithError(fmt.Errorf("day aborted: %w", err))
		}

		out := cmd.OutOrStdout()
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				exitWithError(fmt.Errorf("failed to create output %s: %w", outputPath, err))
			}
			defer f.Close()
			out = f
		}
		if err := writeJSON(out, results); err != nil {
			exitWithError(fmt.Errorf("failed to write results: %w", err))
		}

		textfile := metricsPath
		if textfile == "" {
			textfile = cfg.Metrics.Textfile
		}
		if textfile != "" {
			if err := rec.WriteTextfile(textfile); err != nil {
				log.Printf("ERROR: failed to write metrics to %s: %v", textfile, err)
			}
		}
		log.Printf("Replayed %d commands into %d results", bank.Processed(), len(results))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Day file to replay (required)")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Where to write the results (default stdout)")
	runCmd.Flags().StringVar(&metricsPath, "metrics-file", "", "Write Prometheus metrics in text format to this file")
	_ = runCmd.MarkFlagRequired("input")
}
