package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bank-ledger/app"
	"bank-ledger/config"
	"bank-ledger/input"
	"bank-ledger/metrics"
	"bank-ledger/store"
)

// Version is overridden at build time with -ldflags "-X bank-ledger/cmd.Version=...".
var Version = "dev"

var (
	configPath string
	verbose    bool
	inputPath  string
)

var rootCmd = &cobra.Command{
	Use:   "bank-ledger",
	Short: "Replay a simulated banking day and report its results",
	Long: `bank-ledger replays one day of banking commands against an in-memory bank.

Users, exchange rates, merchants and commands are read from a JSON day file;
the result stream is written as JSON. Accounts, cards, payments, split bills,
savings and payment plans are all driven by the commands in the file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configureLogging(verbose)
		return nil
	},
}

// Execute runs the root command; called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	decimal.MarshalJSONWithoutQuotes = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Optional TOML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress and warnings to stderr")

	rootCmd.AddCommand(replCmd, versionCmd)
	replCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Day file whose users, rates and merchants seed the session")
}

// configureLogging keeps stdout for results only.
func configureLogging(on bool) {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if on {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}

// loadConfig merges the optional config file over the defaults. The
// --verbose flag wins over the file.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Log.Verbose && !verbose {
		configureLogging(true)
	}
	return cfg, nil
}

func newBank(cfg config.Config, rec *metrics.Recorder) *app.Bank {
	return app.NewBank(cfg, store.NewInMemoryLedger(), store.NewInMemoryPaymentLog(), rec)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "bank-ledger", Version)
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Long: `Starts an interactive session. The day file (if given) is replayed first;
afterwards every line is read as one JSON command object, dispatched, and the
results it produced are printed.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitWithError(err)
		}
		bank := newBank(cfg, nil)

		day := app.Day{}
		if inputPath != "" {
			if day, err = input.DecodeFile(inputPath); err != nil {
				exitWithError(err)
			}
		}
		if _, err := bank.StartDay(day); err != nil {
			exitWithError(err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Bank session started. Type 'exit' or 'quit' to leave.")
		seen := len(bank.Results())

		reader := bufio.NewReader(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			line, readErr := reader.ReadString('\n')
			line = strings.TrimSpace(line)

			if line == "exit" || line == "quit" {
				break
			}
			if line != "" {
				command, err := input.DecodeCommand([]byte(line))
				if err != nil {
					fmt.Fprintf(out, "Error: %v\n", err)
				} else {
					bank.Dispatch(command)
					results := bank.Results()
					if len(results) > seen {
						if err := writeJSON(out, results[seen:]); err != nil {
							fmt.Fprintf(out, "Error: %v\n", err)
						}
						seen = len(results)
					}
				}
			}
			if readErr != nil {
				break
			}
		}

		fmt.Fprintln(out, "Exiting session.")
	},
}
