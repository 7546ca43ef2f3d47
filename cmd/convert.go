package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bank-ledger/app"
	"bank-ledger/input"
	"bank-ledger/shared"
)

var (
	convertAmount string
	convertFrom   string
	convertTo     string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert an amount using a day file's exchange rates",
	Long: `Loads only the exchange rates of --input and converts --amount from one
currency to another, following chained rates when no direct one exists.
Currencies with no connecting rates are reported unconverted.`,
	Run: func(cmd *cobra.Command, args []string) {
		amount, err := decimal.NewFromString(convertAmount)
		if err != nil {
			exitWithError(fmt.Errorf("invalid amount format: %q. %v", convertAmount, err))
		}
		from, to := shared.ParseCurrency(convertFrom), shared.ParseCurrency(convertTo)
		if from == "" || to == "" {
			exitWithError(fmt.Errorf("both --from and --to are required"))
		}

		cfg, err := loadConfig()
		if err != nil {
			exitWithError(err)
		}
		day, err := input.DecodeFile(inputPath)
		if err != nil {
			exitWithError(err)
		}
		bank := newBank(cfg, nil)
		if err := bank.Load(app.Day{Rates: day.Rates}); err != nil {
			exitWithError(err)
		}

		if _, ok := bank.Rates().Resolve(from, to); !ok && !from.Equal(to) {
			fmt.Fprintf(cmd.OutOrStdout(), "No exchange path from %s to %s\n", from, to)
			return
		}
		converted := amount
		if !from.Equal(to) {
			converted = bank.Rates().Convert(amount, from, to)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s %s\n", amount.String(), from, converted.StringFixed(4), to)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Day file holding the exchange rates (required)")
	convertCmd.Flags().StringVar(&convertAmount, "amount", "", "Amount in the source currency (required)")
	convertCmd.Flags().StringVar(&convertFrom, "from", "", "Source currency code (required)")
	convertCmd.Flags().StringVar(&convertTo, "to", "", "Target currency code (required)")
	_ = convertCmd.MarkFlagRequired("input")
	_ = convertCmd.MarkFlagRequired("amount")
	_ = convertCmd.MarkFlagRequired("from")
	_ = convertCmd.MarkFlagRequired("to")
}
