package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"bank-ledger/app"
	"bank-ledger/domain"
	"bank-ledger/events"
	"bank-ledger/input"
)

var (
	queryEmail string
	querySkip  int
	queryLimit int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Inspect the state a day file leaves behind",
	Long:  `Replays --input and then reports balances or the ledger of one user.`,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show a user's accounts after the day",
	Run: func(cmd *cobra.Command, args []string) {
		bank := replay()
		out := cmd.OutOrStdout()

		for _, u := range bank.Users() {
			if !u.HasEmail(queryEmail) {
				continue
			}
			if len(u.Accounts) == 0 {
				fmt.Fprintf(out, "User '%s' has no accounts.\n", u.Email)
				return
			}
			accounts := append([]*domain.Account(nil), u.Accounts...)
			sort.Slice(accounts, func(i, j int) bool { return accounts[i].IBAN < accounts[j].IBAN })

			fmt.Fprintf(out, "Accounts of '%s' (plan %s):\n", u.Email, u.Plan.Type)
			for _, acc := range accounts {
				fmt.Fprintf(out, "  %s [%s]: %s %s\n", acc.IBAN, acc.Kind, acc.Balance.StringFixed(2), acc.Currency)
			}
			return
		}
		exitWithError(fmt.Errorf("user %q not found", queryEmail))
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a user's ledger after the day",
	Long:  `Prints the ledger entries of one user in order, with optional pagination.`,
	Run: func(cmd *cobra.Command, args []string) {
		if querySkip < 0 {
			exitWithError(fmt.Errorf("skip value cannot be negative"))
		}
		if queryLimit < 0 {
			exitWithError(fmt.Errorf("limit value cannot be negative"))
		}

		bank := replay()
		history, err := bank.History(queryEmail)
		if err != nil {
			exitWithError(fmt.Errorf("failed to get history: %w", err))
		}
		history = page(history, querySkip, queryLimit)

		out := cmd.OutOrStdout()
		if len(history) == 0 {
			fmt.Fprintf(out, "No ledger entries found for '%s'.\n", queryEmail)
			return
		}
		fmt.Fprintf(out, "Ledger of '%s':\n", queryEmail)
		fmt.Fprintln(out, "--------------------------------------------------")
		for _, ev := range history {
			printEventDetails(out, ev)
			fmt.Fprintln(out, "--------------------------------------------------")
		}
	},
}

func replay() *app.Bank {
	cfg, err := loadConfig()
	if err != nil {
		exitWithError(err)
	}
	day, err := input.DecodeFile(inputPath)
	if err != nil {
		exitWithError(err)
	}
	bank := newBank(cfg, nil)
	if _, err := bank.StartDay(day); err != nil {
		exitWithError(err)
	}
	return bank
}

func page(evs []events.Event, skip, limit int) []events.Event {
	if skip >= len(evs) {
		return nil
	}
	evs = evs[skip:]
	if limit > 0 && limit < len(evs) {
		evs = evs[:limit]
	}
	return evs
}

func printEventDetails(w io.Writer, event events.Event) {
	base := event.GetBase()
	fmt.Fprintf(w, "  #%d %s at %d: %s\n", base.Version, base.Type, base.Timestamp, base.Description)

	switch e := event.(type) {
	case events.AccountCreatedEvent:
		fmt.Fprintf(w, "    Account: %s\n", e.Account)
	case events.CardLifecycleEvent:
		fmt.Fprintf(w, "    Card:    %s on %s\n", e.Card, e.Account)
	case events.TransferEvent:
		fmt.Fprintf(w, "    %s %s -> %s (%s)\n", e.AmountText, e.SenderIBAN, e.ReceiverIBAN, e.TransferType)
	case events.OnlinePaymentEvent:
		fmt.Fprintf(w, "    Paid:    %s to %s\n", e.Amount.StringFixed(2), e.Commerciant)
	case events.SavingsWithdrawalEvent:
		fmt.Fprintf(w, "    %s %s %s -> %s\n", e.Amount.StringFixed(2), e.Currency, e.SavingsIBAN, e.ClassicIBAN)
	case events.InterestEvent:
		fmt.Fprintf(w, "    Credit:  %s %s\n", e.Amount.StringFixed(2), e.Currency)
	default:
		jsonData, err := json.MarshalIndent(event, "    ", "  ")
		if err != nil {
			fmt.Fprintf(w, "    Error marshalling entry: %v\n", err)
			return
		}
		fmt.Fprintf(w, "    %s\n", string(jsonData))
	}
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Day file to replay (required)")
	balanceCmd.Flags().StringVar(&queryEmail, "email", "", "Email of the user to inspect (required)")
	_ = balanceCmd.MarkFlagRequired("input")
	_ = balanceCmd.MarkFlagRequired("email")

	queryCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Day file to replay (required)")
	historyCmd.Flags().StringVar(&queryEmail, "email", "", "Email of the user to inspect (required)")
	historyCmd.Flags().IntVar(&querySkip, "skip", 0, "Number of entries to skip")
	historyCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum number of entries to print (0 for no limit)")
	_ = historyCmd.MarkFlagRequired("input")
	_ = historyCmd.MarkFlagRequired("email")
}
