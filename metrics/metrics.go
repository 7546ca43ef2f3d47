package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Recorder holds the counters for one simulated day. Each Recorder owns
// its registry so two banks in one process never share series.
type Recorder struct {
	registry *prometheus.Registry

	commands      *prometheus.CounterVec
	ignored       prometheus.Counter
	errorResults  *prometheus.CounterVec
	ledgerEntries *prometheus.CounterVec
	feesCharged   prometheus.Counter
	cashbackPaid  prometheus.Counter
	users         prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bank",
			Subsystem: "dispatcher",
			Name:      "commands_total",
			Help:      "Commands dispatched, by kind.",
		}, []string{"command"}),
		ignored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bank",
			Subsystem: "dispatcher",
			Name:      "ignored_commands_total",
			Help:      "Commands with an unknown kind.",
		}),
		errorResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bank",
			Subsystem: "dispatcher",
			Name:      "error_results_total",
			Help:      "Error records written to the result stream, by command.",
		}, []string{"command"}),
		ledgerEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bank",
			Subsystem: "ledger",
			Name:      "entries_total",
			Help:      "Ledger entries appended, by kind.",
		}, []string{"kind"}),
		feesCharged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bank",
			Subsystem: "plans",
			Name:      "fees_charged_reference_total",
			Help:      "Transaction fees charged, in the reference currency.",
		}),
		cashbackPaid: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bank",
			Subsystem: "cashback",
			Name:      "paid_reference_total",
			Help:      "Cashback credited, in the reference currency.",
		}),
		users: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "bank",
			Name:      "users",
			Help:      "Users loaded for the day.",
		}),
	}
}

func (r *Recorder) CommandDispatched(command string) {
	r.commands.WithLabelValues(command).Inc()
}

func (r *Recorder) CommandIgnored() {
	r.ignored.Inc()
}

func (r *Recorder) ErrorResult(command string) {
	r.errorResults.WithLabelValues(command).Inc()
}

func (r *Recorder) LedgerEntry(kind string) {
	r.ledgerEntries.WithLabelValues(kind).Inc()
}

func (r *Recorder) FeeCharged(amount decimal.Decimal) {
	if amount.IsPositive() {
		r.feesCharged.Add(amount.InexactFloat64())
	}
}

func (r *Recorder) CashbackPaid(amount decimal.Decimal) {
	if amount.IsPositive() {
		r.cashbackPaid.Add(amount.InexactFloat64())
	}
}

func (r *Recorder) SetUsers(n int) {
	r.users.Set(float64(n))
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile dumps every series in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
