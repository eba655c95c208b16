package app

import (
	"strconv"

	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x/escrow"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts entry point calls by result.
type Metrics struct {
	calls *prometheus.CounterVec
}

// NewMetrics creates the runtime metrics and registers them on reg. A nil
// registerer keeps the metrics unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "htlc_entrypoint_calls_total",
		Help: "Total number of escrow entry point calls by result",
	}, []string{"entrypoint", "result"})

	if reg != nil {
		if err := reg.Register(calls); err != nil {
			return nil, errors.Wrap(errors.ErrHuman, err.Error())
		}
	}
	return &Metrics{calls: calls}, nil
}

// observe records a call. The result label is "ok", "fatal" for a broken
// instance, or the ABCI code of the error.
func (m *Metrics) observe(entrypoint string, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(entrypoint, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case escrow.IsFatal(err):
		return "fatal"
	default:
		code, _ := errors.ABCIInfo(err, false)
		return strconv.FormatUint(uint64(code), 10)
	}
}
