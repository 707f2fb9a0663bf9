package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var MetricRegisterErrorMessage = "failed to register metric counter"

type Meter interface {
	IncOp(worker string, op string, result string)
	SetListLength(listName string, length float64)
	IncStall()
	NewOpTimer(op string) *prometheus.Timer
	FlushOpTimer(t *prometheus.Timer)
}

type Metrics struct {
	opsCounter      *prometheus.CounterVec
	listLengthGauge *prometheus.GaugeVec
	stallCounter    prometheus.Counter
	opTimeCounter   *prometheus.HistogramVec
}

func New() (*Metrics, error) {
	m := &Metrics{
		opsCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atomic_list_ops_total",
				Help: "Number of list operations by worker kind, operation and result.",
			},
			[]string{"worker", "op", "result"},
		),
		listLengthGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "atomic_list_length",
				Help: "Current number of linked nodes per list.",
			},
			[]string{"list"},
		),
		stallCounter: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "atomic_list_stalls_total",
				Help: "Number of observation windows without counter progress.",
			},
		),
		opTimeCounter: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "atomic_list_op_duration_seconds",
			Help: "Duration of list operations.",
		}, []string{"op"}),
	}

	if err := prometheus.Register(m.opsCounter); err != nil {
		log.Err(err).Msg(MetricRegisterErrorMessage)
		return nil, errors.New(MetricRegisterErrorMessage)
	}
	if err := prometheus.Register(m.listLengthGauge); err != nil {
		log.Err(err).Msg(MetricRegisterErrorMessage)
		return nil, errors.New(MetricRegisterErrorMessage)
	}
	if err := prometheus.Register(m.stallCounter); err != nil {
		log.Err(err).Msg(MetricRegisterErrorMessage)
		return nil, errors.New(MetricRegisterErrorMessage)
	}
	if err := prometheus.Register(m.opTimeCounter); err != nil {
		log.Err(err).Msg(MetricRegisterErrorMessage)
		return nil, errors.New(MetricRegisterErrorMessage)
	}

	return m, nil
}

func (m *Metrics) IncOp(worker string, op string, result string) {
	m.opsCounter.With(prometheus.Labels{
		"worker": worker,
		"op":     op,
		"result": result,
	}).Inc()
}

func (m *Metrics) SetListLength(listName string, length float64) {
	m.listLengthGauge.With(prometheus.Labels{"list": listName}).Set(length)
}

func (m *Metrics) IncStall() {
	m.stallCounter.Inc()
}

func (m *Metrics) NewOpTimer(op string) *prometheus.Timer {
	return prometheus.NewTimer(m.opTimeCounter.WithLabelValues(op))
}

func (m *Metrics) FlushOpTimer(t *prometheus.Timer) {
	t.ObserveDuration()
}
