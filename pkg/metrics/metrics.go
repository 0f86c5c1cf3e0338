package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// 结果标签
const (
	ResultOK          = "ok"
	ResultNetwork     = "network"
	ResultRejected    = "rejected"
	ResultCircuitOpen = "circuit_open"
	ResultIncomplete  = "incomplete"
	ResultInFlight    = "in_flight"
	ResultFailed      = "failed"
	ResultInvalid     = "invalid"
)

// Metrics 客户端流程指标，方法对 nil 接收者安全
type Metrics struct {
	reconcileTotal *prometheus.CounterVec
	submitTotal    *prometheus.CounterVec
	storageErrors  *prometheus.CounterVec
	sectionSaves   *prometheus.CounterVec

	// reg 同时是 Gatherer 时用于 Summary
	gatherer prometheus.Gatherer
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		reconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_reconcile_total",
			Help: "Completion status reconciliations by result",
		}, []string{"result"}),
		submitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_submit_total",
			Help: "Registration submission attempts by result",
		}, []string{"result"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_storage_errors_total",
			Help: "Local storage failures by operation",
		}, []string{"op"}),
		sectionSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_section_saves_total",
			Help: "Section saves by section and result",
		}, []string{"section", "result"}),
	}

	var err error
	if m.reconcileTotal, err = registerCounterVec(reg, m.reconcileTotal); err != nil {
		return nil, err
	}
	if m.submitTotal, err = registerCounterVec(reg, m.submitTotal); err != nil {
		return nil, err
	}
	if m.storageErrors, err = registerCounterVec(reg, m.storageErrors); err != nil {
		return nil, err
	}
	if m.sectionSaves, err = registerCounterVec(reg, m.sectionSaves); err != nil {
		return nil, err
	}

	m.gatherer, _ = reg.(prometheus.Gatherer)
	return m, nil
}

// Local 注册到独立的 registry，CLI 和测试使用
func Local() *Metrics {
	m, _ := New(prometheus.NewRegistry())
	return m
}

func (m *Metrics) Reconcile(result string) {
	if m == nil {
		return
	}
	m.reconcileTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Submit(result string) {
	if m == nil {
		return
	}
	m.submitTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) StorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) SectionSave(section, result string) {
	if m == nil {
		return
	}
	m.sectionSaves.WithLabelValues(section, result).Inc()
}

// Summary 返回非零计数器，key 形如 onboard_submit_total{result="ok"}
func (m *Metrics) Summary() map[string]float64 {
	out := make(map[string]float64)
	if m == nil || m.gatherer == nil {
		return out
	}

	families, err := m.gatherer.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "onboard_") {
			continue
		}
		for _, metric := range mf.GetMetric() {
			v := metric.GetCounter().GetValue()
			if v == 0 {
				continue
			}
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, l := range metric.GetLabel() {
				labels = append(labels, l.GetName()+`="`+l.GetValue()+`"`)
			}
			sort.Strings(labels)
			out[mf.GetName()+"{"+strings.Join(labels, ",")+"}"] = v
		}
	}
	return out
}

// 重复注册时复用已注册的 collector
func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}
