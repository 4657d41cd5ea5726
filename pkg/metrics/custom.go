package metrics

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrReservedName is returned when a custom metric reuses a built-in
// metric name.
var ErrReservedName = errors.New("metric name is reserved")

// ReservedNames returns the built-in metric names custom metrics may
// not use.
func ReservedNames() []string {
	return []string{NameRequestCount, NameRAMTestMetricCount, NameRoomTemperature}
}

// Definition declares a synthetic metric updated on every tick.
// When Expr is empty the value is drawn uniformly from [Min, Max);
// otherwise Expr is evaluated with tick, now, rand() and
// randRange(min, max) in scope. Counters add the computed value as a
// delta (negative deltas are dropped); gauges are set to it.
type Definition struct {
	Name string
	Help string
	Type string // "counter" or "gauge"
	Min  float64
	Max  float64
	Expr string
}

type customMetric struct {
	def     Definition
	counter prometheus.Counter
	gauge   prometheus.Gauge
	program *vm.Program
}

// RegisterCustom adds a synthetic metric to the registry. Register all
// custom metrics before the update loop starts so every tick covers
// them.
func (r *Registry) RegisterCustom(def Definition) error {
	for _, reserved := range ReservedNames() {
		if def.Name == reserved {
			return fmt.Errorf("%w: %s", ErrReservedName, def.Name)
		}
	}

	m := &customMetric{def: def}

	if def.Expr != "" {
		program, err := expr.Compile(def.Expr, expr.Env(exprEnviron(0)))
		if err != nil {
			return fmt.Errorf("compile expr for %s: %w", def.Name, err)
		}
		m.program = program
	} else if def.Min >= def.Max {
		return fmt.Errorf("metric %s: range min must be less than max", def.Name)
	}

	var collector prometheus.Collector
	switch def.Type {
	case "counter":
		m.counter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: def.Name,
			Help: def.Help,
		})
		collector = m.counter
	case "gauge":
		m.gauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: def.Name,
			Help: def.Help,
		})
		collector = m.gauge
	default:
		return fmt.Errorf("metric %s: type must be counter or gauge, got %q", def.Name, def.Type)
	}

	if err := r.reg.Register(collector); err != nil {
		return fmt.Errorf("register %s: %w", def.Name, err)
	}

	r.mu.Lock()
	r.custom = append(r.custom, m)
	r.mu.Unlock()

	return nil
}

// tick computes and applies one update for the metric. Evaluation
// errors leave the value unchanged.
func (m *customMetric) tick(n uint64) {
	var v float64

	if m.program != nil {
		out, err := expr.Run(m.program, exprEnviron(n))
		if err != nil {
			return
		}
		f, ok := toFloat64(out)
		if !ok {
			return
		}
		v = f
	} else {
		v = m.def.Min + rand.Float64()*(m.def.Max-m.def.Min)
	}

	switch {
	case m.counter != nil:
		if v > 0 {
			m.counter.Add(v)
		}
	case m.gauge != nil:
		m.gauge.Set(v)
	}
}

// exprEnviron builds the evaluation scope for one tick. The same shape
// is used at compile time for type checking.
func exprEnviron(tick uint64) map[string]interface{} {
	return map[string]interface{}{
		"tick": int(tick),
		"now":  time.Now().Unix(),
		"rand": func() float64 {
			return rand.Float64()
		},
		"randRange": func(min, max float64) float64 {
			return min + rand.Float64()*(max-min)
		},
	}
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
