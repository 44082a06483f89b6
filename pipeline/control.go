// File: pipeline/control.go
// Author: momentics <momentics@gmail.com>
//
// Binding of a Manager to the control plane: debug probe, hot-reload of the
// high-water mark and metrics publication.

package pipeline

import (
	"fmt"
	"strconv"

	"github.com/momentics/frameq/api"
)

// ConfigHighWaterMark is the control-plane key applied on reload.
const ConfigHighWaterMark = "pipeline.high_water_mark"

// Attach registers the manager with ctrl.
func (m *Manager) Attach(ctrl api.Control) {
	ctrl.RegisterDebugProbe("pipeline", func() any { return m.Stats() })
	ctrl.OnReload(func() {
		v, ok := ctrl.GetConfig()[ConfigHighWaterMark]
		if !ok {
			return
		}
		h, err := asInt(v)
		if err == nil {
			err = m.SetHighWaterMark(h)
		}
		if err != nil {
			m.log.Warn("pipeline: reload rejected", "key", ConfigHighWaterMark, "value", v, "err", err)
		}
	})
}

// PublishMetrics copies the current counters into ctrl.
func (m *Manager) PublishMetrics(ctrl api.Control) {
	for k, v := range m.Stats().Metrics() {
		ctrl.SetMetric(k, v)
	}
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
