// control/registry.go
// Author: momentics <momentics@gmail.com>
//
// Registry wires the generic ConfigStore/MetricsRegistry/DebugProbes
// surface above to a running selector.Selector, so an
// operator can inspect reactor load (registrant/avail counts) the same
// way facade/hioload.go exposed Control over its WS session stats in the
// teacher.

package control

// SelectorStats is the subset of selector.Selector state worth exposing
// through the control surface; defined locally to avoid this package
// importing selector, matching the teacher's facade/control split where
// Control consumes plain data, not live collaborator types.
type SelectorStats struct {
	Devices int
	Avail   int
}

// Registry groups the three control primitives and refreshes metrics
// from a caller-supplied stats snapshot on demand (the caller, typically
// the goroutine driving Selector.Wait, calls RefreshSelectorMetrics
// periodically or after notable events).
type Registry struct {
	Config  *ConfigStore
	Metrics *MetricsRegistry
	Debug   *DebugProbes
}

// NewRegistry constructs a Registry with fresh sub-stores, the platform
// debug probes installed (RegisterPlatformProbes), and Config wired so
// that any SetConfig call also fires the package-level hot-reload hooks
// registered via RegisterReloadHook — the same two-tier reload mechanism
// (per-store listeners plus global hooks) the teacher's config layer
// exposed but never connected end to end.
func NewRegistry() *Registry {
	r := &Registry{
		Config:  NewConfigStore(),
		Metrics: NewMetricsRegistry(),
		Debug:   NewDebugProbes(),
	}
	RegisterPlatformProbes(r.Debug)
	r.Config.OnReload(TriggerHotReload)
	return r
}

// RefreshSelectorMetrics records the current selector load into the
// metrics registry under the "selector.devices" / "selector.avail" keys.
func (r *Registry) RefreshSelectorMetrics(stats SelectorStats) {
	r.Metrics.Set("selector.devices", stats.Devices)
	r.Metrics.Set("selector.avail", stats.Avail)
}

// RegisterSelectorProbe installs a debug probe that calls snapshot on
// demand (e.g. wired to sel.DeviceCount/AvailCount by the caller) rather
// than polling eagerly.
func (r *Registry) RegisterSelectorProbe(name string, snapshot func() any) {
	r.Debug.RegisterProbe(name, snapshot)
}
