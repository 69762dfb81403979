package metrics

import "github.com/prometheus/client_golang/prometheus"

// Shipment sync results.
const (
	SyncChanged   = "changed"
	SyncUnchanged = "unchanged"
	SyncUnmapped  = "unmapped"
	SyncFailed    = "failed"
)

// ShipmentSyncMetrics counts courier polls by result.
type ShipmentSyncMetrics struct {
	syncs *prometheus.CounterVec
}

func NewShipmentSyncMetrics(reg prometheus.Registerer) *ShipmentSyncMetrics {
	if reg == nil {
		return &ShipmentSyncMetrics{}
	}
	syncs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipment_sync_total",
		Help: "Courier tracking syncs by result.",
	}, []string{"result"})
	reg.MustRegister(syncs)
	return &ShipmentSyncMetrics{syncs: syncs}
}

func (s *ShipmentSyncMetrics) Observe(result string) {
	if s == nil || s.syncs == nil {
		return
	}
	s.syncs.WithLabelValues(normalizeLabel(result)).Inc()
}
