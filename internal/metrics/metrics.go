package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay metrics
var (
	// RelayedTotal tracks copy operations by direction and status
	RelayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Total relayed messages by direction (to_channel, to_private) and status",
		},
		[]string{"direction", "status"},
	)

	// DroppedTotal tracks messages that were not relayed
	DroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_dropped_total",
			Help: "Total messages not relayed by reason",
		},
		[]string{"reason"},
	)

	// CommandsTotal tracks bot command invocations
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_commands_total",
			Help: "Total bot commands by command",
		},
		[]string{"command"},
	)
)

// Settings persistence metrics
var (
	// SettingsSavesTotal tracks settings saves by status
	SettingsSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_saves_total",
			Help: "Total settings saves by status",
		},
		[]string{"status"},
	)

	// SettingsEntries tracks the size of each settings mapping
	SettingsEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "settings_entries",
			Help: "Current number of entries per settings mapping (users, channels, messages)",
		},
		[]string{"mapping"},
	)
)

// ObserveSettings records mapping sizes
func ObserveSettings(users, channels, messages int) {
	SettingsEntries.WithLabelValues("users").Set(float64(users))
	SettingsEntries.WithLabelValues("channels").Set(float64(channels))
	SettingsEntries.WithLabelValues("messages").Set(float64(messages))
}
