package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"tg-warden/internal/storage"
)

// Metrics holds the prometheus instruments for the moderation
// pipeline. Registry-backed totals (gbanned users, warn filters) are
// exported as gauge funcs reading straight from the repositories.
type Metrics struct {
	WarnsIssued      prometheus.Counter
	WarnPunishments  *prometheus.CounterVec
	GbanFanoutChats  *prometheus.CounterVec
	GbanEnforcements prometheus.Counter
	ReportsForwarded prometheus.Counter
}

// NewMetrics registers the moderation metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer, warns *storage.WarnRepository, filters *storage.FilterRepository, gbans *storage.GbanRepository) *Metrics {
	m := &Metrics{
		WarnsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_warns_issued_total",
			Help: "Warnings issued across all chats.",
		}),
		WarnPunishments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_warn_punishments_total",
			Help: "Punitive actions triggered by reaching the warn limit.",
		}, []string{"action"}),
		GbanFanoutChats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_gban_fanout_chats_total",
			Help: "Per-chat outcomes of gban fan-outs.",
		}, []string{"result"}),
		GbanEnforcements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_gban_enforcements_total",
			Help: "Gbanned users removed by passive enforcement.",
		}),
		ReportsForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_reports_forwarded_total",
			Help: "User reports forwarded to chat admins.",
		}),
	}

	reg.MustRegister(
		m.WarnsIssued,
		m.WarnPunishments,
		m.GbanFanoutChats,
		m.GbanEnforcements,
		m.ReportsForwarded,
	)

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "warden_gbanned_users",
		Help: "Users currently in the global-ban registry.",
	}, func() float64 {
		count, err := gbans.NumGbannedUsers()
		if err != nil {
			return 0
		}
		return float64(count)
	}))

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "warden_warn_filters",
		Help: "Warn filters registered across all chats.",
	}, func() float64 {
		count, err := filters.NumFilters()
		if err != nil {
			return 0
		}
		return float64(count)
	}))

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "warden_total_warns",
		Help: "Sum of current warn counts across all chats.",
	}, func() float64 {
		count, err := warns.NumWarns()
		if err != nil {
			return 0
		}
		return float64(count)
	}))

	return m
}
