// Package store persists run summaries in SQLite so that sweeps can be
// compared after the process exits.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vecsim/vecsim/sim"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// RunRecord is the persisted summary of one (devices, policy) run.
type RunRecord struct {
	ID                 string       `json:"id" gorm:"primaryKey"`
	CreatedAt          time.Time    `json:"created_at" gorm:"index"`
	Devices            int          `json:"devices" gorm:"index"`
	Policy             string       `json:"policy" gorm:"size:32;index"`
	Seed               int64        `json:"seed"`
	TasksGenerated     int          `json:"tasks_generated"`
	Completed          int          `json:"completed"`
	Failed             int          `json:"failed"`
	SuccessRate        float64      `json:"success_rate"`
	MeanServiceTime    float64      `json:"mean_service_time"`
	StdDevServiceTime  float64      `json:"std_dev_service_time"`
	P95ServiceTime     float64      `json:"p95_service_time"`
	MeanProcessingTime float64      `json:"mean_processing_time"`
	MeanNetworkTime    float64      `json:"mean_network_time"`
	MeanQoE            float64      `json:"mean_qoe"`
	BandwidthFailures  int          `json:"bandwidth_failures"`
	CapacityFailures   int          `json:"capacity_failures"`
	MobilityFailures   int          `json:"mobility_failures"`
	MeanOverheadMicros float64      `json:"mean_overhead_micros"`
	Tiers              []TierRecord `json:"tiers" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TierRecord is the per-tier breakdown of a run.
type TierRecord struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	RunID     string `json:"-" gorm:"size:36;index"`
	Tier      string `json:"tier" gorm:"size:16"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

// NewRunRecord summarizes run metrics under a fresh ID.
func NewRunRecord(devices int, policy string, seed int64, m *sim.RunMetrics) *RunRecord {
	s := m.Summarize()
	r := &RunRecord{
		ID:                 uuid.New().String(),
		Devices:            devices,
		Policy:             policy,
		Seed:               seed,
		TasksGenerated:     m.TasksGenerated,
		Completed:          s.Completed,
		Failed:             s.Failed,
		SuccessRate:        s.SuccessRate,
		MeanServiceTime:    s.MeanServiceTime,
		StdDevServiceTime:  s.StdDevServiceTime,
		P95ServiceTime:     s.P95ServiceTime,
		MeanProcessingTime: s.MeanProcessingTime,
		MeanNetworkTime:    s.MeanNetworkTime,
		MeanQoE:            s.MeanQoE,
		BandwidthFailures:  s.BandwidthFailures,
		CapacityFailures:   s.CapacityFailures,
		MobilityFailures:   s.MobilityFailures,
		MeanOverheadMicros: s.MeanOverheadMicros,
	}
	for _, t := range []sim.Tier{sim.TierLocal, sim.TierEdge, sim.TierCloudViaRSU, sim.TierCloudViaGSM} {
		tm, ok := m.Tiers[t]
		if !ok {
			continue
		}
		r.Tiers = append(r.Tiers, TierRecord{RunID: r.ID, Tier: t.String(), Completed: tm.Completed, Failed: tm.Failed()})
	}
	return r
}

// Store is an open results database.
type Store struct {
	db *gorm.DB
}

// Open connects to (or creates) the SQLite database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening results database: %w", err)
	}
	if err := db.AutoMigrate(&RunRecord{}, &TierRecord{}); err != nil {
		return nil, fmt.Errorf("migrating results database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Repository returns the run repository backed by this store.
func (s *Store) Repository() *Repository {
	return &Repository{db: s.db}
}
