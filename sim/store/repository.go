package store

import (
	"errors"

	"gorm.io/gorm"
)

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Policy  string
	Devices int
}

// Repository reads and writes run records.
type Repository struct {
	db *gorm.DB
}

// Save inserts a run with its tier breakdown.
func (r *Repository) Save(run *RunRecord) error {
	return r.db.Create(run).Error
}

// Get loads one run by ID. Returns ErrNotFound for unknown IDs.
func (r *Repository) Get(id string) (*RunRecord, error) {
	var run RunRecord
	err := r.db.Preload("Tiers").First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns matching runs, newest first.
func (r *Repository) List(f Filter) ([]RunRecord, error) {
	query := r.db.Preload("Tiers").Order("created_at DESC").Order("devices ASC")
	if f.Policy != "" {
		query = query.Where("policy = ?", f.Policy)
	}
	if f.Devices > 0 {
		query = query.Where("devices = ?", f.Devices)
	}
	var runs []RunRecord
	err := query.Find(&runs).Error
	return runs, err
}
