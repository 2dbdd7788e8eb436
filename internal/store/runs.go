// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/agentberlin/htmlentity"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrRunNotFound is returned when a run ID does not exist
var ErrRunNotFound = errors.New("run not found")

// CreateRun starts a new run over urls. definitions is kept for reference and
// may be empty.
func (s *Store) CreateRun(urls []string, definitions string) (*ParseRun, error) {
	encoded, err := sonic.MarshalString(urls)
	if err != nil {
		return nil, fmt.Errorf("failed to encode urls: %w", err)
	}
	run := ParseRun{
		ID:          uuid.NewString(),
		URLs:        encoded,
		Definitions: definitions,
		State:       RunStateInProgress,
	}
	if err := s.db.Create(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &run, nil
}

// FinishRun marks a run completed, or failed when runErr is not nil.
func (s *Store) FinishRun(runID string, runErr error) error {
	updates := map[string]interface{}{
		"state":       RunStateCompleted,
		"finished_at": time.Now().UnixNano(),
	}
	if runErr != nil {
		updates["state"] = RunStateFailed
		updates["error"] = runErr.Error()
	}
	result := s.db.Model(&ParseRun{}).Where("id = ?", runID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to finish run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// SaveResults stores the records and resources parsed from the document at
// url, linked entity rows included, and updates the run counters.
func (s *Store) SaveResults(runID, url string, res *htmlentity.Results) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var run ParseRun
		if err := tx.Select("id").First(&run, "id = ?", runID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
			}
			return fmt.Errorf("failed to get run: %w", err)
		}

		count, err := saveRows(tx, runID, url, nil, "", res)
		if err != nil {
			return err
		}

		for _, r := range res.Resources {
			sr := StoredResource{RunID: runID, URL: r.URL, Path: r.Path, Skipped: r.Skipped}
			if r.Err != nil {
				sr.Error = r.Err.Error()
			}
			if err := tx.Create(&sr).Error; err != nil {
				return fmt.Errorf("failed to save resource: %w", err)
			}
		}

		return tx.Model(&ParseRun{}).Where("id = ?", runID).Updates(map[string]interface{}{
			"documents":    gorm.Expr("documents + 1"),
			"record_count": gorm.Expr("record_count + ?", count),
			"error_count":  gorm.Expr("error_count + ?", len(res.Errors)),
		}).Error
	})
}

// saveRows stores every row of res under parent and returns the number of
// top-level rows written.
func saveRows(tx *gorm.DB, runID, url string, parent *uint, linkField string, res *htmlentity.Results) (int, error) {
	count := 0
	for _, entity := range res.EntityNames() {
		for i, rec := range res.Rows(entity) {
			payload, err := sonic.MarshalString(recordPayload{
				Fields:       rec.Fields,
				Values:       rec.Values,
				LinkedFields: rec.LinkedFields,
				Warnings:     rec.Warnings,
			})
			if err != nil {
				return count, fmt.Errorf("failed to encode record: %w", err)
			}
			row := StoredRecord{
				RunID:     runID,
				ParentID:  parent,
				LinkField: linkField,
				URL:       url,
				Entity:    entity,
				Position:  i,
				Payload:   payload,
			}
			if err := tx.Create(&row).Error; err != nil {
				return count, fmt.Errorf("failed to save record: %w", err)
			}
			count++

			for field, linked := range rec.LinkedEntities {
				if _, err := saveRows(tx, runID, "", &row.ID, field, linked); err != nil {
					return count, err
				}
			}
		}
	}
	return count, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(limit int) ([]ParseRun, error) {
	var runs []ParseRun
	q := s.db.Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun gets a run by ID
func (s *Store) GetRun(runID string) (*ParseRun, error) {
	var run ParseRun
	if err := s.db.First(&run, "id = ?", runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// GetRecords returns the top-level records of a run in insertion order.
func (s *Store) GetRecords(runID string) ([]StoredRecord, error) {
	var records []StoredRecord
	err := s.db.Where("run_id = ? AND parent_id IS NULL", runID).Order("id").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	return records, nil
}

// GetChildRecords returns the linked rows stored under a record.
func (s *Store) GetChildRecords(parentID uint) ([]StoredRecord, error) {
	var records []StoredRecord
	if err := s.db.Where("parent_id = ?", parentID).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get child records: %w", err)
	}
	return records, nil
}

// GetResources returns the resources downloaded during a run.
func (s *Store) GetResources(runID string) ([]StoredResource, error) {
	var resources []StoredResource
	if err := s.db.Where("run_id = ?", runID).Order("id").Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("failed to get resources: %w", err)
	}
	return resources, nil
}

// DeleteRun deletes a run with its records and resources.
func (s *Store) DeleteRun(runID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&StoredResource{}).Error; err != nil {
			return fmt.Errorf("failed to delete resources: %w", err)
		}
		if err := tx.Where("run_id = ?", runID).Delete(&StoredRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete records: %w", err)
		}
		result := tx.Delete(&ParseRun{}, "id = ?", runID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete run: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}
