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
	"github.com/agentberlin/htmlentity"
	"github.com/bytedance/sonic"
)

// Run state constants
const (
	RunStateInProgress = "in_progress"
	RunStateCompleted  = "completed"
	RunStateFailed     = "failed"
)

// ParseRun is one invocation of the parser over a list of URLs
type ParseRun struct {
	ID          string         `gorm:"primaryKey;type:text"` // uuid
	URLs        string         `gorm:"type:text"`            // JSON array
	Definitions string         `gorm:"type:text"`            // entity definition source, if any
	State       string         `gorm:"not null;default:'in_progress'"`
	Documents   int            `gorm:"default:0"`
	RecordCount int            `gorm:"default:0"`
	ErrorCount  int            `gorm:"default:0"`
	Error       string         `gorm:"type:text"`
	Records     []StoredRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	StartedAt   int64          `gorm:"autoCreateTime:nano;index"`
	FinishedAt  int64
}

// URLList decodes the URLs JSON.
func (r *ParseRun) URLList() []string {
	var urls []string
	if r.URLs == "" {
		return nil
	}
	if err := sonic.UnmarshalString(r.URLs, &urls); err != nil {
		return nil
	}
	return urls
}

// StoredRecord is a record of a run. Rows collected from followed links are
// stored as children of the row that followed them.
type StoredRecord struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"not null;index"`
	ParentID *uint  `gorm:"index"`
	// LinkField is the follow-link field of the parent that produced this row
	LinkField string
	// URL is the document a top-level row came from
	URL    string `gorm:"type:text"`
	Entity string `gorm:"not null;index"`
	// Position orders rows within their parent
	Position  int
	Payload   string         `gorm:"type:text"` // JSON, see recordPayload
	Children  []StoredRecord `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	CreatedAt int64          `gorm:"autoCreateTime"`
}

type recordPayload struct {
	Fields       []string                       `json:"fields"`
	Values       map[string][]string            `json:"values"`
	LinkedFields map[string]map[string][]string `json:"linked_fields,omitempty"`
	Warnings     []string                       `json:"warnings,omitempty"`
}

// Record decodes the payload. Linked entity rows are not included; read them
// with GetChildRecords.
func (r *StoredRecord) Record() (*htmlentity.Record, error) {
	var p recordPayload
	if err := sonic.UnmarshalString(r.Payload, &p); err != nil {
		return nil, err
	}
	return &htmlentity.Record{
		Entity:       r.Entity,
		Fields:       p.Fields,
		Values:       p.Values,
		LinkedFields: p.LinkedFields,
		Warnings:     p.Warnings,
	}, nil
}

// StoredResource is a resource download attempted during a run
type StoredResource struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"not null;index"`
	URL       string `gorm:"type:text"`
	Path      string `gorm:"type:text"`
	Skipped   bool
	Error     string `gorm:"type:text"`
	CreatedAt int64  `gorm:"autoCreateTime"`
}
