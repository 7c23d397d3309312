package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
)

// MergeHistory is an append-only record of one consolidation decision.
type MergeHistory struct {
	ID                    string                         `json:"id" db:"id"`
	MergeType             MergeType                      `json:"merge_type" db:"merge_type"`
	PrimaryContactID      string                         `json:"primary_contact_id" db:"primary_contact_id"`
	PrimaryContactName    string                         `json:"primary_contact_name" db:"primary_contact_name"`
	MergedContactID       *string                        `json:"merged_contact_id" db:"merged_contact_id"`
	MergedContactName     *string                        `json:"merged_contact_name" db:"merged_contact_name"`
	SourceSystem          SourceSystem                   `json:"source_system" db:"source_system"`
	SourceRecordID        *string                        `json:"source_record_id" db:"source_record_id"`
	MergeReason           MergeReason                    `json:"merge_reason" db:"merge_reason"`
	MergeDetails          database.JSONB[map[string]any] `json:"merge_details" db:"merge_details"`
	MergedBy              string                         `json:"merged_by" db:"merged_by"`
	BeforeMergeData       database.JSONB[map[string]any] `json:"before_merge_data" db:"before_merge_data"`
	AfterMergeData        database.JSONB[map[string]any] `json:"after_merge_data" db:"after_merge_data"`
	BeforeQualityScore    *int                           `json:"before_quality_score" db:"before_quality_score"`
	AfterQualityScore     *int                           `json:"after_quality_score" db:"after_quality_score"`
	InvolvedSourceSystems pq.StringArray                 `json:"involved_source_systems" db:"involved_source_systems"`
	MergedAt              time.Time                      `json:"merged_at" db:"merged_at"`
}

type RecordMergeInput struct {
	MergeType             MergeType      `json:"merge_type" validate:"required"`
	PrimaryContactID      string         `json:"primary_contact_id" validate:"required"`
	PrimaryContactName    string         `json:"primary_contact_name" validate:"required"`
	MergedContactID       *string        `json:"merged_contact_id,omitempty"`
	MergedContactName     *string        `json:"merged_contact_name,omitempty"`
	SourceSystem          SourceSystem   `json:"source_system" validate:"required"`
	SourceRecordID        *string        `json:"source_record_id,omitempty"`
	MergeReason           MergeReason    `json:"merge_reason" validate:"required"`
	MergeDetails          map[string]any `json:"merge_details,omitempty"`
	MergedBy              string         `json:"merged_by,omitempty"`
	BeforeMergeData       map[string]any `json:"before_merge_data,omitempty"`
	AfterMergeData        map[string]any `json:"after_merge_data,omitempty"`
	BeforeQualityScore    *int           `json:"before_quality_score,omitempty"`
	AfterQualityScore     *int           `json:"after_quality_score,omitempty"`
	InvolvedSourceSystems []SourceSystem `json:"involved_source_systems,omitempty"`
}

type MergeHistoryFilter struct {
	ContactID     string
	MergeType     *MergeType
	SourceSystems []SourceSystem
	EmailOnly     bool
	From          *time.Time
	To            *time.Time
	Page          int
	Limit         int
}

type MergeStatistics struct {
	Total               int                  `json:"total"`
	ByType              map[MergeType]int    `json:"by_type"`
	ByReason            map[MergeReason]int  `json:"by_reason"`
	BySource            map[SourceSystem]int `json:"by_source"`
	LastSevenDays       int                  `json:"last_seven_days"`
	EmailOriginBySource map[SourceSystem]int `json:"email_origin_by_source"`
}

func NewMergeStatistics() *MergeStatistics {
	return &MergeStatistics{
		ByType:              map[MergeType]int{},
		ByReason:            map[MergeReason]int{},
		BySource:            map[SourceSystem]int{},
		EmailOriginBySource: map[SourceSystem]int{},
	}
}
