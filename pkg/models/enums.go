package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
)

type RelationshipType string

const (
	RelationshipTypeClient RelationshipType = "CLIENT"
	RelationshipTypeVendor RelationshipType = "VENDOR"
	RelationshipTypeLead   RelationshipType = "LEAD"
	RelationshipTypeOther  RelationshipType = "OTHER"
)

var RelationshipTypes = []RelationshipType{
	RelationshipTypeClient,
	RelationshipTypeVendor,
	RelationshipTypeLead,
	RelationshipTypeOther,
}

type SourceSystem string

const (
	SourceSystemInvoice SourceSystem = "INVOICE"
	SourceSystemZoho    SourceSystem = "ZOHO"
	SourceSystemGmail   SourceSystem = "GMAIL"
	SourceSystemOutlook SourceSystem = "OUTLOOK"
	SourceSystemMobile  SourceSystem = "MOBILE"
	SourceSystemVCF     SourceSystem = "VCF"
	SourceSystemManual  SourceSystem = "MANUAL"
)

var SourceSystems = []SourceSystem{
	SourceSystemInvoice,
	SourceSystemZoho,
	SourceSystemGmail,
	SourceSystemOutlook,
	SourceSystemMobile,
	SourceSystemVCF,
	SourceSystemManual,
}

type MergeType string

const (
	MergeTypeAutoMerge     MergeType = "AUTO_MERGE"
	MergeTypeManualMerge   MergeType = "MANUAL_MERGE"
	MergeTypeDeduplication MergeType = "DEDUPLICATION"
)

var MergeTypes = []MergeType{
	MergeTypeAutoMerge,
	MergeTypeManualMerge,
	MergeTypeDeduplication,
}

type MergeReason string

const (
	MergeReasonSamePhone      MergeReason = "SAME_PHONE"
	MergeReasonSimilarName    MergeReason = "SIMILAR_NAME"
	MergeReasonExactMatch     MergeReason = "EXACT_MATCH"
	MergeReasonDuplicateEntry MergeReason = "DUPLICATE_ENTRY"
)

var MergeReasons = []MergeReason{
	MergeReasonSamePhone,
	MergeReasonSimilarName,
	MergeReasonExactMatch,
	MergeReasonDuplicateEntry,
}

func parseEnum[T ~string](raw string, members []T, name string) (T, error) {
	for _, m := range members {
		if string(m) == raw {
			return m, nil
		}
	}
	var zero T
	return zero, errs.InvalidInput("invalid %s: %q", name, raw)
}

func ParseRelationshipType(raw string) (RelationshipType, error) {
	return parseEnum(raw, RelationshipTypes, "relationship_type")
}

func ParseSourceSystem(raw string) (SourceSystem, error) {
	return parseEnum(raw, SourceSystems, "source_system")
}

func ParseMergeType(raw string) (MergeType, error) {
	return parseEnum(raw, MergeTypes, "merge_type")
}

func ParseMergeReason(raw string) (MergeReason, error) {
	return parseEnum(raw, MergeReasons, "merge_reason")
}

func scanString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into enum", value)
	}
}

func (r *RelationshipType) Scan(value any) error {
	raw, err := scanString(value)
	if err != nil {
		return err
	}
	parsed, err := ParseRelationshipType(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r RelationshipType) Value() (driver.Value, error) { return string(r), nil }

func (s *SourceSystem) Scan(value any) error {
	raw, err := scanString(value)
	if err != nil {
		return err
	}
	parsed, err := ParseSourceSystem(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s SourceSystem) Value() (driver.Value, error) { return string(s), nil }

func (m *MergeType) Scan(value any) error {
	raw, err := scanString(value)
	if err != nil {
		return err
	}
	parsed, err := ParseMergeType(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m MergeType) Value() (driver.Value, error) { return string(m), nil }

func (m *MergeReason) Scan(value any) error {
	raw, err := scanString(value)
	if err != nil {
		return err
	}
	parsed, err := ParseMergeReason(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m MergeReason) Value() (driver.Value, error) { return string(m), nil }

// ParseSourceSystems parses every entry, failing on the first invalid one.
func ParseSourceSystems(raw []string) ([]SourceSystem, error) {
	out := make([]SourceSystem, 0, len(raw))
	for _, r := range raw {
		s, err := ParseSourceSystem(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
