package models

import "time"

// Contact is a deduplicated person or organization. (Name, Mobile) is its
// identity key whenever Mobile is set.
type Contact struct {
	ID                  string            `json:"id" db:"id"`
	Name                string            `json:"name" db:"name"`
	CompanyName         string            `json:"company_name" db:"company_name"`
	Email               *string           `json:"email" db:"email"`
	Mobile              *string           `json:"mobile" db:"mobile"`
	RelationshipType    *RelationshipType `json:"relationship_type" db:"relationship_type"`
	SourceSystem        SourceSystem      `json:"source_system" db:"source_system"`
	SourceRecordID      string            `json:"source_record_id" db:"source_record_id"`
	IsWhatsappReachable bool              `json:"is_whatsapp_reachable" db:"is_whatsapp_reachable"`
	DataQualityScore    int               `json:"data_quality_score" db:"data_quality_score"`
	CreatedAt           time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at" db:"updated_at"`

	// Owners is resolved at read time by FindOne.
	Owners []Owner `json:"owners,omitempty" db:"-"`
}

// Snapshot renders the contact as a plain map for ledger before/after data.
func (c *Contact) Snapshot() map[string]any {
	if c == nil {
		return nil
	}
	snapshot := map[string]any{
		"id":                    c.ID,
		"name":                  c.Name,
		"company_name":          c.CompanyName,
		"email":                 deref(c.Email),
		"mobile":                deref(c.Mobile),
		"relationship_type":     nil,
		"source_system":         string(c.SourceSystem),
		"source_record_id":      c.SourceRecordID,
		"is_whatsapp_reachable": c.IsWhatsappReachable,
		"data_quality_score":    c.DataQualityScore,
	}
	if c.RelationshipType != nil {
		snapshot["relationship_type"] = string(*c.RelationshipType)
	}
	return snapshot
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

type CreateContactInput struct {
	Name                string            `json:"name" validate:"required"`
	CompanyName         string            `json:"company_name" validate:"required"`
	Email               *string           `json:"email,omitempty" validate:"omitempty,email"`
	Mobile              *string           `json:"mobile,omitempty" validate:"omitempty,e164"`
	RelationshipType    *RelationshipType `json:"relationship_type,omitempty"`
	SourceSystem        SourceSystem      `json:"source_system" validate:"required"`
	SourceRecordID      string            `json:"source_record_id" validate:"required"`
	IsWhatsappReachable bool              `json:"is_whatsapp_reachable"`
}

// UpdateContactInput is a partial update. Nil pointers and unset Optionals
// leave the stored value untouched; a set Optional with a nil or empty value
// clears the column.
type UpdateContactInput struct {
	Name                *string                    `json:"name,omitempty"`
	CompanyName         *string                    `json:"company_name,omitempty"`
	Email               Optional[string]           `json:"email"`
	Mobile              Optional[string]           `json:"mobile"`
	RelationshipType    Optional[RelationshipType] `json:"relationship_type"`
	SourceSystem        *SourceSystem              `json:"source_system,omitempty"`
	SourceRecordID      *string                    `json:"source_record_id,omitempty"`
	IsWhatsappReachable *bool                      `json:"is_whatsapp_reachable,omitempty"`
}

type ContactFilter struct {
	Search              string
	OwnerName           string
	RelationshipType    *RelationshipType
	IsWhatsappReachable *bool
	MinScore            *int
	SourceSystem        *SourceSystem
	Company             string
	Page                int
	Limit               int
}
