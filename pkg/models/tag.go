package models

import "time"

type Tag struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Color       string    `json:"color" db:"color"`
	Description *string   `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TagUsage is a tag with the number of contacts carrying it.
type TagUsage struct {
	Tag
	ContactCount int `json:"contact_count" db:"contact_count"`
}

type CreateTagInput struct {
	Name        string  `json:"name" validate:"required"`
	Color       string  `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Description *string `json:"description,omitempty"`
}

type UpdateTagInput struct {
	Name        *string          `json:"name,omitempty"`
	Color       *string          `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Description Optional[string] `json:"description"`
	IsActive    *bool            `json:"is_active,omitempty"`
}
