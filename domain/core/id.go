package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Falls back to v4 if v7 generation fails
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// FormID identifies a product scenario form within a workspace.
type FormID ID

func (id FormID) String() string { return ID(id).String() }

// WorkspaceID identifies one dashboard workspace (one browser session in the original UI).
type WorkspaceID ID

func (id WorkspaceID) String() string { return ID(id).String() }

// NewFormID creates a fresh form identifier
func NewFormID() FormID { return FormID(NewID()) }

// ParseFormID parses a string into FormID
func ParseFormID(s string) (FormID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("form ID cannot be empty")
	}
	return FormID(s), nil
}

// ParseWorkspaceID parses a string into WorkspaceID
func ParseWorkspaceID(s string) (WorkspaceID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("workspace ID cannot be empty")
	}
	return WorkspaceID(s), nil
}
