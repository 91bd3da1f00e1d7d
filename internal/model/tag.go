package model

import (
	"errors"
	"strings"
)

// Tag is a label attached to tasks. Color is a hex string like "#ff8800";
// an empty color means the UI picks a default.
type Tag struct {
	ID    string
	Name  string
	Color string
}

func (t Tag) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: tag id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("model: tag name is required")
	}
	return nil
}

// List is a user-defined task collection (e.g. "Work", "Groceries").
type List struct {
	ID    string
	Name  string
	Color string
}

func (l List) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("model: list id is required")
	}
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("model: list name is required")
	}
	return nil
}
