package domain

import "strings"

// Category groups expenses.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Lifecycle Lifecycle `json:"lifecycle"`
}

// NewCategory returns an unsaved category.
func NewCategory(name string) *Category {
	return &Category{Name: strings.TrimSpace(name)}
}

// SetID changes the id of a new category. Loaded categories keep their id and SetID reports false.
func (c *Category) SetID(id int64) bool {
	if c.Lifecycle == LifecycleLoaded {
		return false
	}
	c.ID = id
	return true
}

// SetName trims and stores the name.
func (c *Category) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	c.Name = name
	return nil
}

// Validate checks the category can be saved.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// IsNew reports whether the category has not been persisted yet.
func (c *Category) IsNew() bool {
	return c.Lifecycle == LifecycleNew
}

// MarkLoaded locks the id.
func (c *Category) MarkLoaded() {
	c.Lifecycle = LifecycleLoaded
}
