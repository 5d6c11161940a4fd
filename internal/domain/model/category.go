package model

// MaxNominationsPerCategory is the per-judge cap inside one category.
const MaxNominationsPerCategory = 3

type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Grade string `json:"grade"`
	Slug  string `json:"slug"`
}

// Label is the "Name - Grade" form used in selectors and notifications.
func (c Category) Label() string {
	if c.Grade == "" {
		return c.Name
	}
	return c.Name + " - " + c.Grade
}

// DefaultCategories is the judging track list seeded on first start.
// Slugs are filled in by the seeder.
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: "Science", Grade: "4th"},
		{ID: 2, Name: "Science", Grade: "5th"},
		{ID: 3, Name: "Technology", Grade: "5th"},
		{ID: 4, Name: "Engineering", Grade: "6th"},
		{ID: 5, Name: "Mathematics", Grade: "6th"},
		{ID: 6, Name: "Social Impact", Grade: "6th"},
	}
}
