package models

import (
	"fmt"

	"yogastore-backend/store"

	"github.com/shopspring/decimal"
)

type Course struct {
	ID          int64
	Name        string
	Description string
	Duration    int64 // minutes
	Category    string
	Price       decimal.Decimal
	TeacherID   int64
}

func CourseFromDocument(doc store.Document) Course {
	r := NewRecord(doc)
	return Course{
		ID:          r.Int("Id"),
		Name:        r.String("Name"),
		Description: r.String("Description"),
		Duration:    r.Int("Duration"),
		Category:    r.String("Category"),
		Price:       r.Decimal("Price"),
		TeacherID:   r.Int("TeacherId"),
	}
}

func (c Course) Fields() map[string]any {
	return map[string]any{
		"Id":          c.ID,
		"Name":        c.Name,
		"Description": c.Description,
		"Duration":    c.Duration,
		"Category":    c.Category,
		"Price":       FormatPrice(c.Price),
		"TeacherId":   c.TeacherID,
	}
}

type Teacher struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Experience          string `json:"experience"`
	DateStartedTeaching string `json:"dateStartedTeaching"`
	Bio                 string `json:"bio,omitempty"`
	Specialties         string `json:"specialties,omitempty"`
	Certifications      string `json:"certifications,omitempty"`
}

func TeacherFromDocument(doc store.Document) Teacher {
	r := NewRecord(doc)
	return Teacher{
		ID:                  r.Int("Id"),
		Name:                r.String("Name"),
		Experience:          r.String("Experience"),
		DateStartedTeaching: r.String("DateStartedTeaching"),
		Bio:                 r.String("Bio"),
		Specialties:         r.String("Specialties"),
		Certifications:      r.String("Certifications"),
	}
}

func (t Teacher) Fields() map[string]any {
	return map[string]any{
		"Id":                  t.ID,
		"Name":                t.Name,
		"Experience":          t.Experience,
		"DateStartedTeaching": t.DateStartedTeaching,
		"Bio":                 t.Bio,
		"Specialties":         t.Specialties,
		"Certifications":      t.Certifications,
	}
}

// PlaceholderTeacherName is shown when a course's teacher cannot be found.
func PlaceholderTeacherName(id int64) string {
	return fmt.Sprintf("Teacher %d", id)
}
