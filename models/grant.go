package models

import (
	"fmt"
	"time"

	"yogastore-backend/store"
)

// Grant entitles a customer to a course. At most one exists per
// (customer, course) pair because it is always keyed by GrantKey.
type Grant struct {
	Key         string
	CustomerID  int64
	CourseID    int64
	PurchasedAt time.Time
}

func GrantKey(customerID, courseID int64) string {
	return fmt.Sprintf("%d_%d", customerID, courseID)
}

func GrantFromDocument(doc store.Document) Grant {
	r := NewRecord(doc)
	return Grant{
		Key:         r.Key,
		CustomerID:  r.Int("CustomerId"),
		CourseID:    r.Int("CourseId"),
		PurchasedAt: r.Time("PurchasedAt"),
	}
}

func (g Grant) Fields() map[string]any {
	return map[string]any{
		"CustomerId":  g.CustomerID,
		"CourseId":    g.CourseID,
		"PurchasedAt": g.PurchasedAt.UTC().Format(time.RFC3339),
	}
}
