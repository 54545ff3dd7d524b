package models

// Collection names in the document store.
const (
	CustomersCollection    = "customers"
	CoursesCollection      = "courses"
	TeachersCollection     = "teachers"
	GrantsCollection       = "course_customer_crossrefs"
	TransactionsCollection = "transactions"
	CountersCollection     = "counters"
)
