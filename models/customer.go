package models

import (
	"strconv"

	"yogastore-backend/store"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID          int64           `json:"id"`
	Email       string          `json:"email"`
	Password    string          `json:"-"`
	Name        string          `json:"name"`
	PhoneNumber string          `json:"phoneNumber"`
	DateOfBirth string          `json:"dateOfBirth"`
	DateCreated string          `json:"dateCreated"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Balance     decimal.Decimal `json:"balance"`

	// Key is the store key, which is not guaranteed to equal ID.
	Key     string `json:"-"`
	Version int64  `json:"-"`
}

func CustomerFromDocument(doc store.Document) Customer {
	r := NewRecord(doc)
	return Customer{
		ID:          r.Int("Id"),
		Email:       r.String("Email"),
		Password:    r.String("Password"),
		Name:        r.String("Name"),
		PhoneNumber: r.String("PhoneNumber"),
		DateOfBirth: r.String("DateOfBirth"),
		DateCreated: r.String("DateCreated"),
		ImageURL:    r.String("ImageUrl"),
		Balance:     r.Decimal("Balance"),
		Key:         r.Key,
		Version:     r.Version,
	}
}

// Fields returns the canonical stored form of the customer.
func (c Customer) Fields() map[string]any {
	var image any
	if c.ImageURL != "" {
		image = c.ImageURL
	}
	return map[string]any{
		"Id":          c.ID,
		"Email":       c.Email,
		"Password":    c.Password,
		"Name":        c.Name,
		"PhoneNumber": c.PhoneNumber,
		"DateOfBirth": c.DateOfBirth,
		"DateCreated": c.DateCreated,
		"ImageUrl":    image,
		"Balance":     c.Balance.InexactFloat64(),
	}
}

// CustomerKey is the store key new customers are written under.
func CustomerKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
