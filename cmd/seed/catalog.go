package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"yogastore-backend/models"
	"yogastore-backend/repository"
	"yogastore-backend/services"
	"yogastore-backend/store"
	"yogastore-backend/utils"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type seedTeacher struct {
	ID                  int64  `yaml:"id"`
	Name                string `yaml:"name"`
	Experience          string `yaml:"experience"`
	DateStartedTeaching string `yaml:"dateStartedTeaching"`
	Bio                 string `yaml:"bio"`
	Specialties         string `yaml:"specialties"`
	Certifications      string `yaml:"certifications"`
}

type seedCourse struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Duration    int64  `yaml:"duration"`
	Category    string `yaml:"category"`
	Price       string `yaml:"price"`
	TeacherID   int64  `yaml:"teacherId"`
}

type seedCustomer struct {
	ID       int64  `yaml:"id"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Phone    string `yaml:"phoneNumber"`
	Balance  string `yaml:"balance"`
}

type catalogFile struct {
	Teachers  []seedTeacher  `yaml:"teachers"`
	Courses   []seedCourse   `yaml:"courses"`
	Customers []seedCustomer `yaml:"customers"`
}

func loadCatalog(r io.Reader) (*catalogFile, error) {
	var cat catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, c := range cat.Courses {
		if c.ID <= 0 {
			return nil, fmt.Errorf("course %q has no id", c.Name)
		}
	}
	for _, t := range cat.Teachers {
		if t.ID <= 0 {
			return nil, fmt.Errorf("teacher %q has no id", t.Name)
		}
	}
	for _, c := range cat.Customers {
		if c.ID <= 0 || c.Email == "" {
			return nil, fmt.Errorf("customer %q needs an id and email", c.Name)
		}
	}
	return &cat, nil
}

type seedCounts struct {
	Teachers, Courses, Customers int
	// SkippedCustomers already existed and were left untouched.
	SkippedCustomers int
}

// apply upserts teachers and courses under their integer ids. Customers are
// only created: an existing customer keeps its balance, password and history.
// A seeded opening balance is recorded as a Balance Update transaction so the
// ledger starts out balanced.
func apply(ctx context.Context, st store.Store, cat *catalogFile, now time.Time) (seedCounts, error) {
	var n seedCounts
	key := func(id int64) string { return strconv.FormatInt(id, 10) }

	for _, t := range cat.Teachers {
		teacher := models.Teacher{
			ID:                  t.ID,
			Name:                t.Name,
			Experience:          t.Experience,
			DateStartedTeaching: t.DateStartedTeaching,
			Bio:                 t.Bio,
			Specialties:         t.Specialties,
			Certifications:      t.Certifications,
		}
		if err := st.AddDocumentWithID(ctx, models.TeachersCollection, key(t.ID), teacher.Fields()); err != nil {
			return n, err
		}
		n.Teachers++
	}

	for _, c := range cat.Courses {
		course := models.Course{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Duration:    c.Duration,
			Category:    c.Category,
			Price:       models.ParsePrice(c.Price),
			TeacherID:   c.TeacherID,
		}
		if err := st.AddDocumentWithID(ctx, models.CoursesCollection, key(c.ID), course.Fields()); err != nil {
			return n, err
		}
		n.Courses++
	}

	var highest int64
	for _, c := range cat.Customers {
		if c.ID > highest {
			highest = c.ID
		}
		customer, err := seedCustomerRecord(c, now)
		if err != nil {
			return n, err
		}
		exists := false
		err = st.RunTransaction(ctx, func(ctx context.Context, tx store.Store) error {
			err := tx.CreateDocument(ctx, models.CustomersCollection, models.CustomerKey(c.ID), customer.Fields())
			if errors.Is(err, store.ErrAlreadyExists) {
				exists = true
				return nil
			}
			if err != nil {
				return err
			}
			if customer.Balance.IsZero() {
				return nil
			}
			_, err = repository.NewTransactionRepository(tx).Create(ctx, models.Transaction{
				CustomerID:    customer.ID,
				Amount:        customer.Balance,
				DateTime:      now.UTC(),
				PaymentMethod: models.BalanceUpdateMethod,
				Status:        true,
			})
			return err
		})
		if err != nil {
			return n, fmt.Errorf("seed customer %d: %w", c.ID, err)
		}
		if exists {
			n.SkippedCustomers++
			continue
		}
		n.Customers++
	}

	if highest > 0 {
		if err := repository.NewCounters(st).Ensure(ctx, models.CustomersCollection, highest); err != nil {
			return n, err
		}
	}
	return n, nil
}

func seedCustomerRecord(c seedCustomer, now time.Time) (models.Customer, error) {
	hash, err := utils.HashPassword(c.Password)
	if err != nil {
		return models.Customer{}, err
	}
	balance := decimal.Zero
	if c.Balance != "" {
		if balance, err = decimal.NewFromString(c.Balance); err != nil {
			return models.Customer{}, fmt.Errorf("customer %d balance: %w", c.ID, err)
		}
		if balance.IsNegative() || balance.GreaterThan(services.MaxBalance) {
			return models.Customer{}, fmt.Errorf("customer %d balance must be between 0 and %s", c.ID, services.MaxBalance)
		}
	}
	return models.Customer{
		ID:          c.ID,
		Email:       c.Email,
		Password:    hash,
		Name:        c.Name,
		PhoneNumber: c.Phone,
		DateCreated: utils.FormatDate(now),
		Balance:     balance.Round(2),
	}, nil
}
