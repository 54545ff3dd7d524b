// services/profile_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"yogastore-backend/metrics"
	"yogastore-backend/models"
	"yogastore-backend/repository"
	"yogastore-backend/store"
	"yogastore-backend/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const minPasswordLength = 6

// Balances are stored as JSON numbers. Keeping them under MaxBalance keeps
// every two-decimal amount exact through a float64 round trip.
var (
	MaxTopUp   = decimal.NewFromInt(10_000)
	MaxBalance = decimal.NewFromInt(1_000_000)
)

// ProfileUpdate carries an edit of the profile form. Nil optional fields are
// left unchanged. The password is changed only when NewPassword is set.
type ProfileUpdate struct {
	Name        string
	Email       string
	PhoneNumber *string
	DateOfBirth *string
	ImageURL    *string

	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

func (u ProfileUpdate) validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return invalid("name", "name is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return invalid("email", "email is required")
	}
	if !utils.ValidateEmail(strings.TrimSpace(u.Email)) {
		return invalid("email", "email is not valid")
	}
	if u.PhoneNumber != nil && *u.PhoneNumber != "" && !utils.ValidatePhone(*u.PhoneNumber) {
		return invalid("phoneNumber", "phone number is not valid")
	}
	if u.DateOfBirth != nil && *u.DateOfBirth != "" {
		if _, ok := utils.ParseDate(*u.DateOfBirth); !ok {
			return invalid("dateOfBirth", "date of birth must be a date")
		}
	}
	if u.NewPassword != "" {
		if u.CurrentPassword == "" {
			return invalid("currentPassword", "current password is required")
		}
		if len(u.NewPassword) < minPasswordLength {
			return invalid("newPassword", "new password must be at least %d characters", minPasswordLength)
		}
		if u.NewPassword != u.ConfirmPassword {
			return invalid("confirmPassword", "passwords do not match")
		}
	}
	return nil
}

type TransactionView struct {
	models.Transaction
	Direction string          `json:"direction"`
	Signed    decimal.Decimal `json:"signedAmount"`
}

// Ledger compares a customer's stored balance with the balance implied by
// their transactions, starting from zero at sign-up.
type Ledger struct {
	CustomerID int64           `json:"customerId"`
	Credits    decimal.Decimal `json:"credits"`
	Debits     decimal.Decimal `json:"debits"`
	Expected   decimal.Decimal `json:"expectedBalance"`
	Stored     decimal.Decimal `json:"storedBalance"`
	Balanced   bool            `json:"balanced"`
	Count      int             `json:"transactionCount"`
}

func computeLedger(c models.Customer, txns []models.Transaction) Ledger {
	l := Ledger{CustomerID: c.ID, Stored: c.Balance, Count: len(txns)}
	for _, t := range txns {
		if t.IsCredit() {
			l.Credits = l.Credits.Add(t.Amount)
		} else {
			l.Debits = l.Debits.Add(t.Amount)
		}
	}
	l.Expected = l.Credits.Sub(l.Debits)
	l.Balanced = l.Expected.Equal(l.Stored)
	return l
}

type TopUpResult struct {
	Balance     decimal.Decimal    `json:"balance"`
	Transaction models.Transaction `json:"transaction"`
}

type ProfileService struct {
	store        store.Store
	customers    *repository.CustomerRepository
	transactions *repository.TransactionRepository
	now          func() time.Time
}

func NewProfileService(st store.Store) *ProfileService {
	return &ProfileService{
		store:        st,
		customers:    repository.NewCustomerRepository(st),
		transactions: repository.NewTransactionRepository(st),
		now:          time.Now,
	}
}

func (s *ProfileService) Profile(ctx context.Context, customerID int64) (models.Customer, error) {
	c, err := s.customers.FindByID(ctx, customerID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return c, storeFailure(ErrStoreUnavailable, err)
	}
	return c, err
}

func (s *ProfileService) UpdateProfile(ctx context.Context, customerID int64, u ProfileUpdate) (models.Customer, error) {
	if err := u.validate(); err != nil {
		return models.Customer{}, err
	}
	email := strings.TrimSpace(u.Email)

	var updated models.Customer
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Store) error {
		customers := s.customers.With(tx)

		if other, err := customers.FindByEmail(ctx, email); err == nil && other.ID != customerID {
			return ErrEmailTaken
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		var err error
		updated, err = customers.Mutate(ctx, customerID, func(c *models.Customer) error {
			if u.NewPassword != "" {
				if !utils.CheckPassword(u.CurrentPassword, c.Password) {
					return invalid("currentPassword", "current password is incorrect")
				}
				hash, err := utils.HashPassword(u.NewPassword)
				if err != nil {
					return err
				}
				c.Password = hash
			}
			c.Name = strings.TrimSpace(u.Name)
			c.Email = email
			if u.PhoneNumber != nil {
				c.PhoneNumber = strings.TrimSpace(*u.PhoneNumber)
			}
			if u.DateOfBirth != nil {
				c.DateOfBirth = strings.TrimSpace(*u.DateOfBirth)
			}
			if u.ImageURL != nil {
				c.ImageURL = strings.TrimSpace(*u.ImageURL)
			}
			return nil
		})
		return err
	})
	if err != nil {
		if IsValidation(err) || errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrNotFound) {
			return models.Customer{}, err
		}
		return models.Customer{}, storeFailure(ErrStoreUnavailable, err)
	}

	logrus.WithField("customer_id", customerID).Info("profile updated")
	return updated, nil
}

// TopUp credits the balance and records a Balance Update transaction in the
// same store transaction.
func (s *ProfileService) TopUp(ctx context.Context, customerID int64, amount decimal.Decimal) (*TopUpResult, error) {
	if !amount.IsPositive() {
		metrics.RecordTopUp("rejected")
		return nil, invalid("amount", "amount must be greater than zero")
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		metrics.RecordTopUp("rejected")
		return nil, invalid("amount", "amount must be at least 0.01")
	}
	if amount.GreaterThan(MaxTopUp) {
		metrics.RecordTopUp("rejected")
		return nil, invalid("amount", "amount cannot exceed %s", models.FormatPrice(MaxTopUp))
	}

	var result TopUpResult
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Store) error {
		customer, err := s.customers.With(tx).Mutate(ctx, customerID, func(c *models.Customer) error {
			if c.Balance.Add(amount).GreaterThan(MaxBalance) {
				return invalid("amount", "balance cannot exceed %s", models.FormatPrice(MaxBalance))
			}
			c.Balance = c.Balance.Add(amount)
			return nil
		})
		if err != nil {
			return err
		}
		txn, err := s.transactions.With(tx).Create(ctx, models.Transaction{
			CustomerID:    customerID,
			Amount:        amount,
			DateTime:      s.now().UTC(),
			PaymentMethod: models.BalanceUpdateMethod,
			Status:        true,
		})
		if err != nil {
			return err
		}
		result = TopUpResult{Balance: customer.Balance, Transaction: txn}
		return nil
	})
	if err != nil {
		if IsValidation(err) {
			metrics.RecordTopUp("rejected")
			return nil, err
		}
		metrics.RecordTopUp("failed")
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storeFailure(ErrStoreUnavailable, err)
	}

	metrics.RecordTopUp("completed")
	logrus.WithFields(logrus.Fields{
		"customer_id":    customerID,
		"amount":         amount.String(),
		"balance":        result.Balance.String(),
		"transaction_id": result.Transaction.ID,
	}).Info("balance topped up")
	return &result, nil
}

// Transactions lists the customer's history, newest first.
func (s *ProfileService) Transactions(ctx context.Context, customerID int64) ([]TransactionView, error) {
	txns, err := s.transactions.ListForCustomer(ctx, customerID)
	if err != nil {
		return nil, storeFailure(ErrStoreUnavailable, err)
	}
	out := make([]TransactionView, 0, len(txns))
	for _, t := range txns {
		direction := "debit"
		if t.IsCredit() {
			direction = "credit"
		}
		out = append(out, TransactionView{Transaction: t, Direction: direction, Signed: t.Signed()})
	}
	return out, nil
}

func (s *ProfileService) Ledger(ctx context.Context, customerID int64) (*Ledger, error) {
	customer, err := s.Profile(ctx, customerID)
	if err != nil {
		return nil, err
	}
	txns, err := s.transactions.ListForCustomer(ctx, customerID)
	if err != nil {
		return nil, storeFailure(ErrStoreUnavailable, err)
	}
	l := computeLedger(customer, txns)
	return &l, nil
}
