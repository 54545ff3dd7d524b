// services/purchase_service.go
package services

import (
	"context"
	"errors"
	"time"

	"yogastore-backend/metrics"
	"yogastore-backend/models"
	"yogastore-backend/repository"
	"yogastore-backend/session"
	"yogastore-backend/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultPurchaseAttempts = 3

// Receipt describes a completed purchase. It is for display; the balance is
// the customer's stored balance at the time the receipt was produced.
type Receipt struct {
	TransactionID int64           `json:"transactionId,omitempty"`
	CourseID      int64           `json:"courseId"`
	CourseTitle   string          `json:"courseTitle"`
	Price         decimal.Decimal `json:"price"`
	PaymentMethod string          `json:"paymentMethod"`
	Balance       decimal.Decimal `json:"balance"`
	PurchasedAt   time.Time       `json:"purchasedAt"`
	// Replayed is set when the course was already owned and nothing was
	// charged by this call.
	Replayed bool `json:"replayed"`
	// Recovered is set on a replay whose original debit record is missing.
	Recovered bool `json:"recovered,omitempty"`
}

type PurchaseService struct {
	store        store.Store
	customers    *repository.CustomerRepository
	catalog      *repository.CatalogRepository
	grants       *repository.GrantRepository
	transactions *repository.TransactionRepository
	notifier     Notifier
	attempts     int
	now          func() time.Time
}

func NewPurchaseService(st store.Store, notifier Notifier) *PurchaseService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &PurchaseService{
		store:        st,
		customers:    repository.NewCustomerRepository(st),
		catalog:      repository.NewCatalogRepository(st),
		grants:       repository.NewGrantRepository(st),
		transactions: repository.NewTransactionRepository(st),
		notifier:     notifier,
		attempts:     defaultPurchaseAttempts,
		now:          time.Now,
	}
}

// Purchase buys a course with the customer's balance. Grant, transaction and
// debit are written in one store transaction; the composite-keyed grant makes
// a repeated call return the original receipt without charging again.
func (s *PurchaseService) Purchase(ctx context.Context, sess *session.Session, courseID int64, method models.PaymentMethod) (*Receipt, error) {
	if sess == nil || sess.CustomerID == 0 {
		metrics.RecordPurchase("unauthenticated")
		return nil, ErrUnauthenticated
	}

	var (
		receipt  *Receipt
		customer models.Customer
		err      error
	)
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err = s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Store) error {
			receipt, customer, err = s.purchase(ctx, tx, sess.CustomerID, courseID, method)
			return err
		})
		if !errors.Is(err, store.ErrVersionConflict) {
			break
		}
		logrus.WithFields(logrus.Fields{
			"customer_id": sess.CustomerID,
			"course_id":   courseID,
			"attempt":     attempt,
		}).Warn("purchase hit a concurrent balance write, retrying")
	}

	log := logrus.WithFields(logrus.Fields{"customer_id": sess.CustomerID, "course_id": courseID})
	if err != nil {
		err = s.classify(err)
		metrics.RecordPurchase(outcome(err))
		log.WithError(err).Warn("purchase rejected")
		return nil, err
	}

	switch {
	case receipt.Recovered:
		metrics.RecordPurchase("recovered")
		log.Warn("course owned without a purchase record, treating as completed")
	case receipt.Replayed:
		metrics.RecordPurchase("replayed")
		log.Info("purchase already completed")
	default:
		metrics.RecordPurchase("completed")
		log.WithFields(logrus.Fields{
			"transaction_id": receipt.TransactionID,
			"price":          receipt.Price.String(),
			"balance":        receipt.Balance.String(),
		}).Info("course purchased")
		if nerr := s.notifier.PurchaseCompleted(ctx, customer, receipt); nerr != nil {
			log.WithError(nerr).Error("failed to send purchase receipt")
		}
	}
	return receipt, nil
}

func (s *PurchaseService) purchase(ctx context.Context, tx store.Store, customerID, courseID int64, method models.PaymentMethod) (*Receipt, models.Customer, error) {
	customers := s.customers.With(tx)
	grants := s.grants.With(tx)

	// Read the customer first: inside a transaction this locks the record,
	// which serializes purchases by the same customer.
	customer, err := customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, customer, ErrUnauthenticated
		}
		return nil, customer, err
	}
	course, err := s.catalog.With(tx).FindCourse(ctx, courseID)
	if err != nil {
		return nil, customer, err
	}

	if _, err := grants.Find(ctx, customerID, courseID); err == nil {
		receipt, err := s.replay(ctx, tx, customer, course)
		return receipt, customer, err
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, customer, err
	}

	if customer.Balance.LessThan(course.Price) {
		return nil, customer, ErrInsufficientFunds
	}

	now := s.now().UTC()
	if _, err := grants.Create(ctx, models.Grant{CustomerID: customerID, CourseID: courseID, PurchasedAt: now}); err != nil {
		if errors.Is(err, repository.ErrAlreadyGranted) {
			receipt, err := s.replay(ctx, tx, customer, course)
			return receipt, customer, err
		}
		return nil, customer, err
	}

	txn, err := s.transactions.With(tx).Create(ctx, models.Transaction{
		CustomerID:    customerID,
		CourseID:      courseID,
		Amount:        course.Price,
		DateTime:      now,
		PaymentMethod: method.Label(),
		Status:        true,
	})
	if err != nil {
		return nil, customer, err
	}

	customer, err = customers.Mutate(ctx, customerID, func(c *models.Customer) error {
		if c.Balance.LessThan(course.Price) {
			return ErrInsufficientFunds
		}
		c.Balance = c.Balance.Sub(course.Price)
		return nil
	})
	if err != nil {
		return nil, customer, err
	}

	return &Receipt{
		TransactionID: txn.ID,
		CourseID:      course.ID,
		CourseTitle:   course.Name,
		Price:         course.Price,
		PaymentMethod: txn.PaymentMethod,
		Balance:       customer.Balance,
		PurchasedAt:   now,
	}, customer, nil
}

// replay rebuilds the receipt of an earlier purchase. The balance comes from
// the customer record just read, never from the original receipt.
func (s *PurchaseService) replay(ctx context.Context, tx store.Store, customer models.Customer, course models.Course) (*Receipt, error) {
	receipt := &Receipt{
		CourseID:    course.ID,
		CourseTitle: course.Name,
		Price:       course.Price,
		Balance:     customer.Balance,
		Replayed:    true,
	}

	txn, err := s.transactions.With(tx).FindPurchase(ctx, customer.ID, course.ID)
	switch {
	case err == nil:
		receipt.TransactionID = txn.ID
		receipt.Price = txn.Amount
		receipt.PaymentMethod = txn.PaymentMethod
		receipt.PurchasedAt = txn.DateTime
	case errors.Is(err, repository.ErrNotFound):
		receipt.Recovered = true
		if g, gerr := s.grants.With(tx).Find(ctx, customer.ID, course.ID); gerr == nil {
			receipt.PurchasedAt = g.PurchasedAt
		}
	default:
		return nil, err
	}
	return receipt, nil
}

func (s *PurchaseService) classify(err error) error {
	switch {
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return storeFailure(ErrPurchaseFailed, err)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "failed"
}
