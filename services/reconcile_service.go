// services/reconcile_service.go
package services

import (
	"context"
	"fmt"

	"yogastore-backend/metrics"
	"yogastore-backend/repository"
	"yogastore-backend/store"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReconcileService checks every customer's stored balance against their
// transaction history on a schedule.
type ReconcileService struct {
	customers    *repository.CustomerRepository
	transactions *repository.TransactionRepository
	cron         *cron.Cron
}

func NewReconcileService(st store.Store) *ReconcileService {
	return &ReconcileService{
		customers:    repository.NewCustomerRepository(st),
		transactions: repository.NewTransactionRepository(st),
	}
}

// StartScheduler runs Run on the given cron schedule until Stop is called.
func (s *ReconcileService) StartScheduler(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("ledger reconciliation failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	logrus.WithField("schedule", schedule).Info("ledger reconciliation scheduled")
	return nil
}

func (s *ReconcileService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Run returns the ledgers that do not balance.
func (s *ReconcileService) Run(ctx context.Context) ([]Ledger, error) {
	logrus.Info("starting ledger reconciliation")

	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	var mismatched []Ledger
	for _, c := range customers {
		txns, err := s.transactions.ListForCustomer(ctx, c.ID)
		if err != nil {
			logrus.WithError(err).WithField("customer_id", c.ID).Error("failed to load transactions")
			continue
		}
		l := computeLedger(c, txns)
		if l.Balanced {
			continue
		}
		mismatched = append(mismatched, l)
		logrus.WithFields(logrus.Fields{
			"customer_id": c.ID,
			"stored":      l.Stored.String(),
			"expected":    l.Expected.String(),
			"credits":     l.Credits.String(),
			"debits":      l.Debits.String(),
		}).Warn("balance does not match transaction history")
	}

	metrics.SetLedgerMismatches(len(mismatched))
	logrus.WithFields(logrus.Fields{
		"customers":  len(customers),
		"mismatched": len(mismatched),
	}).Info("ledger reconciliation completed")
	return mismatched, nil
}
