// Command seed loads teachers, courses and demo customers from a YAML file
// into the document store.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"yogastore-backend/config"
	"yogastore-backend/utils"

	"github.com/sirupsen/logrus"
)

func main() {
	file := flag.String("file", "cmd/seed/catalog.example.yaml", "YAML catalog to load")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	config.SetupLogging(cfg)
	utils.BcryptCost = cfg.BcryptCost

	f, err := os.Open(*file)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open catalog")
	}
	defer f.Close()

	cat, err := loadCatalog(f)
	if err != nil {
		logrus.WithError(err).Fatal("invalid catalog")
	}

	st, err := config.NewStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := apply(ctx, st, cat, time.Now())
	if err != nil {
		logrus.WithError(err).Fatal("seeding failed")
	}
	logrus.WithFields(logrus.Fields{
		"teachers":  n.Teachers,
		"courses":   n.Courses,
		"customers": n.Customers,
		"skipped":   n.SkippedCustomers,
	}).Info("catalog seeded")
}
