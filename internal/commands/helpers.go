package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openbooks-dev/openbooks/internal/auditlog"
	"github.com/openbooks-dev/openbooks/internal/config"
	"github.com/openbooks-dev/openbooks/internal/events"
	"github.com/openbooks-dev/openbooks/internal/events/kafka"
	"github.com/openbooks-dev/openbooks/internal/ledger"
	"github.com/openbooks-dev/openbooks/internal/registry"
	"github.com/openbooks-dev/openbooks/internal/report"
	"github.com/openbooks-dev/openbooks/internal/store"
	"github.com/openbooks-dev/openbooks/internal/store/bolt"
	"github.com/openbooks-dev/openbooks/internal/store/postgres"
)

// app wires the configured store and services together for one command
// invocation.
type app struct {
	cfg      *config.Config
	store    store.Store
	registry *registry.Service
	ledger   *ledger.Service
	reports  *report.Generator
}

// openApp loads the config and opens the configured store and services.
func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	var st store.Store
	switch cfg.Store.Driver {
	case config.DriverBolt:
		st, err = bolt.Open(cfg.Store.Path)
	case config.DriverPostgres:
		st, err = postgres.Open(ctx, cfg.Store.DSN)
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	var audit *auditlog.Logger
	if cfg.Audit.Path != "" {
		audit = auditlog.New(cfg.Audit.Path)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	return &app{
		cfg:      cfg,
		store:    st,
		registry: registry.NewService(st, audit),
		ledger:   ledger.NewService(st, publisher, audit),
		reports:  report.NewGenerator(st),
	}, nil
}

// Close releases the store.
func (a *app) Close() error {
	return a.store.Close()
}

// parseDate parses a YYYY-MM-DD date.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

// parseLine parses a line spec "ACCOUNT_ID:AMOUNT[:DESCRIPTION]", e.g.
// "3:100.00" or "7:-100.00:consulting fee".
func parseLine(s string) (ledger.LineParams, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return ledger.LineParams{}, fmt.Errorf("invalid line %q (want ACCOUNT_ID:AMOUNT)", s)
	}
	accountID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ledger.LineParams{}, fmt.Errorf("invalid account id in line %q: %w", s, err)
	}
	amount, err := decimal.NewFromString(parts[1])
	if err != nil {
		return ledger.LineParams{}, fmt.Errorf("invalid amount in line %q: %w", s, err)
	}
	line := ledger.LineParams{AccountID: accountID, Amount: amount}
	if len(parts) == 3 {
		line.Description = parts[2]
	}
	return line, nil
}
