package movement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/stockflow-io/stockflow-backend/internal/inventory"
	"github.com/stockflow-io/stockflow-backend/internal/logistics"
	"github.com/stockflow-io/stockflow-backend/pkg/config"
	"github.com/stockflow-io/stockflow-backend/pkg/db"
	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/logger"
	"github.com/stockflow-io/stockflow-backend/pkg/metrics"
	"github.com/stockflow-io/stockflow-backend/pkg/types"
	"gorm.io/gorm"
)

// MoveStockInput is the validated payload for one stock transfer.
// TransportCost is the total cost for the movement, not the per-unit rate.
type MoveStockInput struct {
	SKU           string
	Origin        string
	Destination   string
	Quantity      int
	TransportCost decimal.Decimal
}

// Service executes atomic stock transfers. It is the only writer of
// inventory quantities: debit origin, credit destination, append one ledger
// entry, all in a single transaction.
type Service struct {
	dbClient  *db.Client
	inventory *inventory.Repository
	ledger    *logistics.Repository
	cfg       config.MovementConfig
	logg      *logger.Logger
	metrics   *metrics.MovementMetrics
}

// NewService constructs a movement service instance.
func NewService(
	dbClient *db.Client,
	inventoryRepo *inventory.Repository,
	ledgerRepo *logistics.Repository,
	cfg config.MovementConfig,
	logg *logger.Logger,
	movementMetrics *metrics.MovementMetrics,
) (*Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("logistics repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		dbClient:  dbClient,
		inventory: inventoryRepo,
		ledger:    ledgerRepo,
		cfg:       cfg,
		logg:      logg,
		metrics:   movementMetrics,
	}, nil
}

// MoveStock transfers quantity of a SKU between two locations. Concurrent
// modification failures are retried a bounded number of times with backoff
// before surfacing. A same-location move nets to zero but still appends a
// ledger entry.
func (s *Service) MoveStock(ctx context.Context, input MoveStockInput) (*models.LogisticsEntry, error) {
	started := time.Now()

	input.SKU = types.NormalizeSKU(input.SKU)
	input.Origin = strings.TrimSpace(input.Origin)
	input.Destination = strings.TrimSpace(input.Destination)
	if err := validateInput(input); err != nil {
		s.metrics.IncFailure("move_stock", string(pkgerrors.CodeValidation))
		return nil, err
	}

	ctx = s.logg.WithSKU(ctx, input.SKU)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"origin":      input.Origin,
		"destination": input.Destination,
		"quantity":    input.Quantity,
	})

	var entry *models.LogisticsEntry
	backoff := retry.WithMaxRetries(uint64(s.cfg.MaxRetries), retry.NewConstant(s.cfg.RetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		moved, attemptErr := s.attempt(ctx, input)
		if attemptErr != nil {
			if pkgerrors.HasCode(attemptErr, pkgerrors.CodeConcurrentModification) {
				s.metrics.IncRetry()
				s.logg.Warn(ctx, "movement hit concurrent modification, retrying")
				return retry.RetryableError(attemptErr)
			}
			return attemptErr
		}
		entry = moved
		return nil
	})
	if err != nil {
		s.metrics.IncFailure("move_stock", failureCode(err))
		return nil, err
	}

	s.metrics.IncSuccess("move_stock")
	s.metrics.AddUnitsMoved("move_stock", input.Quantity)
	s.metrics.ObserveDuration("move_stock", time.Since(started))
	s.logg.Info(ctx, "stock moved")
	return entry, nil
}

// attempt runs one transactional unit of work. Any error after the origin
// lock rolls the whole unit back; no partial debit or credit survives.
func (s *Service) attempt(ctx context.Context, input MoveStockInput) (*models.LogisticsEntry, error) {
	if s.cfg.UnitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.UnitTimeout)
		defer cancel()
	}

	var entry *models.LogisticsEntry
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		inv := s.inventory.WithTx(tx)

		origin, err := inv.LockOrigin(ctx, input.SKU, input.Origin)
		if err != nil {
			return err
		}
		if origin.Quantity < input.Quantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("sku %q at %q has %d, need %d", input.SKU, input.Origin, origin.Quantity, input.Quantity))
		}

		if err := inv.Debit(ctx, input.SKU, input.Origin, input.Quantity); err != nil {
			return err
		}
		if err := inv.Credit(ctx, input.SKU, input.Destination, input.Quantity); err != nil {
			return err
		}

		entry, err = s.ledger.WithTx(tx).Append(ctx,
			input.SKU, input.Origin, input.Destination, input.Quantity, input.TransportCost)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	return entry, nil
}

func validateInput(input MoveStockInput) error {
	if input.SKU == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if input.Origin == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "origin is required")
	}
	if input.Destination == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "destination is required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.TransportCost.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "transportCost cannot be negative")
	}
	return nil
}

// classify maps raw store failures onto coded errors. Coded errors pass
// through untouched.
func classify(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if db.IsSerializationFailure(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConcurrentModification, err, "movement transaction conflicted")
	}
	return db.ClassifyError(err, "movement transaction")
}

func failureCode(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}
