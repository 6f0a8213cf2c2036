package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/tuning"
	"github.com/leesangmin4533/bgf-dashboard-sub000/pkg/logger"
)

// TuningService serializes the self-tuning loops over the shared parameter
// set. All three loops mutate the same state, so a mutex forces the daily
// calibration, weekly optimization and rollback check to run one at a time.
// Every loop is failure-contained: a broken tuning pass leaves the current
// parameters in place and never blocks the next prediction run.
type TuningService struct {
	mu         sync.Mutex
	set        *params.Set
	calibrator *tuning.Calibrator
	optimizer  *tuning.Optimizer
	rollback   *tuning.RollbackChecker
	log        zerolog.Logger
}

func NewTuningService(
	set *params.Set,
	calibrator *tuning.Calibrator,
	optimizer *tuning.Optimizer,
	rollback *tuning.RollbackChecker,
) *TuningService {
	return &TuningService{
		set:        set,
		calibrator: calibrator,
		optimizer:  optimizer,
		rollback:   rollback,
		log:        logger.Component("tuning_service"),
	}
}

// Params returns the live parameter set shared with the prediction path.
func (s *TuningService) Params() *params.Set {
	return s.set
}

// Calibrate runs the daily weight adjustment for the given outcome date.
func (s *TuningService) Calibrate(ctx context.Context, date time.Time) (*domain.CalibrationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.calibrator.Calibrate(ctx, s.set, date)
	if err != nil {
		s.log.Error().Err(err).Msg("calibration failed, parameters unchanged")
		return nil, err
	}
	return entry, nil
}

// Optimize runs the weekly parameter search.
func (s *TuningService) Optimize(ctx context.Context) (*domain.OptimizationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.optimizer.Optimize(ctx, s.set)
	if err != nil {
		s.log.Error().Err(err).Msg("optimization failed, parameters unchanged")
		return nil, err
	}
	return rec, nil
}

// CheckRollback evaluates the most recent applied optimization.
func (s *TuningService) CheckRollback(ctx context.Context) (domain.OptimizationStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.rollback.Check(ctx, s.set)
	if err != nil {
		s.log.Error().Err(err).Msg("rollback check failed, parameters unchanged")
		return "", err
	}
	return status, nil
}

// RunNightly executes the full maintenance sequence in its fixed order:
// rollback check first so a bad week is reverted before new tuning, then
// calibration, then optimization when due. Individual failures log and
// continue; the sequence never aborts.
func (s *TuningService) RunNightly(ctx context.Context, date time.Time, optimizeDue bool) {
	if _, err := s.CheckRollback(ctx); err != nil {
		s.log.Warn().Err(err).Msg("rollback check skipped")
	}
	if _, err := s.Calibrate(ctx, date); err != nil {
		s.log.Warn().Err(err).Msg("calibration skipped")
	}
	if optimizeDue {
		if _, err := s.Optimize(ctx); err != nil {
			s.log.Warn().Err(err).Msg("optimization skipped")
		}
	}
}
