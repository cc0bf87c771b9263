// Package pipeline runs the valuation flow end to end:
// projection -> persistence -> scenario generation -> scenario persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"company_valuation/pkg/core/projection"
	"company_valuation/pkg/core/scenario"
	"company_valuation/pkg/core/store"
)

// ScenarioGenerator produces the standard scenarios for a base model.
// scenario.GenerateAutoScenarios is the production implementation.
type ScenarioGenerator func(base *projection.FinancialModel, baseResults *projection.CalculatedFinancials) ([]scenario.GeneratedScenario, error)

// Orchestrator manages valuation creation and scenario generation.
// Scenario generation after a create runs in the background and never blocks the caller.
type Orchestrator struct {
	valuations store.ValuationStore
	scenarios  store.ScenarioStore
	generate   ScenarioGenerator
	logger     *zap.Logger
	timeout    time.Duration

	wg sync.WaitGroup
}

// NewOrchestrator creates an orchestrator backed by the given stores.
func NewOrchestrator(valuations store.ValuationStore, scenarios store.ScenarioStore, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		valuations: valuations,
		scenarios:  scenarios,
		generate:   scenario.GenerateAutoScenarios,
		logger:     logger,
		timeout:    30 * time.Second,
	}
}

// SetGenerator allows injecting a custom generator (e.g., for testing).
func (o *Orchestrator) SetGenerator(g ScenarioGenerator) {
	o.generate = g
}

// SetTimeout bounds each background scenario job.
func (o *Orchestrator) SetTimeout(d time.Duration) {
	o.timeout = d
}

// CreateValuation projects the model, saves it, and submits scenario generation.
// The returned Job reports the background outcome; the valuation is usable immediately.
func (o *Orchestrator) CreateValuation(ctx context.Context, model *projection.FinancialModel) (*store.Valuation, *Job, error) {
	results, err := projection.Calculate(model)
	if err != nil {
		return nil, nil, err
	}

	v := &store.Valuation{
		Name:    model.Name,
		Model:   model,
		Results: results,
	}
	if err := o.valuations.Save(ctx, v); err != nil {
		return nil, nil, fmt.Errorf("save valuation: %w", err)
	}
	o.logger.Info("valuation created",
		zap.String("valuation_id", v.ID),
		zap.Float64("enterprise_value", results.EnterpriseValue),
		zap.Float64("wacc_percent", results.WaccPercent),
	)

	job := o.Submit(v.ID, model, results)
	return v, job, nil
}

// Submit starts scenario generation for a stored valuation in the background.
// The job outlives ctx of the originating request; it is bounded by the orchestrator timeout.
func (o *Orchestrator) Submit(valuationID string, model *projection.FinancialModel, results *projection.CalculatedFinancials) *Job {
	job := newJob(valuationID)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		defer cancel()

		start := time.Now()
		generated, err := o.run(ctx, valuationID, model, results)
		if err != nil {
			o.logger.Error("scenario generation failed",
				zap.String("valuation_id", valuationID),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
		} else {
			o.logger.Info("scenarios generated",
				zap.String("valuation_id", valuationID),
				zap.Int("count", len(generated)),
				zap.Duration("elapsed", time.Since(start)),
			)
		}
		job.finish(generated, err)
	}()

	return job
}

// RegenerateScenarios recomputes and upserts the standard scenarios synchronously.
// Re-running it for the same valuation replaces the rows rather than duplicating them.
func (o *Orchestrator) RegenerateScenarios(ctx context.Context, valuationID string) ([]scenario.GeneratedScenario, error) {
	v, err := o.valuations.Get(ctx, valuationID)
	if err != nil {
		return nil, err
	}
	results := v.Results
	if results == nil {
		if results, err = projection.Calculate(v.Model); err != nil {
			return nil, err
		}
	}
	return o.run(ctx, valuationID, v.Model, results)
}

// Wait blocks until every submitted job has finished. Call on shutdown.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) run(ctx context.Context, valuationID string, model *projection.FinancialModel, results *projection.CalculatedFinancials) (generated []scenario.GeneratedScenario, err error) {
	defer func() {
		if r := recover(); r != nil {
			generated, err = nil, fmt.Errorf("scenario generation panicked: %v", r)
		}
	}()

	generated, err = o.generate(model, results)
	if err != nil {
		return nil, fmt.Errorf("generate scenarios: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range generated {
		sc := &generated[i]
		position := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("upsert %q panicked: %v", sc.Name, r)
				}
			}()
			return o.scenarios.Upsert(gctx, valuationID, position, sc)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("persist scenarios: %w", err)
	}
	return generated, nil
}

// ErrJobPending is returned by Job.Err before the job completes.
var ErrJobPending = errors.New("scenario job still running")

// Job is the completion handle for a background scenario generation.
type Job struct {
	ValuationID string

	done      chan struct{}
	mu        sync.Mutex
	scenarios []scenario.GeneratedScenario
	err       error
}

func newJob(valuationID string) *Job {
	return &Job{ValuationID: valuationID, done: make(chan struct{})}
}

func (j *Job) finish(s []scenario.GeneratedScenario, err error) {
	j.mu.Lock()
	j.scenarios, j.err = s, err
	j.mu.Unlock()
	close(j.done)
}

// Done is closed once the job has finished, successfully or not.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Err returns the job's failure, nil on success, or ErrJobPending while running.
func (j *Job) Err() error {
	select {
	case <-j.done:
	default:
		return ErrJobPending
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Scenarios returns the generated scenarios; nil until Done or on failure.
func (j *Job) Scenarios() []scenario.GeneratedScenario {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.scenarios
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
