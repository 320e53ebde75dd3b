// Package sessionmanager is the orchestration façade coordinating the
// session store, state machine, path cache, path generator, and chain
// builder behind the six operations spec §4.7 names.
package sessionmanager

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/optionchain/simulator/internal/identity"
	"github.com/optionchain/simulator/internal/models"
	"github.com/optionchain/simulator/internal/pathcache"
	"github.com/optionchain/simulator/internal/pathgen"
	"github.com/optionchain/simulator/internal/pricing"
	"github.com/optionchain/simulator/internal/sessionstore"
)

// Manager is the SessionManager façade. All six operations are safe for
// concurrent use: per-id operations serialize through a striped lock pool,
// cross-id operations proceed in parallel.
type Manager struct {
	store     sessionstore.Store
	minter    *identity.Minter
	pathCache *pathcache.Cache
	generator *pathgen.Generator
	builder   *pricing.ChainBuilder
	logger    *logrus.Logger
	locks     *lockStripes

	ttl time.Duration

	baseVolMu sync.Mutex
	baseVols  map[string]float64

	now func() time.Time
}

// New constructs a Manager wiring every collaborator together. logger may
// be nil, in which case logrus.StandardLogger() is used.
func New(store sessionstore.Store, minter *identity.Minter, cache *pathcache.Cache, generator *pathgen.Generator, builder *pricing.ChainBuilder, ttl time.Duration, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		store:     store,
		minter:    minter,
		pathCache: cache,
		generator: generator,
		builder:   builder,
		logger:    logger,
		locks:     newLockStripes(),
		ttl:       ttl,
		baseVols:  make(map[string]float64),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession validates params, mints an id, and persists a freshly
// Initialized session. The path is not eagerly built.
func (m *Manager) CreateSession(params models.SimulationParameters) (*models.Session, error) {
	params.ApplyDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	id := m.minter.Next().String()
	session := models.NewSession(id, params, m.now())
	if err := m.store.Save(session); err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

// GetNextStep advances session id by one Read event, building its price
// path on first access, and returns the updated session alongside the
// priced chain for the new current step.
func (m *Manager) GetNextStep(ctx context.Context, id string) (*models.Session, *models.OptionChain, error) {
	var resultSession *models.Session
	var resultChain *models.OptionChain

	err := m.locks.withLock(id, func() error {
		session, err := m.store.Get(id)
		if err != nil {
			return err
		}

		nextStep := session.CurrentStep + 1
		newState, err := models.Advance(session.State, models.EventRead, nextStep, session.TotalSteps)
		if err != nil {
			return err
		}

		cursor := nextStep
		if newState == models.StateCompleted {
			cursor = session.TotalSteps
		}

		path, err := m.pathCache.GetOrBuild(session, m.builderFor(ctx))
		if err != nil {
			// External/numeric failures during path build leave the session
			// unchanged and are retryable, per §7 — except NumericUnderflow,
			// which is fatal, and InsufficientHistory, which is structural
			// (the lookback series will never grow on retry): both park the
			// session in Error rather than leaving it stuck indefinitely.
			if models.IsKind(err, models.KindNumericUnderflow) || models.IsKind(err, models.KindInsufficientHistory) {
				session.State = models.StateError
				session.UpdatedAt = m.now()
				_ = m.store.Save(session)
			}
			return err
		}

		timeToExpiryYears := session.Parameters.DaysToExpiration / 365.0
		timestamp := session.CreatedAt.Add(time.Duration(cursor) * session.Parameters.TimeFrame.StepDuration())
		chain, warnings := m.builder.Build(path[cursor], m.chainParams(session), timeToExpiryYears, timestamp)
		for _, w := range warnings {
			m.logger.WithError(w).WithField("session_id", id).Warn("pricing warning")
		}

		session.State = newState
		session.CurrentStep = cursor
		session.UpdatedAt = m.now()

		if invErr := session.ValidateInvariants(); invErr != nil {
			session.State = models.StateError
			_ = m.store.Save(session)
			return invErr
		}

		if err := m.store.Save(session); err != nil {
			return err
		}

		resultSession = session.Clone()
		resultChain = chain
		return nil
	})

	return resultSession, resultChain, err
}

// UpdateSession applies a partial merge of patch onto session id's current
// parameters. Fields present in patch overwrite; current_step/total_steps
// are never touched by PATCH (§9's open-question resolution: steps changes
// require PUT).
func (m *Manager) UpdateSession(id string, patch json.RawMessage) (*models.Session, error) {
	var result *models.Session

	err := m.locks.withLock(id, func() error {
		session, err := m.store.Get(id)
		if err != nil {
			return err
		}

		var touchedFields map[string]json.RawMessage
		if err := json.Unmarshal(patch, &touchedFields); err != nil {
			return models.NewInvalidParameter("patch", "malformed JSON object")
		}

		updated := session.Parameters
		if err := json.Unmarshal(patch, &updated); err != nil {
			return models.NewInvalidParameter("patch", err.Error())
		}
		if err := updated.Validate(); err != nil {
			return err
		}

		newState, err := models.Advance(session.State, models.EventPatched, session.CurrentStep, session.TotalSteps)
		if err != nil {
			return err
		}

		invalidate := false
		for field := range touchedFields {
			if models.InvalidatesPath(field) {
				invalidate = true
			}
		}

		session.Parameters = updated
		session.State = newState
		session.UpdatedAt = m.now()

		if invErr := session.ValidateInvariants(); invErr != nil {
			session.State = models.StateError
			_ = m.store.Save(session)
			return invErr
		}

		if err := m.store.Save(session); err != nil {
			return err
		}

		if invalidate {
			m.pathCache.Invalidate(id)
			m.clearBaseVol(id)
		}

		result = session.Clone()
		return nil
	})

	return result, err
}

// ReinitializeSession fully replaces session id's parameters (PUT), always
// resetting current_step to 0 and invalidating the cached path — this is
// reinitialization, not a no-op, even when params are unchanged.
func (m *Manager) ReinitializeSession(id string, params models.SimulationParameters) (*models.Session, error) {
	var result *models.Session

	err := m.locks.withLock(id, func() error {
		session, err := m.store.Get(id)
		if err != nil {
			return err
		}

		params.ApplyDefaults()
		if err := params.Validate(); err != nil {
			return err
		}

		newState, err := models.Advance(session.State, models.EventReplaced, session.CurrentStep, session.TotalSteps)
		if err != nil {
			return err
		}

		session.Parameters = params
		session.State = newState
		session.CurrentStep = 0
		session.TotalSteps = params.Steps
		session.UpdatedAt = m.now()

		if invErr := session.ValidateInvariants(); invErr != nil {
			session.State = models.StateError
			_ = m.store.Save(session)
			return invErr
		}

		if err := m.store.Save(session); err != nil {
			return err
		}

		m.pathCache.Invalidate(id)
		m.clearBaseVol(id)

		result = session.Clone()
		return nil
	})

	return result, err
}

// DeleteSession removes session id from the store and its cached path
// atomically (within the id's stripe lock).
func (m *Manager) DeleteSession(id string) (bool, error) {
	var removed bool

	err := m.locks.withLock(id, func() error {
		ok, err := m.store.Delete(id)
		if err != nil {
			return err
		}
		removed = ok
		m.pathCache.Invalidate(id)
		m.clearBaseVol(id)
		return nil
	})

	return removed, err
}

// CleanupSessions reclaims every expired/terminal session from the store
// and drops the matching cached paths, returning the count reclaimed.
func (m *Manager) CleanupSessions() (int, error) {
	n, err := m.store.Cleanup(m.now(), m.ttl)
	if err != nil {
		return 0, err
	}
	m.pathCache.Reap(m.store.ActiveIDs())
	return n, nil
}

// builderFor adapts pathgen.Generator.Build to pathcache.Builder's shape,
// stashing the realized volatility Historical sessions derive so later
// steps reuse it without refetching from the source.
func (m *Manager) builderFor(ctx context.Context) pathcache.Builder {
	return func(session *models.Session) ([]float64, error) {
		result, err := m.generator.Build(ctx, session)
		if err != nil {
			return nil, err
		}
		if session.Parameters.Method.Kind == models.MethodHistorical {
			m.setBaseVol(session.ID, result.RealizedVol)
		}
		return result.Path, nil
	}
}

// chainParams returns the parameters ChainBuilder should price against,
// substituting the realized volatility for Historical sessions in place of
// the nominal input volatility, per SPEC_FULL's historical calibration step.
func (m *Manager) chainParams(session *models.Session) models.SimulationParameters {
	params := session.Parameters
	if params.Method.Kind == models.MethodHistorical {
		if vol, ok := m.getBaseVol(session.ID); ok {
			params.Volatility = vol
		}
	}
	return params
}

func (m *Manager) setBaseVol(id string, vol float64) {
	m.baseVolMu.Lock()
	defer m.baseVolMu.Unlock()
	m.baseVols[id] = vol
}

func (m *Manager) getBaseVol(id string) (float64, bool) {
	m.baseVolMu.Lock()
	defer m.baseVolMu.Unlock()
	vol, ok := m.baseVols[id]
	return vol, ok
}

func (m *Manager) clearBaseVol(id string) {
	m.baseVolMu.Lock()
	defer m.baseVolMu.Unlock()
	delete(m.baseVols, id)
}
