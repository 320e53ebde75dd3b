package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TimeFrame controls the step spacing of a simulation.
type TimeFrame string

const (
	// TimeFrameMinute steps once per minute of trading time.
	TimeFrameMinute TimeFrame = "minute"
	// TimeFrameHour steps once per trading hour.
	TimeFrameHour TimeFrame = "hour"
	// TimeFrameDay steps once per trading day.
	TimeFrameDay TimeFrame = "day"
	// TimeFrameWeek steps once per week.
	TimeFrameWeek TimeFrame = "week"
	// TimeFrameMonth steps once per month.
	TimeFrameMonth TimeFrame = "month"
)

func (t TimeFrame) valid() bool {
	switch t {
	case TimeFrameMinute, TimeFrameHour, TimeFrameDay, TimeFrameWeek, TimeFrameMonth:
		return true
	}
	return false
}

// MethodKind discriminates the tagged-union SimulationParameters.Method.
type MethodKind string

const (
	// MethodGeometricBrownian drives the path via GBM with i.i.d. normal shocks.
	MethodGeometricBrownian MethodKind = "geometric_brownian"
	// MethodHistorical bootstraps returns from an empirical OHLCV series.
	MethodHistorical MethodKind = "historical"
	// MethodBlackScholes advances the spot deterministically via drift only.
	MethodBlackScholes MethodKind = "black_scholes"
)

// GBMConfig carries the GeometricBrownian method's fields.
type GBMConfig struct {
	DT         float64 `json:"dt"`
	Drift      float64 `json:"drift"`
	Volatility float64 `json:"volatility"`
}

// HistoricalConfig carries the Historical method's fields.
type HistoricalConfig struct {
	LookbackDays int `json:"lookback_days"`
}

// Method is a closed tagged union over the three supported path-generation
// strategies. Exactly one of GBM/Historical is populated, gated by Kind;
// BlackScholes carries no extra configuration.
type Method struct {
	Kind       MethodKind
	GBM        *GBMConfig
	Historical *HistoricalConfig
}

// methodWireForm is the JSON wire shape: a "type" discriminator alongside
// the flattened fields of whichever variant is active.
type methodWireForm struct {
	Type         MethodKind `json:"type"`
	DT           *float64   `json:"dt,omitempty"`
	Drift        *float64   `json:"drift,omitempty"`
	Volatility   *float64   `json:"volatility,omitempty"`
	LookbackDays *int       `json:"lookback_days,omitempty"`
}

// MarshalJSON flattens the active variant next to its "type" tag.
func (m Method) MarshalJSON() ([]byte, error) {
	w := methodWireForm{Type: m.Kind}
	switch m.Kind {
	case MethodGeometricBrownian:
		if m.GBM == nil {
			return nil, fmt.Errorf("method %s missing GBM config", m.Kind)
		}
		w.DT = &m.GBM.DT
		w.Drift = &m.GBM.Drift
		w.Volatility = &m.GBM.Volatility
	case MethodHistorical:
		if m.Historical == nil {
			return nil, fmt.Errorf("method %s missing historical config", m.Kind)
		}
		w.LookbackDays = &m.Historical.LookbackDays
	case MethodBlackScholes:
		// no extra fields
	default:
		return nil, fmt.Errorf("unknown method kind %q", m.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the "type" tag and hydrates the matching variant.
func (m *Method) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	var w methodWireForm
	if err := dec.Decode(&w); err != nil {
		return err
	}

	switch w.Type {
	case MethodGeometricBrownian:
		if w.DT == nil || w.Drift == nil || w.Volatility == nil {
			return fmt.Errorf("method %s requires dt, drift, and volatility", w.Type)
		}
		m.Kind = MethodGeometricBrownian
		m.GBM = &GBMConfig{DT: *w.DT, Drift: *w.Drift, Volatility: *w.Volatility}
		m.Historical = nil
	case MethodHistorical:
		if w.LookbackDays == nil {
			return fmt.Errorf("method %s requires lookback_days", w.Type)
		}
		m.Kind = MethodHistorical
		m.Historical = &HistoricalConfig{LookbackDays: *w.LookbackDays}
		m.GBM = nil
	case MethodBlackScholes:
		m.Kind = MethodBlackScholes
		m.GBM = nil
		m.Historical = nil
	default:
		return fmt.Errorf("unknown method type %q", w.Type)
	}
	return nil
}

// Default tuning knobs applied by ApplyDefaults when the client omits them.
const (
	DefaultChainSize  = 15
	DefaultSmileCurve = 0.0005
	DefaultSpread     = 0.02
	DefaultTick       = 0.02
)

// SimulationParameters is the client-facing configuration for a session.
type SimulationParameters struct {
	Symbol           string    `json:"symbol"`
	InitialPrice     float64   `json:"initial_price"`
	DaysToExpiration float64   `json:"days_to_expiration"`
	Volatility       float64   `json:"volatility"`
	RiskFreeRate     float64   `json:"risk_free_rate"`
	DividendYield    float64   `json:"dividend_yield"`
	Method           Method    `json:"method"`
	TimeFrame        TimeFrame `json:"time_frame"`
	ChainSize        int       `json:"chain_size,omitempty"`
	StrikeInterval   float64   `json:"strike_interval,omitempty"`
	SmileCurve       float64   `json:"smile_curve,omitempty"`
	Spread           float64   `json:"spread,omitempty"`
	Steps            int       `json:"steps"`
}

// ApplyDefaults fills optional zero-valued fields with their documented
// defaults. Call before Validate; idempotent.
func (p *SimulationParameters) ApplyDefaults() {
	if p.ChainSize == 0 {
		p.ChainSize = DefaultChainSize
	}
	if p.StrikeInterval == 0 {
		interval := roundToTwoDecimals(p.InitialPrice * 0.01)
		if interval < 1 {
			interval = 1
		}
		p.StrikeInterval = interval
	}
	if p.SmileCurve == 0 {
		p.SmileCurve = DefaultSmileCurve
	}
	if p.Spread == 0 {
		p.Spread = DefaultSpread
	}
}

func roundToTwoDecimals(x float64) float64 {
	return float64(int64(x*100+0.5)) / 100
}

// Validate checks every structural invariant named in spec §3. It never
// performs I/O (e.g. it does not check symbol availability for Historical —
// that surfaces later as a KindDataSourceUnavailable/KindSymbolUnknown error
// on first path build, see DESIGN.md).
func (p *SimulationParameters) Validate() error {
	if p.Symbol == "" {
		return NewInvalidParameter("symbol", "must be non-empty")
	}
	if p.InitialPrice <= 0 {
		return NewInvalidParameter("initial_price", "must be > 0")
	}
	if p.DaysToExpiration <= 0 {
		return NewInvalidParameter("days_to_expiration", "must be > 0")
	}
	if p.Volatility <= 0 {
		return NewInvalidParameter("volatility", "must be > 0")
	}
	if p.Volatility > 5 {
		return NewInvalidParameter("volatility", "must be in (0, 5]")
	}
	if p.DividendYield < 0 {
		return NewInvalidParameter("dividend_yield", "must be >= 0")
	}
	if !p.TimeFrame.valid() {
		return NewInvalidParameter("time_frame", "must be one of minute, hour, day, week, month")
	}
	if p.Steps <= 0 {
		return NewInvalidParameter("steps", "must be > 0")
	}
	if p.ChainSize < 0 {
		return NewInvalidParameter("chain_size", "must be > 0")
	}
	if p.StrikeInterval < 0 {
		return NewInvalidParameter("strike_interval", "must be > 0")
	}
	if p.Spread < 0 {
		return NewInvalidParameter("spread", "must be > 0")
	}

	switch p.Method.Kind {
	case MethodGeometricBrownian:
		if p.Method.GBM == nil {
			return NewInvalidParameter("method", "geometric_brownian requires dt, drift, volatility")
		}
		if p.Method.GBM.DT <= 0 {
			return NewInvalidParameter("method.dt", "must be > 0")
		}
		if p.Method.GBM.Volatility <= 0 {
			return NewInvalidParameter("method.volatility", "must be > 0")
		}
	case MethodHistorical:
		if p.Method.Historical == nil {
			return NewInvalidParameter("method", "historical requires lookback_days")
		}
		if p.Method.Historical.LookbackDays <= 0 {
			return NewInvalidParameter("method.lookback_days", "must be > 0")
		}
	case MethodBlackScholes:
		// deterministic, no extra fields to check
	default:
		return NewInvalidParameter("method", fmt.Sprintf("unknown method kind %q", p.Method.Kind))
	}

	return nil
}

// changesRequiringPathInvalidation are the patch fields whose mutation
// forces PathCache eviction per spec §4.7.
var changesRequiringPathInvalidation = map[string]bool{
	"initial_price": true,
	"method":        true,
	"volatility":    true,
	"drift":         true,
}

// InvalidatesPath reports whether changing the named field requires
// dropping the session's cached price path.
func InvalidatesPath(field string) bool {
	return changesRequiringPathInvalidation[field]
}
