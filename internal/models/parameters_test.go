package models

import "testing"

func validGBMParams() SimulationParameters {
	return SimulationParameters{
		Symbol:           "AAPL",
		InitialPrice:     185.5,
		DaysToExpiration: 45,
		Volatility:       0.25,
		RiskFreeRate:     0.04,
		DividendYield:    0.005,
		Method: Method{
			Kind: MethodGeometricBrownian,
			GBM:  &GBMConfig{DT: 0.004, Drift: 0.05, Volatility: 0.25},
		},
		TimeFrame: TimeFrameDay,
		Steps:     10,
	}
}

func TestValidate_AcceptsWellFormedParameters(t *testing.T) {
	p := validGBMParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid parameters, got %v", err)
	}
}

func TestValidate_RejectsZeroVolatility(t *testing.T) {
	p := validGBMParams()
	p.Volatility = 0
	err := p.Validate()
	if !IsKind(err, KindInvalidParameter) {
		t.Fatalf("expected KindInvalidParameter, got %v", err)
	}
	se, ok := err.(*SessionError)
	if !ok || se.Field != "volatility" {
		t.Errorf("expected field=volatility, got %+v", err)
	}
}

func TestValidate_RejectsNonPositiveFields(t *testing.T) {
	cases := []struct {
		name  string
		mutate func(*SimulationParameters)
		field string
	}{
		{"symbol", func(p *SimulationParameters) { p.Symbol = "" }, "symbol"},
		{"initial_price", func(p *SimulationParameters) { p.InitialPrice = 0 }, "initial_price"},
		{"days_to_expiration", func(p *SimulationParameters) { p.DaysToExpiration = -1 }, "days_to_expiration"},
		{"dividend_yield", func(p *SimulationParameters) { p.DividendYield = -0.01 }, "dividend_yield"},
		{"steps", func(p *SimulationParameters) { p.Steps = 0 }, "steps"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validGBMParams()
			tc.mutate(&p)
			err := p.Validate()
			if !IsKind(err, KindInvalidParameter) {
				t.Fatalf("expected KindInvalidParameter, got %v", err)
			}
			if se := err.(*SessionError); se.Field != tc.field {
				t.Errorf("expected field=%s, got %s", tc.field, se.Field)
			}
		})
	}
}

func TestValidate_HistoricalRequiresLookbackDays(t *testing.T) {
	p := validGBMParams()
	p.Method = Method{Kind: MethodHistorical, Historical: &HistoricalConfig{LookbackDays: 0}}
	if err := p.Validate(); !IsKind(err, KindInvalidParameter) {
		t.Fatalf("expected KindInvalidParameter, got %v", err)
	}
}

func TestApplyDefaults_FillsOptionalFields(t *testing.T) {
	p := SimulationParameters{InitialPrice: 200}
	p.ApplyDefaults()
	if p.ChainSize != DefaultChainSize {
		t.Errorf("expected default chain size %d, got %d", DefaultChainSize, p.ChainSize)
	}
	if p.SmileCurve != DefaultSmileCurve {
		t.Errorf("expected default smile curve %v, got %v", DefaultSmileCurve, p.SmileCurve)
	}
	if p.Spread != DefaultSpread {
		t.Errorf("expected default spread %v, got %v", DefaultSpread, p.Spread)
	}
	if p.StrikeInterval != 2 { // round(200*0.01) = 2
		t.Errorf("expected derived strike interval 2, got %v", p.StrikeInterval)
	}
}

func TestMethodJSONRoundTrip(t *testing.T) {
	original := Method{Kind: MethodGeometricBrownian, GBM: &GBMConfig{DT: 0.004, Drift: 0.05, Volatility: 0.25}}
	data, err := original.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Method
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Kind != original.Kind || *decoded.GBM != *original.GBM {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestInvalidatesPath(t *testing.T) {
	for _, f := range []string{"initial_price", "method", "volatility", "drift"} {
		if !InvalidatesPath(f) {
			t.Errorf("expected %s to invalidate the path cache", f)
		}
	}
	if InvalidatesPath("risk_free_rate") {
		t.Error("risk_free_rate should not invalidate the path cache")
	}
}
