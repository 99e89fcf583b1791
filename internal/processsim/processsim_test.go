package processsim

import (
	"errors"
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSimulateCVD(t *testing.T) {
	r, err := SimulateCVD(CVDParams{PressureMTorr: 5, TemperatureC: 400, FlowSCCM: 200, Minutes: 10})
	if err != nil {
		t.Fatal(err)
	}
	wantRate := 5 * math.Exp(-0.5/(8.617e-5*673.15)) * 2 * 50
	if !near(r.DepositionRate, wantRate) || !near(r.Thickness, wantRate*10) {
		t.Errorf("rate = %v thickness = %v", r.DepositionRate, r.Thickness)
	}
	if !near(r.Uniformity, 100) || !near(r.ParticleRisk, 10) {
		t.Errorf("uniformity = %v particle = %v", r.Uniformity, r.ParticleRisk)
	}
	if !near(r.Crystallinity, 400.0/600*100) {
		t.Errorf("crystallinity = %v", r.Crystallinity)
	}
}

func TestSimulateCVDClamps(t *testing.T) {
	r, err := SimulateCVD(CVDParams{PressureMTorr: 50, TemperatureC: 800, FlowSCCM: 500, Minutes: 1})
	if err != nil {
		t.Fatal(err)
	}
	if r.Uniformity != 60 || r.ParticleRisk != 100 || r.Crystallinity != 100 {
		t.Errorf("clamps not applied: %+v", r)
	}
	a := RecommendCVD(r)
	if len(a.Warnings) != 1 || len(a.Recommendations) != 1 {
		t.Errorf("advice = %+v", a)
	}
}

func TestSimulateRIE(t *testing.T) {
	r, err := SimulateRIE(RIEParams{RFPowerW: 150, PressureMTorr: 10, CF4Percent: 80, Minutes: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !near(r.EtchRate, 120) || !near(r.EtchDepth, 600) {
		t.Errorf("rate = %v depth = %v", r.EtchRate, r.EtchDepth)
	}
	if !near(r.Anisotropy, 100) || !near(r.Selectivity, 10) || !near(r.Roughness, 0.1) {
		t.Errorf("result = %+v", r)
	}

	low, _ := SimulateRIE(RIEParams{RFPowerW: 300, PressureMTorr: 50, CF4Percent: 0, Minutes: 1})
	if !near(low.Selectivity, 6) || !near(low.Roughness, 3) || !near(low.Anisotropy, 60) {
		t.Errorf("low = %+v", low)
	}
	a := RecommendRIE(low)
	if len(a.Recommendations) != 1 || len(a.Warnings) != 0 {
		t.Errorf("advice = %+v", a)
	}
}

func TestSimulateSputtering(t *testing.T) {
	r, err := SimulateSputtering(SputteringParams{DCPowerW: 200, PressureMTorr: 3, ArFlowSCCM: 50, SubstrateC: 300})
	if err != nil {
		t.Fatal(err)
	}
	if !near(r.DepositionRate, 100) || !near(r.Density, 100) || !near(r.Resistivity, 1e-3) || !near(r.Adhesion, 90) {
		t.Errorf("result = %+v", r)
	}

	far, _ := SimulateSputtering(SputteringParams{DCPowerW: 200, PressureMTorr: 20, ArFlowSCCM: 50, SubstrateC: 25})
	if !near(far.DepositionRate, 30) || !near(far.Adhesion, 55) {
		t.Errorf("pressure factor floor or adhesion clamp wrong: %+v", far)
	}
	a := RecommendSputtering(far)
	if len(a.Recommendations) != 1 || len(a.Warnings) != 1 {
		t.Errorf("advice = %+v", a)
	}
}

func TestOutOfRange(t *testing.T) {
	_, err := SimulateRIE(RIEParams{RFPowerW: 150, PressureMTorr: 0, CF4Percent: 80, Minutes: 5})
	if !errors.Is(err, ErrParameterOutOfRange) {
		t.Errorf("expected ErrParameterOutOfRange, got %v", err)
	}
	_, err = SimulateCVD(CVDParams{PressureMTorr: math.NaN(), TemperatureC: 400, FlowSCCM: 200, Minutes: 1})
	if !errors.Is(err, ErrParameterOutOfRange) {
		t.Errorf("NaN should be rejected, got %v", err)
	}
}

func TestProfiles(t *testing.T) {
	s := CVDProfile(CVDResult{Thickness: 100, Uniformity: 80})
	if len(s.X) != 50 || len(s.Z) != 50 || len(s.Z[0]) != 50 {
		t.Fatalf("grid = %dx%d", len(s.Z), len(s.Z[0]))
	}
	if s.X[0] != -5 || !near(s.X[49], 5) {
		t.Errorf("axis = [%v, %v]", s.X[0], s.X[49])
	}
	corner := s.Z[0][0]
	if !near(corner, 100*(1+0.01*20*50/50)) {
		t.Errorf("corner = %v", corner)
	}

	rie := RIEProfile(RIEResult{EtchDepth: 200, Anisotropy: 100})
	if rie.Z[10][10] != -200 {
		t.Errorf("fully anisotropic etch should be flat, got %v", rie.Z[10][10])
	}
}
