// Package processsim holds the empirical process models behind the
// interactive simulator: CVD deposition, RIE etching and DC sputtering.
package processsim

import (
	"errors"
	"fmt"
	"math"
)

var ErrParameterOutOfRange = errors.New("process parameter out of range")

const (
	KindCVD        = "cvd"
	KindRIE        = "rie"
	KindSputtering = "sputtering"
)

const (
	activationEnergyEV = 0.5
	boltzmannEVPerK    = 8.617e-5
	celsiusToKelvin    = 273.15
)

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) check(name string, v float64) error {
	if math.IsNaN(v) || v < r.Min || v > r.Max {
		return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrParameterOutOfRange, name, v, r.Min, r.Max)
	}
	return nil
}

type CVDParams struct {
	PressureMTorr float64 `json:"pressure"`
	TemperatureC  float64 `json:"temperature"`
	FlowSCCM      float64 `json:"flow_rate"`
	Minutes       float64 `json:"time"`
}

var CVDRanges = struct {
	Pressure, Temperature, Flow, Minutes Range
}{
	Pressure:    Range{1, 50},
	Temperature: Range{200, 800},
	Flow:        Range{50, 500},
	Minutes:     Range{1, 60},
}

type CVDResult struct {
	DepositionRate float64 `json:"deposition_rate"`
	Thickness      float64 `json:"thickness"`
	Uniformity     float64 `json:"uniformity"`
	ParticleRisk   float64 `json:"particle_risk"`
	Crystallinity  float64 `json:"crystallinity"`
}

// SimulateCVD uses rate = P * exp(-Ea/kT) * flow/100 * 50 nm/min.
func SimulateCVD(p CVDParams) (CVDResult, error) {
	if err := errors.Join(
		CVDRanges.Pressure.check("pressure", p.PressureMTorr),
		CVDRanges.Temperature.check("temperature", p.TemperatureC),
		CVDRanges.Flow.check("flow_rate", p.FlowSCCM),
		CVDRanges.Minutes.check("time", p.Minutes),
	); err != nil {
		return CVDResult{}, err
	}

	kelvin := p.TemperatureC + celsiusToKelvin
	base := p.PressureMTorr * math.Exp(-activationEnergyEV/(boltzmannEVPerK*kelvin)) * (p.FlowSCCM / 100)
	rate := base * 50

	uniformity := 100 - math.Abs(p.PressureMTorr-5)*2 - math.Abs(p.TemperatureC-400)*0.05
	return CVDResult{
		DepositionRate: rate,
		Thickness:      rate * p.Minutes,
		Uniformity:     clamp(uniformity, 60, 100),
		ParticleRisk:   math.Min(p.PressureMTorr/50*100, 100),
		Crystallinity:  math.Min(p.TemperatureC/600*100, 100),
	}, nil
}

type RIEParams struct {
	RFPowerW      float64 `json:"rf_power"`
	PressureMTorr float64 `json:"pressure"`
	CF4Percent    float64 `json:"gas_ratio"`
	Minutes       float64 `json:"time"`
}

var RIERanges = struct {
	RFPower, Pressure, GasRatio, Minutes Range
}{
	RFPower:  Range{50, 300},
	Pressure: Range{1, 50},
	GasRatio: Range{0, 100},
	Minutes:  Range{1, 30},
}

type RIEResult struct {
	EtchRate    float64 `json:"etch_rate"`
	EtchDepth   float64 `json:"etch_depth"`
	Anisotropy  float64 `json:"anisotropy"`
	Selectivity float64 `json:"selectivity"`
	Roughness   float64 `json:"roughness"`
}

func SimulateRIE(p RIEParams) (RIEResult, error) {
	if err := errors.Join(
		RIERanges.RFPower.check("rf_power", p.RFPowerW),
		RIERanges.Pressure.check("pressure", p.PressureMTorr),
		RIERanges.GasRatio.check("gas_ratio", p.CF4Percent),
		RIERanges.Minutes.check("time", p.Minutes),
	); err != nil {
		return RIEResult{}, err
	}

	rate := (p.RFPowerW / 100) * (p.PressureMTorr / 10) * 80
	return RIEResult{
		EtchRate:    rate,
		EtchDepth:   rate * p.Minutes,
		Anisotropy:  math.Min((p.RFPowerW/200)*(20/p.PressureMTorr)*100, 100),
		Selectivity: math.Max(10-math.Abs(p.CF4Percent-80)*0.05, 1),
		Roughness:   math.Max(math.Abs(p.RFPowerW-150)*0.02, 0.1),
	}, nil
}

type SputteringParams struct {
	DCPowerW      float64 `json:"dc_power"`
	PressureMTorr float64 `json:"pressure"`
	ArFlowSCCM    float64 `json:"ar_flow"`
	SubstrateC    float64 `json:"substrate_temp"`
}

var SputteringRanges = struct {
	DCPower, Pressure, ArFlow, Substrate Range
}{
	DCPower:   Range{50, 500},
	Pressure:  Range{1, 20},
	ArFlow:    Range{10, 100},
	Substrate: Range{25, 500},
}

type SputteringResult struct {
	DepositionRate float64 `json:"deposition_rate"`
	Density        float64 `json:"density"`
	Resistivity    float64 `json:"resistivity"`
	Adhesion       float64 `json:"adhesion"`
}

func SimulateSputtering(p SputteringParams) (SputteringResult, error) {
	if err := errors.Join(
		SputteringRanges.DCPower.check("dc_power", p.DCPowerW),
		SputteringRanges.Pressure.check("pressure", p.PressureMTorr),
		SputteringRanges.ArFlow.check("ar_flow", p.ArFlowSCCM),
		SputteringRanges.Substrate.check("substrate_temp", p.SubstrateC),
	); err != nil {
		return SputteringResult{}, err
	}

	pressureFactor := math.Max(1-math.Abs(p.PressureMTorr-3)*0.1, 0.3)
	density := math.Min(p.SubstrateC/300*100, 100)
	return SputteringResult{
		DepositionRate: (p.DCPowerW / 200) * pressureFactor * (p.ArFlowSCCM / 50) * 100,
		Density:        density,
		Resistivity:    1e-3 / (density / 100),
		Adhesion:       clamp(100-math.Abs(p.SubstrateC-250)*0.2, 40, 100),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
