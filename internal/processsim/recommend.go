package processsim

// Advice is the recommendation and warning text shown next to a result.
type Advice struct {
	Recommendations []string `json:"recommendations"`
	Warnings        []string `json:"warnings"`
}

func newAdvice() Advice {
	return Advice{Recommendations: []string{}, Warnings: []string{}}
}

func RecommendCVD(r CVDResult) Advice {
	a := newAdvice()
	if r.Uniformity < 85 {
		a.Recommendations = append(a.Recommendations, "균일도 개선: 압력을 5mTorr 근처로 조정하세요")
	}
	if r.ParticleRisk > 60 {
		a.Warnings = append(a.Warnings, "입자 형성 위험: 압력을 낮추세요 (< 10mTorr)")
	}
	if r.Crystallinity < 70 {
		a.Recommendations = append(a.Recommendations, "결정성 향상: 온도를 500℃ 이상으로 높이세요")
	}
	if r.DepositionRate < 50 {
		a.Recommendations = append(a.Recommendations, "증착 속도 증가: 가스 유량을 높이세요")
	}
	return a
}

func RecommendRIE(r RIEResult) Advice {
	a := newAdvice()
	if r.Anisotropy < 70 {
		a.Recommendations = append(a.Recommendations, "이방성 향상: RF 파워를 높이고 압력을 낮추세요")
	}
	if r.Selectivity < 5 {
		a.Warnings = append(a.Warnings, "선택비 부족: CF4/O2 비율을 조정하세요")
	}
	if r.Roughness > 5 {
		a.Warnings = append(a.Warnings, "표면 거칠기 과다: RF 파워를 낮추세요")
	}
	return a
}

func RecommendSputtering(r SputteringResult) Advice {
	a := newAdvice()
	if r.Density < 80 {
		a.Recommendations = append(a.Recommendations, "박막 밀도 향상: 기판 온도를 240℃ 이상으로 높이세요")
	}
	if r.Adhesion < 70 {
		a.Warnings = append(a.Warnings, "부착력 저하: 기판 온도를 250℃ 근처로 조정하세요")
	}
	return a
}
