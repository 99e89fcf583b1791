package app

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"gopherai-interview/internal/model"
	"gopherai-interview/internal/session"
)

const (
	FormatHTML = "html"
	FormatPDF  = "pdf"

	reportAnswerLimit   = 500
	reportItemListLimit = 3
	reportSummaryLimit  = 5
	defaultUserName     = "학생"

	reportTitle  = "반도체 공정 면접 분석 리포트"
	reportFooter = "반도체 공정 학습 & 면접 시뮬레이터"
	pdfFontAlias = "report"
)

type ScoreRow struct {
	Label   string  `json:"label"`
	Average float64 `json:"average"`
	Max     int     `json:"max"`
}

func (r ScoreRow) Percent() float64 {
	if r.Max == 0 {
		return 0
	}
	return r.Average / float64(r.Max) * 100
}

type ReportItem struct {
	Index        int      `json:"index"`
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Scored       bool     `json:"scored"`
	Score        float64  `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// Report is the rendered-independent content of an interview report.
type Report struct {
	UserName      string       `json:"user_name"`
	GeneratedAt   time.Time    `json:"generated_at"`
	QuestionCount int          `json:"question_count"`
	Education     string       `json:"education,omitempty"`
	HasProfile    bool         `json:"has_profile"`
	Scores        []ScoreRow   `json:"scores"`
	Items         []ReportItem `json:"items"`
	Strengths     []string     `json:"strengths"`
	Improvements  []string     `json:"improvements"`
	Topics        []string     `json:"topics"`
}

// ReportFile is a rendered report ready to download.
type ReportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type ReportService struct {
	sessions  session.Store
	fontPath  string
	outputDir string
	logger    *slog.Logger
}

// NewReportService renders PDFs only when fontPath points at a UTF-8 TrueType
// font. Reports are also written to outputDir when it is set.
func NewReportService(sessions session.Store, fontPath, outputDir string, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		sessions:  sessions,
		fontPath:  fontPath,
		outputDir: outputDir,
		logger:    logger.With("service", "report"),
	}
}

// Build averages the total and each criterion over the records that carry a
// total score.
func Build(userName string, profile *model.StudentProfile, qa []model.QARecord, now time.Time) Report {
	r := Report{
		UserName:      orDefault(userName, defaultUserName),
		GeneratedAt:   now,
		QuestionCount: len(qa),
		HasProfile:    profile != nil,
	}
	if profile != nil {
		r.Education = orDefault(string(profile.Education), "N/A")
	}

	var scored int
	var total float64
	var sums model.Scores
	for _, rec := range qa {
		e := rec.Evaluation
		if e.TotalScore == nil {
			continue
		}
		scored++
		total += *e.TotalScore
		sums.Accuracy += e.Scores.Accuracy
		sums.Depth += e.Scores.Depth
		sums.Structure += e.Scores.Structure
		sums.Application += e.Scores.Application
		sums.Communication += e.Scores.Communication
	}
	avg := func(v float64) float64 {
		if scored == 0 {
			return 0
		}
		return v / float64(scored)
	}
	r.Scores = []ScoreRow{
		{Label: "총점", Average: avg(total), Max: model.MaxTotal},
		{Label: "정확성", Average: avg(sums.Accuracy), Max: model.MaxAccuracy},
		{Label: "깊이", Average: avg(sums.Depth), Max: model.MaxDepth},
		{Label: "구조", Average: avg(sums.Structure), Max: model.MaxStructure},
		{Label: "응용", Average: avg(sums.Application), Max: model.MaxApplication},
		{Label: "의사소통", Average: avg(sums.Communication), Max: model.MaxCommunication},
	}

	var strengths, improvements, topics []string
	for i, rec := range qa {
		e := rec.Evaluation
		answer := truncateRunes(rec.Answer, reportAnswerLimit)
		if answer != rec.Answer {
			answer += "..."
		}
		r.Items = append(r.Items, ReportItem{
			Index:        i + 1,
			Question:     orDefault(rec.Question, "N/A"),
			Answer:       orDefault(answer, "N/A"),
			Scored:       e.TotalScore != nil,
			Score:        e.Total(),
			Strengths:    firstN(e.Strengths, reportItemListLimit),
			Improvements: firstN(e.Improvements, reportItemListLimit),
		})
		strengths = append(strengths, e.Strengths...)
		improvements = append(improvements, e.Improvements...)
		topics = append(topics, e.RecommendedTopics...)
	}
	r.Strengths = firstN(unique(strengths), reportSummaryLimit)
	r.Improvements = firstN(unique(improvements), reportSummaryLimit)
	r.Topics = firstN(unique(topics), reportSummaryLimit)
	return r
}

func unique(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"f1":   func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"f0":   func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"date": func(t time.Time) string { return t.Format("2006년 01월 02일 15:04") },
	"ts":   func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
}).Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>면접 분석 리포트 - {{.UserName}}</title>
<style>
body { font-family: 'Malgun Gothic', 'Noto Sans KR', sans-serif; max-width: 900px; margin: 40px auto; padding: 20px; background: #f5f5f5; }
.container { background: #fff; padding: 40px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
h1 { color: #1a237e; text-align: center; border-bottom: 3px solid #3f51b5; padding-bottom: 20px; }
h2 { color: #283593; margin-top: 30px; border-left: 5px solid #3f51b5; padding-left: 10px; }
table { width: 100%; border-collapse: collapse; margin: 20px 0; }
th, td { border: 1px solid #ddd; padding: 12px; text-align: left; }
th { background: #3f51b5; color: #fff; }
.score-table td { text-align: center; }
.qa-section { background: #f9f9f9; padding: 20px; margin: 20px 0; border-radius: 5px; border-left: 4px solid #3f51b5; }
.question { font-weight: bold; color: #1a237e; }
.answer { background: #fff; padding: 10px; border-radius: 5px; }
.score { font-size: 18px; font-weight: bold; color: #3f51b5; }
.strengths { color: #2e7d32; }
.improvements { color: #e65100; }
.footer { text-align: center; margin-top: 40px; color: #999; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
<h1>{{.Title}}</h1>
<h2>기본 정보</h2>
<table>
<tr><td>이름</td><td>{{.UserName}}</td></tr>
<tr><td>분석 일시</td><td>{{date .GeneratedAt}}</td></tr>
<tr><td>총 질문 수</td><td>{{.QuestionCount}}개</td></tr>
{{- if .HasProfile}}
<tr><td>학력</td><td>{{.Education}}</td></tr>
{{- end}}
</table>
<h2>종합 평가</h2>
<table class="score-table">
<tr><th>평가 항목</th><th>평균 점수</th><th>만점</th><th>달성률</th></tr>
{{- range .Scores}}
<tr><td>{{.Label}}</td><td>{{f1 .Average}}</td><td>{{.Max}}</td><td>{{f0 .Percent}}%</td></tr>
{{- end}}
</table>
<h2>질문별 상세 분석</h2>
{{- range .Items}}
<div class="qa-section">
<div class="question">질문 {{.Index}}</div>
<p>{{.Question}}</p>
<div class="question">답변</div>
<div class="answer">{{.Answer}}</div>
{{- if .Scored}}
<div class="score">점수: {{f0 .Score}}/100</div>
{{- end}}
{{- if .Strengths}}
<div class="strengths"><strong>강점:</strong><ul>{{range .Strengths}}<li>{{.}}</li>{{end}}</ul></div>
{{- end}}
{{- if .Improvements}}
<div class="improvements"><strong>개선점:</strong><ul>{{range .Improvements}}<li>{{.}}</li>{{end}}</ul></div>
{{- end}}
</div>
{{- end}}
<h2>종합 피드백 및 학습 가이드</h2>
<div class="strengths"><strong>주요 강점:</strong><ul>{{range .Strengths}}<li>{{.}}</li>{{end}}</ul></div>
<div class="improvements"><strong>중점 개선 사항:</strong><ul>{{range .Improvements}}<li>{{.}}</li>{{end}}</ul></div>
<div><strong>복습 추천 주제:</strong><ul>{{range .Topics}}<li>{{.}}</li>{{end}}</ul></div>
<div class="footer">
<p>생성 일시: {{ts .GeneratedAt}}</p>
<p>{{.Footer}}</p>
</div>
</div>
</body>
</html>
`))

// RenderHTML writes the standalone HTML report.
func RenderHTML(w io.Writer, r Report) error {
	data := struct {
		Report
		Title  string
		Footer string
	}{r, reportTitle, reportFooter}
	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render html report failed: %w", err)
	}
	return nil
}

// RenderPDF writes an A4 report using the UTF-8 font at fontPath.
func RenderPDF(w io.Writer, r Report, fontPath string) error {
	if fontPath == "" {
		return fmt.Errorf("render pdf report failed: no font configured")
	}
	if _, err := os.Stat(fontPath); err != nil {
		return fmt.Errorf("render pdf report failed: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8Font(pdfFontAlias, "", fontPath)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(pdfFontAlias, "", 8)
		pdf.SetTextColor(153, 153, 153)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s  -  %d", reportFooter, pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	heading := func(text string) {
		pdf.Ln(4)
		pdf.SetFont(pdfFontAlias, "", 16)
		pdf.SetTextColor(0x28, 0x35, 0x93)
		pdf.CellFormat(0, 10, text, "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFontAlias, "", 10)
		pdf.SetTextColor(0, 0, 0)
	}
	bullets := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		pdf.MultiCell(0, 6, label, "", "L", false)
		for _, item := range items {
			pdf.MultiCell(0, 6, "  • "+item, "", "L", false)
		}
		pdf.Ln(2)
	}

	pdf.AddPage()
	pdf.SetFont(pdfFontAlias, "", 22)
	pdf.SetTextColor(0x1a, 0x23, 0x7e)
	pdf.CellFormat(0, 14, reportTitle, "", 1, "C", false, 0, "")

	heading("기본 정보")
	info := [][2]string{
		{"이름", r.UserName},
		{"분석 일시", r.GeneratedAt.Format("2006년 01월 02일 15:04")},
		{"총 질문 수", fmt.Sprintf("%d", r.QuestionCount)},
	}
	if r.HasProfile {
		info = append(info, [2]string{"학력", r.Education})
	}
	for _, row := range info {
		pdf.SetFillColor(0xe8, 0xea, 0xf6)
		pdf.CellFormat(40, 8, row[0], "1", 0, "L", true, 0, "")
		pdf.CellFormat(120, 8, row[1], "1", 1, "L", false, 0, "")
	}

	if r.QuestionCount > 0 {
		heading("종합 평가")
		widths := []float64{50, 30, 30, 30}
		pdf.SetFillColor(0x3f, 0x51, 0xb5)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range []string{"평가 항목", "평균 점수", "만점", "달성률"} {
			pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		for i, row := range r.Scores {
			pdf.SetFillColor(0xff, 0xfd, 0xe7)
			fill := i == 0
			pdf.CellFormat(widths[0], 8, row.Label, "1", 0, "C", fill, 0, "")
			pdf.CellFormat(widths[1], 8, fmt.Sprintf("%.1f", row.Average), "1", 0, "C", fill, 0, "")
			pdf.CellFormat(widths[2], 8, fmt.Sprintf("%d", row.Max), "1", 0, "C", fill, 0, "")
			pdf.CellFormat(widths[3], 8, fmt.Sprintf("%.0f%%", row.Percent()), "1", 1, "C", fill, 0, "")
		}
	}

	pdf.AddPage()
	heading("질문별 상세 분석")
	for i, item := range r.Items {
		pdf.MultiCell(0, 6, fmt.Sprintf("질문 %d", item.Index), "", "L", false)
		pdf.MultiCell(0, 6, item.Question, "", "L", false)
		pdf.Ln(2)
		pdf.MultiCell(0, 6, "답변", "", "L", false)
		pdf.MultiCell(0, 6, item.Answer, "", "L", false)
		pdf.Ln(2)
		if item.Scored {
			pdf.MultiCell(0, 6, fmt.Sprintf("점수: %.0f/100", item.Score), "", "L", false)
			bullets("강점:", item.Strengths)
			bullets("개선점:", item.Improvements)
		}
		if i < len(r.Items)-1 {
			pdf.Ln(2)
			pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
			pdf.Ln(4)
		}
	}

	pdf.AddPage()
	heading("종합 피드백 및 학습 가이드")
	bullets("주요 강점:", r.Strengths)
	bullets("중점 개선 사항:", r.Improvements)
	bullets("복습 추천 주제:", r.Topics)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf report failed: %w", err)
	}
	return nil
}

// Generate renders the session report. A PDF request falls back to HTML when
// no font is configured or rendering fails.
func (s *ReportService) Generate(ctx context.Context, userID uint, userName, format string) (*ReportFile, error) {
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(st.QA) == 0 {
		return nil, ErrNoRecords
	}

	now := time.Now()
	report := Build(userName, st.Profile, st.QA, now)
	base := fmt.Sprintf("interview_report_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8])

	var file *ReportFile
	if strings.EqualFold(format, FormatPDF) {
		var buf bytes.Buffer
		if err := RenderPDF(&buf, report, s.fontPath); err != nil {
			s.logger.Warn("pdf report failed, falling back to html", "user_id", userID, "error", err)
		} else {
			file = &ReportFile{Name: base + ".pdf", ContentType: "application/pdf", Data: buf.Bytes()}
		}
	}
	if file == nil {
		var buf bytes.Buffer
		if err := RenderHTML(&buf, report); err != nil {
			return nil, err
		}
		file = &ReportFile{Name: base + ".html", ContentType: "text/html; charset=utf-8", Data: buf.Bytes()}
	}

	s.persist(file)
	s.logger.Info("report generated", "user_id", userID, "file", file.Name, "questions", report.QuestionCount)
	return file, nil
}

func (s *ReportService) persist(file *ReportFile) {
	if s.outputDir == "" {
		return
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		s.logger.Warn("create report dir failed", "dir", s.outputDir, "error", err)
		return
	}
	path := filepath.Join(s.outputDir, file.Name)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		s.logger.Warn("write report failed", "path", path, "error", err)
	}
}
