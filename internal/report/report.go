// Package report renders the printable campaign proposal document from
// a computed estimate and the recommended segments.
package report

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/adwave/tv-planner/internal/models"
)

// Data is everything one proposal document needs.
type Data struct {
	AdvertiserName string
	ProductName    string
	Date           string
	Summary        models.EstimateSummary
	Details        []models.ChannelEstimate
	Segments       []models.RecommendedSegment
}

// Renderer renders proposal documents.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the proposal template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("proposal").Funcs(template.FuncMap{
		"comma":    comma,
		"commaInt": func(n int64) string { return groupDigits(n) },
		"fixed1": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 1, 64)
		},
	}).Parse(proposalTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proposal template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the proposal HTML for the given estimate. The date
// defaults to today when unset.
func (r *Renderer) Render(w io.Writer, data Data) error {
	if data.Date == "" {
		data.Date = time.Now().Format("2006-01-02")
	}
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render proposal: %w", err)
	}
	return nil
}

// comma formats a number with thousands separators, rounding to the
// nearest integer.
func comma(v float64) string {
	return groupDigits(int64(math.Round(v)))
}

func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

const proposalTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="UTF-8">
<title>AI 광고 전략 제안서</title>
<style>
body { font-family: sans-serif; margin: 0 auto; padding: 30px; max-width: 900px; color: #333; }
.header { display: flex; justify-content: space-between; align-items: center; border-bottom: 3px solid #004a9e; padding-bottom: 10px; }
.header h1 { font-size: 28px; color: #004a9e; margin: 0; }
table { width: 100%; border-collapse: collapse; margin-top: 15px; }
th, td { border: 1px solid #ddd; padding: 10px; text-align: center; font-size: 14px; }
th { background-color: #f0f6ff; }
.summary { display: grid; grid-template-columns: repeat(3, 1fr); gap: 20px; margin: 30px 0; }
.summary-item { background-color: #f9f9f9; border: 1px solid #ddd; padding: 20px; border-radius: 5px; text-align: center; }
.summary-item p { margin: 0; font-size: 24px; font-weight: 700; color: #004a9e; }
h2 { font-size: 20px; color: #004a9e; border-bottom: 2px solid #eee; padding-bottom: 8px; margin-top: 30px; }
.segment { border-bottom: 1px dashed #ddd; padding: 10px 0; }
.segment .score { background: #004a9e; color: white; padding: 2px 8px; border-radius: 3px; font-size: 12px; margin-left: 10px; }
.footer { margin-top: 30px; text-align: center; font-size: 12px; color: #888; }
@media print { body { margin: 0; padding: 0; max-width: 100%; } }
</style>
</head>
<body>
<div class="header"><h1>AI 광고 전략 제안서</h1></div>

<table>
<tr><th>광고주명</th><td>{{.AdvertiserName}}</td></tr>
<tr><th>제품명</th><td>{{.ProductName}}</td></tr>
<tr><th>분석일</th><td>{{.Date}}</td></tr>
<tr><th>광고 초수</th><td>{{.Summary.AdDuration}}초</td></tr>
<tr><th>캠페인 기간</th><td>{{.Summary.DurationMonths}}개월</td></tr>
</table>

<h2>종합 전략 지표</h2>
<div class="summary">
<div class="summary-item"><h3>총 광고 예산</h3><p>{{comma .Summary.TotalBudget}}원</p></div>
<div class="summary-item"><h3>총 보장 노출수</h3><p>{{commaInt .Summary.TotalImpressions}}회</p></div>
<div class="summary-item"><h3>평균 CPV</h3><p>{{fixed1 .Summary.AverageCPV}}원</p></div>
</div>

<h2>채널별 상세 내역</h2>
<table>
<thead>
<tr><th>채널</th><th>예산(원)</th><th>기본 CPV</th><th>보너스율</th><th>할증율</th><th>최종 CPV</th><th>보장 노출수</th></tr>
</thead>
<tbody>
{{range .Details}}
<tr>
<td>{{.Channel}}</td>
<td>{{comma .Budget}}</td>
<td>{{fixed1 .BaseCPV}}</td>
<td>{{fixed1 .TotalBonusRatePct}}%</td>
<td>{{fixed1 .TotalSurchargeRatePct}}%</td>
<td>{{fixed1 .FinalCPV}}</td>
<td>{{commaInt .GuaranteedImpressions}}</td>
</tr>
{{end}}
</tbody>
</table>

{{if .Segments}}
<h2>AI 추천 타겟 세그먼트</h2>
<div>
{{range .Segments}}
<div class="segment">
<strong>{{.Name}}</strong>
{{if .ConfidenceScore}}<span class="score">적합도: {{.ConfidenceScore}}점</span>{{end}}
<p>추천 이유: {{.Reason}}</p>
</div>
{{end}}
</div>
{{end}}

<div class="footer"><p>본 제안서는 AI 전략 분석 시스템에 의해 생성되었습니다. 실제 집행 시 약간의 오차가 발생할 수 있습니다.</p></div>
</body>
</html>
`
