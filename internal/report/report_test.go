package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/adwave/tv-planner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProposal(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	data := Data{
		AdvertiserName: "헬스원",
		ProductName:    "비타민C",
		Date:           "2026-03-01",
		Summary: models.EstimateSummary{
			TotalBudget:      1_500_000,
			TotalImpressions: 176_923,
			AverageCPV:       8.478,
			AdDuration:       15,
			DurationMonths:   3,
		},
		Details: []models.ChannelEstimate{
			{Channel: "MBC", Budget: 1_000_000, BaseCPV: 10.0, TotalBonusRatePct: 20.0, GuaranteedImpressions: 120_000, FinalCPV: 8.33},
			{Channel: "KBS", Budget: 500_000, BaseCPV: 12.0, TotalSurchargeRatePct: 30.0, GuaranteedImpressions: 56_923, FinalCPV: 8.78},
		},
		Segments: []models.RecommendedSegment{
			{Name: "건강식품 관심층", Reason: "면역 관리 수요", ConfidenceScore: 92},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, data))
	html := buf.String()

	assert.Contains(t, html, "헬스원")
	assert.Contains(t, html, "2026-03-01")
	assert.Contains(t, html, "1,500,000원")
	assert.Contains(t, html, "176,923회")
	assert.Contains(t, html, "8.5원")
	assert.Contains(t, html, "120,000")
	assert.Contains(t, html, "적합도: 92점")
	assert.Contains(t, html, "15초")
	assert.Contains(t, html, "3개월")
}

func TestRenderDefaultsDate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, Data{ProductName: "비타민C"}))
	assert.Contains(t, buf.String(), "분석일")
}

func TestRenderWithoutSegmentsOmitsSection(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, Data{ProductName: "비타민C"}))
	assert.False(t, strings.Contains(buf.String(), "추천 타겟 세그먼트"))
}

func TestCommaFormatting(t *testing.T) {
	assert.Equal(t, "0", comma(0))
	assert.Equal(t, "999", comma(999))
	assert.Equal(t, "1,000", comma(1000))
	assert.Equal(t, "1,000,000", comma(1_000_000))
	assert.Equal(t, "1,235", comma(1234.6))
	assert.Equal(t, "-12,345", comma(-12345))
}
