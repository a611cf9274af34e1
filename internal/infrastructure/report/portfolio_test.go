package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/infrastructure/report"
)

var asOf = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

func newCase(t *testing.T, number string, dpd int, overdue, outstanding string) model.CollectionCase {
	t.Helper()
	c, err := model.NewCollectionCase("tenant-1", number, "loan-"+number, "member-1", dpd,
		decimal.RequireFromString(overdue), decimal.RequireFromString(outstanding), asOf)
	require.NoError(t, err)
	return c
}

func openWorkbook(t *testing.T, body []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestPortfolioRenderer_RenderPortfolio(t *testing.T) {
	cases := []model.CollectionCase{
		newCase(t, "COL-2026-00001", 120, "900", "3000"),
		newCase(t, "COL-2026-00002", 45, "300", "1000"),
		newCase(t, "COL-2026-00003", 10, "100", "1000"),
	}

	body, err := report.NewPortfolioRenderer().RenderPortfolio(cases, asOf)
	require.NoError(t, err)
	f := openWorkbook(t, body)

	assert.Equal(t, []string{"Cases", "Summary"}, f.GetSheetList())

	t.Run("one row per case", func(t *testing.T) {
		rows, err := f.GetRows("Cases")
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, "Case Number", rows[0][0])
		assert.Equal(t, "Days Past Due", rows[0][6])
		assert.Equal(t, "COL-2026-00001", rows[1][0])
		assert.Equal(t, "DOUBTFUL", rows[1][5])
		assert.Equal(t, "120", rows[1][6])
		assert.Equal(t, "900", rows[1][7])
		assert.Equal(t, "2026-06-30", rows[3][14])
	})

	t.Run("summary aggregates by classification", func(t *testing.T) {
		rows, err := f.GetRows("Summary")
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(rows), 9)

		assert.Equal(t, []string{"As of", "2026-06-30"}, rows[0])
		byClass := map[string][]string{}
		for _, r := range rows[3:] {
			byClass[r[0]] = r
		}
		assert.Equal(t, "0", byClass["CURRENT"][1])
		assert.Equal(t, "1", byClass["WATCH"][1])
		assert.Equal(t, "1", byClass["SUBSTANDARD"][1])
		assert.Equal(t, "1", byClass["DOUBTFUL"][1])
		assert.Equal(t, "60", byClass["DOUBTFUL"][4])
		assert.Equal(t, "3", byClass["TOTAL"][1])
		assert.Equal(t, "1300", byClass["TOTAL"][2])
		assert.Equal(t, "5000", byClass["TOTAL"][3])
	})
}

func TestPortfolioRenderer_EmptyPortfolio(t *testing.T) {
	body, err := report.NewPortfolioRenderer().RenderPortfolio(nil, asOf)
	require.NoError(t, err)
	f := openWorkbook(t, body)

	rows, err := f.GetRows("Cases")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")

	total, err := f.GetCellValue("Summary", "B9")
	require.NoError(t, err)
	assert.Equal(t, "0", total)
}
