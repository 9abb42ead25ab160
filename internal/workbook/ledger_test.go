package workbook_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"labelscan/internal/batch"
	"labelscan/internal/label"
	"labelscan/internal/workbook"
)

func rows(files ...string) []batch.Row {
	out := make([]batch.Row, 0, len(files))
	for _, f := range files {
		out = append(out, batch.Row{
			Timestamp: "2024-03-09 14:05:07",
			File:      f,
			Fields: label.Fields{
				Model: "FORUM LOW", ArticleCode: "HQ4327", Color: "CLOWHI/FTWWHT/GUM5",
				SizeFR: "40 2/3", Score: 75, Status: label.StatusOK,
			},
		})
	}
	return out
}

func TestAppendRows_CreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "ledger.xlsx")
	ledger := workbook.NewLedger(path, "")
	ctx := context.Background()

	require.NoError(t, ledger.AppendRows(ctx, rows("a.jpg", "b.jpg")))
	require.NoError(t, ledger.AppendRows(ctx, rows("c.jpg")))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(workbook.DefaultSheet)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, batch.Header, got[0])
	assert.Equal(t, []string{
		"2024-03-09 14:05:07", "a.jpg", "FORUM LOW", "HQ4327", "CLOWHI/FTWWHT/GUM5", "40 2/3", "", "75", "OK",
	}, got[1])
	assert.Equal(t, "c.jpg", got[3][1])
}

func TestAppendRows_EmptyDoesNotCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")

	require.NoError(t, workbook.NewLedger(path, "").AppendRows(context.Background(), nil))
	assert.NoFileExists(t, path)
}

func TestLastRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	ledger := workbook.NewLedger(path, "Scans")
	require.NoError(t, ledger.AppendRows(context.Background(), rows("a.jpg", "b.jpg", "c.jpg")))

	header, data, err := ledger.LastRows(2)

	require.NoError(t, err)
	assert.Equal(t, batch.Header, header)
	require.Len(t, data, 2)
	assert.Equal(t, "b.jpg", data[0][1])
	assert.Equal(t, "c.jpg", data[1][1])
}
