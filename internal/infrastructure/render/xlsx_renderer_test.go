package render

import (
	"bytes"
	"context"
	"testing"

	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/garyjia/doc-approval/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func buildTemplate(t *testing.T, cells map[string]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for cell, value := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", cell, value))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestXLSXRenderer_FillsPlaceholders(t *testing.T) {
	tpl := buildTemplate(t, map[string]string{
		"A1": "Nomor: {{nomor_surat}}",
		"B2": "{{ judul }}",
		"C3": "Dibuat oleh {{pembuat}} pada {{tanggal}}",
		"D4": "plain text",
		"E5": "{{unknown}}",
	})

	r := NewXLSXRenderer(zap.NewNop())
	out, err := r.Render(context.Background(), tpl, map[string]string{
		"nomor_surat": "DOC/2025/001",
		"judul":       "Undangan Rapat",
		"pembuat":     "Staff Member (STAFF)",
		"tanggal":     "14 Maret 2025",
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	tests := map[string]string{
		"A1": "Nomor: DOC/2025/001",
		"B2": "Undangan Rapat",
		"C3": "Dibuat oleh Staff Member (STAFF) pada 14 Maret 2025",
		"D4": "plain text",
		"E5": "{{unknown}}",
	}
	for cell, want := range tests {
		got, err := f.GetCellValue("Sheet1", cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}
}

func TestXLSXRenderer_RejectsNonWorkbook(t *testing.T) {
	r := NewXLSXRenderer(zap.NewNop())

	_, err := r.Render(context.Background(), []byte("not a zip"), nil)
	assert.ErrorIs(t, err, port.ErrUnreadableTemplate)
	assert.ErrorIs(t, err, workflow.ErrInvalidInput)
	assert.Equal(t, ".xlsx", r.Extension())
}

func TestFillPlaceholders(t *testing.T) {
	out, n := fillPlaceholders("{{a}}-{{b}}-{{a}}", map[string]string{"a": "1"})
	assert.Equal(t, "1-{{b}}-1", out)
	assert.Equal(t, 2, n)
}
