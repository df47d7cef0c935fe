package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// placeholderPattern matches {{key}} tokens, allowing spaces inside the braces
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// XLSXRenderer fills {{key}} placeholders in every cell of a workbook template
type XLSXRenderer struct {
	logger *zap.Logger
}

// NewXLSXRenderer creates a new workbook renderer
func NewXLSXRenderer(logger *zap.Logger) port.Renderer {
	return &XLSXRenderer{logger: logger}
}

// Extension returns the rendered file extension
func (r *XLSXRenderer) Extension() string {
	return ".xlsx"
}

// Render substitutes values into the template workbook and returns the filled workbook.
// Unknown placeholders are left untouched so template authors can spot them.
func (r *XLSXRenderer) Render(ctx context.Context, template []byte, values map[string]string) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(template))
	if err != nil {
		r.logger.Warn("Failed to open template workbook", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", port.ErrUnreadableTemplate, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("template has no sheets")
	}

	replaced := 0
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}

		for rowIdx, row := range rows {
			for colIdx, value := range row {
				if !strings.Contains(value, "{{") {
					continue
				}
				filled, n := fillPlaceholders(value, values)
				if n == 0 {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
				if err != nil {
					return nil, fmt.Errorf("failed to resolve cell: %w", err)
				}
				if err := f.SetCellValue(sheet, cell, filled); err != nil {
					return nil, fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
				}
				replaced += n
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	r.logger.Debug("Template rendered",
		zap.Int("sheets", len(sheets)),
		zap.Int("placeholders_replaced", replaced))

	return buf.Bytes(), nil
}

// fillPlaceholders replaces known tokens in s and reports how many were replaced
func fillPlaceholders(s string, values map[string]string) (string, int) {
	n := 0
	out := placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		key := placeholderPattern.FindStringSubmatch(token)[1]
		if v, ok := values[key]; ok {
			n++
			return v
		}
		return token
	})
	return out, n
}

// Verify interface compliance
var _ port.Renderer = (*XLSXRenderer)(nil)
