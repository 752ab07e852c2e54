package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"kofa_admin/internal/kofa"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var ErrNoProducts = errors.New("no valid products found, columns must include name, price and stock")

type column int

const (
	colIgnored column = iota
	colName
	colPrice
	colStock
	colDescription
	colCategory
)

var (
	nonPrice = regexp.MustCompile(`[^0-9.]`)
	nonDigit = regexp.MustCompile(`[^0-9]`)
)

// classify maps a header cell to a product field by keyword.
func classify(header string) column {
	h := strings.ToLower(strings.TrimSpace(header))
	switch {
	case strings.Contains(h, "name") || strings.Contains(h, "product"):
		return colName
	case strings.Contains(h, "price"):
		return colPrice
	case strings.Contains(h, "stock") || strings.Contains(h, "quantity") || strings.Contains(h, "qty"):
		return colStock
	case strings.Contains(h, "desc"):
		return colDescription
	case strings.Contains(h, "cat"):
		return colCategory
	default:
		return colIgnored
	}
}

// ReadProducts parses the first sheet of an XLSX catalogue. Rows without a
// name or a positive price are skipped.
func ReadProducts(r io.Reader) ([]kofa.ProductInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoProducts
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}

	products := ParseRows(rows)
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	return products, nil
}

// ReadProductsCSV parses comma or tab separated text with a header row, as
// exported from a spreadsheet or pasted from one.
func ReadProductsCSV(r io.Reader) ([]kofa.ProductInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}

	products := ParseRows(rows)
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	return products, nil
}

// delimiter picks tab when the header line has tabs and no commas.
func delimiter(data []byte) rune {
	header, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.ContainsRune(header, '\t') && !bytes.ContainsRune(header, ',') {
		return '\t'
	}
	return ','
}

// ParseRows converts a header row plus data rows into product inputs.
func ParseRows(rows [][]string) []kofa.ProductInput {
	if len(rows) < 2 {
		return nil
	}
	columns := make([]column, len(rows[0]))
	for i, header := range rows[0] {
		columns[i] = classify(header)
	}

	products := make([]kofa.ProductInput, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var p kofa.ProductInput
		for i, col := range columns {
			if i >= len(row) {
				break
			}
			value := strings.TrimSpace(row[i])
			switch col {
			case colName:
				p.Name = value
			case colPrice:
				p.Price, _ = decimal.NewFromString(nonPrice.ReplaceAllString(value, ""))
			case colStock:
				p.StockLevel, _ = strconv.Atoi(nonDigit.ReplaceAllString(value, ""))
			case colDescription:
				p.Description = value
			case colCategory:
				p.Category = value
			}
		}
		if p.Name == "" || !p.Price.IsPositive() {
			continue
		}
		products = append(products, p)
	}
	return products
}
