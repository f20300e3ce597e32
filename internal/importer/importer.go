package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/domain"
	productsvc "storefront/internal/service/product"
)

type ProductWriter interface {
	Import(ctx context.Context, in productsvc.Input) (*domain.Product, error)
}

// CSVImporter reads catalog CSV files and upserts products by customId.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductWriter
}

func NewCSVImporter(r io.Reader, products ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, products: products}
}

// Spanish column names used by the storefront admin export.
var headerAliases = map[string]string{
	"nombre":      "name",
	"descripcion": "description",
	"precio":      "price",
	"imagen":      "image",
}

// Run parses CSV rows and upserts one product per row. Blank rows are skipped.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["customId"]; !ok {
		return 0, errors.New("missing customId column")
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		in, ok, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if !ok {
			continue
		}
		if _, err := i.products.Import(ctx, in); err != nil {
			return imported, fmt.Errorf("upsert product %q: %w", in.CustomID, err)
		}
		imported++
	}

	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if alias, ok := headerAliases[strings.ToLower(h)]; ok {
			h = alias
		}
		idx[h] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (productsvc.Input, bool, error) {
	in := productsvc.Input{
		CustomID:    pick(record, index, "customId"),
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		Image:       pick(record, index, "image"),
	}
	if in.CustomID == "" && in.Name == "" {
		return in, false, nil
	}
	if in.CustomID == "" || in.Name == "" {
		return in, false, fmt.Errorf("customId and name are required (customId %q)", in.CustomID)
	}

	if s := pick(record, index, "stock"); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil {
			return in, false, fmt.Errorf("invalid stock %q for %q", s, in.CustomID)
		}
		in.Stock = stock
	}
	if s := pick(record, index, "price"); s != "" {
		price, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return in, false, fmt.Errorf("invalid price %q for %q", s, in.CustomID)
		}
		in.Price = price
	}
	return in, true, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
