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

	"github.com/shopspring/decimal"
)

type ProductWriter interface {
	UpsertBySKU(ctx context.Context, p domain.Product, stock int) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// CSVImporter loads catalog rows keyed by SKU. Re-running a file overwrites
// titles, prices and stock instead of duplicating products.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	// category ids by name, so each category is upserted once per run
	seen map[string]int64
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		seen:       map[string]int64{},
	}
}

type csvRow struct {
	line     int
	SKU      string
	Title    string
	Desc     string
	Cents    int64
	Category string
	Stock    int
}

// Run reads the header, then upserts one product per row. It stops at the
// first invalid row and reports how many products were written before it.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["sku"]; !ok {
		return 0, errors.New("missing sku column")
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row, err := parseRow(record, index, line)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	p := domain.Product{
		SKU:         row.SKU,
		Title:       row.Title,
		Description: row.Desc,
		PriceCents:  row.Cents,
		IsActive:    true,
	}
	if row.Category != "" {
		id, err := i.category(ctx, row.Category)
		if err != nil {
			return fmt.Errorf("line %d: upsert category %q: %w", row.line, row.Category, err)
		}
		p.CategoryID = &id
	}
	if _, err := i.products.UpsertBySKU(ctx, p, row.Stock); err != nil {
		return fmt.Errorf("line %d: upsert product %q: %w", row.line, row.SKU, err)
	}
	return nil
}

func (i *CSVImporter) category(ctx context.Context, name string) (int64, error) {
	if id, ok := i.seen[name]; ok {
		return id, nil
	}
	c, err := i.categories.Upsert(ctx, domain.Category{Name: name})
	if err != nil {
		return 0, err
	}
	i.seen[name] = c.ID
	return c.ID, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// parseRow returns nil for blank rows. Prices come either as integer
// price_cents or as a decimal price such as "19.99".
func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	sku := pick(record, index, "sku")
	title := pick(record, index, "title")
	if sku == "" && title == "" {
		return nil, nil
	}
	if sku == "" || title == "" {
		return nil, fmt.Errorf("line %d: sku and title are required", line)
	}

	row := &csvRow{
		line:     line,
		SKU:      sku,
		Title:    title,
		Desc:     pick(record, index, "description"),
		Category: pick(record, index, "category"),
	}

	if raw := pick(record, index, "price_cents"); raw != "" {
		cents, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: price_cents %q: %w", line, raw, err)
		}
		row.Cents = cents
	} else if raw := pick(record, index, "price"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: price %q: %w", line, raw, err)
		}
		row.Cents = d.Shift(2).Round(0).IntPart()
	}
	if row.Cents < 0 {
		return nil, fmt.Errorf("line %d: negative price", line)
	}

	if raw := pick(record, index, "stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("line %d: stock %q must be a non-negative integer", line, raw)
		}
		row.Stock = stock
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
