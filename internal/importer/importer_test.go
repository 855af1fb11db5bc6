package importer

import (
	"context"
	"strings"
	"testing"

	"shopfront/internal/domain"

	"github.com/shopspring/decimal"
)

type recordingWriter struct {
	products  []domain.Product
	createErr error
}

func (r *recordingWriter) Create(_ context.Context, product domain.Product) (*domain.Product, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.products = append(r.products, product)
	return &product, nil
}

func TestRunImportsRows(t *testing.T) {
	csvData := `name,description,price,category,stock,image_url
Walnut Desk,Solid walnut desk,449.00,furniture,4,
Oak Shelf,,89.50,furniture,10,http://cdn/shelf.png
`
	writer := &recordingWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), writer)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 2 {
		t.Fatalf("imported %d, want 2", count)
	}

	first := writer.products[0]
	if first.Name != "Walnut Desk" || first.Stock != 4 {
		t.Fatalf("unexpected product %+v", first)
	}
	if !first.Price.Equal(decimal.RequireFromString("449.00")) {
		t.Fatalf("price = %s", first.Price)
	}
	if writer.products[1].ImageURL != "http://cdn/shelf.png" {
		t.Fatalf("image url not picked up: %+v", writer.products[1])
	}
}

func TestRunHeaderOrderIrrelevant(t *testing.T) {
	csvData := `price,name,stock
12.00,Mug,3
`
	writer := &recordingWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), writer)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 1 || writer.products[0].Name != "Mug" {
		t.Fatalf("unexpected result count=%d products=%+v", count, writer.products)
	}
}

func TestRunSkipsNamelessRows(t *testing.T) {
	csvData := `name,price
,10.00
Mug,12.00
`
	writer := &recordingWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), writer)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 1 {
		t.Fatalf("imported %d, want 1", count)
	}
}

func TestRunRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		csv  string
	}{
		{"bad price", "name,price\nMug,free\n"},
		{"negative price", "name,price\nMug,-1.00\n"},
		{"bad stock", "name,price,stock\nMug,1.00,lots\n"},
		{"negative stock", "name,price,stock\nMug,1.00,-2\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			imp := NewCSVImporter(strings.NewReader(tc.csv), &recordingWriter{})
			if _, err := imp.Run(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
