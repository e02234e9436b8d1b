package feast

import (
	"context"
	"testing"

	feastsdk "github.com/feast-dev/feast/sdk/go"

	"github.com/rushteam/shoprec/core"
)

func testCatalog() *Catalog {
	return &Catalog{
		entityKey: "product_id",
		view:      "product_attributes",
	}
}

func TestFeatureNames(t *testing.T) {
	got := testCatalog().features()
	want := []string{
		"product_attributes:name",
		"product_attributes:category",
		"product_attributes:price",
	}
	if len(got) != len(want) {
		t.Fatalf("features = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("features[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestProductOf(t *testing.T) {
	c := testCatalog()

	row := feastsdk.Row{
		"product_attributes:name":     feastsdk.StrVal("Laptop"),
		"product_attributes:category": feastsdk.StrVal("electronics"),
		"product_attributes:price":    feastsdk.DoubleVal(999.5),
	}
	p, ok := c.productOf("A", row)
	if !ok {
		t.Fatalf("productOf: entity reported missing")
	}
	want := core.Product{ID: "A", Name: "Laptop", Category: "electronics", Price: 999.5}
	if p != want {
		t.Fatalf("productOf = %+v, want %+v", p, want)
	}
}

func TestProductOfMissingEntity(t *testing.T) {
	c := testCatalog()
	// 特征库中不存在的实体：所有值缺失
	if _, ok := c.productOf("ghost", feastsdk.Row{}); ok {
		t.Fatalf("productOf: missing entity treated as present")
	}
}

func TestNumberFieldTypes(t *testing.T) {
	cases := []struct {
		name string
		row  feastsdk.Row
		want float64
	}{
		{"double", feastsdk.Row{"p": feastsdk.DoubleVal(12.5)}, 12.5},
		{"float", feastsdk.Row{"p": feastsdk.FloatVal(3.5)}, 3.5},
		{"int64", feastsdk.Row{"p": feastsdk.Int64Val(42)}, 42},
		{"missing", feastsdk.Row{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := numberField(tc.row, "p"); got != tc.want {
				t.Fatalf("numberField = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewRequiresIDSource(t *testing.T) {
	_, err := New("localhost", 0, "shop", nil)
	if !core.IsInvalidInput(err) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}

func TestIDSourceError(t *testing.T) {
	c := testCatalog()
	c.idSource = func(context.Context) ([]string, error) {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "ids offline")
	}
	if _, err := c.ListProducts(context.Background()); err == nil {
		t.Fatalf("ListProducts: expected id source error")
	}
}
