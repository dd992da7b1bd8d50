package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	s, err := c.Lookup("car_easy")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if s.Key != "car_easy" || s.Duration != 90 || !s.Price.Equal(decimal.NewFromInt(74)) {
		t.Fatalf("unexpected service %+v", s)
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, err := Default().Lookup("reinigung1"); !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestValidate_RejectsNonPositiveDuration(t *testing.T) {
	c := New(map[string]Service{
		"ok":   {Name: "ok", Duration: 30},
		"zero": {Name: "zero", Duration: 0},
		"neg":  {Name: "neg", Duration: -15},
	})
	err := c.Validate()
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestKeys_Sorted(t *testing.T) {
	keys := Default().Keys()
	want := []string{"car_easy", "car_intense", "car_soft", "car_spa", "car_wellness"}
	if len(keys) != len(want) {
		t.Fatalf("got %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got %v, want %v", keys, want)
		}
	}
}

func TestCatalog_DecodesNumericAndQuotedPrices(t *testing.T) {
	raw := `{"cut":{"name":"Cut","duration":60,"price":24.5,"description":"d"},"wash":{"name":"Wash","duration":30,"price":"12","description":""}}`

	var services map[string]Service
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	c := New(services)

	cut, _ := c.Lookup("cut")
	if cut.Key != "cut" || !cut.Price.Equal(decimal.RequireFromString("24.5")) {
		t.Fatalf("unexpected cut %+v", cut)
	}
	wash, _ := c.Lookup("wash")
	if !wash.Price.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("unexpected wash price %s", wash.Price)
	}
}
