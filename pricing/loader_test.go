package pricing

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"property-valuation/models"
	"property-valuation/valuation"
)

func TestProfilesListsEmbedded(t *testing.T) {
	got := Profiles()
	want := []string{"gandhinagar", "gandhinagar-additive"}
	if len(got) != len(want) {
		t.Fatalf("Profiles: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Profiles[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEmbeddedProfilesBuildEngines(t *testing.T) {
	for _, name := range Profiles() {
		cfg, err := LoadProfile(name)
		if err != nil {
			t.Fatalf("LoadProfile(%q): %v", name, err)
		}
		if cfg.Name != name {
			t.Errorf("profile %q declares name %q", name, cfg.Name)
		}
		if _, err := valuation.NewEngine(cfg); err != nil {
			t.Errorf("NewEngine(%q): %v", name, err)
		}
	}
}

func TestDefaultProfileMatchesMultiplicativeScenario(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, err := valuation.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	res, err := e.Valuate(models.ValuationRequest{
		Area: "Vavol", PropertyType: "2 BHK Flat", Size: 1000,
		Furnishing: "Furnished", View: "Garden View", Amenities: []string{"Security"},
	})
	if err != nil {
		t.Fatalf("Valuate: %v", err)
	}
	if !res.Total.Equal(decimal.NewFromInt(3564000)) {
		t.Errorf("Total: got %s, want 3564000", res.Total)
	}
}

func TestDefaultProfileCarriesLogo(t *testing.T) {
	cfg, err := LoadProfile("gandhinagar")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if got := cfg.Display().LogoPath; got != "cleardeal_logo_converted.png" {
		t.Errorf("LogoPath: got %q", got)
	}
}

func TestAdditiveProfileMatchesAdditiveScenario(t *testing.T) {
	cfg, err := LoadProfile("gandhinagar-additive")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	e, err := valuation.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	res, err := e.Valuate(models.ValuationRequest{
		Area: "Vavol", Size: 1000, Furnishing: "Furnished", View: "Garden",
		Amenities: []string{"Security"}, Age: "0-5 years",
	})
	if err != nil {
		t.Fatalf("Valuate: %v", err)
	}
	for name, pair := range map[string][2]decimal.Decimal{
		"Total": {res.Total, decimal.NewFromInt(3650000)},
		"Low":   {res.Low, decimal.NewFromInt(3467500)},
		"High":  {res.High, decimal.NewFromInt(3832500)},
	} {
		if !pair[0].Equal(pair[1]) {
			t.Errorf("%s: got %s, want %s", name, pair[0], pair[1])
		}
	}
}

func TestParseKeepsDecimalPrecision(t *testing.T) {
	cfg, err := LoadProfile("gandhinagar")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	for _, o := range cfg.Adjustments.Amenities {
		if o.Name == "Covered Parking" && o.Effect.String() != "0.015" {
			t.Errorf("Covered Parking effect: got %s, want 0.015", o.Effect)
		}
	}
}

func TestParseTypedRates(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"name": "typed",
		"currency": {"code": "INR", "symbol": "₹"},
		"unit": "sq.ft.",
		"areas": [{"name": "Gift City", "rates": {"Villa": 9000, "Commercial Shop": 12000}}],
		"adjustments": {"mode": "additive"}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := cfg.Areas[0].Rates["Villa"]; !got.Equal(decimal.NewFromInt(9000)) {
		t.Errorf("Villa rate: got %s, want 9000", got)
	}

	e, err := valuation.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	_, err = e.Valuate(models.ValuationRequest{Area: "Gift City", Size: 100})
	var typeErr *valuation.UnknownPropertyTypeError
	if !errors.As(err, &typeErr) {
		t.Errorf("expected UnknownPropertyTypeError, got %v", err)
	}
}

func TestParseRejectsInvalidProfiles(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing areas", `{"name":"x","currency":{"code":"INR","symbol":"₹"},"unit":"sq.ft.","adjustments":{"mode":"additive"}}`},
		{"empty areas", `{"name":"x","currency":{"code":"INR","symbol":"₹"},"unit":"sq.ft.","areas":[],"adjustments":{"mode":"additive"}}`},
		{"negative rate", `{"name":"x","currency":{"code":"INR","symbol":"₹"},"unit":"sq.ft.","areas":[{"name":"A","rate":-1}],"adjustments":{"mode":"additive"}}`},
		{"rate and rates", `{"name":"x","currency":{"code":"INR","symbol":"₹"},"unit":"sq.ft.","areas":[{"name":"A","rate":1,"rates":{"Villa":2}}],"adjustments":{"mode":"additive"}}`},
		{"unknown mode", `{"name":"x","currency":{"code":"INR","symbol":"₹"},"unit":"sq.ft.","areas":[{"name":"A","rate":1}],"adjustments":{"mode":"compound"}}`},
		{"low factor above one", `{"name":"x","currency":{"code":"INR","symbol":"₹"},"unit":"sq.ft.","range":{"low":1.2,"high":1.3},"areas":[{"name":"A","rate":1}],"adjustments":{"mode":"additive"}}`},
		{"unknown field", `{"name":"x","currency":{"code":"INR","symbol":"₹"},"unit":"sq.ft.","areas":[{"name":"A","rate":1}],"adjustments":{"mode":"additive"},"fallback_rate":3500}`},
	}

	for _, tt := range tests {
		if _, err := Parse([]byte(tt.doc)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestLoadFilePrefersPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "custom.json")
	doc := `{"name":"custom","currency":{"code":"USD","symbol":"$"},"unit":"sq.ft.","areas":[{"name":"Downtown","rate":450}],"adjustments":{"mode":"additive"}}`
	if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(p, "gandhinagar")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "custom" {
		t.Errorf("Name: got %q, want custom", cfg.Name)
	}
}

func TestLoadUnknownProfile(t *testing.T) {
	_, err := LoadProfile("atlantis")
	if err == nil || !strings.Contains(err.Error(), "gandhinagar") {
		t.Errorf("expected error listing available profiles, got %v", err)
	}
}
