package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"property-valuation/models"
)

var inr = models.Currency{Code: "INR", Symbol: "₹", Locale: "en-IN"}

func sampleDocument() *Document {
	lead := &models.Lead{
		ID:        uuid.MustParse("7b0c1a52-3f51-4a7e-9a43-0d9a3e5f2c11"),
		CreatedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Name:      "Asha Patel",
		Phone:     "9876543210",
		Request: models.ValuationRequest{
			Area:         "Vavol",
			PropertyType: "2BHK",
			Size:         1000,
			Furnishing:   "Furnished",
			View:         "Garden View",
			Amenities:    []string{"Gym", "Security"},
			Age:          "0-5 years",
		},
		Result: models.ValuationResult{
			Mode:        models.ModeMultiplicative,
			BaseRate:    decimal.NewFromInt(3300),
			RatePerUnit: decimal.NewFromInt(3564),
			Total:       decimal.NewFromInt(3564000),
			Low:         decimal.NewFromInt(3385800),
			High:        decimal.NewFromInt(3742200),
			Adjustments: []models.AppliedAdjustment{
				{Category: models.CategoryFurnishing, Name: "Furnished", Effect: decimal.RequireFromString("0.05")},
			},
		},
	}
	return NewDocument(lead, models.Display{Title: "Property Valuation", Brand: "Acme Realty", Currency: inr, Unit: "sq ft"})
}

func TestFormatAmount(t *testing.T) {
	usd := models.Currency{Symbol: "$", Locale: "en-US"}
	tests := []struct {
		amount string
		cur    models.Currency
		want   string
	}{
		{"3564000", usd, "$3,564,000"},
		{"3385800.90", usd, "$3,385,800"},
		{"999", usd, "$999"},
		{"0", usd, "$0"},
		{"1500", models.Currency{Symbol: "€", Locale: "not a locale!"}, "€1,500"},
		{"-3000.7", usd, "$-3,000"},
		{"-0.4", usd, "$0"},
		{"70000000000000000000", usd, "$70,000,000,000,000,000,000"},
		{"9223372036854775808", usd, "$9,223,372,036,854,775,808"},
		{"1e25", usd, "$10,000,000,000,000,000,000,000,000"},
		{"3650000", inr, "₹36,50,000"},
		{"70000000000000000000", inr, "₹7,00,00,00,00,00,00,00,00,000"},
	}
	for _, tt := range tests {
		got := FormatAmount(decimal.RequireFromString(tt.amount), tt.cur)
		if got != tt.want {
			t.Errorf("FormatAmount(%s) = %q; want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatAmountMatchesPrinterForMachineSizedValues(t *testing.T) {
	for _, cur := range []models.Currency{inr, {Symbol: "$", Locale: "en-US"}} {
		p := printerFor(cur.Locale)
		for _, n := range []int64{0, 7, 999, 1000, 123456, 3564000, 987654321012} {
			want := cur.Symbol + p.Sprintf("%d", n)
			if got := FormatAmount(decimal.NewFromInt(n), cur); got != want {
				t.Errorf("FormatAmount(%d, %s) = %q; want %q", n, cur.Locale, got, want)
			}
		}
	}
}

func TestFormatSize(t *testing.T) {
	if got := FormatSize(1000, models.Display{Unit: "sq ft"}); got != "1000 sq ft" {
		t.Errorf("got %q", got)
	}
	if got := FormatSize(1250.5, models.Display{}); got != "1250.5" {
		t.Errorf("got %q", got)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name, ext, want string
	}{
		{"Asha Patel", "pdf", "valuation_Asha_Patel.pdf"},
		{"  Ravi   Kumar ", "doc", "valuation_Ravi_Kumar.doc"},
		{"../../etc/passwd", "pdf", "valuation_....etcpasswd.pdf"},
		{"", "html", "valuation_report.html"},
	}
	for _, tt := range tests {
		if got := FileName(tt.name, tt.ext); got != tt.want {
			t.Errorf("FileName(%q) = %q; want %q", tt.name, got, tt.want)
		}
	}
}

func TestDocumentLines(t *testing.T) {
	doc := sampleDocument()
	doc.Request.Amenities = nil
	doc.Request.Age = ""

	got := map[string]string{}
	for _, l := range doc.Lines() {
		got[l.Label] = l.Value
	}
	if got["Amenities"] != "None" {
		t.Errorf("Amenities: got %q, want None", got["Amenities"])
	}
	if got["Age of Property"] != "-" {
		t.Errorf("Age: got %q, want -", got["Age of Property"])
	}
	if got["Size"] != "1000 sq ft" {
		t.Errorf("Size: got %q", got["Size"])
	}
}

func TestHTMLRendererIncludesEstimate(t *testing.T) {
	r := NewHTMLRenderer()
	out, err := r.Render(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)
	for _, want := range []string{"Asha Patel", "Vavol", "Gym, Security", "Acme Realty", "Estimated Price"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if strings.Contains(html, "urn:schemas-microsoft-com") {
		t.Error("plain HTML should not carry Office namespaces")
	}
	if r.Extension() != "html" {
		t.Errorf("Extension: got %q", r.Extension())
	}
}

func TestHTMLRendererEscapesInput(t *testing.T) {
	doc := sampleDocument()
	doc.Name = "<script>alert(1)</script>"
	out, err := NewHTMLRenderer().Render(context.Background(), doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(out), "<script>alert(1)</script>") {
		t.Error("name was not escaped")
	}
}

func TestWordRenderer(t *testing.T) {
	r := NewWordRenderer()
	out, err := r.Render(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), "urn:schemas-microsoft-com:office:word") {
		t.Error("Word output missing Office namespace")
	}
	if r.ContentType() != "application/msword" || r.Extension() != "doc" {
		t.Errorf("unexpected content type/extension: %s %s", r.ContentType(), r.Extension())
	}
}

func TestLogoInlined(t *testing.T) {
	dir := t.TempDir()
	logo := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(logo, []byte("\x89PNG fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := sampleDocument()
	doc.Display.LogoPath = logo

	out, err := NewHTMLRenderer().Render(context.Background(), doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), "data:image/png;base64,") {
		t.Error("logo not inlined as data URL")
	}

	doc.Display.LogoPath = filepath.Join(dir, "missing.png")
	out, err = NewHTMLRenderer().Render(context.Background(), doc)
	if err != nil {
		t.Fatalf("missing logo should not fail: %v", err)
	}
	if strings.Contains(string(out), "<img") {
		t.Error("missing logo should be omitted")
	}
}

func TestPDFRendererDefaults(t *testing.T) {
	r := NewPDFRenderer(PDFConfig{ChromeBin: "/nonexistent/chrome"})
	if r.ContentType() != "application/pdf" || r.Extension() != "pdf" {
		t.Errorf("unexpected content type/extension: %s %s", r.ContentType(), r.Extension())
	}
	if r.cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout: got %v", r.cfg.Timeout)
	}
	if r.cfg.Retry == nil || r.cfg.Logger == nil {
		t.Error("retry and logger should default")
	}
}

func TestPDFRendererFailsWithoutBrowser(t *testing.T) {
	r := NewPDFRenderer(PDFConfig{ChromeBin: "/nonexistent/chrome", Timeout: 5 * time.Second})
	if _, err := r.Render(context.Background(), sampleDocument()); err == nil {
		t.Fatal("expected error when the browser binary is missing")
	}
}
