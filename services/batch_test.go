package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"property-valuation/utils"
)

const batchCSV = `name,phone,area,property_type,size,furnishing,view,amenities,age
Asha Patel,9876543210,Vavol,Flat,1000,Furnished,Garden,Security,0-5 years
Asha Patel,9876500000,Kudasan,Villa,"1,500",,,Gym;Lift,
Nobody,,Atlantis,Flat,900,,,,
Ravi Kumar,,Koba,Flat,abc,,,,
`

func TestReadSubmissions(t *testing.T) {
	rows, err := ReadSubmissions(strings.NewReader(batchCSV))
	if err != nil {
		t.Fatalf("ReadSubmissions: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows: got %d, want 4", len(rows))
	}
	if rows[1].Size != "1,500" {
		t.Errorf("Size: got %q", rows[1].Size)
	}
	if len(rows[1].Amenities) != 2 || rows[1].Amenities[1] != "Lift" {
		t.Errorf("Amenities: got %v", rows[1].Amenities)
	}
	if rows[2].Amenities != nil {
		t.Errorf("empty amenities cell should give nil, got %v", rows[2].Amenities)
	}
}

func TestReadSubmissionsColumnOrderAndRequired(t *testing.T) {
	rows, err := ReadSubmissions(strings.NewReader("Size,Area\n1200,Vavol\n"))
	if err != nil {
		t.Fatalf("ReadSubmissions: %v", err)
	}
	if rows[0].Area != "Vavol" || rows[0].Size != "1200" {
		t.Errorf("unexpected row: %+v", rows[0])
	}

	if _, err := ReadSubmissions(strings.NewReader("name,area\nA,Vavol\n")); err == nil {
		t.Error("expected error for missing size column")
	}
	if _, err := ReadSubmissions(strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestBatchRunnerValuatesAndReports(t *testing.T) {
	leads := &recordingWriter{}
	svc := newTestService(t, leads)
	dir := t.TempDir()

	runner := NewBatchRunner(svc, BatchConfig{Concurrency: 3, ReportFormat: "html", OutputDir: dir}, newTestLogger())
	results, err := runner.Run(context.Background(), strings.NewReader(batchCSV))
	if err == nil {
		t.Fatal("expected joined error for the two bad rows")
	}
	if !strings.Contains(err.Error(), "row 3") || !strings.Contains(err.Error(), "row 4") {
		t.Errorf("error should name failed rows: %v", err)
	}

	if len(results) != 4 {
		t.Fatalf("results: got %d, want 4", len(results))
	}
	if results[0].Err != nil || results[1].Err != nil {
		t.Fatalf("rows 1-2 should succeed: %v / %v", results[0].Err, results[1].Err)
	}
	if results[0].Lead.Result.Total.String() != "3650000" {
		t.Errorf("row 1 total: got %s", results[0].Lead.Result.Total)
	}
	// Kudasan 3800 + Gym 75 + Lift 50 = 3925 × 1500
	if results[1].Lead.Result.Total.String() != "5887500" {
		t.Errorf("row 2 total: got %s", results[1].Lead.Result.Total)
	}
	if leads.count() != 2 {
		t.Errorf("recorded leads: got %d, want 2", leads.count())
	}

	// Same contact name twice: both reports must survive
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	if !names["valuation_Asha_Patel.html"] || !names["valuation_Asha_Patel_2.html"] {
		t.Errorf("report files: got %v", names)
	}
	if results[0].ReportPath == results[1].ReportPath {
		t.Error("report paths should differ")
	}
	if filepath.Dir(results[0].ReportPath) != dir {
		t.Errorf("ReportPath outside output dir: %s", results[0].ReportPath)
	}
}

func TestBatchRunnerWithoutReports(t *testing.T) {
	svc := newTestService(t, &recordingWriter{})
	runner := NewBatchRunner(svc, BatchConfig{Concurrency: 2}, newTestLogger())

	results, err := runner.Run(context.Background(), strings.NewReader("area,size\nVavol,100\nKoba,200\n"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, r := range results {
		if r.ReportPath != "" {
			t.Errorf("row %d: unexpected report %s", r.Row, r.ReportPath)
		}
	}
}

func TestBatchRunnerCancelled(t *testing.T) {
	svc := newTestService(t, &recordingWriter{})
	runner := NewBatchRunner(svc, BatchConfig{Concurrency: 1}, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := runner.Run(ctx, strings.NewReader("area,size\nVavol,100\n"))
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if results[0].Lead != nil {
		t.Error("cancelled row should not be valuated")
	}
}

func TestUniqueName(t *testing.T) {
	names := utils.NewKeySet()
	got := []string{
		uniqueName(names, "valuation_A.pdf"),
		uniqueName(names, "valuation_A.pdf"),
		uniqueName(names, "valuation_A.pdf"),
	}
	want := []string{"valuation_A.pdf", "valuation_A_2.pdf", "valuation_A_3.pdf"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("uniqueName #%d: got %q, want %q", i, got[i], want[i])
		}
	}
}
