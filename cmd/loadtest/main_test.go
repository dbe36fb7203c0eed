package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/gramseva/internal/auth"
	"github.com/vladislavdragonenkov/gramseva/internal/booking"
	"github.com/vladislavdragonenkov/gramseva/internal/catalog"
	"github.com/vladislavdragonenkov/gramseva/internal/httpapi"
	"github.com/vladislavdragonenkov/gramseva/internal/storage/memory"
)

func withCLIArgs(t *testing.T, args []string, fn func()) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine

	os.Args = append([]string{"loadtest"}, args...)
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	defer func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	}()

	fn()
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		input   string
		want    loadMode
		wantErr bool
	}{
		{"browse", modeBrowse, false},
		{" cart ", modeCart, false},
		{"checkout", modeCheckout, false},
		{"create-pay", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := parseMode(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseMode(%q): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseMode(%q): unexpected error %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseMode(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseConfig(t *testing.T) {
	withCLIArgs(t, []string{
		"-addr=http://localhost:8080/",
		"-total=10",
		"-concurrency=2",
		"-connections=1",
		"-mode=checkout",
		"-product=2",
		"-quantity=3",
	}, func() {
		cfg, err := parseConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.baseURL != "http://localhost:8080" {
			t.Fatalf("expected trailing slash trimmed, got %q", cfg.baseURL)
		}
		if cfg.mode != modeCheckout || cfg.productID != "2" || cfg.quantity != 3 {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	})

	invalid := [][]string{
		{"-total=0"},
		{"-concurrency=0"},
		{"-connections=0"},
		{"-timeout=0s"},
		{"-quantity=0"},
		{"-mode=unknown"},
		{"-product="},
		{"-customer-tag="},
	}
	for _, args := range invalid {
		withCLIArgs(t, args, func() {
			if _, err := parseConfig(); err == nil {
				t.Errorf("expected error for args %v", args)
			}
		})
	}
}

func TestDispatchJobs(t *testing.T) {
	cfg := config{total: 5}
	jobs := make(chan int, 10)
	dispatchJobs(jobs, cfg)

	count := 0
	for range jobs {
		count++
	}
	if count != 5 {
		t.Fatalf("expected 5 jobs, got %d", count)
	}

	// В режиме длительности явный total ограничивает число сценариев.
	cfg = config{total: 3, totalSet: true, duration: time.Minute}
	jobs = make(chan int, 10)
	dispatchJobs(jobs, cfg)

	count = 0
	for range jobs {
		count++
	}
	if count != 3 {
		t.Fatalf("expected 3 jobs with totalSet, got %d", count)
	}
}

func TestCollectorAndReport(t *testing.T) {
	col := newCollector()
	col.record("scenario", 10*time.Millisecond, http.StatusOK)
	col.record("scenario", 20*time.Millisecond, http.StatusBadGateway)
	col.record("AddCartItem", 5*time.Millisecond, http.StatusOK)
	col.record("AddCartItem", 7*time.Millisecond, 0)

	result := col.buildReport(time.Now(), time.Second)

	if result.TotalScenarios != 2 || result.SuccessScenarios != 1 || result.FailedScenarios != 1 {
		t.Fatalf("unexpected scenario counts: %+v", result)
	}
	if result.ErrorRate != 0.5 {
		t.Fatalf("unexpected error rate: %f", result.ErrorRate)
	}
	if result.RPS != 2 {
		t.Fatalf("unexpected rps: %f", result.RPS)
	}

	method, ok := result.Methods["AddCartItem"]
	if !ok {
		t.Fatal("expected AddCartItem method report")
	}
	if method.Codes["200"] != 1 || method.Codes["transport_error"] != 1 {
		t.Fatalf("unexpected codes: %+v", method.Codes)
	}
}

func TestUtilityFunctions(t *testing.T) {
	if statusLabel(0) != "transport_error" {
		t.Error("expected transport_error label for zero status")
	}
	if statusLabel(404) != "404" {
		t.Error("expected 404 label")
	}

	if failureStatus(0, nil) != http.StatusInternalServerError {
		t.Error("expected 500 for zero status")
	}
	if failureStatus(409, nil) != 409 {
		t.Error("expected original status when set")
	}

	if ratio(1, 4) != 0.25 {
		t.Error("unexpected ratio")
	}
	if ratio(1, 0) != 0 {
		t.Error("expected zero ratio for empty total")
	}

	summary := buildLatencySummary([]float64{1, 2, 3, 4})
	if summary.Min != 1 || summary.Max != 4 || summary.Avg != 2.5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if percentile([]float64{5}, 99) != 5 {
		t.Error("single element percentile must return it")
	}
	if percentile(nil, 50) != 0 {
		t.Error("empty percentile must be zero")
	}
}

func TestWriteJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	result := report{TotalScenarios: 7}

	if err := writeJSONReport(path, result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.TotalScenarios != 7 {
		t.Fatalf("unexpected report: %+v", decoded)
	}

	if err := writeJSONReport("..", result); err == nil {
		t.Fatal("expected error for parent path")
	}
}

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	cat, err := catalog.New()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	server := httpapi.NewServer(httpapi.Dependencies{
		Catalog: cat,
		Auth:    auth.NewService(memory.NewUserRepository()),
		Bookings: booking.NewService(
			memory.NewBookingRepository(),
			cat,
			memory.NewTimelineRepository(),
			memory.NewOutboxRepository(),
			nil,
		),
		Contacts:    memory.NewContactRepository(),
		Idempotency: memory.NewIdempotencyRepository(),
	})

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestRunScenarioAgainstAPI(t *testing.T) {
	ts := newTestAPI(t)

	base := config{
		baseURL:     ts.URL,
		timeout:     5 * time.Second,
		productID:   "1",
		quantity:    1,
		customerTag: "lt-test",
	}

	for i, mode := range []loadMode{modeBrowse, modeCart, modeCheckout} {
		cfg := base
		cfg.mode = mode
		col := newCollector()
		if err := runScenario(ts.Client(), cfg, i, "run-1", col); err != nil {
			t.Fatalf("scenario %s failed: %v", mode, err)
		}

		result := col.buildReport(time.Now(), time.Second)
		if result.FailedScenarios != 0 {
			t.Fatalf("scenario %s recorded failures: %+v", mode, result)
		}
	}
}

func TestRunScenarioUnknownProduct(t *testing.T) {
	ts := newTestAPI(t)

	cfg := config{
		baseURL:     ts.URL,
		timeout:     5 * time.Second,
		productID:   "does-not-exist",
		quantity:    1,
		mode:        modeCart,
		customerTag: "lt-test",
	}

	col := newCollector()
	if err := runScenario(ts.Client(), cfg, 0, "run-2", col); err == nil {
		t.Fatal("expected error for unknown product")
	}

	result := col.buildReport(time.Now(), time.Second)
	if result.FailedScenarios != 1 {
		t.Fatalf("expected 1 failed scenario, got %+v", result)
	}
}

func TestPrintReport(t *testing.T) {
	result := report{
		TotalScenarios:   2,
		SuccessScenarios: 2,
		Methods: map[string]methodReport{
			"scenario":    {Calls: 2},
			"AddCartItem": {Calls: 2, Success: 2},
		},
	}
	printReport(result, config{mode: modeCart, total: 2})
}
