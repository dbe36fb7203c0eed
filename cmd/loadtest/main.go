// Нагрузочный прогон HTTP API: browse гоняет каталог, cart добавляет товар
// в корзину, checkout проходит полный путь до оформления заявки.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	idempotencyHeader = "Idempotency-Key"
	sessionHeader     = "X-Session-Id"
	defaultQuantity   = 1

	scenarioMethod = "scenario"
)

type loadMode string

const (
	modeBrowse   loadMode = "browse"
	modeCart     loadMode = "cart"
	modeCheckout loadMode = "checkout"
)

type config struct {
	baseURL     string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	connections int
	timeout     time.Duration
	mode        loadMode
	productID   string
	quantity    int
	customerTag string
	outputPath  string
}

func (c config) validate() error {
	switch {
	case c.duration < 0:
		return errors.New("duration must be >= 0")
	case c.duration == 0 && c.total <= 0:
		return errors.New("total must be > 0 when duration is not set")
	case c.duration > 0 && c.totalSet && c.total <= 0:
		return errors.New("total must be > 0 when explicitly set with duration")
	case c.concurrency <= 0:
		return errors.New("concurrency must be > 0")
	case c.connections <= 0:
		return errors.New("connections must be > 0")
	case c.timeout <= 0:
		return errors.New("timeout must be > 0")
	case c.quantity <= 0:
		return errors.New("quantity must be > 0")
	case strings.TrimSpace(c.baseURL) == "":
		return errors.New("addr is required")
	case strings.TrimSpace(c.productID) == "":
		return errors.New("product is required")
	case strings.TrimSpace(c.customerTag) == "":
		return errors.New("customer-tag is required")
	}
	return nil
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type methodReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Codes     map[string]int64 `json:"codes"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

type report struct {
	StartedAt         time.Time               `json:"started_at"`
	DurationSeconds   float64                 `json:"duration_seconds"`
	TotalScenarios    int64                   `json:"total_scenarios"`
	SuccessScenarios  int64                   `json:"success_scenarios"`
	FailedScenarios   int64                   `json:"failed_scenarios"`
	ErrorRate         float64                 `json:"error_rate"`
	RPS               float64                 `json:"rps"`
	ScenarioLatencyMs latencySummary          `json:"scenario_latency_ms"`
	Methods           map[string]methodReport `json:"methods"`
}

type methodStats struct {
	calls     int64
	success   int64
	failed    int64
	codes     map[string]int64
	latencies []float64
}

func (s *methodStats) toReport() methodReport {
	codes := make(map[string]int64, len(s.codes))
	for code, count := range s.codes {
		codes[code] = count
	}
	return methodReport{
		Calls:     s.calls,
		Success:   s.success,
		Failed:    s.failed,
		ErrorRate: ratio(s.failed, s.calls),
		Codes:     codes,
		LatencyMs: buildLatencySummary(s.latencies),
	}
}

// collector агрегирует латентности и коды ответов по именам вызовов.
type collector struct {
	mu      sync.Mutex
	methods map[string]*methodStats
}

func newCollector() *collector {
	return &collector{methods: make(map[string]*methodStats)}
}

func (c *collector) statsFor(method string) *methodStats {
	stats, ok := c.methods[method]
	if !ok {
		stats = &methodStats{codes: make(map[string]int64)}
		c.methods[method] = stats
	}
	return stats
}

func (c *collector) record(method string, latency time.Duration, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.statsFor(method)
	stats.calls++
	if status >= 200 && status < 300 {
		stats.success++
	} else {
		stats.failed++
	}
	stats.codes[statusLabel(status)]++
	stats.latencies = append(stats.latencies, float64(latency.Microseconds())/1000.0)
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: duration.Seconds(),
		Methods:         make(map[string]methodReport, len(c.methods)),
	}

	for name, stats := range c.methods {
		result.Methods[name] = stats.toReport()
	}

	if scenario, ok := c.methods[scenarioMethod]; ok {
		result.TotalScenarios = scenario.calls
		result.SuccessScenarios = scenario.success
		result.FailedScenarios = scenario.failed
		result.ErrorRate = ratio(scenario.failed, scenario.calls)
		result.ScenarioLatencyMs = buildLatencySummary(scenario.latencies)
	}
	if duration > 0 {
		result.RPS = float64(result.TotalScenarios) / duration.Seconds()
	}

	return result
}

// statusLabel подписывает нулевой статус как транспортную ошибку.
func statusLabel(status int) string {
	if status <= 0 {
		return "transport_error"
	}
	return strconv.Itoa(status)
}

func parseConfig() (config, error) {
	var (
		cfg           config
		modeValue     string
		timeoutValue  string
		durationValue string
	)

	flag.StringVar(&cfg.baseURL, "addr", "http://localhost:8080", "HTTP API base URL")
	flag.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	flag.StringVar(&durationValue, "duration", "0s", "optional time-based run duration (e.g. 10m, 15m)")
	flag.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	flag.IntVar(&cfg.connections, "connections", 20, "number of HTTP clients")
	flag.StringVar(&timeoutValue, "timeout", "5s", "per-request timeout")
	flag.StringVar(&modeValue, "mode", string(modeBrowse), "load mode: browse | cart | checkout")
	flag.StringVar(&cfg.productID, "product", "1", "catalog product id to add to the cart")
	flag.IntVar(&cfg.quantity, "quantity", defaultQuantity, "cart quantity per scenario")
	flag.StringVar(&cfg.customerTag, "customer-tag", "load", "registered user email prefix")
	flag.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	flag.Parse()

	var err error
	if cfg.timeout, err = time.ParseDuration(strings.TrimSpace(timeoutValue)); err != nil {
		return cfg, fmt.Errorf("parse timeout: %w", err)
	}
	if cfg.duration, err = time.ParseDuration(strings.TrimSpace(durationValue)); err != nil {
		return cfg, fmt.Errorf("parse duration: %w", err)
	}
	if cfg.mode, err = parseMode(modeValue); err != nil {
		return cfg, err
	}

	// Явно заданный total ограничивает прогон даже в режиме длительности.
	flag.CommandLine.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	mode := loadMode(strings.TrimSpace(value))
	switch mode {
	case modeBrowse, modeCart, modeCheckout:
		return mode, nil
	}
	return "", fmt.Errorf("unsupported mode: %s", value)
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	clients := newClientPool(cfg)
	startedAt := time.Now()
	runID := fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid())
	col := newCollector()

	jobs := make(chan int, cfg.concurrency*2)
	var failures int64
	var wg sync.WaitGroup

	for workerID := 0; workerID < cfg.concurrency; workerID++ {
		wg.Add(1)
		go func(cli *http.Client) {
			defer wg.Done()
			for id := range jobs {
				if runErr := runScenario(cli, cfg, id, runID, col); runErr != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}(clients[workerID%len(clients)])
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	duration := time.Since(startedAt)
	result := col.buildReport(startedAt, duration)
	if result.FailedScenarios == 0 && failures > 0 {
		result.FailedScenarios = failures
		result.ErrorRate = ratio(result.FailedScenarios, result.TotalScenarios)
	}

	printReport(result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

func newClientPool(cfg config) []*http.Client {
	clients := make([]*http.Client, cfg.connections)
	for i := range clients {
		clients[i] = &http.Client{
			Timeout:   cfg.timeout,
			Transport: &http.Transport{MaxIdleConnsPerHost: cfg.concurrency},
		}
	}
	return clients
}

// dispatchJobs кормит воркеров номерами сценариев и закрывает канал,
// когда исчерпан total либо истекла длительность прогона.
func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	deadline := time.NewTimer(cfg.duration)
	defer deadline.Stop()

	for i := 0; ; i++ {
		if cfg.totalSet && i >= cfg.total {
			return
		}

		select {
		case <-deadline.C:
			return
		case jobs <- i:
		}
	}
}

// apiCall описывает один шаг сценария.
type apiCall struct {
	name           string
	method         string
	path           string
	body           any
	token          string
	idempotencyKey string
	wantStatus     int
}

func runScenario(
	client *http.Client,
	cfg config,
	index int,
	runID string,
	col *collector,
) error {
	scenarioStart := time.Now()
	scenarioStatus := http.StatusOK
	defer func() {
		col.record(scenarioMethod, time.Since(scenarioStart), scenarioStatus)
	}()

	sessionID := fmt.Sprintf("lt-%s-%d", runID, index)

	step := func(call apiCall) ([]byte, error) {
		status, body, err := callAPI(client, cfg, call, sessionID, col)
		if err != nil || status != call.wantStatus {
			scenarioStatus = failureStatus(status, err)
			return nil, fmt.Errorf("%s: status=%d err=%w", call.name, status, errOr(err))
		}
		return body, nil
	}

	if cfg.mode == modeBrowse {
		_, err := step(apiCall{name: "ListProducts", method: http.MethodGet, path: "/api/products", wantStatus: http.StatusOK})
		return err
	}

	if _, err := step(apiCall{
		name:       "AddCartItem",
		method:     http.MethodPost,
		path:       "/api/cart/items",
		body:       map[string]any{"productId": cfg.productID, "quantity": cfg.quantity},
		wantStatus: http.StatusOK,
	}); err != nil {
		return err
	}

	if cfg.mode == modeCart {
		_, err := step(apiCall{name: "GetCart", method: http.MethodGet, path: "/api/cart", wantStatus: http.StatusOK})
		return err
	}

	registerResp, err := step(apiCall{
		name:   "Register",
		method: http.MethodPost,
		path:   "/api/register",
		body: map[string]string{
			"name":     "Load Tester",
			"email":    fmt.Sprintf("%s-%s-%d@loadtest.local", cfg.customerTag, runID, index),
			"password": "loadtest-secret",
		},
		wantStatus: http.StatusCreated,
	})
	if err != nil {
		return err
	}

	var auth struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(registerResp, &auth); err != nil || auth.Token == "" {
		scenarioStatus = http.StatusInternalServerError
		return errors.New("register response returned empty token")
	}

	_, err = step(apiCall{
		name:           "Checkout",
		method:         http.MethodPost,
		path:           "/api/cart/checkout",
		token:          auth.Token,
		idempotencyKey: fmt.Sprintf("lt-checkout-%s-%d", runID, index),
		wantStatus:     http.StatusOK,
	})
	return err
}

func callAPI(
	client *http.Client,
	cfg config,
	call apiCall,
	sessionID string,
	col *collector,
) (int, []byte, error) {
	var reader io.Reader
	if call.body != nil {
		encoded, err := json.Marshal(call.body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(call.method, cfg.baseURL+call.path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, sessionID)
	if call.token != "" {
		req.Header.Set("Authorization", "Bearer "+call.token)
	}
	if call.idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, call.idempotencyKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		col.record(call.name, time.Since(start), 0)
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, readErr := io.ReadAll(resp.Body)
	col.record(call.name, time.Since(start), resp.StatusCode)
	if readErr != nil {
		return resp.StatusCode, nil, readErr
	}
	return resp.StatusCode, payload, nil
}

func failureStatus(status int, err error) int {
	if err != nil || status <= 0 {
		return http.StatusInternalServerError
	}
	return status
}

func errOr(err error) error {
	if err != nil {
		return err
	}
	return errors.New("unexpected status")
}

func writeJSONReport(path string, result report) error {
	cleanPath := filepath.Clean(path)
	switch {
	case cleanPath == "." || cleanPath == string(filepath.Separator):
		return errors.New("output path must point to a file")
	case cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)):
		return fmt.Errorf("output path must be inside current directory: %s", path)
	}

	// #nosec G304 -- path is an explicit CLI output parameter for local load-test reports.
	file, err := os.Create(cleanPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func printReport(result report, cfg config) {
	fmt.Println("Load test summary")
	fmt.Printf("mode=%s run=%s total=%d success=%d failed=%d error_rate=%.4f\n",
		cfg.mode, runTarget(cfg),
		result.TotalScenarios, result.SuccessScenarios, result.FailedScenarios, result.ErrorRate)
	fmt.Printf("duration=%.2fs rps=%.2f\n", result.DurationSeconds, result.RPS)
	fmt.Printf("scenario latency ms: min=%.2f avg=%.2f p50=%.2f p95=%.2f p99=%.2f max=%.2f\n",
		result.ScenarioLatencyMs.Min, result.ScenarioLatencyMs.Avg,
		result.ScenarioLatencyMs.P50, result.ScenarioLatencyMs.P95,
		result.ScenarioLatencyMs.P99, result.ScenarioLatencyMs.Max)

	methodNames := make([]string, 0, len(result.Methods))
	for name := range result.Methods {
		if name != scenarioMethod {
			methodNames = append(methodNames, name)
		}
	}
	sort.Strings(methodNames)

	for _, name := range methodNames {
		stats := result.Methods[name]
		fmt.Printf("%s: calls=%d success=%d failed=%d error_rate=%.4f p95=%.2fms\n",
			name, stats.Calls, stats.Success, stats.Failed, stats.ErrorRate, stats.LatencyMs.P95)
	}
}

func runTarget(cfg config) string {
	switch {
	case cfg.duration <= 0:
		return fmt.Sprintf("count:%d", cfg.total)
	case cfg.totalSet:
		return fmt.Sprintf("duration:%s,max-total:%d", cfg.duration, cfg.total)
	default:
		return fmt.Sprintf("duration:%s", cfg.duration)
	}
}

func buildLatencySummary(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, value := range sorted {
		sum += value
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

// percentile линейно интерполирует между соседними отсчётами.
func percentile(sorted []float64, p float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

func ratio(failed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(failed) / float64(total)
}
