package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/imunetrack/internal/common"
	"github.com/ternarybob/imunetrack/internal/httpclient"
	"github.com/ternarybob/imunetrack/internal/mockapi"
)

// TestSuite is one go test invocation against the e2e package
type TestSuite struct {
	Name    string
	Pattern string
}

// defaultSuites groups the e2e tests by file
var defaultSuites = []TestSuite{
	{Name: "Backend", Pattern: "^TestBackend"},
	{Name: "Smoke", Pattern: "^TestSmoke"},
	{Name: "Auth", Pattern: "^TestAuth"},
	{Name: "Dashboard", Pattern: "^TestDashboard"},
	{Name: "Schedule", Pattern: "^TestSchedule"},
	{Name: "History", Pattern: "^TestHistory"},
}

var (
	configFile = flag.String("config", "", "Configuration file path (defaults to imunetrack.toml when present)")
	smokeOnly  = flag.Bool("smoke", false, "Run only the smoke suite")
	runPattern = flag.String("run", "", "Run a single custom suite matching this go test -run pattern")
	testsDir   = flag.String("tests", "./test/e2e", "Package containing the e2e tests")
	outputDir  = flag.String("out", "", "Results directory (overrides reports.dir)")
	writePDFs  = flag.Bool("pdf", false, "Also write summary.pdf")
)

func main() {
	flag.Parse()

	if *configFile == "" {
		if _, err := os.Stat("imunetrack.toml"); err == nil {
			*configFile = "imunetrack.toml"
		}
	}

	config, err := common.LoadFromFiles(*configFile)
	if err != nil {
		fmt.Printf("ERROR: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		config.Reports.Dir = *outputDir
	}
	if err := config.SetupDirectories(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	logger := common.InitLogger(config)

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	runDir, err := filepath.Abs(filepath.Join(config.RunsDir(), timestamp))
	if err != nil {
		fmt.Printf("ERROR: Failed to resolve results directory: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(runDir, 0755); err != nil {
		fmt.Printf("ERROR: Failed to create results directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Config File: %s\n", displayOr(*configFile, "(defaults)"))
	fmt.Printf("  Tests: %s\n", *testsDir)
	fmt.Printf("  Frontend: %s\n", config.Frontend.URL)
	fmt.Printf("  Results: %s\n\n", runDir)

	// STEP 1: Backend
	fmt.Println("STEP 1: Checking mock backend...")
	fmt.Println(strings.Repeat("-", 80))

	apiURL := strings.TrimRight(config.Frontend.APIURL, "/")
	var mock *mockapi.Server

	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 500*time.Millisecond)
	err = httpclient.New(apiURL, 500*time.Millisecond).Health(probeCtx)
	cancelProbe()
	if err == nil {
		fmt.Printf("✓ Backend already running on %s\n\n", apiURL)
	} else {
		fmt.Printf("Backend not detected on %s, starting mock backend\n", apiURL)
		mock = mockapi.New(config, logger)
		startCtx, cancelStart := context.WithTimeout(context.Background(), mockapi.DefaultStartTimeout)
		err = mock.Start(startCtx)
		cancelStart()
		if err != nil {
			fmt.Printf("ERROR: Mock backend did not become ready: %v\n", err)
			os.Exit(1)
		}
		apiURL = mock.URL()
		fmt.Printf("✓ Mock backend ready on %s\n\n", apiURL)
	}

	versionCtx, cancelVersion := context.WithTimeout(context.Background(), 2*time.Second)
	if version, err := httpclient.New(apiURL, 2*time.Second).Version(versionCtx); err == nil {
		fmt.Printf("Backend version: %s (build %s)\n\n", version["version"], version["build"])
	}
	cancelVersion()

	// STEP 2: Frontend
	fmt.Println("STEP 2: Checking frontend connectivity...")
	fmt.Println(strings.Repeat("-", 80))
	if err := checkConnectivity(config.Frontend.BaseURL); err != nil {
		fmt.Printf("WARNING: %v\n", err)
		fmt.Printf("Browser tests will be skipped\n\n")
	} else {
		fmt.Printf("✓ Frontend reachable at %s\n\n", config.Frontend.BaseURL)
	}

	// STEP 3: Suites
	suites := defaultSuites
	switch {
	case *runPattern != "":
		suites = []TestSuite{{Name: "Custom", Pattern: *runPattern}}
	case *smokeOnly:
		suites = []TestSuite{{Name: "Smoke", Pattern: "^TestSmoke"}}
	}

	fmt.Println("STEP 3: Running test suites...")
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Test results will be saved to: %s/{suite}/\n\n", runDir)

	started := time.Now()
	allPassed := true
	var results []SuiteResult

	for _, suite := range suites {
		fmt.Printf("Running %s...\n", suite.Name)
		fmt.Println(strings.Repeat("-", 80))

		result := runTestSuite(suite, runDir, apiURL, config.Features.Verbose)
		results = append(results, result)

		if result.Success {
			fmt.Printf("✓ %s PASSED (%.2fs)\n\n", suite.Name, result.Duration.Seconds())
		} else {
			fmt.Printf("✗ %s FAILED (%.2fs)\n\n", suite.Name, result.Duration.Seconds())
			allPassed = false
		}
	}

	if mock != nil {
		stopCtx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
		if err := mock.Stop(stopCtx); err != nil {
			fmt.Printf("WARNING: Mock backend stop: %v\n", err)
		}
		cancelStop()
	}

	printSummary(results, allPassed)

	if err := writeReports(runDir, results, started, config.Frontend.URL, apiURL, *writePDFs); err != nil {
		fmt.Printf("WARNING: Failed to write reports: %v\n", err)
	} else {
		fmt.Printf("\nReports written to %s\n", runDir)
	}

	if !allPassed {
		os.Exit(1)
	}
}

// writeReports saves summary.md, summary.html and optionally summary.pdf
func writeReports(dir string, results []SuiteResult, started time.Time, frontendURL, apiURL string, withPDF bool) error {
	markdown := buildMarkdown(results, started, frontendURL, apiURL)
	if err := os.WriteFile(filepath.Join(dir, "summary.md"), []byte(markdown), 0644); err != nil {
		return err
	}
	if err := writeHTML(filepath.Join(dir, "summary.html"), markdown); err != nil {
		return err
	}
	if withPDF {
		return writePDF(filepath.Join(dir, "summary.pdf"), results, started)
	}
	return nil
}

func checkConnectivity(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("frontend not accessible at %s: %w", url, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("frontend at %s returned status %d", url, resp.StatusCode)
	}
	return nil
}

// runTestSuite runs one suite with "go test"; verbose also streams its output to stdout
func runTestSuite(suite TestSuite, runDir string, apiURL string, verbose bool) SuiteResult {
	startTime := time.Now()

	suiteDir := filepath.Join(runDir, sanitizeFilename(suite.Name))
	if err := os.MkdirAll(suiteDir, 0755); err != nil {
		fmt.Printf("ERROR: Failed to create suite directory: %v\n", err)
	}

	cmd := exec.Command("go", "test", "-v", "-count=1", "-run", suite.Pattern, *testsDir)
	cmd.Dir = "."
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("TEST_RESULTS_DIR=%s", suiteDir),
		fmt.Sprintf("API_URL=%s", apiURL),
	)
	if *configFile != "" {
		if abs, err := filepath.Abs(*configFile); err == nil {
			cmd.Env = append(cmd.Env, fmt.Sprintf("IMUNETRACK_CONFIG=%s", abs))
		}
	}

	var output bytes.Buffer
	if verbose {
		cmd.Stdout = io.MultiWriter(&output, os.Stdout)
	} else {
		cmd.Stdout = &output
	}
	cmd.Stderr = cmd.Stdout
	err := cmd.Run()
	duration := time.Since(startTime)

	logPath := filepath.Join(suiteDir, "test.log")
	if werr := os.WriteFile(logPath, output.Bytes(), 0644); werr != nil {
		fmt.Printf("ERROR: Failed to save test.log: %v\n", werr)
	}

	return SuiteResult{
		Name:     suite.Name,
		Pattern:  suite.Pattern,
		Success:  err == nil,
		Duration: duration,
		Cases:    parseTestOutput(output.String()),
		LogPath:  logPath,
	}
}

func printSummary(results []SuiteResult, allPassed bool) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("TEST SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	totalDuration := time.Duration(0)
	passed := 0
	failed := 0

	for _, result := range results {
		if result.Success {
			passed++
		} else {
			failed++
		}

		fmt.Printf("%-30s %s (%.2fs) %d passed, %d failed, %d skipped\n",
			result.Name, resultLabel(result.Success), result.Duration.Seconds(),
			result.Count("PASS"), result.Count("FAIL"), result.Count("SKIP"))
		totalDuration += result.Duration
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Total: %d passed, %d failed (%.2fs)\n", passed, failed, totalDuration.Seconds())

	if allPassed {
		fmt.Println("\n✓ ALL TESTS PASSED")
	} else {
		fmt.Println("\n✗ SOME TESTS FAILED")
	}
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "_",
		"\\", "_",
		":", "_",
	)
	return strings.ToLower(replacer.Replace(name))
}

func displayOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
