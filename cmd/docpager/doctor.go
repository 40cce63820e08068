package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strings"

	docpager "github.com/alnah/go-docpager"
	"github.com/go-rod/rod/lib/launcher"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// sampleRows is the size of the quote doctor lays out.
const sampleRows = 30

// doctorResult is what doctor found, printed as text or JSON.
type doctorResult struct {
	Status   string     `json:"status"`
	Chrome   chromeInfo `json:"chrome"`
	Layout   layoutInfo `json:"layout"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// layoutInfo describes the effective configuration and the sample quote
// laid out with it.
type layoutInfo struct {
	Config      string `json:"config,omitempty"`
	Engine      string `json:"engine"`
	MaxPages    int    `json:"max_pages"`
	SampleRows  int    `json:"sample_rows"`
	SamplePages int    `json:"sample_pages"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctorChecks are the checks doctor runs, replaceable in tests.
type doctorChecks struct {
	lookPath  func() (string, bool)
	version   func(path string) (string, error)
	fileExist func(path string) bool
	tempDir   func() (string, error)
}

func defaultDoctorChecks() doctorChecks {
	return doctorChecks{
		lookPath: launcher.LookPath,
		version: func(path string) (string, error) {
			out, err := exec.Command(path, "--version").Output() // #nosec G204 -- browser binary path
			return strings.TrimSpace(string(out)), err
		},
		fileExist: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
		tempDir: func() (string, error) {
			return os.MkdirTemp("", "docpager-doctor-")
		},
	}
}

// runDoctorCmd runs the checks and prints them. Warnings exit 0, errors
// exit 1.
func runDoctorCmd(args []string, env *Environment) int {
	r := runDoctor(env, defaultDoctorChecks())

	if slices.Contains(args, "--json") {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(r)
	} else {
		printDoctorResult(env.Stdout, r)
	}

	if r.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

func runDoctor(env *Environment, checks doctorChecks) *doctorResult {
	r := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.Getenv("ROD_BROWSER_BIN"),
		},
	}

	r.checkChrome(checks)
	r.checkLayout(env)
	r.checkEnvironment(env, checks)
	r.checkSystem(checks)

	switch {
	case len(r.Errors) > 0:
		r.Status = statusErrors
	case len(r.Warnings) > 0:
		r.Status = statusWarnings
	}
	return r
}

func (r *doctorResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *doctorResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// checkChrome locates Chrome. A missing browser is only a warning: the model
// engine lays out without one.
func (r *doctorResult) checkChrome(checks doctorChecks) {
	path := r.Env.BrowserBin
	if path == "" {
		var found bool
		if path, found = checks.lookPath(); !found {
			r.warn("Chrome/Chromium not found: --pdf and --engine chrome are unavailable. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}
	if !checks.fileExist(path) {
		r.fail("ROD_BROWSER_BIN points to a missing file: %s", path)
		return
	}

	r.Chrome = chromeInfo{Found: true, Path: path, Sandbox: r.Env.NoSandbox != "1"}
	v, err := checks.version(path)
	if err != nil {
		r.warn("Could not get Chrome version: %v", err)
		return
	}
	r.Chrome.Version = v
}

// checkLayout loads the configuration compose would use and lays out a
// sample quote with it on the model engine.
func (r *doctorResult) checkLayout(env *Environment) {
	envCfg := loadEnvConfig(env.Getenv)
	cfg, err := loadConfig("", envCfg)
	if err != nil {
		r.fail("%v", err)
		return
	}
	applyEnvConfig(envCfg, cfg)

	r.Layout = layoutInfo{Config: envCfg.ConfigPath, Engine: cfg.Layout.Engine, MaxPages: cfg.Layout.MaxPages}
	if cfg.Layout.Engine == docpager.EngineChrome && !r.Chrome.Found {
		r.fail("engine %q is configured but Chrome was not found", docpager.EngineChrome)
	}

	c, err := docpager.NewComposer(docpager.WithConfig(cfg), docpager.WithLayout(docpager.EngineModel))
	if err != nil {
		r.fail("%v", err)
		return
	}
	defer func() { _ = c.Close() }()

	d := docpager.NewDocument(docpager.KindQuote)
	d.SetBranch(docpager.Branch{Name: cfg.Branch(0).Name})
	for i := range sampleRows {
		d.AddLineItem(docpager.LineItem{Description: fmt.Sprintf("Sample item %d", i+1), Quantity: 1, UnitPrice: 10})
	}
	res, err := c.Compose(context.Background(), docpager.Input{Document: d})
	if err != nil {
		r.fail("laying out a sample quote: %v", err)
		return
	}
	r.Layout.SampleRows = res.Report.PlacedRows
	r.Layout.SamplePages = res.Report.Pages
	if res.Report.Truncated() {
		r.warn("a %d-row quote does not fit in %d page(s); raise layout.maxPages", sampleRows, cfg.Layout.MaxPages)
	}
}

// checkEnvironment detects containers and CI, where Chrome usually needs
// its sandbox off.
func (r *doctorResult) checkEnvironment(env *Environment, checks doctorChecks) {
	r.Env.Container, r.Env.ContainerHint = isContainer(env, checks)
	r.Env.CI = slices.ContainsFunc([]string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"},
		func(v string) bool { return env.Getenv(v) != "" })

	if r.Chrome.Found && (r.Env.Container || r.Env.CI) && r.Env.NoSandbox != "1" {
		r.warn("running in a container or CI with the Chrome sandbox on; set ROD_NO_SANDBOX=1 if Chrome fails to start")
	}
}

// isContainer reports whether we run in a container, and which signal said
// so.
func isContainer(env *Environment, checks doctorChecks) (bool, string) {
	switch {
	case env.Getenv("DOCPAGER_CONTAINER") == "1":
		return true, "DOCPAGER_CONTAINER=1"
	case checks.fileExist("/.dockerenv"):
		return true, "/.dockerenv"
	case env.Getenv("container") != "":
		return true, "container=" + env.Getenv("container")
	case env.Getenv("KUBERNETES_SERVICE_HOST") != "":
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory PDFs are printed through.
func (r *doctorResult) checkSystem(checks doctorChecks) {
	dir, err := checks.tempDir()
	if err != nil {
		r.fail("Temp directory not writable: %v", err)
		return
	}
	_ = os.RemoveAll(dir)
	r.System.TempWritable = true
}

func printDoctorResult(w io.Writer, r *doctorResult) {
	line := func(tag, format string, args ...any) {
		fmt.Fprintf(w, "  [%s] %s\n", tag, fmt.Sprintf(format, args...))
	}
	section := func(name string, body func()) {
		fmt.Fprintln(w, name)
		body()
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "docpager doctor")
	fmt.Fprintln(w)

	section("Chrome", func() {
		if !r.Chrome.Found {
			line("--", "not found, model engine only")
			return
		}
		line("OK", "%s", r.Chrome.Path)
		if r.Chrome.Version != "" {
			line("OK", "%s", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			line("OK", "sandbox on")
		} else {
			line("OK", "sandbox off (ROD_NO_SANDBOX=1)")
		}
	})

	section("Layout", func() {
		if r.Layout.Config != "" {
			line("OK", "config %s", r.Layout.Config)
		}
		line("OK", "engine %s, up to %d page(s)", r.Layout.Engine, r.Layout.MaxPages)
		if r.Layout.SamplePages > 0 {
			line("OK", "sample quote: %d of %d rows on %d page(s)", r.Layout.SampleRows, sampleRows, r.Layout.SamplePages)
		}
	})

	section("Environment", func() {
		line("OK", "%s/%s", r.Env.OS, r.Env.Arch)
		if r.Env.Container {
			line("OK", "container (%s)", r.Env.ContainerHint)
		}
		if r.Env.CI {
			line("OK", "CI")
		}
		if r.System.TempWritable {
			line("OK", "temp directory writable")
		}
	})

	if len(r.Warnings) > 0 {
		section("Warnings", func() {
			for _, msg := range r.Warnings {
				line("WARN", "%s", msg)
			}
		})
	}
	if len(r.Errors) > 0 {
		section("Errors", func() {
			for _, msg := range r.Errors {
				line("ERROR", "%s", msg)
			}
		})
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Ready.")
	case statusWarnings:
		fmt.Fprintln(w, "Ready, with warnings.")
	case statusErrors:
		fmt.Fprintln(w, "Not ready, see errors above.")
	}
}
