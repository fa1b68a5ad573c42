package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// target pairs a route of the legacy service with its Go counterpart.
type target struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	LegacyPath string `json:"legacy_path"`
	Body       string `json:"body"`
	Critical   bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type observation struct {
	Status      int
	ContentType string
	Size        int
	Duration    time.Duration
}

type comparison struct {
	Target      target
	Go          observation
	Legacy      observation
	StatusMatch bool
	TypeMatch   bool
	Error       error
}

func main() {
	var (
		goBase      string
		legacyBase  string
		goToken     string
		legacyToken string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080/api/v1", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5000", "Legacy API base URL")
	flag.StringVar(&goToken, "go-token", os.Getenv("GO_TOKEN"), "Bearer token for the Go API")
	flag.StringVar(&legacyToken, "legacy-token", os.Getenv("LEGACY_TOKEN"), "Bearer token for the legacy API")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range targets {
		comp := compareTarget(client, endpoint{goBase, goToken}, endpoint{legacyBase, legacyToken}, t)
		if comp.Error != nil || !comp.StatusMatch || !comp.TypeMatch {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

type endpoint struct {
	base  string
	token string
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	for i := range cfg.Targets {
		if cfg.Targets[i].LegacyPath == "" {
			cfg.Targets[i].LegacyPath = cfg.Targets[i].Path
		}
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, goSide, legacySide endpoint, tgt target) comparison {
	comp := comparison{Target: tgt}

	goObs, err := observe(client, goSide, tgt.Method, tgt.Path, tgt.Body)
	if err != nil {
		comp.Error = fmt.Errorf("go request failed: %w", err)
		return comp
	}
	legacyObs, err := observe(client, legacySide, tgt.Method, tgt.LegacyPath, tgt.Body)
	if err != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", err)
		return comp
	}

	comp.Go = goObs
	comp.Legacy = legacyObs
	comp.StatusMatch = statusClass(goObs.Status) == statusClass(legacyObs.Status)
	comp.TypeMatch = mediaType(goObs.ContentType) == mediaType(legacyObs.ContentType)
	return comp
}

// observe issues one request and records status, media type and size. Bodies
// are not compared: the two services wrap JSON differently.
func observe(client *http.Client, side endpoint, method, path, body string) (observation, error) {
	if client == nil {
		return observation{}, errors.New("nil client")
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(side.base, "/") + path

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return observation{}, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if side.token != "" {
		req.Header.Set("Authorization", "Bearer "+side.token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return observation{}, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return observation{}, fmt.Errorf("read body: %w", err)
	}
	return observation{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int(n),
		Duration:    time.Since(start),
	}, nil
}

// statusClass collapses a status code to its hundreds digit.
func statusClass(code int) int {
	return code / 100
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func printReport(results []comparison) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.TypeMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s (legacy %s)\n", status, res.Target.Method, res.Target.Path, res.Target.LegacyPath)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Go:     %d %s %dB (%s)\n", res.Go.Status, mediaType(res.Go.ContentType), res.Go.Size, res.Go.Duration)
		fmt.Printf("  Legacy: %d %s %dB (%s)\n", res.Legacy.Status, mediaType(res.Legacy.ContentType), res.Legacy.Size, res.Legacy.Duration)
		fmt.Printf("  Status match: %t | Type match: %t | Critical: %t\n", res.StatusMatch, res.TypeMatch, res.Target.Critical)
	}
}
