// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/tikcccc/EPD-Tender/internal/document"
	"github.com/tikcccc/EPD-Tender/internal/evidenceservice"
	"github.com/tikcccc/EPD-Tender/internal/evidenceweb"
	"github.com/tikcccc/EPD-Tender/internal/locator"
	"github.com/tikcccc/EPD-Tender/internal/pdfindex"
	"github.com/tikcccc/EPD-Tender/internal/resolveconfig"
)

func main() {
	webMode := flag.Bool("web", false, "Start web server mode instead of one-shot locate")
	webPort := flag.String("port", "8080", "Port for web server (default: 8080)")
	pdfPath := flag.String("pdf", "", "Path to the PDF file to search (one-shot locate mode)")
	evidenceText := flag.String("evidence", "", "Evidence text to locate within the PDF")
	clauseKeyword := flag.String("clause", "", "Optional clause keyword hint, e.g. '18.3'")
	configFile := flag.String("config", "", "Path to YAML configuration file overriding the locator defaults")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	asJSON := flag.Bool("json", false, "Print the one-shot locate result as JSON")
	flag.Parse()

	if *noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	cfg := resolveconfig.Load(*configFile)

	if *webMode {
		if err := runWebMode(*webPort, cfg); err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
			os.Exit(1)
		}
		return
	}

	if *pdfPath == "" || *evidenceText == "" {
		fmt.Fprintln(os.Stderr, "evidence-locator: --pdf and --evidence are required in one-shot mode (or pass --web to start the server)")
		flag.Usage()
		os.Exit(2)
	}

	if err := runLocate(*pdfPath, *evidenceText, *clauseKeyword, cfg, *asJSON); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

// runLocate builds a one-off index for a single PDF and prints the
// locator's decision, colored by status the way the teacher's text
// formatter colors findings by confidence.
func runLocate(pdfPath, evidenceText, clauseKeyword string, cfg resolveconfig.Config, asJSON bool) error {
	cache := pdfindex.NewCache(pdfindex.NewEngine())

	ctx, cancel := locator.NewRequestDeadline(context.Background(), 20*time.Second)
	defer cancel()

	result, err := locator.Locate(ctx, cache, pdfPath, evidenceText, clauseKeyword, cfg)
	if err != nil {
		return fmt.Errorf("locate: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	return nil
}

func printResult(result locator.Result) {
	statusColor := statusColorFor(string(result.Status))

	fmt.Printf("Status:       %s\n", statusColor.Sprint(result.Status))
	fmt.Printf("Match method: %s\n", result.MatchMethod)
	fmt.Printf("Score:        %.2f\n", result.MatchScore)
	fmt.Printf("Page:         %d\n", result.Page)
	if result.Quote != "" {
		fmt.Printf("Quote:        %s\n", result.Quote)
	}
	if result.BBox != nil {
		fmt.Printf("BBox:         [%.1f %.1f %.1f %.1f]\n", result.BBox.X0, result.BBox.Y0, result.BBox.X1, result.BBox.Y1)
	}
	for i, r := range result.BBoxes {
		fmt.Printf("Highlight[%d]: [%.1f %.1f %.1f %.1f]\n", i, r.X0, r.Y0, r.X1, r.Y1)
	}
}

func statusColorFor(status string) *color.Color {
	switch status {
	case "resolved_exact":
		return color.New(color.FgGreen, color.Bold)
	case "resolved_approximate":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// runWebMode wires the document registry, PDF index cache, and evidence
// service behind the evidenceweb HTTP surface, in the style of the
// teacher's startWebServer/handleWebMode split in cmd/main.go.
func runWebMode(port string, cfg resolveconfig.Config) error {
	registry := document.NewRegistry()
	if err := document.SeedEmbedded(registry); err != nil {
		return fmt.Errorf("seed document registry: %w", err)
	}
	cache := pdfindex.NewCache(pdfindex.NewEngine())
	svc := evidenceservice.New(registry, cache, cfg)
	server := evidenceweb.NewServer(port, svc)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Println("\nevidence-locator: shutting down")
		return server.Stop()
	}
}
