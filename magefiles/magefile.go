//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main contains Mage build targets for nmr-reporter developer tooling.
package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default builds the CLI.
var Default = Build

const (
	binDir     = "bin"
	binName    = "nmr-reporter"
	cmdPkg     = "./cmd/nmr-reporter"
	storeDir   = "nmr-store"
	configFile = "nmr-reporter.yaml"
)

const sampleConfig = `parser:
  markers: "/*%"
  workers: 0
  collect_errors: false
store:
  dir: nmr-store
  max_results: 50
output: summary
`

// Init creates the store directory and a sample nmr-reporter.yaml.
func Init() error {
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", storeDir, err)
	}
	fmt.Println("  ", storeDir)

	if _, err := os.Stat(configFile); err == nil {
		fmt.Println("  ", configFile, "(kept)")
	} else {
		if err := os.WriteFile(configFile, []byte(sampleConfig), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", configFile, err)
		}
		fmt.Println("  ", configFile)
	}
	fmt.Println("Project initialized.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs every package's tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Run builds the CLI and performs the tasks of doc, writing out.
func Run(doc, out string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "run", doc, "-o", out)
}

// Ingest builds the CLI and saves the spectra of doc to the store.
func Ingest(doc string) error {
	mg.Deps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), "store", "ingest", doc)
}

// Stats prints project metrics: Go production and test lines, and
// documentation words.
func Stats() error {
	var prodLines, testLines, docWords int
	err := walkSources(".", func(path string, data []byte) {
		switch {
		case strings.HasSuffix(path, "_test.go"):
			testLines += countLines(data)
		case strings.HasSuffix(path, ".go"):
			prodLines += countLines(data)
		case strings.HasSuffix(path, ".md"):
			docWords += len(bytes.Fields(data))
		}
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (documentation):          %d\n", docWords)
	return nil
}

// walkSources calls visit with the content of every file under root,
// skipping directories whose names start with "." or "_", bin/ and the store.
func walkSources(root string, visit func(path string, data []byte)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == binDir || name == storeDir) {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		visit(path, data)
		return nil
	})
}

// countLines counts non-blank lines.
func countLines(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}
