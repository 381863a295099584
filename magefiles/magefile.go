//go:build mage

// Package main provides build targets for the kungfu project using Mage.
//
// Usage:
//
//	mage build          Compile the kungfu binary to bin/
//	mage test           Run all tests
//	mage testRace       Run all tests with the race detector
//	mage cover          Write a coverage profile to bin/cover.out
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install kungfu to GOPATH/bin
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "kungfu"
	binaryDir  = "bin"
	cmdDir     = "./cmd/kungfu"
)

// version returns the version stamped into the binary: KUNGFU_VERSION if
// set, else the output of git describe, else empty to keep the default.
func version() string {
	if v := os.Getenv("KUNGFU_VERSION"); v != "" {
		return v
	}
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(out), "v")
}

// Build compiles the kungfu binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if v := version(); v != "" {
		args = append(args, "-ldflags", "-X main.Version="+v)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Test runs all tests.
func Test() error {
	return sh.RunV(binGo, "test", "./...")
}

// TestRace runs all tests with the race detector.
func TestRace() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs all tests and writes a coverage profile to bin/cover.out.
func Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, "cover.out")
	if err := sh.RunV(binGo, "test", "-coverprofile="+profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+profile)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
