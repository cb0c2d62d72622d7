//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

// Build compiles the project binaries into the bin/ directory.
func Build() error {
	fmt.Println("Building...")
	return sh.Run("go", "build", "-o", "./bin/mkxlsx", "./cmd/mkxlsx")
}

// Install copies the mkxlsx binary to /usr/local/bin.
func Install() error {
	mg.Deps(Build)
	fmt.Println("Installing...")
	return sh.Run("cp", "bin/mkxlsx", "/usr/local/bin/mkxlsx")
}

// Test runs all tests in the project with verbose output.
func Test() error {
	fmt.Println("Running Tests...")
	return sh.Run("go", "test", "-v", "./...")
}

// TestSpecific runs the end-to-end combine tests only.
func TestSpecific() error {
	fmt.Println("Running Specific Test...")
	return sh.Run("go", "test", "-test.fullpath=true", "-timeout", "30s", "-run", "^TestCombine", "github.com/darianmavgo/mkxlsx/converters")
}

// Bench runs the title and delimiter benchmarks.
func Bench() error {
	fmt.Println("Running Benchmarks...")
	return sh.Run("go", "test", "-run", "^$", "-bench", ".", "-benchmem", "./converters/...")
}

// Sample combines the files in testdata/ into test_output/combined.xlsx.
func Sample() error {
	mg.Deps(Build)
	if err := os.MkdirAll("test_output", 0755); err != nil {
		return err
	}
	return sh.RunV("./bin/mkxlsx", "-i", "testdata", "-o", "test_output/combined.xlsx", "--ext", ".csv,.tsv", "-v")
}

// Clean removes the bin directory and test outputs.
func Clean() error {
	fmt.Println("Cleaning...")
	if err := os.RemoveAll("bin"); err != nil {
		return err
	}
	if err := os.RemoveAll("test_output"); err != nil {
		return err
	}
	return nil
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println("Running go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Check runs formatting and linting checks (fmt, vet).
func Check() error {
	mg.Deps(Fmt, Vet)
	return nil
}

// Fmt runs go fmt ./...
func Fmt() error {
	fmt.Println("Running go fmt...")
	return sh.Run("go", "fmt", "./...")
}

// Vet runs go vet ./...
func Vet() error {
	fmt.Println("Running go vet...")
	return sh.Run("go", "vet", "./...")
}
