// Package report prints the user-facing run output: per-primitive step
// lines, success/failure markers, and the post-run transaction report.
package report

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

// Step prints a single primitive line prefixed with a direction icon.
func Step(icon, text string) {
	fmt.Printf(" %s %s\n", icon, text)
}

// Header announces a run.
func Header(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// Success prints a green checkmarked line.
func Success(format string, args ...any) {
	green.Printf(" ✓ "+format+"\n", args...)
}

// Failure prints a red cross line.
func Failure(format string, args ...any) {
	red.Printf(" ✗ "+format+"\n", args...)
}

// Warn prints a yellow warning line.
func Warn(format string, args ...any) {
	yellow.Printf(" ! "+format+"\n", args...)
}

// TxReport prints the structured post-run report: the transaction error,
// then the rollback outcome when a rollback was attempted.
func TxReport(name string, txErr, rbErr error, rolledBack bool) {
	fmt.Println("-------")
	if txErr == nil {
		fmt.Printf("Transaction %q succeeded.\n", name)
		return
	}
	red.Printf("Transaction %q error: %v\n", name, txErr)
	if !rolledBack {
		return
	}
	fmt.Println("-------")
	if rbErr != nil {
		red.Printf("Rollback error: %v\n", rbErr)
	} else {
		green.Println("Rollback succeeded.")
	}
}
