// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// what it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read pipe: %v", err)
	}
	return string(out)
}

func inMachineMode(t *testing.T) {
	t.Helper()
	orig := GetPersonality()
	t.Cleanup(func() { SetPersonality(orig) })
	SetPersonalityLevel(PersonalityMachine)
}

func TestSuccess_MachineMode(t *testing.T) {
	inMachineMode(t)
	out := captureStdout(t, func() { Success("sweep complete") })
	if out != "OK: sweep complete\n" {
		t.Errorf("Success output = %q", out)
	}
}

func TestTitle_MachineModeSilent(t *testing.T) {
	inMachineMode(t)
	out := captureStdout(t, func() { Title("AleutianDAB") })
	if out != "" {
		t.Errorf("Title in machine mode wrote %q", out)
	}
}

func TestBanner_MachineMode(t *testing.T) {
	inMachineMode(t)
	out := captureStdout(t, func() { Banner("dabserve", "1.0.0") })
	if out != "dabserve 1.0.0\n" {
		t.Errorf("Banner output = %q", out)
	}
}

func TestKeyValue_MachineMode(t *testing.T) {
	inMachineMode(t)
	out := captureStdout(t, func() { KeyValue("turns_ratio", "5.778") })
	if out != "turns_ratio=5.778\n" {
		t.Errorf("KeyValue output = %q", out)
	}
}

func TestTargetStatus_MachineMode(t *testing.T) {
	inMachineMode(t)
	out := captureStdout(t, func() { TargetStatus(1200, IconSuccess, "zone I") })
	if !strings.Contains(out, "1200") || !strings.Contains(out, "zone I") {
		t.Errorf("TargetStatus output = %q", out)
	}
}

func TestSweepSummary_MachineMode(t *testing.T) {
	inMachineMode(t)
	out := captureStdout(t, func() { SweepSummary(1000, 600, 400, 250*time.Millisecond) })
	if out != "SWEEP: evaluated=1000 kept=600 dropped=400 elapsed=250ms\n" {
		t.Errorf("SweepSummary output = %q", out)
	}
}

func TestSelectSummary_MachineMode(t *testing.T) {
	inMachineMode(t)
	out := captureStdout(t, func() { SelectSummary(340, 11) })
	if out != "SELECT: selected=340 no_solution=11\n" {
		t.Errorf("SelectSummary output = %q", out)
	}
}

func TestProgressBar(t *testing.T) {
	inMachineMode(t)
	if got := ProgressBar(3, 10, 20); got != "3/10" {
		t.Errorf("machine ProgressBar = %q", got)
	}

	SetPersonalityLevel(PersonalityFull)
	got := ProgressBar(5, 10, 20)
	if !strings.Contains(got, "50%") {
		t.Errorf("ProgressBar = %q, want 50%%", got)
	}
}

func TestIconRender_Unstyled(t *testing.T) {
	if got := IconArrow.Render(); got != "→" {
		t.Errorf("IconArrow.Render() = %q", got)
	}
}

func TestRepeatChar(t *testing.T) {
	if got := repeatChar('x', 3); got != "xxx" {
		t.Errorf("repeatChar = %q", got)
	}
	if got := repeatChar('x', 0); got != "" {
		t.Errorf("repeatChar(0) = %q", got)
	}
	if got := repeatChar('x', -1); got != "" {
		t.Errorf("repeatChar(-1) = %q", got)
	}
}
