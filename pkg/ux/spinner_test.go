// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"errors"
	"strings"
	"testing"
)

func TestSpinner_MachineMode(t *testing.T) {
	inMachineMode(t)

	out := captureStdout(t, func() {
		s := NewSpinner("sweeping grid")
		s.Start()
		s.Stop()
	})
	if out != "PROGRESS: sweeping grid\n" {
		t.Errorf("spinner output = %q", out)
	}
}

func TestSpinner_DoubleStartStop(t *testing.T) {
	inMachineMode(t)

	captureStdout(t, func() {
		s := NewSpinner("work")
		s.Start()
		s.Start()
		s.Stop()
		s.Stop()
	})
}

func TestSpinner_WithType(t *testing.T) {
	s := NewSpinner("x").WithType(SpinnerCompass)
	if s.spinType != SpinnerCompass {
		t.Errorf("spinType = %d", s.spinType)
	}
}

func TestWithSpinner_Error(t *testing.T) {
	inMachineMode(t)

	wantErr := errors.New("no feasible region")
	var got error
	out := captureStdout(t, func() {
		got = WithSpinner("deriving design", func() error { return wantErr })
	})
	if !errors.Is(got, wantErr) {
		t.Errorf("WithSpinner error = %v", got)
	}
	if !strings.Contains(out, "PROGRESS: deriving design") {
		t.Errorf("output = %q", out)
	}
}

func TestWithSpinner_Success(t *testing.T) {
	inMachineMode(t)

	var got error
	out := captureStdout(t, func() {
		got = WithSpinner("writing csv", func() error { return nil })
	})
	if got != nil {
		t.Errorf("WithSpinner error = %v", got)
	}
	if !strings.Contains(out, "OK: writing csv") {
		t.Errorf("output = %q", out)
	}
}

func TestProgressSpinner_Increment(t *testing.T) {
	orig := GetPersonality()
	t.Cleanup(func() { SetPersonality(orig) })
	SetPersonalityLevel(PersonalityFull)

	p := NewProgressSpinner("targets", 10)
	p.Increment()
	p.Increment()
	if !strings.Contains(p.message, "[2/10]") {
		t.Errorf("message = %q", p.message)
	}

	p.SetProgress(7)
	if !strings.Contains(p.message, "[7/10]") {
		t.Errorf("message = %q", p.message)
	}
}
