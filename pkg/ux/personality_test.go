// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import "testing"

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		input string
		want  PersonalityLevel
	}{
		{"full", PersonalityFull},
		{"f", PersonalityFull},
		{"FULL", PersonalityFull},
		{"standard", PersonalityStandard},
		{"std", PersonalityStandard},
		{"minimal", PersonalityMinimal},
		{"min", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{"quiet", PersonalityMachine},
		{"q", PersonalityMachine},
		{"bogus", PersonalityStandard},
		{"", PersonalityStandard},
	}
	for _, tt := range tests {
		if got := ParsePersonalityLevel(tt.input); got != tt.want {
			t.Errorf("ParsePersonalityLevel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSetPersonalityLevel(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)
	if got := GetPersonality().Level; got != PersonalityMachine {
		t.Errorf("Level = %q, want machine", got)
	}
	if ShouldShowProgress() {
		t.Error("ShouldShowProgress() = true in machine mode")
	}

	SetPersonalityLevel(PersonalityFull)
	if !ShouldShowProgress() {
		t.Error("ShouldShowProgress() = false in full mode")
	}
}

func TestSetPersonality_ReplacesAll(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonality(Personality{Level: PersonalityMinimal, Theme: "mono"})
	got := GetPersonality()
	if got.Level != PersonalityMinimal || got.Theme != "mono" {
		t.Errorf("GetPersonality() = %+v", got)
	}
}

func TestDefaultPersonality(t *testing.T) {
	d := DefaultPersonality()
	if d.Level != PersonalityFull {
		t.Errorf("default Level = %q, want full", d.Level)
	}
	if d.Theme != "default" {
		t.Errorf("default Theme = %q", d.Theme)
	}
}

func TestInitPersonality_EnvOverride(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	t.Setenv("DAB_PERSONALITY", "minimal")
	InitPersonality()
	if got := GetPersonality().Level; got != PersonalityMinimal {
		t.Errorf("Level after env init = %q, want minimal", got)
	}
}
