// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianDAB/pkg/ux"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
)

// runDesignCommand derives the design and prints the constants plus the
// per-V2 scale parameter table.
func runDesignCommand(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fatal(err)
	}
	design, err := cfg.DeriveDesign()
	if err != nil {
		fatal(err)
	}

	ux.Title("Converter design")
	ux.KeyValue("formula_set", design.Kind.String())
	ux.KeyValue("v1_v", fmt.Sprintf("%g", design.V1V))
	ux.KeyValue("fs_hz", fmt.Sprintf("%g", design.FsHz))
	ux.KeyValue("p_max_w", fmt.Sprintf("%g", design.PMaxW))
	ux.KeyValue("m_star", fmt.Sprintf("%g", design.MStar))
	ux.KeyValue("turns_ratio_n", fmt.Sprintf("%.4f", design.N))
	ux.KeyValue("inductance_h", fmt.Sprintf("%.4e", design.L))
	if design.Kind == region.KindZone {
		ux.KeyValue("p_star", fmt.Sprintf("%.4f", design.PStar))
	}
	ux.KeyValue("scale_p_w", fmt.Sprintf("%.2f", design.ScaleP))
	ux.KeyValue("scale_i_a", fmt.Sprintf("%.4f", design.ScaleI))

	fmt.Println()
	fmt.Printf("%10s %8s %8s %8s %8s\n", "V2_V", "m", "pc1", "pc2", "pLimit")
	for _, v2 := range design.DesignPoints() {
		m := design.M(v2)
		fmt.Printf("%10.2f %8.4f %8.4f %8.4f %8.4f\n",
			v2, m, region.Pc1(m), region.Pc2(m), design.PLimit(m))
	}
}
