// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command dabopt is the batch CLI for the AleutianDAB optimizer.
//
// # Usage
//
//	dabopt design                 # print derived design constants
//	dabopt sweep                  # generate the candidate table
//	dabopt select --candidates f  # select targets from an existing table
//	dabopt run                    # full pipeline
//	dabopt solve --zone I --v2 50 --target 1200 --d1 0.6 --d2 0.5
package main

import (
	"os"
)

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
