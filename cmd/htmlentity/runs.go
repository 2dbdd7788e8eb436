// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var flagLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored parse runs",
	Args:  cobra.NoArgs,
	RunE:  runListRuns,
}

var deleteRunCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run with its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := newApp(true)
		if err != nil {
			return err
		}
		defer closeApp()
		if err := a.DeleteRun(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(deleteRunCmd)
	runsCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Maximum number of runs to list, 0 for all")
}

func runListRuns(cmd *cobra.Command, args []string) error {
	a, closeApp, err := newApp(true)
	if err != nil {
		return err
	}
	defer closeApp()

	runs, err := a.ListRuns(flagLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	fmt.Fprintf(out, "%-36s %-20s %-11s %-8s %-8s %s\n", "Run ID", "Started", "State", "Docs", "Records", "URLs")
	for _, r := range runs {
		started := time.Unix(0, r.StartedAt).Format("2006-01-02 15:04:05")
		fmt.Fprintf(out, "%-36s %-20s %-11s %-8d %-8d %s\n", r.ID, started, r.State, r.Documents, r.RecordCount, truncate(strings.Join(r.URLs, " "), 60))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
