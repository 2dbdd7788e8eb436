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
	"io"
	"os"
	"time"

	"github.com/agentberlin/htmlentity/internal/app"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// Flag variables.
var (
	flagEntities       string
	flagOut            string
	flagSave           bool
	flagDownloadDir    string
	flagFlatten        bool
	flagInterval       time.Duration
	flagThreads        int
	flagFetchResources bool
	flagRespectRobots  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <url>...",
	Short: "Parse documents into entity records",
	Long: `Parse reads every URL, extracts the entities described by the YAML
definitions file and prints the records as JSON.

Examples:
  htmlentity parse https://example.com/catalog -e products.yaml
  htmlentity parse https://example.com/a https://example.com/b -e defs.yaml --save
  htmlentity parse file:///tmp/page.html -e defs.yaml --download-dir ./assets --flatten`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&flagEntities, "entities", "e", "", "YAML entity definitions file (required)")
	parseCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Write the JSON result to this file instead of stdout")
	parseCmd.Flags().BoolVar(&flagSave, "save", false, "Store the run in the database")
	parseCmd.Flags().StringVar(&flagDownloadDir, "download-dir", "", "Directory for downloaded resources (default: a temporary directory)")
	parseCmd.Flags().BoolVar(&flagFlatten, "flatten", false, "Write downloads directly into the download directory")
	parseCmd.Flags().DurationVar(&flagInterval, "interval", 15*time.Millisecond, "Minimum interval between downloads, 0 disables the limit")
	parseCmd.Flags().IntVar(&flagThreads, "threads", 4, "Documents parsed concurrently")
	parseCmd.Flags().BoolVar(&flagFetchResources, "fetch-resources", false, "Download every image, script and stylesheet of the documents")
	parseCmd.Flags().BoolVar(&flagRespectRobots, "respect-robots", false, "Honor robots.txt when reading documents")
	_ = parseCmd.MarkFlagRequired("entities")
}

func runParse(cmd *cobra.Command, args []string) error {
	definitions, err := os.ReadFile(flagEntities)
	if err != nil {
		return fmt.Errorf("failed to read definitions: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("flatten") {
		cfg.Flatten = flagFlatten
	}
	if flags.Changed("interval") {
		cfg.RemoteInterval = flagInterval
	}
	if flags.Changed("threads") {
		cfg.Threads = flagThreads
	}
	if flags.Changed("respect-robots") {
		cfg.RespectRobotsTxt = flagRespectRobots
	}

	a, closeApp, err := newApp(flagSave)
	if err != nil {
		return err
	}
	defer closeApp()

	resp, err := a.Parse(cmd.Context(), app.ParseRequest{
		URLs:           args,
		Definitions:    string(definitions),
		Save:           flagSave,
		DownloadDir:    flagDownloadDir,
		FetchResources: flagFetchResources,
	})
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	data, err := sonic.ConfigStd.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}

	failed := 0
	for _, d := range resp.Documents {
		if d.Error != "" {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", d.URL, d.Error)
		}
	}
	if resp.RunID != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", resp.RunID)
	}
	if failed == len(resp.Documents) {
		return fmt.Errorf("all %d documents failed", failed)
	}
	return nil
}
