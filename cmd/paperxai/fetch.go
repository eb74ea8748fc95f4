// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the newest papers and update the paper store",
	Long: `Fetch queries the arXiv API for the newest submissions in the configured
categories and merges them into <data_dir>/arxiv/base_papers.csv. Papers not
seen before are written to current_papers.csv. The base is not updated again
until its newest paper is at least 24 hours old.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int("max-results", 0, "maximum papers to fetch (default: max_results from the config)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := setup(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	maxResults, _ := cmd.Flags().GetInt("max-results")
	res, err := p.Fetch(ctx, maxResults)
	if err != nil {
		return err
	}

	if !res.Persist.Written {
		fmt.Fprintf(os.Stdout, "fetched %d papers; store unchanged\n", res.Fetched)
		return nil
	}
	fmt.Fprintf(os.Stdout, "fetched: %d, new: %d, base: %d, pruned: %d\n",
		res.Fetched, len(res.Persist.New), len(res.Persist.Base), res.Persist.Pruned)
	return nil
}
