// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-triage/internal/cachestore"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the response cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache entry counts and sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cachestore.New(loadPipelineConfig().Cache)
		info, err := store.Stat()
		if err != nil {
			return err
		}
		fmt.Printf("Cache directory: %s\n", info.Dir)
		fmt.Printf("TTL:             %s\n", info.TTL)
		fmt.Printf("Entries:         %d (%d valid, %d expired)\n",
			info.TotalFiles, info.ValidFiles, info.ExpiredFiles)
		fmt.Printf("Size:            %.2f MB\n", float64(info.TotalBytes)/(1024*1024))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [namespace]",
	Short: "Delete cache entries, optionally only one namespace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace := ""
		if len(args) > 0 {
			namespace = args[0]
		}
		store := cachestore.New(loadPipelineConfig().Cache)
		deleted, err := store.Clear(namespace)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d cache entries\n", deleted)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
