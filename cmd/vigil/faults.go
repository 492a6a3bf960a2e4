package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vigilsys/vigil/pkg/config"
	"github.com/vigilsys/vigil/pkg/faultlog"
	"github.com/vigilsys/vigil/pkg/log"
)

var faultsCmd = &cobra.Command{
	Use:   "faults",
	Short: "Inspect and manage persisted fault records",
}

func openFaultStore(cmd *cobra.Command) (*faultlog.DirStore, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	log.Init(log.Config{Level: log.WarnLevel})
	return faultlog.NewDirStore(cfg.Storage.FaultDir, buildClock(cfg))
}

var faultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fault records and their ages",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openFaultStore(cmd)
		if err != nil {
			return err
		}

		records, err := store.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No fault records.")
			return nil
		}

		for _, rec := range records {
			age := time.Since(rec.ModTime).Round(time.Minute)
			fmt.Printf("%s\t%s old\n", rec.Name, age)
		}
		fmt.Printf("\n%d record(s). Crash budget is consumed when the count exceeds max_resets.\n", len(records))
		return nil
	},
}

var faultsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete fault records older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		maxAge, _ := cmd.Flags().GetInt("max-age-hours")

		store, err := openFaultStore(cmd)
		if err != nil {
			return err
		}

		found, deleted, err := store.Purge(maxAge)
		if err != nil {
			return err
		}
		fmt.Printf("Found %d record(s), deleted %d.\n", found, deleted)
		return nil
	},
}

var faultsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all fault records, resetting the crash budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openFaultStore(cmd)
		if err != nil {
			return err
		}

		removed, err := store.Clear()
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d record(s).\n", removed)
		return nil
	},
}

func init() {
	faultsCmd.AddCommand(faultsListCmd)
	faultsCmd.AddCommand(faultsPurgeCmd)
	faultsCmd.AddCommand(faultsClearCmd)

	faultsPurgeCmd.Flags().Int("max-age-hours", faultlog.DefaultRetentionHours, "Delete records older than this many hours")
}
