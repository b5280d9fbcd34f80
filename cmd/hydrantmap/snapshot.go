package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hydrantmap/internal/hydrant"
)

var snapshotActor string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage dated snapshots of the hydrant collection",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List retained snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SnapshotList")
		if err != nil {
			return err
		}

		snapshots, err := a.Service().ListSnapshots()
		if err != nil {
			return finish(a, err)
		}
		if len(snapshots) == 0 {
			fmt.Println("No snapshots yet.")
			return finish(a, nil)
		}

		yellow := color.New(color.FgYellow)
		red := color.New(color.FgRed)
		for _, s := range snapshots {
			yellow.Printf("%s  ", s.Date)
			if s.Corrupt {
				red.Printf("CORRUPT  %s\n", s.Filename)
				continue
			}
			kind := "manual"
			if s.Meta.Auto {
				kind = "auto"
			}
			images := ""
			if s.HasImages {
				images = fmt.Sprintf("  +images (%s)", humanSize(s.ImagesSize))
			}
			fmt.Printf("%5d hydrants  %-6s  by %-10s  %s%s\n",
				s.Meta.HydrantCount, kind, s.Meta.CreatedBy, humanSize(s.Size), images)
		}
		return finish(a, nil)
	},
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Take a snapshot of the live collection now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SnapshotCreate")
		if err != nil {
			return err
		}

		var images *bool
		if cmd.Flags().Changed("images") {
			v, _ := cmd.Flags().GetBool("images")
			images = &v
		}

		info, err := a.CreateSnapshot(snapshotActor, images)
		if err != nil {
			return finish(a, fmt.Errorf("creating snapshot: %w", err))
		}
		color.Green("Snapshot %s created with %d hydrants", info.Date, info.Meta.HydrantCount)
		if info.Meta.ImagesBackedUp {
			fmt.Printf("Image archive: %s\n", humanSize(info.ImagesSize))
		}
		return finish(a, nil)
	},
}

var snapshotPreviewCmd = &cobra.Command{
	Use:   "preview DATE",
	Short: "Show the first hydrants of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SnapshotPreview")
		if err != nil {
			return err
		}

		p, err := a.Service().PreviewSnapshot(args[0])
		if err != nil {
			return finish(a, err)
		}
		fmt.Printf("Snapshot %s: %d hydrants, created %s by %s\n",
			args[0], p.HydrantCount, p.Meta.Created.Format("2006-01-02 15:04:05"), p.Meta.CreatedBy)
		for _, h := range p.Hydrants {
			fmt.Printf("  %-36s  %-12s  %9.5f %10.5f  %s\n", h.ID, h.Type, h.Lat, h.Lng, h.Title)
		}
		if p.HydrantCount > len(p.Hydrants) {
			fmt.Printf("  ... and %d more\n", p.HydrantCount-len(p.Hydrants))
		}
		return finish(a, nil)
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore DATE",
	Short: "Replace the live collection with a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SnapshotRestore")
		if err != nil {
			return err
		}

		result, err := a.RestoreSnapshot(args[0], snapshotActor)
		if err != nil {
			return finish(a, fmt.Errorf("restoring snapshot: %w", err))
		}
		color.Green("Restored %d hydrants from %s", result.HydrantsRestored, result.Date)
		fmt.Printf("Previous state saved as %s\n", result.BackupCreated)
		return finish(a, nil)
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete DATE",
	Short: "Delete a snapshot and its image archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SnapshotDelete")
		if err != nil {
			return err
		}

		if err := a.Service().DeleteSnapshot(args[0]); err != nil {
			return finish(a, err)
		}
		fmt.Printf("Snapshot %s deleted\n", args[0])
		return finish(a, nil)
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List pre-restore backups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("BackupList")
		if err != nil {
			return err
		}

		backups, err := a.Service().ListBackups()
		if err != nil {
			return finish(a, err)
		}
		if len(backups) == 0 {
			fmt.Println("No pre-restore backups.")
			return finish(a, nil)
		}

		red := color.New(color.FgRed)
		for _, b := range backups {
			if b.Corrupt {
				red.Printf("CORRUPT  %s\n", b.Filename)
				continue
			}
			fmt.Printf("%s  %5d hydrants  by %s\n", b.Filename, b.Meta.HydrantCount, b.Meta.CreatedBy)
		}
		return finish(a, nil)
	},
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func init() {
	snapshotCmd.PersistentFlags().StringVar(&snapshotActor, "as", hydrant.ActorSystem, "Name recorded as the actor")
	snapshotCreateCmd.Flags().Bool("images", false, "Archive the photo uploads (default from settings)")

	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotPreviewCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
}
