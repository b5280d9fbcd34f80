package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var offsiteCmd = &cobra.Command{
	Use:   "offsite",
	Short: "Replicate snapshots to the configured vault",
}

var offsitePushCmd = &cobra.Command{
	Use:   "push DATE",
	Short: "Upload a snapshot and its image archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("OffsitePush")
		if err != nil {
			return err
		}

		keys, err := a.OffsitePush(args[0])
		if err != nil {
			return finish(a, fmt.Errorf("pushing %s: %w", args[0], err))
		}
		for _, k := range keys {
			fmt.Printf("uploaded %s\n", k)
		}
		return finish(a, nil)
	},
}

var offsitePullCmd = &cobra.Command{
	Use:   "pull DATE",
	Short: "Download a snapshot from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("OffsitePull")
		if err != nil {
			return err
		}

		passphrase := ""
		if a.OffsiteEncrypted() {
			passphrase, err = promptPassword("Passphrase for the private key")
			if err != nil {
				return finish(a, err)
			}
		}

		keys, err := a.OffsitePull(args[0], passphrase)
		if err != nil {
			return finish(a, fmt.Errorf("pulling %s: %w", args[0], err))
		}
		for _, k := range keys {
			fmt.Printf("downloaded %s\n", k)
		}
		return finish(a, nil)
	},
}

var offsiteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshot dates stored in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("OffsiteList")
		if err != nil {
			return err
		}

		dates, err := a.OffsiteList()
		if err != nil {
			return finish(a, err)
		}
		if len(dates) == 0 {
			fmt.Println("The vault holds no snapshots.")
		}
		for _, d := range dates {
			fmt.Println(d)
		}
		return finish(a, nil)
	},
}

var offsiteCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the vault is reachable and writable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("OffsiteCheck")
		if err != nil {
			return err
		}

		if err := a.ValidateOffsite(); err != nil {
			return finish(a, fmt.Errorf("vault check failed: %w", err))
		}
		fmt.Println("Vault OK")
		return finish(a, nil)
	},
}

func init() {
	offsiteCmd.AddCommand(offsitePushCmd)
	offsiteCmd.AddCommand(offsitePullCmd)
	offsiteCmd.AddCommand(offsiteListCmd)
	offsiteCmd.AddCommand(offsiteCheckCmd)
}
