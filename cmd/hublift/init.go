package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hublift/hublift/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter hublift.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.Path(configDir)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		cfg := config.Default()
		cfg.Repo, _ = cmd.Flags().GetString("repo")
		cfg.Project, _ = cmd.Flags().GetString("project")
		if err := cfg.Save(configDir); err != nil {
			return err
		}

		if !quietFlag {
			fmt.Printf("Wrote %s\n", path)
			fmt.Println("Set the access token via HUBLIFT_TOKEN before running 'hublift import'.")
		}
		return nil
	},
}

func init() {
	initCmd.Flags().String("repo", "", "GitHub repository (owner/name)")
	initCmd.Flags().String("project", "", "Local project path (namespace/name, default: same as repo)")

	rootCmd.AddCommand(initCmd)
}
