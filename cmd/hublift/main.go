package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configDir  string
	jsonOutput bool
	quietFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "hublift",
	Short: "hublift - GitHub repository importer",
	Long:  `Imports a GitHub repository into a local project: git refs, labels, milestones, pull requests, issues, comments and the wiki.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("hublift version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding hublift.yaml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

// ownerUsername picks the local account name for the bootstrap owner.
// Priority: git config user.name > $USER > "hublift"
func ownerUsername() string {
	if out, err := exec.Command("git", "config", "user.name").Output(); err == nil {
		if name := strings.TrimSpace(string(out)); name != "" {
			return name
		}
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "hublift"
}

// ownerEmail returns the bootstrap owner's email, or "" when git has
// none configured.
func ownerEmail() string {
	if out, err := exec.Command("git", "config", "user.email").Output(); err == nil {
		return strings.TrimSpace(string(out))
	}
	return ""
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
