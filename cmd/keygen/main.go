package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Issue API keys for widget clients",
	Long: `keygen creates the API keys that embedded chat widgets send in the
X-API-Key header. Only the SHA-256 hash of a key is stored; the raw key is
printed once.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(generateCmd, createCmd, revokeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
