package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/af-corp/chatbot-gateway/internal/auth"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print a new key with its hash and prefix without storing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, _ := cmd.Flags().GetString("env")
		key, err := auth.GenerateKey(env)
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "key:    %s\n", key)
		fmt.Fprintf(out, "hash:   %s\n", auth.HashKey(key))
		fmt.Fprintf(out, "prefix: %s\n", auth.KeyPrefix(key))
		return nil
	},
}

func init() {
	generateCmd.Flags().StringP("env", "e", "live", "environment segment of the key")
}
