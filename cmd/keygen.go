package cmd

import (
	"fmt"

	"vault-inventory/core/codec"

	"github.com/spf13/cobra"
)

// keygenCmd prints a fresh encryption key.
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a payload encryption key",
	Long:  `Prints a random 256-bit key, base64 encoded, suitable for ENCRYPTION_KEY.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := codec.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(keygenCmd)
}
