// Command keygen generates a composite RSA-style key pair and writes it as
// two wire-form key files, the Go analogue of the original project's
// keygen.py tool.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/solheim-systems/simplecoin/internal/keygen"
)

func main() {
	var bits int
	var outDir string
	var name string

	root := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a composite RSA-style key pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			kp, err := keygen.Generate(bits)
			if err != nil {
				return fmt.Errorf("keygen: %w", err)
			}
			if err := kp.WriteFiles(outDir, name); err != nil {
				return fmt.Errorf("keygen: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s_public.key and %s_private.key to %s (%s)\n",
				name, name, outDir, time.Since(start))
			return nil
		},
	}

	flags := root.Flags()
	flags.IntVar(&bits, "bits", keygen.DefaultBits, "bit length of each RSA prime factor")
	flags.StringVar(&outDir, "out", ".", "directory to write the key files to")
	flags.StringVar(&name, "name", "wallet", "base name for the generated key files")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
