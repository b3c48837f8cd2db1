package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/auth_service/internal/keys"
)

func keygenCmd() *cobra.Command {
	var (
		out  string
		bits int
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the RSA key pair used to sign access tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			priv, pub, err := keys.GeneratePEM(bits)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(out, 0o700); err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			privPath := filepath.Join(out, "private.pem")
			if err := os.WriteFile(privPath, priv, 0o600); err != nil {
				return fmt.Errorf("write private key: %w", err)
			}
			pubPath := filepath.Join(out, "public.pem")
			if err := os.WriteFile(pubPath, pub, 0o644); err != nil {
				return fmt.Errorf("write public key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", privPath, pubPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "certs", "output directory")
	cmd.Flags().IntVar(&bits, "bits", keys.DefaultBits, "RSA key size")
	return cmd
}
