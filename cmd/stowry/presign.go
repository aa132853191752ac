package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowry/keyring"
	"github.com/sagarc03/stowry/sign"
)

var presignCmd = &cobra.Command{
	Use:   "presign <method> <key>",
	Short: "Mint a presigned URL",
	Long: `Mint a presigned URL authorizing exactly one operation on one object.

The URL is signed with the active configured access key and printed to
stdout, ready to hand to any HTTP client:

  stowry presign PUT /uploads/report.pdf --expires 15m --content-type application/pdf
  stowry presign GET /uploads/report.pdf`,
	Args: cobra.ExactArgs(2),
	RunE: runPresign,
}

func init() {
	presignCmd.Flags().String("endpoint", "http://localhost:5708", "gateway base URL bound into the signature")
	presignCmd.Flags().Duration("expires", 15*time.Minute, "validity window")
	presignCmd.Flags().String("content-type", "", "bind a content type into the signature (PUT)")
	presignCmd.Flags().String("scheme", "native", "signing scheme: native or aws")

	rootCmd.AddCommand(presignCmd)
}

func runPresign(cmd *cobra.Command, args []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}

	keys, err := keyring.Load(cfg.Auth.Keys)
	if err != nil {
		return fmt.Errorf("load access keys: %w", err)
	}

	var scheme sign.Scheme
	schemeName, _ := cmd.Flags().GetString("scheme")
	switch schemeName {
	case "native":
		scheme = sign.NewNativeScheme()
	case "aws":
		scheme = sign.NewAWSScheme(cfg.Auth.Region, cfg.Auth.Service)
	default:
		return fmt.Errorf("unknown scheme: %s", schemeName)
	}

	endpoint, _ := cmd.Flags().GetString("endpoint")
	signer, err := sign.NewSigner(scheme, keys, sign.SignerConfig{
		Endpoint:  endpoint,
		MaxExpiry: time.Duration(cfg.Auth.MaxExpiry) * time.Second,
	})
	if err != nil {
		return err
	}

	expires, _ := cmd.Flags().GetDuration("expires")
	contentType, _ := cmd.Flags().GetString("content-type")

	url, err := signer.Presign(sign.Request{
		Method:      strings.ToUpper(args[0]),
		Key:         args[1],
		ContentType: contentType,
		Expires:     expires,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}
