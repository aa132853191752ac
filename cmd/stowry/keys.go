package main

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/stowry"
	"github.com/sagarc03/stowry/keyring"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage access keys",
}

var keysAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add an access key to a keys file",
	Long: `Add an access key pair to a JSON or YAML keys file, prompting for the
id and secret. The file is created if it does not exist. The newest key
in the file becomes the active signing key, which is how rotation works:
add a key and new URLs use it while URLs signed by older keys keep
verifying.`,
	Args: cobra.ExactArgs(1),
	RunE: runKeysAdd,
}

var keysNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a random access key pair",
	RunE:  runKeysNew,
}

func init() {
	keysAddCmd.Flags().String("region", "", "region recorded on the key")

	keysCmd.AddCommand(keysAddCmd)
	keysCmd.AddCommand(keysNewCmd)
	rootCmd.AddCommand(keysCmd)
}

func runKeysAdd(cmd *cobra.Command, args []string) error {
	path := args[0]

	idPrompt := promptui.Prompt{
		Label: "Access key id",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("access key id cannot be empty")
			}
			return nil
		},
	}
	id, err := idPrompt.Run()
	if err != nil {
		return err
	}

	secretPrompt := promptui.Prompt{
		Label: "Secret key",
		Mask:  '*',
		Validate: func(s string) error {
			if len(s) < 16 {
				return errors.New("secret key must be at least 16 characters")
			}
			return nil
		},
	}
	secret, err := secretPrompt.Run()
	if err != nil {
		return err
	}

	region, _ := cmd.Flags().GetString("region")

	keys, err := keyring.LoadKeysFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	for _, k := range keys {
		if k.ID == id {
			return fmt.Errorf("access key %s already exists in %s", id, path)
		}
	}

	keys = append(keys, stowry.AccessKey{ID: id, Secret: secret, Region: region})

	var data []byte
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(keys)
	default:
		data, err = json.MarshalIndent(keys, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode keys file: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write keys file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s (%d keys)\n", id, path, len(keys))
	return nil
}

func runKeysNew(cmd *cobra.Command, args []string) error {
	idBytes := make([]byte, 10)
	secretBytes := make([]byte, 30)
	if _, err := rand.Read(idBytes); err != nil {
		return err
	}
	if _, err := rand.Read(secretBytes); err != nil {
		return err
	}

	id := "STWR" + base32.StdEncoding.EncodeToString(idBytes)
	secret := base64.StdEncoding.EncodeToString(secretBytes)

	fmt.Fprintf(cmd.OutOrStdout(), "access_key: %s\nsecret_key: %s\n", id, secret)
	return nil
}
