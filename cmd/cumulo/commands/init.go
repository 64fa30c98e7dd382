package commands

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/cumulo-cloud/cumulo/internal/cli/prompt"
	"github.com/cumulo-cloud/cumulo/pkg/api"
	"github.com/cumulo-cloud/cumulo/pkg/config"
)

var (
	initForce          bool
	initNonInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a configuration file",
	Long: `Initialize a Cumulo configuration file with sensible defaults.

By default, the configuration file is created at
$XDG_CONFIG_HOME/cumulo/config.yaml. Use --config to specify a custom
path. The command prompts for the initial admin credentials; pass
--non-interactive to skip the prompts and let the server generate an
admin password on first start.

Examples:
  # Initialize with default location
  cumulo init

  # Initialize with custom path
  cumulo init --config /etc/cumulo/config.yaml

  # Force overwrite existing config
  cumulo init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "Skip admin credential prompts")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	cfg := config.GetDefaultConfig()

	// Random development secret so the server starts out of the box
	secret, err := randomHex(32)
	if err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	cfg.API.JWT.Secret = secret

	if !initNonInteractive {
		if err := promptAdmin(cfg); err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				return errors.New("aborted")
			}
			return err
		}
	}

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: cumulo start")
	fmt.Printf("  3. Or specify custom config: cumulo start --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random JWT secret has been generated for development use.")
	fmt.Println("  For production, generate a secure secret and use an environment variable:")
	fmt.Printf("    export %s=$(openssl rand -hex 32)\n", api.EnvAPISecret)

	return nil
}

// promptAdmin asks for the initial admin email and password and stores
// the bcrypt hash in the config.
func promptAdmin(cfg *config.Config) error {
	email, err := prompt.Input("Admin email", cfg.Admin.Email)
	if err != nil {
		return err
	}
	cfg.Admin.Email = email

	password, err := prompt.PasswordWithConfirmation("Admin password", "Confirm password", 8)
	if err != nil {
		if errors.Is(err, prompt.ErrPasswordMismatch) {
			return prompt.ErrPasswordMismatch
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	cfg.Admin.PasswordHash = string(hash)
	return nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
