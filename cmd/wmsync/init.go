package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/wmsync/internal/config"
)

//go:embed templates/wmsync.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new wmsync configuration file",
		Long: `Initialize creates a new .wmsync.yaml configuration file in the current directory.

The generated file includes:
- Default fulfillment service handle, location and stock quantity
- Commented examples for per-store overrides
- Best seller keyword lists

Examples:
  # Create .wmsync.yaml in current directory
  wmsync init

  # Create config file at a specific path
  wmsync init -o ~/.config/wmsync/config.yaml

  # Force overwrite existing file
  wmsync init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/wmsync.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure store settings such as:")
	fmt.Fprintln(out, "  - Fulfillment service handle and location")
	fmt.Fprintln(out, "  - Inventory quantity and price multiplier")
	fmt.Fprintln(out, "  - Import categories and best seller keywords")
	fmt.Fprintln(out, "\nCredentials belong in the environment or a .env file, not here.")

	return nil
}
