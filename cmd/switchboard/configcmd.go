package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/michaelbrown/switchboard/internal/client"
	"github.com/michaelbrown/switchboard/internal/settings"
)

var (
	historyLimit int
	exportFormat string
	exportOutput string
)

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg"},
	Short:   "Show, edit, and version the raw configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration as JSON",
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the configuration in $EDITOR and submit it",
	RunE:  runConfigEdit,
}

var configHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved configuration revisions",
	RunE:  runConfigHistory,
}

var configExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the configuration as JSON or YAML",
	RunE:  runConfigExport,
}

var configImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a configuration file (JSON or YAML) and submit it",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigImport,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configEditCmd, configHistoryCmd, configExportCmd, configImportCmd)

	configHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Max revisions to show")

	configExportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format: json or yaml")
	configExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}

	blob, err := c.FetchConfig(cmd.Context())
	if err != nil {
		return err
	}

	text, err := blob.Pretty()
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}

	blob, err := c.FetchConfig(cmd.Context())
	if err != nil {
		return err
	}

	editor := client.NewEditor(func(edited settings.Blob) error {
		return c.SubmitConfig(cmd.Context(), edited)
	})
	if err := editor.Open(blob); err != nil {
		return err
	}

	edited, err := editInTempFile(editor.Text())
	if err != nil {
		return err
	}
	if strings.TrimSpace(edited) == strings.TrimSpace(editor.Text()) {
		fmt.Println("No changes.")
		return nil
	}

	editor.SetText(edited)
	if err := editor.Save(); err != nil {
		return fmt.Errorf("%s", editor.Err())
	}

	fmt.Println("Configuration saved.")
	return nil
}

// editInTempFile writes text to a temp file, runs $EDITOR on it, and reads
// the result back.
func editInTempFile(text string) (string, error) {
	editorBin := os.Getenv("EDITOR")
	if editorBin == "" {
		editorBin = "vi"
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("switchboard-%d.json", os.Getpid()))
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	defer os.Remove(path)

	ed := exec.Command(editorBin, path)
	ed.Stdin = os.Stdin
	ed.Stdout = os.Stdout
	ed.Stderr = os.Stderr
	if err := ed.Run(); err != nil {
		return "", fmt.Errorf("running %s: %w", editorBin, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edited file: %w", err)
	}
	return string(data), nil
}

func runConfigHistory(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}

	revisions, err := c.FetchRevisions(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	if len(revisions) == 0 {
		fmt.Println("No revisions yet.")
		return nil
	}

	fmt.Printf("%-38s %-6s %s\n", "REVISION", "SEQ", "SAVED")
	fmt.Println(strings.Repeat("─", 70))
	for _, rev := range revisions {
		fmt.Printf("%-38s %-6d %s\n", rev.ID, rev.Seq, rev.CreatedAt.Local().Format(time.RFC3339))
	}
	return nil
}

func runConfigExport(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}

	blob, err := c.FetchConfig(cmd.Context())
	if err != nil {
		return err
	}

	var output string
	switch exportFormat {
	case "yaml", "yml":
		data, err := yaml.Marshal(blob)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		output = string(data)
	default:
		output, err = blob.Pretty()
		if err != nil {
			return err
		}
		output += "\n"
	}

	if exportOutput != "" {
		return os.WriteFile(exportOutput, []byte(output), 0o644)
	}

	fmt.Print(output)
	return nil
}

func runConfigImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	var blob settings.Blob
	switch strings.ToLower(filepath.Ext(args[0])) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &blob); err != nil {
			return fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		blob, err = settings.Parse(string(data))
		if err != nil {
			return err
		}
	}

	c, err := apiClient()
	if err != nil {
		return err
	}

	if err := c.SubmitConfig(cmd.Context(), blob); err != nil {
		return err
	}

	fmt.Printf("Imported %d server entries.\n", len(blob))
	return nil
}
