package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/switchboard/internal/settings"
)

var subToolsFlag bool

var toolsCmd = &cobra.Command{
	Use:     "tools",
	Aliases: []string{"tool", "t"},
	Short:   "List and toggle configured tools",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tools with their enabled state",
	RunE:  runToolsList,
}

var toolsEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable a tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setToolEnabled(cmd, args[0], true)
	},
}

var toolsDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable a tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setToolEnabled(cmd, args[0], false)
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsListCmd, toolsEnableCmd, toolsDisableCmd)

	toolsListCmd.Flags().BoolVar(&subToolsFlag, "sub-tools", false, "Show discovered sub-tools per tool")
}

func runToolsList(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}

	tools, err := c.FetchTools(cmd.Context())
	if err != nil {
		return err
	}

	if len(tools) == 0 {
		fmt.Println("No tools configured.")
		return nil
	}

	printTools(tools, subToolsFlag)
	return nil
}

func printTools(tools []settings.Tool, withSubTools bool) {
	fmt.Printf("%-20s %-10s %-10s %s\n", "NAME", "ENABLED", "SUBTOOLS", "DESCRIPTION")
	fmt.Println(strings.Repeat("─", 80))

	for _, tool := range tools {
		state := "off"
		if tool.Enabled {
			state = "on"
		}

		desc := tool.Description
		if len(desc) > 38 {
			desc = desc[:38] + ".."
		}

		fmt.Printf("%-20s %-10s %-10d %s\n", tool.Name, state, len(tool.SubTools), desc)

		if withSubTools {
			for _, sub := range tool.SubTools {
				subDesc := sub.Description
				if len(subDesc) > 48 {
					subDesc = subDesc[:48] + ".."
				}
				fmt.Printf("  └ %-17s %s\n", sub.Name, subDesc)
			}
		}
	}
}

func setToolEnabled(cmd *cobra.Command, name string, enabled bool) error {
	c, err := apiClient()
	if err != nil {
		return err
	}

	blob, err := c.FetchConfig(cmd.Context())
	if err != nil {
		return err
	}

	if _, ok := blob[name]; !ok {
		return fmt.Errorf("no config entry for tool: %s", name)
	}

	if blob.Enabled(name) == enabled {
		fmt.Printf("Tool %s is already %s.\n", name, onOff(enabled))
		return nil
	}

	if err := c.Toggle(cmd.Context(), name); err != nil {
		return err
	}

	fmt.Printf("Tool %s is now %s.\n", name, onOff(enabled))
	return nil
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
