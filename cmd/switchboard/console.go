package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/switchboard/internal/client"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive console for toggling tools",
	Long: `Open an interactive prompt against a running switchboard server.

Commands:
  list            Show tools and their enabled state
  toggle <name>   Flip a tool's enabled flag
  config          Print the raw configuration
  help            Show commands
  quit            Exit`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if _, err := c.FetchConfig(ctx); err != nil {
		return fmt.Errorf("connecting to server: %w", err)
	}
	if _, err := c.FetchTools(ctx); err != nil {
		return fmt.Errorf("connecting to server: %w", err)
	}

	completer := readline.NewPrefixCompleter(
		readline.PcItem("list"),
		readline.PcItem("toggle", readline.PcItemDynamic(func(string) []string {
			return c.Config().Names()
		})),
		readline.PcItem("config"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mswitchboard>\033[0m ",
		HistoryFile:     "/tmp/switchboard_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	fmt.Printf("Switchboard console — %d tools configured. Type help for commands.\n\n", len(c.Tools()))

	for {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if done := handleConsoleCommand(ctx, c, input); done {
			return nil
		}
	}
}

func handleConsoleCommand(ctx context.Context, c *client.Client, input string) bool {
	fields := strings.Fields(input)

	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		fmt.Println("Goodbye!")
		return true

	case "list", "ls":
		tools := c.Tools()
		if len(tools) == 0 {
			fmt.Println("No tools configured.")
			break
		}
		printTools(tools, true)
		fmt.Println()

	case "toggle":
		if len(fields) != 2 {
			fmt.Println("Usage: toggle <name>")
			break
		}
		name := fields[1]
		if err := c.Toggle(ctx, name); err != nil {
			fmt.Printf("\033[31merror: %s\033[0m\n\n", err)
			break
		}
		fmt.Printf("Tool %s is now %s.\n\n", name, onOff(c.Config().Enabled(name)))

	case "config":
		text, err := c.Config().Pretty()
		if err != nil {
			fmt.Printf("\033[31merror: %s\033[0m\n\n", err)
			break
		}
		fmt.Println(text)
		fmt.Println()

	case "help":
		fmt.Println("Commands:")
		fmt.Println("  list            - Show tools and their enabled state")
		fmt.Println("  toggle <name>   - Flip a tool's enabled flag")
		fmt.Println("  config          - Print the raw configuration")
		fmt.Println("  quit            - Exit")
		fmt.Println()

	default:
		fmt.Printf("Unknown command: %s (try help)\n\n", fields[0])
	}

	return false
}
