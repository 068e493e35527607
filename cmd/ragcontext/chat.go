package main

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/ragcontext/internal/observability"
	"github.com/hrygo/ragcontext/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the knowledge base in the terminal",
	Long: `Opens a terminal chat bound to a single conversation.

Controls:
  Enter      - Ask
  Esc/Ctrl+C - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, p)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.enableAnswering(ctx); err != nil {
		return err
	}

	// Logs would draw over the UI.
	slog.SetDefault(observability.NewFileLogger(observability.LoggerConfig{
		Level:  viper.GetString("log-level"),
		Format: viper.GetString("log-format"),
		File:   viper.GetString("log-file"),
	}))

	_, err = tea.NewProgram(tui.New(a.answer), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
