/*
Package main is the entry point for the cafechat terminal client.

It loads configuration from the environment, lets command-line flags override it,
initializes the global logger, connects to the chat server, prints the roster and
incoming messages to stdout, and submits every stdin line as a chat message. SIGINT and
SIGTERM close the connection cleanly.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cafechat/internal/app/client"
	"cafechat/internal/configs"
	"cafechat/internal/pkg/logx"
)

var rootCmd = &cobra.Command{
	Use:           "cafechat",
	Short:         "Terminal client for a cafechat server",
	RunE:          runClient,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagServerURL string
	flagName      string
	flagViewPort  int
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagServerURL, "server-url", "", "chat server WebSocket URL (env SERVER_URL)")
	flags.StringVarP(&flagName, "name", "n", "", "display name to register with (env CHAT_USERNAME)")
	flags.IntVar(&flagViewPort, "view-port", 0, "local view API port, 0 disables it (env VIEW_PORT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logx.Fatal(err, "cafechat exited with an error")
	}
}

func runClient(cmd *cobra.Command, _ []string) error {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("server-url") {
		cfg.ServerURL = flagServerURL
	}
	if flags.Changed("name") {
		cfg.Username = flagName
	}
	if flags.Changed("view-port") {
		cfg.ViewPort = flagViewPort
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("server_url", cfg.ServerURL).
		Str("username", cfg.Username).
		Int("view_port", cfg.ViewPort).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := client.NewTerminal(cmd.OutOrStdout())

	c, err := client.Dial(ctx, cfg, term.Refresh)
	if err != nil {
		return err
	}
	term.Bind(c.Session())

	go func() {
		if err := client.SubmitLines(ctx, cmd.InOrStdin(), c); err != nil && ctx.Err() == nil {
			logx.Error(err, "Reading input failed")
		}
	}()

	if err := c.Run(ctx); err != nil {
		return err
	}

	logx.Info("Client stopped.")
	return nil
}
