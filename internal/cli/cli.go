package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/signconnect/pkg/logger"
)

// NewRootCommand builds the signctl command tree. Output goes to out so
// tests can capture it.
func NewRootCommand(out io.Writer) *cobra.Command {
	cfg := &Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		PlayTimeout: DefaultPlayTimeout,
	}

	root := &cobra.Command{
		Use:           "signctl",
		Short:         "Command line client for the sign playback service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(cmd.ErrOrStderr(), cfg.Verbose)
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the service")
	root.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	root.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newPlayCommand(cfg), newWordsCommand(cfg), newTokenCommand(cfg))
	return root
}

func newPlayCommand(cfg *Config) *cobra.Command {
	var opts PlayOptions
	cmd := &cobra.Command{
		Use:   "play <text>",
		Short: "Sign the first word of text and print each pose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Play(cmd.Context(), cfg, args[0], opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&opts.Step, "step", 0, "Delay between keyframes (server default when zero)")
	cmd.Flags().DurationVar(&cfg.PlayTimeout, "play-timeout", cfg.PlayTimeout, "Give up after this long")
	return cmd
}

func newWordsCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "words",
		Short: "List the supported words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := newHTTPClient(cfg).words(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, word := range w.Words {
				fmt.Fprintln(out, word)
			}
			return nil
		},
	}
}

func newTokenCommand(cfg *Config) *cobra.Command {
	var identity, room string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Request a video-call room token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := newHTTPClient(cfg).token(cmd.Context(), identity, room)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, t.Token)
			if t.URL != "" {
				fmt.Fprintf(out, "url: %s\n", t.URL)
			}
			fmt.Fprintf(out, "expires: %s\n", t.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "", "Participant identity")
	cmd.Flags().StringVar(&room, "room", "", "Room name")
	_ = cmd.MarkFlagRequired("identity")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

// setupLogging sends structured logs to w, at debug level when verbose.
func setupLogging(w io.Writer, verbose bool) error {
	if err := logger.Init(logger.WithOutput(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return fmt.Errorf("failed to set log level: %w", err)
	}
	logger.Get().Debug(context.Background(), "signctl logging initialized")
	return nil
}
