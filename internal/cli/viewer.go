package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNoViewer = errors.New("no viewer session: run 'playgate viewer start' first")

func requireViewer() error {
	if cfg.Token == "" {
		return errNoViewer
	}
	return nil
}

func newViewerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viewer",
		Short: "Viewer session commands",
	}

	cmd.AddCommand(newViewerStartCmd())
	cmd.AddCommand(newViewerStateCmd())
	cmd.AddCommand(newViewerEndCmd())

	return cmd
}

func newViewerStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start [media-id]",
		Short: "Open a viewer session for a title",
		Long: `Open a viewer session for a title and save its token for later commands.

Without a media id the server opens its default title.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if len(args) == 1 {
				req["media_id"] = args[0]
			}

			var result ViewerStarted
			if err := client.Post("/api/v1/viewers", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.ViewerToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newViewerStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the current viewer state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireViewer(); err != nil {
				return err
			}

			var result ViewState
			if err := client.Get("/api/v1/viewer", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newViewerEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the viewer session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireViewer(); err != nil {
				return err
			}

			if err := client.Delete("/api/v1/viewer", nil); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to clear token: %w", err)
			}

			NewOutput(cfg.Output).PrintMessage("Viewer session ended")
			return nil
		},
	}
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Press play/pause",
		Long: `Press the play/pause control.

When nobody is signed in the server opens the sign-in prompt instead and
remembers the request; signing in then starts playback.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireViewer(); err != nil {
				return err
			}

			var result PlayPauseResult
			if err := client.Post("/api/v1/viewer/play-pause", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newPromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Sign-in prompt commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "open",
		Short: "Open the sign-in prompt from the account menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireViewer(); err != nil {
				return err
			}

			var result ViewState
			if err := client.Post("/api/v1/viewer/auth-prompt", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dismiss",
		Short: "Close the sign-in prompt and drop any pending play request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireViewer(); err != nil {
				return err
			}

			var result ViewState
			if err := client.Delete("/api/v1/viewer/auth-prompt", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	})

	return cmd
}
