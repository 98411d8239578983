// Package cli is the ultradl command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"ultradl/internal/clipboard"
	"ultradl/internal/config"
	"ultradl/internal/entity"
	"ultradl/pkg/logger"

	"github.com/spf13/cobra"
)

// Streams are the process I/O and the replaceable system pieces.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Clipboard defaults to the system clipboard.
	Clipboard clipboard.Clipboard
	// Transport defaults to the network.
	Transport http.RoundTripper
}

type flags struct {
	server     string
	out        string
	logLevel   string
	noProgress bool
}

type runner struct {
	streams Streams
	flags   flags
	app     *App
}

// Execute runs the command line in args and releases the session whatever the outcome.
func Execute(ctx context.Context, streams Streams, args []string) error {
	r := &runner{streams: streams}

	root := r.rootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)

	return errors.Join(err, r.teardown(ctx))
}

func (r *runner) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ultradl",
		Short:         "Preview and download media from social links",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return r.setup(cmd)
		},
	}

	root.SetIn(r.streams.In)
	root.SetOut(r.streams.Out)
	root.SetErr(r.streams.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&r.flags.server, "server", "", "media service base URL (overrides ULTRADL_SERVER_BASE_URL)")
	pf.StringVarP(&r.flags.out, "out", "o", "", "output directory (overrides ULTRADL_DIR_OUTPUT)")
	pf.StringVar(&r.flags.logLevel, "log-level", "", "debug, info, warn or error (overrides ULTRADL_APP_LOG_LEVEL)")
	pf.BoolVar(&r.flags.noProgress, "no-progress", false, "hide the progress bar")

	root.AddCommand(
		r.previewCommand(),
		r.downloadCommand(entity.KindAudio, "Download the audio of every item as mp3"),
		r.downloadCommand(entity.KindVideo, "Download the video of every item as mp4"),
		r.imageCommand(),
		r.donateCommand(),
		r.shellCommand(),
	)

	return root
}

func (r *runner) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	f := cmd.Flags()
	if f.Changed("server") {
		cfg.Server.BaseURL = r.flags.server
	}
	if f.Changed("out") {
		cfg.Dir.Output = r.flags.out
	}
	if f.Changed("log-level") {
		cfg.App.LogLevel = r.flags.logLevel
	}

	err = cfg.Finalize()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(&logger.Options{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
		Output: r.streams.Err,
	})
	if err != nil {
		log.WarnContext(cmd.Context(), "logger level invalid; defaulting to info", slog.Any("error", err))
	}

	opt := AppOptions{
		Out:       r.streams.Out,
		Clipboard: r.streams.Clipboard,
		Transport: r.streams.Transport,
	}
	if !r.flags.noProgress {
		opt.ProgressOut = r.streams.Err
	}

	r.app, err = NewApp(log, cfg, opt)
	if err != nil {
		return err
	}

	return nil
}

func (r *runner) teardown(ctx context.Context) error {
	if r.app == nil {
		return nil
	}

	err := r.app.Close(ctx)
	r.app = nil

	return err
}

// link is the url argument, else the autofilled clipboard link.
func (r *runner) link(ctx context.Context, args []string) string {
	autofill := r.app.Start(ctx)
	if len(args) > 0 {
		return args[0]
	}

	return autofill
}

func (r *runner) previewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "preview [url]",
		Short: "Show what a link contains",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			summary, err := r.app.Orch.Preview(ctx, r.link(ctx, args))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), summary)

			return nil
		},
	}
}

func (r *runner) downloadCommand(kind entity.Kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   kind.String() + " [url]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, err := r.app.Orch.Preview(ctx, r.link(ctx, args))
			if err != nil {
				return err
			}

			res, err := r.app.Orch.Download(ctx, kind)
			r.app.PrintResult(res)

			return err
		},
	}
}

func (r *runner) imageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "image [url]",
		Short: "Download the images or thumbnails of a link",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, err := r.app.Orch.Preview(ctx, r.link(ctx, args))
			if err != nil {
				return err
			}

			res, err := r.app.Orch.DownloadImages(ctx)
			r.app.PrintResult(res)

			return err
		},
	}
}

func (r *runner) donateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "donate",
		Short: "List the donation addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r.app.PrintDonate(cmd.Context())

			return nil
		},
	}
}

func (r *runner) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sh := &shell{app: r.app, in: cmd.InOrStdin(), out: cmd.OutOrStdout()}

			return sh.run(ctx, r.app.Start(ctx))
		},
	}
}
