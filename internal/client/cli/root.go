package cli

import (
	"context"
	"io"

	"github.com/dmitrijs2005/gophstore/internal/buildinfo"
	"github.com/dmitrijs2005/gophstore/internal/client/config"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/spf13/cobra"
)

type opener func(ctx context.Context, c *config.Config) (*App, error)

// NewRootCommand builds the gophstore command tree reading answers from in
// and writing to out.
func NewRootCommand(in io.Reader, out io.Writer, l logging.Logger) *cobra.Command {
	return newRootCommand(in, out, func(ctx context.Context, c *config.Config) (*App, error) {
		return NewApp(ctx, c, in, out, l)
	})
}

func newRootCommand(in io.Reader, out io.Writer, open opener) *cobra.Command {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	var app *App

	root := &cobra.Command{
		Use:           "gophstore",
		Short:         "Buy and download content from a gophstore store",
		Version:       buildinfo.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Finalize(cmd.Flags(), cfg); err != nil {
				return err
			}
			a, err := open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app == nil {
				return nil
			}
			return app.Close()
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	config.BindFlags(root.PersistentFlags(), cfg)

	root.AddCommand(buyCmd(&app))
	root.AddCommand(downloadCmd(&app))
	root.AddCommand(libraryCmd(&app))
	root.AddCommand(pingCmd(&app))

	return root
}

func buyCmd(app **App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "buy <content-id>",
		Short: "Purchase content and download it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return (*app).Buy(cmd.Context(), args[0], format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "PDF", "delivery format")

	return cmd
}

func downloadCmd(app **App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "download <content-id>",
		Short: "Download content you already own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return (*app).Download(cmd.Context(), args[0], format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "PDF", "delivery format")

	return cmd
}

func libraryCmd(app **App) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "library",
		Short: "List owned content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if local {
				return (*app).Downloads(cmd.Context())
			}
			return (*app).Library(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "list files downloaded on this machine instead")

	return cmd
}

func pingCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the store is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return (*app).Ping(cmd.Context())
		},
	}
}
