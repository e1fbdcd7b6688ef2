package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/buildinfo"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/auth"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophstore/internal/server/services"
	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	envDSN    = "GOPHSTORE_DATABASE_DSN"
	envSecret = "GOPHSTORE_SECRET_KEY"
)

var errNoDSN = errors.New("database DSN is required (--dsn or $" + envDSN + ")")

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "storectl",
		Short:        "Administer a gophstore store",
		Version:      buildinfo.Version(),
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.AddCommand(migrateCmd())
	root.AddCommand(catalogCmd())
	root.AddCommand(accessTokenCmd())

	return root
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errNoDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

func migrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the store schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repomanager.NewPostgresRepositoryManager().RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrations error: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", os.Getenv(envDSN), "PostgreSQL DSN")

	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the content catalog",
	}

	var (
		dsn      string
		currency string
	)
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Upsert catalog items from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			logger := logging.NewJSON(cmd.ErrOrStderr(), "warn")
			catalog := services.NewCatalog(dbx.NewSQLTransactor(db, nil), repomanager.NewPostgresRepositoryManager(), logger)

			n, err := catalog.Import(cmd.Context(), args[0], currency)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d items\n", n)
			return nil
		},
	}
	importCmd.Flags().StringVar(&dsn, "dsn", os.Getenv(envDSN), "PostgreSQL DSN")
	importCmd.Flags().StringVar(&currency, "currency", "usd", "currency for items that name none")

	cmd.AddCommand(importCmd)
	return cmd
}

func accessTokenCmd() *cobra.Command {
	var (
		user   string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "access-token",
		Short: "Sign an access token for a user (development identity)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return errors.New("--user is required")
			}
			if secret == "" {
				return errors.New("--secret is required (or $" + envSecret + ")")
			}
			token, err := auth.GenerateToken(user, []byte(secret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	defaultSecret := os.Getenv(envSecret)
	if defaultSecret == "" {
		defaultSecret = "secretKey"
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id to put in the token")
	cmd.Flags().StringVarP(&secret, "secret", "s", defaultSecret, "HMAC secret shared with the server")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token validity")

	return cmd
}
