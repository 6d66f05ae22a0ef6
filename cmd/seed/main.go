package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"signlearn-service/internal/auth"
	"signlearn-service/internal/config"
	"signlearn-service/internal/db"
	"signlearn-service/internal/repository/postgres"
	"signlearn-service/internal/seed"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var catalogFile string

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sign catalog and simulation challenges",
	Long: `Reads signs and simulation challenges from a YAML file and upserts them
into the database named by DATABASE_URL. Signs match on word, simulations on title.`,
	SilenceUsage: true,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Validate the catalog and upsert it",
	RunE:  runApply,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the catalog without touching the database",
	RunE:  runValidate,
}

var hashAdminKeyCmd = &cobra.Command{
	Use:   "hash-admin-key <key>",
	Short: "Print the bcrypt hash to set as ADMIN_KEY_HASH",
	Args:  cobra.ExactArgs(1),
	RunE:  runHashAdminKey,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&catalogFile, "file", "f", "data/catalog.yaml", "catalog YAML file")
	rootCmd.AddCommand(applyCmd, validateCmd, hashAdminKeyCmd)
}

func runHashAdminKey(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(args[0])
	if key == "" {
		return fmt.Errorf("admin key must not be empty")
	}
	hash, err := auth.HashAdminKey(key)
	if err != nil {
		return fmt.Errorf("failed to hash admin key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cat, err := seed.Load(catalogFile)
	if err != nil {
		return err
	}
	if err := cat.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d signs, %d simulations OK\n",
		catalogFile, len(cat.Signs), len(cat.Simulations))
	return nil
}

func runApply(cmd *cobra.Command, args []string) error {
	cat, err := seed.Load(catalogFile)
	if err != nil {
		return err
	}

	cfg := config.Load()
	database, err := db.NewDB(cfg.DatabaseURL, cfg.DBQueryTimeout)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	if err := database.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	store := postgres.New(database)
	r, err := seed.Apply(ctx, store.Signs, store.Simulations, cat, time.Now().UTC())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "signs: %d inserted, %d updated\nsimulations: %d inserted, %d updated\n",
		r.SignsInserted, r.SignsUpdated, r.SimulationsInserted, r.SimulationsUpdated)
	return nil
}

func main() {
	godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
