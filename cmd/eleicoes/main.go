package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gestaozabele/eleicoes/internal/config"
	"github.com/gestaozabele/eleicoes/internal/db"
	"github.com/gestaozabele/eleicoes/internal/election"
)

var (
	pool    *pgxpool.Pool
	service *election.Service
)

var rootCmd = &cobra.Command{
	Use:   "eleicoes",
	Short: "Consulta resultados eleitorais direto do banco",
	Long: `eleicoes executa, sem subir a API, as mesmas consultas expostas em /api.

Exemplos:
  eleicoes elections
  eleicoes dico --level 2 --parent 01
  eleicoes summary AR2024 010101
  eleicoes stats AR2024`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		zerolog.SetGlobalLevel(cfg.LogLevel)

		pool, err = db.NewPool(cmd.Context(), cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("não foi possível conectar ao banco: %w", err)
		}
		service = election.NewService(election.NewRepository(pool, cfg.DBTimeout), nil, 0)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if pool != nil {
			pool.Close()
		}
	},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("comando falhou")
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
