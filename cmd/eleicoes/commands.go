package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gestaozabele/eleicoes/internal/election"
)

var (
	dicoLevel  int
	dicoParent string
)

var electionsCmd = &cobra.Command{
	Use:   "elections [ELECTION_ID]",
	Short: "Lista eleições ou mostra uma",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			e, err := service.GetElection(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("eleição %s: %w", args[0], err)
			}
			return printJSON(cmd.OutOrStdout(), e)
		}
		elections, err := service.ListElections(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), elections)
	},
}

var dicoCmd = &cobra.Command{
	Use:   "dico [CODE]",
	Short: "Lista códigos DICO ou mostra um com seus filhos",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			detail, err := service.GetDicoCode(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("código %s: %w", args[0], err)
			}
			return printJSON(cmd.OutOrStdout(), detail)
		}

		var filter election.DicoFilter
		if cmd.Flags().Changed("level") {
			filter.Level = &dicoLevel
		}
		if dicoParent != "" {
			filter.Parent = &dicoParent
		}
		codes, err := service.ListDicoCodes(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), codes)
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results ELECTION_ID [DICO_CODE]",
	Short: "Lista resultados de uma eleição, opcionalmente de uma geografia",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			results, err := service.ListResultsByGeography(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("resultados %s/%s: %w", args[0], args[1], err)
			}
			return printJSON(cmd.OutOrStdout(), results)
		}

		var level *int
		if cmd.Flags().Changed("level") {
			level = &dicoLevel
		}
		results, err := service.ListResults(cmd.Context(), args[0], level)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), results)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary ELECTION_ID DICO_CODE",
	Short: "Resumo por partido de uma geografia",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := service.Summarize(cmd.Context(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("resumo %s/%s: %w", args[0], args[1], err)
		}
		return printJSON(cmd.OutOrStdout(), summary)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats ELECTION_ID",
	Short: "Estatísticas agregadas de uma eleição",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := service.Stats(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("estatísticas %s: %w", args[0], err)
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

func init() {
	dicoCmd.Flags().IntVarP(&dicoLevel, "level", "l", 0, "Nível (1=Distrito, 2=Concelho, 3=Freguesia)")
	dicoCmd.Flags().StringVarP(&dicoParent, "parent", "p", "", "Código DICO do pai")
	resultsCmd.Flags().IntVarP(&dicoLevel, "level", "l", 0, "Restringe ao nível da geografia")

	rootCmd.AddCommand(electionsCmd, dicoCmd, resultsCmd, summaryCmd, statsCmd)
}
