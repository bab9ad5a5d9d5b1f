package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sprouthub/pkg/config"
	"sprouthub/pkg/domain"
	"sprouthub/pkg/factory"
	"sprouthub/pkg/logger"
	"sprouthub/pkg/standalone"
	"sprouthub/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sprouthub",
		Short:         "Sprout Hub soil monitoring dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "config.yaml", "Configuration file path")

	root.AddCommand(newServeCmd(), newVersionCmd(), newLanguageCmd(), newAskCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (domain.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	return config.LoadUnifiedConfig(file)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log := logger.ComponentLogger("sprouthub")
			log.Info().Str("version", version.GetVersion()).Msg("starting sprouthub")

			return standalone.NewApp(cfg).Run()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newLanguageCmd() *cobra.Command {
	languageCmd := &cobra.Command{
		Use:   "language",
		Short: "Show or change the stored display language",
	}

	languageCmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the current language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f := factory.NewFactory(cfg)

			store, err := f.CreatePreferenceStore()
			if err != nil {
				return fmt.Errorf("failed to open preferences: %w", err)
			}
			if store != nil {
				defer store.Close()
			}

			fmt.Fprintln(cmd.OutOrStdout(), f.CreateLocale(store).Language())
			return nil
		},
	})

	languageCmd.AddCommand(&cobra.Command{
		Use:   "set <lang>",
		Short: "Store a new language (en or fil)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f := factory.NewFactory(cfg)

			store, err := f.CreatePreferenceStore()
			if err != nil {
				return fmt.Errorf("failed to open preferences: %w", err)
			}
			if store == nil {
				return fmt.Errorf("no preferences file configured")
			}
			defer store.Close()

			if err := f.CreateLocale(store).SetLanguage(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "language set to %s\n", args[0])
			return nil
		},
	})

	return languageCmd
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the AI agronomist a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client := factory.NewFactory(cfg).CreateBackendClient()
			answer, err := client.Chat(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(answer.Answer))
			if answer.Model != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "(%s)\n", answer.Model)
			}
			return nil
		},
	}
}
