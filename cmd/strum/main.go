package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/metalblueberry/strum/pkg/config"
)

var (
	log        = logrus.StandardLogger()
	cfg        *config.Config
	configPath string
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not read .env")
	}
	if err := newRootCommand().Execute(); err != nil {
		log.WithError(err).Error("strum failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "strum",
		Short:         "Listen to a guitar and name the pitch or chord being played",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if err := c.ConfigureLogger(log); err != nil {
				return err
			}
			cfg = c
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "configuration file (default ./strum.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Float64("threshold", 300, "RMS level on the 16-bit scale above which audio counts as playing")

	root.AddCommand(newListenCommand(), newAnalyzeCommand(), newToneCommand())
	return root
}
