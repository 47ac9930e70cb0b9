package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/callscope/callscope/internal/pkg/logger"
	"github.com/callscope/callscope/internal/pkg/version"
)

var (
	cfgFile string
	logFile string
)

var rootCmd = &cobra.Command{
	Use:     "callscope",
	Short:   "callscope inspects SIP traffic",
	Long:    `callscope captures SIP and RTP traffic from devices, files or remote agents and correlates it into calls.`,
	Version: version.Full(),
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.AddCommand(captureCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.callscope.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this rotated file")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".callscope")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func initLogger() {
	if logFile != "" {
		logger.InitializeWithFile(logger.FileOptions{
			Filename:   logFile,
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		})
		return
	}
	logger.Initialize()
}
