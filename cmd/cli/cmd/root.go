package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys
const (
	CfgKeyTMDBAPIKey = "tmdb.apikey"
	CfgKeyStorePath  = "store.path"
	CfgKeyLogLevel   = "log.level"
)

var (
	// Used for flags.
	cfgFile    string
	jsonOutput bool

	// RootCmd represents the base command when called without any subcommands.
	// Exported for use in tests.
	RootCmd = &cobra.Command{
		Use:   "popcorn-resolver",
		Short: "Resolve streaming-site pages to canonical catalog titles.",
		Long: `popcorn-resolver identifies which movie or show a streaming page shows.
It extracts content signals from saved page snapshots, stabilizes them, and
reconciles them against the TMDB catalog to attach a canonical id.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
			checkAndPromptAPIKey()
		},
	}
)

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.popcorn-resolver/config.yaml)")
	RootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// initConfig reads in the config file and matching environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".popcorn-resolver")
		viper.AddConfigPath(configDir)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("POPCORN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetDefault(CfgKeyLogLevel, "warn")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config yet; checkAndPromptAPIKey handles the missing key.
		} else if os.IsNotExist(err) {
			// Config directory does not exist yet.
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file (%s): %v\n", viper.ConfigFileUsed(), err)
		}
	}
}

func configureLogging() {
	level, err := logrus.ParseLevel(viper.GetString(CfgKeyLogLevel))
	if err != nil {
		level = logrus.WarnLevel
	}
	logrus.SetLevel(level)
}

// checkAndPromptAPIKey prompts for the TMDB API key on first run and saves it
// into the config file.
func checkAndPromptAPIKey() {
	if viper.GetString(CfgKeyTMDBAPIKey) != "" {
		return
	}

	fmt.Println("TMDB API key not found.")
	fmt.Print("Please enter your TMDB API key: ")

	reader := bufio.NewReader(os.Stdin)
	inputKey, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read API key: %v\n", err)
		os.Exit(1)
	}
	inputKey = strings.TrimSpace(inputKey)
	if inputKey == "" {
		fmt.Fprintln(os.Stderr, "API key cannot be empty.")
		os.Exit(1)
	}

	viper.Set(CfgKeyTMDBAPIKey, inputKey)

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not get home directory: %v\n", err)
		os.Exit(1)
	}
	configDir := filepath.Join(home, ".popcorn-resolver")
	configPath := filepath.Join(configDir, "config.yaml")

	if err := os.MkdirAll(configDir, 0750); err != nil {
		fmt.Fprintf(os.Stderr, "Could not create config directory %s: %v\n", configDir, err)
		os.Exit(1)
	}
	if err := viper.WriteConfigAs(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save API key to %s: %v\n", configPath, err)
		os.Exit(1)
	}

	fmt.Printf("API key saved to %s\n", configPath)
}
