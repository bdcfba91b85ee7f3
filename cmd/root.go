package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/spigell/resume-scorer/internal/screening"
	"github.com/spigell/resume-scorer/internal/server"
)

const (
	app       = "resume-scorer"
	envPrefix = "RESUME_SCORER"
)

type Config struct {
	KnowledgeFile string           `mapstructure:"knowledge-file"`
	Analyze       AnalyzeConfig    `mapstructure:"analyze"`
	Screening     screening.Config `mapstructure:"screening"`
	Server        server.Config    `mapstructure:"server"`
	AI            AIConfig         `mapstructure:"ai"`
}

type AnalyzeConfig struct {
	Workers       int           `mapstructure:"workers" validate:"gte=1,lte=64"`
	ContentType   string        `mapstructure:"content-type"`
	Output        string        `mapstructure:"output" validate:"oneof=card json"`
	Remote        string        `mapstructure:"remote" validate:"omitempty,http_url"`
	RemoteTimeout time.Duration `mapstructure:"remote-timeout" validate:"gte=0"`
}

type AIConfig struct {
	Provider string       `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0,lte=10"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
	MaxTextRunes int    `mapstructure:"max-text-runes" validate:"gte=0"`
	Tone         string `mapstructure:"tone"`
	Focus        string `mapstructure:"focus"`
	Instructions string `mapstructure:"instructions"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-scorer analyses resumes: detected role, ATS and match scores, skills and market data",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-scorer.yaml in current directory, optional)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("knowledge-file", "", "YAML file replacing the built-in roles and skills")

	mustBind("debug", rootCmd.PersistentFlags().Lookup("debug"))
	mustBind("json", rootCmd.PersistentFlags().Lookup("json"))
	mustBind("knowledge-file", rootCmd.PersistentFlags().Lookup("knowledge-file"))

	setDefaults(viper.GetViper())

	if err := viper.BindEnv("ai.gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("knowledge-file", "")

	v.SetDefault("analyze.workers", 4)
	v.SetDefault("analyze.content-type", "")
	v.SetDefault("analyze.output", "card")
	v.SetDefault("analyze.remote", "")
	v.SetDefault("analyze.remote-timeout", time.Minute)

	v.SetDefault("screening.exclude-file", "")
	v.SetDefault("screening.exclude-paths", []string{})
	v.SetDefault("screening.minimum-score", 0)
	v.SetDefault("screening.roles", []string{})
	v.SetDefault("screening.skills", []string{})

	v.SetDefault("server.listen", ":5000")
	v.SetDefault("server.response-delay", time.Duration(0))
	v.SetDefault("server.max-upload-bytes", int64(10<<20))
	v.SetDefault("server.allowed-origins", []string{"*"})
	v.SetDefault("server.shutdown-timeout", 10*time.Second)

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("ai.gemini.max-text-runes", 12000)
	v.SetDefault("ai.gemini.tone", "")
	v.SetDefault("ai.gemini.focus", "")
	v.SetDefault("ai.gemini.instructions", "")
}

func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		log.Fatalf("binding flag to %s: %v", key, err)
	}
}

// initConfig loads .env, the optional config file and RESUME_SCORER_*
// environment variables into viper.
func initConfig() error {
	// .env is optional.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
