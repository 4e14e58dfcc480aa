package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Log        LogConfig
	Solver     SolverConfig
	Generation GenerationConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig selects the engine and its search budget.
type SolverConfig struct {
	Engine        string
	Backend       string
	Timeout       time.Duration
	MaxSolutions  int
	SATSolver     string
	SATConfigPath string
}

// GenerationConfig holds the defaults used when a caller does not pass options.
type GenerationConfig struct {
	AvoidBackToBack         bool
	AvoidBackToBackStudents bool
	PreferEvenDistribution  bool
	SpreadCourseSessions    bool
	MaxHoursPerDay          int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		Engine:        strings.ToLower(v.GetString("SOLVER_ENGINE")),
		Backend:       strings.ToLower(v.GetString("SOLVER_BACKEND")),
		Timeout:       parseDuration(v.GetString("SOLVER_TIMEOUT"), 30*time.Second),
		MaxSolutions:  v.GetInt("SOLVER_MAX_SOLUTIONS"),
		SATSolver:     strings.ToLower(v.GetString("SAT_SOLVER")),
		SATConfigPath: v.GetString("SAT_CONFIG_PATH"),
	}

	cfg.Generation = GenerationConfig{
		AvoidBackToBack:         v.GetBool("GEN_AVOID_BACK_TO_BACK"),
		AvoidBackToBackStudents: v.GetBool("GEN_AVOID_BACK_TO_BACK_STUDENTS"),
		PreferEvenDistribution:  v.GetBool("GEN_PREFER_EVEN_DISTRIBUTION"),
		SpreadCourseSessions:    v.GetBool("GEN_SPREAD_COURSE_SESSIONS"),
		MaxHoursPerDay:          v.GetInt("GEN_MAX_HOURS_PER_DAY"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_ENGINE", "constraint")
	v.SetDefault("SOLVER_BACKEND", "fd")
	v.SetDefault("SOLVER_TIMEOUT", "30s")
	v.SetDefault("SOLVER_MAX_SOLUTIONS", 32)
	v.SetDefault("SAT_SOLVER", "kissat")
	v.SetDefault("SAT_CONFIG_PATH", "config.json")

	v.SetDefault("GEN_AVOID_BACK_TO_BACK", false)
	v.SetDefault("GEN_AVOID_BACK_TO_BACK_STUDENTS", false)
	v.SetDefault("GEN_PREFER_EVEN_DISTRIBUTION", false)
	v.SetDefault("GEN_SPREAD_COURSE_SESSIONS", false)
	v.SetDefault("GEN_MAX_HOURS_PER_DAY", 6)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
