package config

import (
	"os"

	"petspa-text-bot/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-yaml"
)

type (
	// configuration contains the application settings
	Conf struct {
		Server Server `yaml:"server"`

		Supabase Supabase `yaml:"supabase"`
		Gemini   Gemini   `yaml:"gemini"`

		// path to the bot copy file (greeting, error texts, AI prompt)
		Script string `yaml:"script"`
		// how many transcript turns are forwarded to the AI
		HistoryDepth int `yaml:"history_depth"`

		RunInDebug bool `yaml:"-"`
	}

	Server struct {
		Host   string `yaml:"host"`
		Listen string `yaml:"listen"`
	}

	Supabase struct {
		URL     string `yaml:"url"`
		AnonKey string `yaml:"anon_key"`
	}

	Gemini struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	}
)

func GetConfig(path string, cnf *Conf) {
	input, err := os.ReadFile(path)
	if err != nil {
		logger.Crit("Unable to read config file:", err)
	}

	if err := yaml.Unmarshal(input, cnf); err != nil {
		logger.Crit("Unable to parse config file:", err)
	}

	// secrets may come from the environment instead of the file
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		cnf.Supabase.AnonKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cnf.Gemini.APIKey = v
	}

	if cnf.Gemini.Model == "" {
		cnf.Gemini.Model = "gemini-2.5-flash"
	}
	if cnf.HistoryDepth <= 0 {
		cnf.HistoryDepth = 6
	}
}

func Inject(key string, cnf *Conf) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, cnf)
	}
}
