// Package config layers the service configuration: built-in defaults, an
// optional JSON file, VELLUM_* environment variables, then command-line
// flags. Later layers win.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port          string `json:"port"`
	ConfigRoot    string `json:"configRoot"`
	MongoURI      string `json:"mongoUri"`
	MongoDatabase string `json:"mongoDatabase"`
	AutoProcess   bool   `json:"autoProcess"`
	LoadTestData  bool   `json:"loadTestData"`
	Parallelism   int    `json:"parallelism"`
	MaxDepth      int    `json:"maxDepth"`
}

func def() Config {
	return Config{
		Port:          "8081",
		ConfigRoot:    "configurations",
		MongoURI:      "",
		MongoDatabase: "vellum",
		AutoProcess:   false,
		LoadTestData:  false,
		Parallelism:   1,
		MaxDepth:      0,
	}
}

// Addr is the listen address derived from the configured port.
func (c Config) Addr() string { return ":" + c.Port }

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		switch strings.TrimSpace(strings.ToLower(v)) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
	}
	return fallback
}

func getenvInt(k string, fallback int) int {
	if v, ok := os.LookupEnv(k); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

// applyEnv overlays VELLUM_* environment variables onto cfg.
func applyEnv(cfg Config) Config {
	cfg.Port = getenv("VELLUM_PORT", cfg.Port)
	cfg.ConfigRoot = getenv("VELLUM_CONFIG_ROOT", cfg.ConfigRoot)
	cfg.MongoURI = getenv("VELLUM_MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = getenv("VELLUM_MONGO_DATABASE", cfg.MongoDatabase)
	cfg.AutoProcess = getenvBool("VELLUM_AUTO_PROCESS", cfg.AutoProcess)
	cfg.LoadTestData = getenvBool("VELLUM_LOAD_TEST_DATA", cfg.LoadTestData)
	cfg.Parallelism = getenvInt("VELLUM_PARALLELISM", cfg.Parallelism)
	cfg.MaxDepth = getenvInt("VELLUM_MAX_DEPTH", cfg.MaxDepth)
	return cfg
}

// LoadWithPath reads the JSON file at jsonPath if it exists, then applies
// environment variables and flags on top.
func LoadWithPath(jsonPath string) Config {
	return load(jsonPath, flag.NewFlagSet(os.Args[0], flag.ExitOnError), os.Args[1:])
}

func load(jsonPath string, fs *flag.FlagSet, args []string) Config {
	cfg := def()

	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		if fromFile, err := loadJSON(jsonPath); err == nil {
			cfg = fromFile
		}
	}

	cfg = applyEnv(cfg)

	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", cfg.Port, "HTTP port")
	configRoot := fs.String("config-root", cfg.ConfigRoot, "Root directory of configuration artifacts")
	mongoURI := fs.String("mongo-uri", cfg.MongoURI, "MongoDB connection URI (empty = API-only mode)")
	mongoDB := fs.String("mongo-database", cfg.MongoDatabase, "MongoDB database name")
	autoProcess := fs.Bool("auto-process", cfg.AutoProcess, "Run all collection pipelines on startup")
	loadTestData := fs.Bool("load-test-data", cfg.LoadTestData, "Load test fixtures during processing")
	parallelism := fs.Int("parallelism", cfg.Parallelism, "Concurrent collection pipelines")
	maxDepth := fs.Int("max-depth", cfg.MaxDepth, "Reference resolution depth limit (0 = default)")

	if err := fs.Parse(args); err != nil {
		return cfg
	}

	// A different config file named on the command line replaces the file
	// layer; environment and explicit flags still win over it.
	if *configPath != jsonPath {
		if fromFile, err := loadJSON(*configPath); err == nil {
			cfg = applyEnv(fromFile)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = strings.TrimSpace(*port)
		case "config-root":
			cfg.ConfigRoot = strings.TrimSpace(*configRoot)
		case "mongo-uri":
			cfg.MongoURI = strings.TrimSpace(*mongoURI)
		case "mongo-database":
			cfg.MongoDatabase = strings.TrimSpace(*mongoDB)
		case "auto-process":
			cfg.AutoProcess = *autoProcess
		case "load-test-data":
			cfg.LoadTestData = *loadTestData
		case "parallelism":
			cfg.Parallelism = *parallelism
		case "max-depth":
			cfg.MaxDepth = *maxDepth
		}
	})

	return cfg
}

// Load reads the default config file location.
func Load() Config {
	return LoadWithPath("config.json")
}
