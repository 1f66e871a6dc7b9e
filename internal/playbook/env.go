package playbook

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables consulted after the playbook file and before flags.
const (
	EnvSiteURL   = "DOCSITE_SITE_URL"
	EnvCacheDir  = "DOCSITE_CACHE_DIR"
	EnvFetch     = "DOCSITE_FETCH"
	EnvLogLevel  = "DOCSITE_LOG_LEVEL"
	EnvLogFormat = "DOCSITE_LOG_FORMAT"
	EnvNATSURL   = "DOCSITE_NATS_URL"
)

// overlayDotEnv returns env merged with the .env file in dir. Keys already in
// env are kept.
func overlayDotEnv(dir string, env map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(env))
	for k, v := range env {
		merged[k] = v
	}
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return merged, nil
	}
	fromFile, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}
	for k, v := range fromFile {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return merged, nil
}

// expand substitutes ${VAR} and $VAR references from env. Unknown variables
// expand to the empty string.
func expand(raw string, env map[string]string) string {
	return os.Expand(raw, func(key string) string { return env[key] })
}

func applyEnv(pb *Playbook, env map[string]string) {
	if v := env[EnvSiteURL]; v != "" {
		pb.Site.URL = v
	}
	if v := env[EnvCacheDir]; v != "" {
		pb.Runtime.CacheDir = v
	}
	if v := env[EnvFetch]; v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			pb.Runtime.Fetch = b
		}
	}
	if v := env[EnvLogLevel]; v != "" {
		pb.Runtime.Log.Level = v
	}
	if v := env[EnvLogFormat]; v != "" {
		pb.Runtime.Log.Format = v
	}
	if v := env[EnvNATSURL]; v != "" {
		pb.Notify.NATS.URL = v
	}
}
