package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.True(cfg.GetBool(ConfigTranspositionTable))
	is.True(cfg.GetBool(ConfigNullWindow))
	is.True(cfg.GetInt(ConfigThreads) >= 1)
	is.Equal(cfg.GetInt(ConfigBenchDeals), 100)
	is.Equal(cfg.GetDuration(ConfigSolveTimeout), time.Duration(0))
}

func TestLoadPrecedence(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "ddsolver.yaml")
	is.NoErr(os.WriteFile(path, []byte("threads: 3\nmax-nodes: 5000\nsolve-timeout: 2s\n"), 0o644))

	t.Setenv("DDSOLVER_MAX_NODES", "7000")
	t.Setenv("DDSOLVER_NATS_SUBJECT", "dd.env")

	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--config-file=" + path, "--threads=5", "--debug"}))
	is.Equal(cfg.GetInt(ConfigThreads), 5)
	// env wins over the file
	is.Equal(cfg.GetInt(ConfigMaxNodes), 7000)
	is.Equal(cfg.GetDuration(ConfigSolveTimeout), 2*time.Second)
	is.Equal(cfg.GetString(ConfigNatsSubject), "dd.env")
	is.True(cfg.GetBool(ConfigDebug))
}

func TestLoadErrors(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.True(cfg.Load([]string{"threads=4"}) != nil)
	is.True(cfg.Load([]string{"--config-file=/does/not/exist.yaml"}) != nil)
}
