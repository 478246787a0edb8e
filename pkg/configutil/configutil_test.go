package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type nested struct {
	Driver string `json:"driver"`
	File   string `json:"file"`
}

type testConfig struct {
	Port     int      `json:"port"`
	Name     string   `json:"name"`
	Queries  []string `json:"queries"`
	Database nested   `json:"database"`
}

func write(t *testing.T, path, content string) {
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "dir/config.local.json5", localPath("dir/config.json5"))
	require.Equal(t, "config.local", localPath("config"))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")

	write(t, name, `{
		// comments and trailing commas are json5
		port: 8000,
		name: "base",
		database: {driver: "sqlite", file: "data.db"},
	}`)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Port)

	write(t, filepath.Join(dir, "config.local.json5"), `{
		name: "local",
		queries: ["headlight"],
		database: {file: "local.db"},
	}`)

	cfg, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	expected := testConfig{
		Port:     8000,
		Name:     "local",
		Queries:  []string{"headlight"},
		Database: nested{Driver: "sqlite", File: "local.db"},
	}
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Fatal(diff)
	}
}

func TestReadConfigMissing(t *testing.T) {
	cfg, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{}, cfg)
}

func TestReadConfigMalformed(t *testing.T) {
	name := filepath.Join(t.TempDir(), "config.json5")
	write(t, name, `{port: }`)
	_, err := ReadConfig[testConfig](name)
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	write(t, envFile, "PARTSFINDER_TEST_A=from-file\nPARTSFINDER_TEST_B=from-file\n")

	t.Setenv("PARTSFINDER_TEST_B", "from-env")
	os.Unsetenv("PARTSFINDER_TEST_A")
	t.Cleanup(func() { os.Unsetenv("PARTSFINDER_TEST_A") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	require.Equal(t, "from-file", os.Getenv("PARTSFINDER_TEST_A"))
	require.Equal(t, "from-env", os.Getenv("PARTSFINDER_TEST_B"))
}

func TestEnv(t *testing.T) {
	env := MapEnv(map[string]string{
		"NAME":    "override",
		"PORT":    "9000",
		"BAD_INT": "nine",
		"ENABLED": "true",
	})

	name := "default"
	empty := "keep"
	port := 8000
	bad := 1
	enabled := false

	env.String(&name, "NAME")
	env.String(&empty, "UNSET")
	env.Int(&port, "PORT")
	env.Int(&bad, "BAD_INT")
	env.Bool(&enabled, "ENABLED")

	require.Equal(t, "override", name)
	require.Equal(t, "keep", empty)
	require.Equal(t, 9000, port)
	require.Equal(t, 1, bad)
	require.True(t, enabled)
	require.ErrorContains(t, env.Err(), "BAD_INT")
}
