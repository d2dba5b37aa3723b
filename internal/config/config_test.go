package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"sql-complexity/internal/model"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sql-complexity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func scoreFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("score", pflag.ContinueOnError)
	fs.String("dialect", "", "")
	fs.StringSlice("format", []string{"console"}, "")
	fs.Int("workers", 0, "")
	fs.Int("top", 0, "")
	fs.String("log-level", "", "")
	fs.Bool("verbose", false, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"console"}, cfg.Formats)
	assert.Equal(t, 20, cfg.TopRules)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Dialect)
	assert.Empty(t, cfg.History)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
dialect: oracle
formats: [json, md]
workers: 3
top_rules: 10
history: runs.db
`)

	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		dialect string
		formats []string
		workers int
		top     int
	}{
		{
			name:    "file over defaults",
			dialect: "oracle",
			formats: []string{"json", "md"},
			workers: 3,
			top:     10,
		},
		{
			name:    "env over file",
			env:     map[string]string{"SQLCX_WORKERS": "5", "SQLCX_FORMATS": "csv, JSON"},
			dialect: "oracle",
			formats: []string{"csv", "json"},
			workers: 5,
			top:     10,
		},
		{
			name:    "flags over env",
			env:     map[string]string{"SQLCX_WORKERS": "5"},
			args:    []string{"--workers=7", "--format=md", "--top=2", "--dialect=PG"},
			dialect: "PG",
			formats: []string{"md"},
			workers: 7,
			top:     2,
		},
		{
			name:    "unset flags do not override",
			env:     map[string]string{"SQLCX_DIALECT": "MY"},
			args:    []string{},
			dialect: "MY",
			formats: []string{"json", "md"},
			workers: 3,
			top:     10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var flags *pflag.FlagSet
			if tt.args != nil {
				flags = scoreFlags(t, tt.args...)
			}

			cfg, err := Load(path, flags)
			require.NoError(t, err)
			assert.Equal(t, path, cfg.File)
			assert.Equal(t, tt.dialect, cfg.Dialect)
			assert.Equal(t, tt.formats, cfg.Formats)
			assert.Equal(t, tt.workers, cfg.Workers)
			assert.Equal(t, tt.top, cfg.TopRules)
			assert.Equal(t, "runs.db", cfg.History)
		})
	}
}

func TestLoad_Verbose(t *testing.T) {
	cfg, err := Load("", scoreFlags(t, "--verbose", "--log-level=error"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.yaml")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{Formats: []string{"console", "csv"}, Workers: 2, TopRules: 20, LogLevel: "info", Dialect: "oracle"}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no dialect", mutate: func(c *Config) { c.Dialect = "" }},
		{name: "unknown dialect", mutate: func(c *Config) { c.Dialect = "sqlite" }, wantErr: true},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: true},
		{name: "zero top rules", mutate: func(c *Config) { c.TopRules = 0 }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.Formats = []string{"pdf"} }, wantErr: true},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ParseDialect(t *testing.T) {
	c := Config{Dialect: "postgres"}
	d, err := c.ParseDialect()
	require.NoError(t, err)
	assert.Equal(t, model.DialectPostgreSQL, d)

	_, err = (&Config{}).ParseDialect()
	assert.Error(t, err)
}
