package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pbaille/blog/internal/domain"
	"github.com/pbaille/blog/internal/moderation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"BLOG_DB", "BLOG_ADDR", "BLOG_APP_NAME", "BLOG_LOG_LEVEL", "BLOG_LOG_FORMAT", "BLOG_MODERATION_FILE"} {
		t.Setenv(k, "")
	}

	c := FromEnv()
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "blogApp", c.AppName)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, "blog.db", filepath.Base(c.DB))
	assert.False(t, c.IsPostgres())
	assert.NoError(t, c.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("BLOG_DB", "postgres://blog@localhost/blog?sslmode=disable")
	t.Setenv("BLOG_ADDR", "127.0.0.1:9000")
	t.Setenv("BLOG_APP_NAME", "journal")
	t.Setenv("BLOG_LOG_LEVEL", "debug")
	t.Setenv("BLOG_LOG_FORMAT", "json")

	c := FromEnv()
	assert.True(t, c.IsPostgres())
	assert.Equal(t, "127.0.0.1:9000", c.Addr)
	assert.Equal(t, "journal", c.AppName)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	c := &Config{DB: "x.db", AppName: "a", LogLevel: "loud", LogFormat: "text"}
	err := c.Validate()
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "BLOG_LOG_LEVEL", cerr.Field)

	c = &Config{DB: "x.db", AppName: "a", LogLevel: "warn", LogFormat: "xml"}
	require.ErrorAs(t, c.Validate(), &cerr)
	assert.Equal(t, "BLOG_LOG_FORMAT", cerr.Field)

	c = &Config{AppName: "a", LogLevel: "info", LogFormat: "text"}
	assert.Error(t, c.Validate())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	c := &Config{LogLevel: "warn", LogFormat: "json"}
	logger, err := c.Logger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestModerationDefault(t *testing.T) {
	c := &Config{}
	cfg, err := c.Moderation()
	require.NoError(t, err)
	assert.Equal(t, moderation.DefaultConfig(), cfg)
}

func TestModerationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moderation.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
positive_emojis: [LIKE, LOVE]
negative_words:
  - gloomy
  - grim
`), 0o644))

	c := &Config{ModerationFile: path}
	cfg, err := c.Moderation()
	require.NoError(t, err)
	assert.Equal(t, []domain.Emoji{domain.EmojiLike, domain.EmojiLove}, cfg.PositiveEmojis)
	assert.Equal(t, []string{"gloomy", "grim"}, cfg.NegativeWords)
	assert.Equal(t, moderation.DefaultConfig().PositiveWords, cfg.PositiveWords)

	m, err := moderation.New(cfg)
	require.NoError(t, err)
	assert.Error(t, m.Validate("a grim tale", "", domain.EmojiLove))
}

func TestModerationFileErrors(t *testing.T) {
	c := &Config{ModerationFile: filepath.Join(t.TempDir(), "missing.yaml")}
	_, err := c.Moderation()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("negative_words: {oops"), 0o644))
	c = &Config{ModerationFile: path}
	_, err = c.Moderation()
	assert.Error(t, err)
}

func TestSampleModerationFileMatchesDefaults(t *testing.T) {
	c := &Config{ModerationFile: filepath.Join("..", "..", "configs", "moderation.yaml")}
	cfg, err := c.Moderation()
	require.NoError(t, err)
	assert.Equal(t, moderation.DefaultConfig(), cfg)
}
