package internal

import (
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "flomo", cfg.FlomoTarget)
	assert.Equal(t, "memos", cfg.MemoTarget)
	assert.False(t, cfg.MergeByDate)
	assert.True(t, cfg.AllowBilink)
	assert.Equal(t, OptionCopyWithLink, cfg.OptionsMoments)
	assert.Equal(t, OptionCopyWithContent, cfg.OptionsCanvas)
	assert.Equal(t, "M", cfg.CanvasSize)
	assert.Equal(t, IdentityNone, cfg.IdentityFallback)
	assert.Empty(t, cfg.SyncedMemoIDs)
	assert.Zero(t, cfg.LastSyncTime)
	assert.Empty(t, cfg.Sanitize(), "defaults must validate")
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(memfs.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigPartial(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, ConfigFile, []byte("mergeByDate: true\nsyncedMemoIds: [a, b]\n"), 0644))

	cfg, err := LoadConfig(fs, nil)
	require.NoError(t, err)

	assert.True(t, cfg.MergeByDate)
	assert.Equal(t, []string{"a", "b"}, cfg.SyncedMemoIDs)
	assert.Equal(t, "flomo", cfg.FlomoTarget, "unset keys keep defaults")
}

func TestLoadConfigResetsInvalidFields(t *testing.T) {
	fs := memfs.New()
	data := "flomoTarget: \"bad|name\"\ncanvasSize: XL\noptionsMoments: sometimes\nlastSyncTime: -5\nmemoTarget: notes\n"
	require.NoError(t, util.WriteFile(fs, ConfigFile, []byte(data), 0644))

	core, logs := observer.New(zapcore.WarnLevel)
	cfg, err := LoadConfig(fs, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, "flomo", cfg.FlomoTarget)
	assert.Equal(t, "M", cfg.CanvasSize)
	assert.Equal(t, OptionCopyWithLink, cfg.OptionsMoments)
	assert.Zero(t, cfg.LastSyncTime)
	assert.Equal(t, "notes", cfg.MemoTarget)

	assert.Equal(t, 4, logs.Len())
	for _, entry := range logs.All() {
		if entry.Message != "config value invalid, using default" {
			t.Errorf("unexpected log message %q", entry.Message)
		}
	}
}

func TestLoadConfigWrongTypesFallBack(t *testing.T) {
	fs := memfs.New()
	data := "flomoTarget: notes\nmergeByDate: maybe\nsyncedMemoIds: oops\nexpOptionAllowbilink: false\n"
	require.NoError(t, util.WriteFile(fs, ConfigFile, []byte(data), 0644))

	core, logs := observer.New(zapcore.WarnLevel)
	cfg, err := LoadConfig(fs, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, "notes", cfg.FlomoTarget)
	assert.False(t, cfg.MergeByDate)
	assert.False(t, cfg.AllowBilink)
	assert.NotNil(t, cfg.SyncedMemoIDs)
	assert.Empty(t, cfg.SyncedMemoIDs)

	assert.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "config value invalid, using default", entry.Message)
	}
}

func TestLoadConfigWrongTypeKeepsValidFields(t *testing.T) {
	fs := memfs.New()
	data := "flomoTarget: notes\nmergeByDate: maybe\nsyncedMemoIds: [a, b]\n"
	require.NoError(t, util.WriteFile(fs, ConfigFile, []byte(data), 0644))

	cfg, err := LoadConfig(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, "notes", cfg.FlomoTarget)
	assert.Equal(t, []string{"a", "b"}, cfg.SyncedMemoIDs)
}

func TestLoadConfigMalformed(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, ConfigFile, []byte("mergeByDate: [unterminated\n"), 0644))

	if _, err := LoadConfig(fs, nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	fs := memfs.New()
	cfg := DefaultConfig()
	cfg.ApplySync([]string{"x", "y"}, 1704067200000)
	cfg.ArchivePath = "exports/flomo.zip"

	require.NoError(t, SaveConfig(fs, cfg))

	loaded, err := LoadConfig(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfigSyncState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplySync([]string{"a"}, 42)

	state := cfg.SyncState()
	state.SyncedMemoIDs[0] = "mutated"
	assert.Equal(t, []string{"a"}, cfg.SyncedMemoIDs, "SyncState must copy ids")
	assert.Equal(t, int64(42), state.LastSyncTime)

	cfg.ResetSync()
	assert.Empty(t, cfg.SyncedMemoIDs)
	assert.Zero(t, cfg.LastSyncTime)
}

func TestConfigLayouts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeByDate = true
	cfg.AllowBilink = false

	bulk := cfg.BulkLayout("assets/flomo")
	assert.Equal(t, LayoutBulk, bulk.Mode)
	assert.Equal(t, "flomo/memos", bulk.Base)
	assert.True(t, bulk.MergeByDate)
	assert.Equal(t, ContentOptions{AllowBilink: false, AttachmentDir: "assets/flomo"}, bulk.Content)

	adhoc := cfg.AdhocLayout()
	assert.Equal(t, LayoutAdhoc, adhoc.Mode)
	assert.Equal(t, "flomo", adhoc.Base)
}

func TestConfigGet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SyncedMemoIDs = []string{"a"}

	tests := []struct {
		key  string
		want string
	}{
		{"flomoTarget", "flomo"},
		{"mergeByDate", "false"},
		{"expOptionAllowbilink", "true"},
		{"canvasSize", "M"},
		{"attachmentTarget", ""},
		{"syncedMemoIds", "- a"},
	}

	for _, tt := range tests {
		got, err := cfg.Get(tt.key)
		if err != nil {
			t.Errorf("Get(%q): %v", tt.key, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}

	if _, err := cfg.Get("nope"); !errors.Is(err, ErrUnknownConfigKey) {
		t.Errorf("Get(nope) err = %v, want ErrUnknownConfigKey", err)
	}
}

func TestConfigSet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(*Config) bool
	}{
		{"mergeByDate", "true", false, func(c *Config) bool { return c.MergeByDate }},
		{"canvasSize", "L", false, func(c *Config) bool { return c.CanvasSize == "L" }},
		{"memoTarget", "daily", false, func(c *Config) bool { return c.MemoTarget == "daily" }},
		{"identityFallback", "content_hash", false, func(c *Config) bool { return c.IdentityFallback == IdentityContentHash }},
		{"archivePath", "/tmp/flomo.zip", false, func(c *Config) bool { return c.ArchivePath == "/tmp/flomo.zip" }},
		{"canvasSize", "XL", true, nil},
		{"mergeByDate", "perhaps", true, nil},
		{"flomoTarget", "a:b", true, nil},
		{"optionsCanvas", "never", true, nil},
		{"syncedMemoIds", "[a]", true, nil},
		{"lastSyncTime", "1", true, nil},
		{"unknown", "x", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.Set(tt.key, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, DefaultConfig(), cfg, "rejected value changed config")
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.check(cfg))
		})
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "flomoTarget")
	assert.NotContains(t, keys, "syncedMemoIds")
	assert.IsIncreasing(t, keys)
}
