package internal

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ArtifactOption selects how moments and canvas artifacts are produced.
type ArtifactOption string

const (
	OptionSkip            ArtifactOption = "skip"
	OptionCopyWithLink    ArtifactOption = "copy_with_link"
	OptionCopyWithContent ArtifactOption = "copy_with_content"
)

var ErrUnknownConfigKey = errors.New("unknown config key")

var validate = validator.New()

type Config struct {
	FlomoTarget      string           `yaml:"flomoTarget" validate:"required,excludesall=\\:*?\"<>0x7C"`
	MemoTarget       string           `yaml:"memoTarget" validate:"required,excludesall=\\:*?\"<>0x7C"`
	MergeByDate      bool             `yaml:"mergeByDate"`
	AllowBilink      bool             `yaml:"expOptionAllowbilink"`
	OptionsMoments   ArtifactOption   `yaml:"optionsMoments" validate:"oneof=skip copy_with_link copy_with_content"`
	OptionsCanvas    ArtifactOption   `yaml:"optionsCanvas" validate:"oneof=skip copy_with_link copy_with_content"`
	CanvasSize       string           `yaml:"canvasSize" validate:"oneof=S M L"`
	AttachmentTarget string           `yaml:"attachmentTarget,omitempty" validate:"excludesall=\\:*?\"<>0x7C"`
	ArchivePath      string           `yaml:"archivePath,omitempty"`
	IdentityFallback IdentityFallback `yaml:"identityFallback" validate:"oneof=none content_hash"`
	History          bool             `yaml:"history"`
	SyncedMemoIDs    []string         `yaml:"syncedMemoIds"`
	LastSyncTime     int64            `yaml:"lastSyncTime" validate:"gte=0"`
}

func DefaultConfig() *Config {
	return &Config{
		FlomoTarget:      "flomo",
		MemoTarget:       "memos",
		MergeByDate:      false,
		AllowBilink:      true,
		OptionsMoments:   OptionCopyWithLink,
		OptionsCanvas:    OptionCopyWithContent,
		CanvasSize:       "M",
		IdentityFallback: IdentityNone,
		SyncedMemoIDs:    []string{},
	}
}

// LoadConfig reads ConfigFile from the vault. A missing file yields the
// defaults; fields holding invalid values are reset to their default.
func LoadConfig(fs billy.Filesystem, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := DefaultConfig()

	data, err := util.ReadFile(fs, ConfigFile)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// A type mismatch leaves that field at its default; decoding continues
	// with the remaining fields.
	var typeErr *yaml.TypeError
	if err := yaml.Unmarshal(data, cfg); errors.As(err, &typeErr) {
		for _, msg := range typeErr.Errors {
			logger.Warn("config value invalid, using default", zap.String("error", msg))
		}
	} else if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	for _, field := range cfg.Sanitize() {
		logger.Warn("config value invalid, using default", zap.String("field", field))
	}

	return cfg, nil
}

func SaveConfig(fs billy.Filesystem, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	sink := NewFSSink(fs, nil)
	if err := sink.EnsureDir(StateDirName); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := sink.WriteText(ConfigFile, string(data)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Sanitize resets every invalid field to its default and returns the yaml
// keys that were reset.
func (c *Config) Sanitize() []string {
	if c.SyncedMemoIDs == nil {
		c.SyncedMemoIDs = []string{}
	}

	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	def := DefaultConfig()
	var reset []string
	for _, fe := range verrs {
		switch fe.StructField() {
		case "FlomoTarget":
			c.FlomoTarget = def.FlomoTarget
			reset = append(reset, "flomoTarget")
		case "MemoTarget":
			c.MemoTarget = def.MemoTarget
			reset = append(reset, "memoTarget")
		case "OptionsMoments":
			c.OptionsMoments = def.OptionsMoments
			reset = append(reset, "optionsMoments")
		case "OptionsCanvas":
			c.OptionsCanvas = def.OptionsCanvas
			reset = append(reset, "optionsCanvas")
		case "CanvasSize":
			c.CanvasSize = def.CanvasSize
			reset = append(reset, "canvasSize")
		case "AttachmentTarget":
			c.AttachmentTarget = def.AttachmentTarget
			reset = append(reset, "attachmentTarget")
		case "IdentityFallback":
			c.IdentityFallback = def.IdentityFallback
			reset = append(reset, "identityFallback")
		case "LastSyncTime":
			c.LastSyncTime = def.LastSyncTime
			reset = append(reset, "lastSyncTime")
		}
	}
	return reset
}

func (c *Config) SyncState() SyncState {
	ids := make([]string, len(c.SyncedMemoIDs))
	copy(ids, c.SyncedMemoIDs)
	return SyncState{SyncedMemoIDs: ids, LastSyncTime: c.LastSyncTime}
}

// ApplySync stores the outcome of a run.
func (c *Config) ApplySync(ids []string, lastSync int64) {
	c.SyncedMemoIDs = ids
	c.LastSyncTime = lastSync
}

// ResetSync forgets every synced id.
func (c *Config) ResetSync() {
	c.SyncedMemoIDs = []string{}
	c.LastSyncTime = 0
}

// BulkLayout is the naming policy for archive imports.
func (c *Config) BulkLayout(attachmentDir string) Layout {
	return Layout{
		Mode:        LayoutBulk,
		Base:        path.Join(c.FlomoTarget, c.MemoTarget),
		MergeByDate: c.MergeByDate,
		Content:     ContentOptions{AllowBilink: c.AllowBilink, AttachmentDir: attachmentDir},
	}
}

// AdhocLayout is the naming policy for single page imports.
func (c *Config) AdhocLayout() Layout {
	return Layout{
		Mode:        LayoutAdhoc,
		Base:        c.FlomoTarget,
		MergeByDate: c.MergeByDate,
		Content:     ContentOptions{AllowBilink: c.AllowBilink},
	}
}

// settableKeys are the keys `Set` accepts; sync bookkeeping is excluded.
var settableKeys = map[string]bool{
	"flomoTarget":          true,
	"memoTarget":           true,
	"mergeByDate":          true,
	"expOptionAllowbilink": true,
	"optionsMoments":       true,
	"optionsCanvas":        true,
	"canvasSize":           true,
	"attachmentTarget":     true,
	"archivePath":          true,
	"identityFallback":     true,
	"history":              true,
}

// Keys lists every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the yaml rendering of one key.
func (c *Config) Get(key string) (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	var fields map[string]yaml.Node
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return "", fmt.Errorf("parse config: %w", err)
	}

	node, ok := fields[key]
	if !ok {
		if key == "attachmentTarget" || key == "archivePath" {
			return "", nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value, nil
	}

	out, err := yaml.Marshal(&node)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", key, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Set parses value as yaml into key. Values failing validation are rejected
// and leave the config unchanged.
func (c *Config) Set(key, value string) error {
	if !settableKeys[key] {
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	next := *c
	doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: key},
		{Kind: yaml.ScalarNode, Value: value},
	}}
	if err := doc.Decode(&next); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	if reset := next.Sanitize(); len(reset) > 0 {
		return fmt.Errorf("invalid value for %s: %q", key, value)
	}

	*c = next
	return nil
}
