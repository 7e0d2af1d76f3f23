package internal

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/tidwall/gjson"
)

const (
	StateDirName = ".flomo"
	ConfigFile   = StateDirName + "/config.yaml"

	obsidianAppConfig = ".obsidian/app.json"
	attachmentSubdir  = "flomo"
)

// Vault is the notes folder imports are written into.
type Vault struct {
	Path      string
	StatePath string // .flomo directory path
}

func (v Vault) ConfigPath() string {
	return filepath.Join(v.StatePath, "config.yaml")
}

func (v Vault) Initialized() bool {
	info, err := os.Stat(v.StatePath)
	return err == nil && info.IsDir()
}

func (v Vault) Filesystem() billy.Filesystem {
	return osfs.New(v.Path)
}

func NewVault(dir string) Vault {
	return Vault{Path: dir, StatePath: filepath.Join(dir, StateDirName)}
}

type VaultResolver struct {
	getwd func() (string, error)
}

func NewVaultResolver() *VaultResolver {
	return &VaultResolver{getwd: os.Getwd}
}

// Resolve returns the explicit vault when given, else the nearest ancestor of
// the working directory holding a .flomo directory, else the working
// directory itself.
func (r *VaultResolver) Resolve(explicit string) (Vault, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return Vault{}, err
		}
		return NewVault(abs), nil
	}

	cwd, err := r.getwd()
	if err != nil {
		return Vault{}, err
	}
	if v, ok := r.findVault(cwd); ok {
		return v, nil
	}
	return NewVault(cwd), nil
}

func (r *VaultResolver) findVault(dir string) (Vault, bool) {
	for {
		v := NewVault(dir)
		if v.Initialized() {
			return v, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Vault{}, false
		}
		dir = parent
	}
}

// AttachmentFolder is where export attachments land inside the vault:
// override when set, else Obsidian's attachmentFolderPath plus "flomo".
func AttachmentFolder(sink Sink, override string) string {
	if override != "" {
		return strings.Trim(path.Clean("/"+filepath.ToSlash(override)), "/")
	}

	base := ""
	if data, err := sink.ReadText(obsidianAppConfig); err == nil {
		base = gjson.Get(data, "attachmentFolderPath").String()
	}

	base = strings.Trim(path.Clean("/"+filepath.ToSlash(base)), "/")
	return path.Join(base, attachmentSubdir)
}
