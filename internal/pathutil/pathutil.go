// Package pathutil manages application file paths and locations
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
)

const (
	// DirPermission is used for every directory Vela creates.
	DirPermission = 0o755
	// FilePermission is used for the databases and the config file.
	FilePermission = 0o600
)

// Paths holds all application path configurations.
type Paths struct {
	configDir      string
	configFileName string
	dbFileName     string
	statsFileName  string
	logFileName    string

	// Computed absolute paths
	configFilePath string
	dbFilePath     string
	statsFilePath  string
	logFilePath    string
}

var (
	paths *Paths
	once  sync.Once
)

// Initialize must be called once at program startup.
func Initialize() error {
	var initErr error

	once.Do(func() {
		paths = &Paths{
			configDir:      "vela",
			configFileName: "config.yml",
			dbFileName:     "vela.db",
			statsFileName:  "stats.db",
			logFileName:    "vela.log",
		}

		paths.applyEnvironmentOverrides()
		initErr = paths.computePaths()
	})

	return initErr
}

// Must panics if paths haven't been initialized.
func Must() *Paths {
	if paths == nil {
		panic("pathutil.Initialize() must be called before accessing paths")
	}

	return paths
}

func Dir() string {
	return Must().configDir
}

func ConfigFilePath() string {
	return Must().configFilePath
}

func DBFilePath() string {
	return Must().dbFilePath
}

func StatsFilePath() string {
	return Must().statsFilePath
}

func LogFilePath() string {
	return Must().logFilePath
}

func (p *Paths) applyEnvironmentOverrides() {
	velaEnv := strings.TrimSpace(os.Getenv("VELA_ENV"))
	if velaEnv != "" {
		p.configFileName = fmt.Sprintf("config_%s.yml", velaEnv)
		p.dbFileName = fmt.Sprintf("vela_%s.db", velaEnv)
		p.statsFileName = fmt.Sprintf("stats_%s.db", velaEnv)
		p.logFileName = fmt.Sprintf("vela_%s.log", velaEnv)
	}
}

func (p *Paths) computePaths() error {
	var err error

	relPath := filepath.Join(p.configDir, p.configFileName)

	p.configFilePath, err = xdg.ConfigFile(relPath)
	if err != nil {
		return err
	}

	// xdg.DataFile creates the parent directories of the returned path
	dataDir, err := xdg.DataFile(filepath.Join(p.configDir, p.dbFileName))
	if err != nil {
		return err
	}

	dataDir = filepath.Dir(dataDir)

	p.dbFilePath = filepath.Join(dataDir, p.dbFileName)

	p.statsFilePath = filepath.Join(dataDir, p.statsFileName)

	p.logFilePath = filepath.Join(dataDir, "log", p.logFileName)

	return nil
}
