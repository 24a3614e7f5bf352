package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "metrics_first.yml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "metrics_first.yaml"

// DbtProjectFile is the dbt project file whose vars may carry settings.
const DbtProjectFile = "dbt_project.yml"

// DbtVarsKey is the koanf path of the settings block inside dbt_project.yml.
const DbtVarsKey = "vars.dbt_metrics_first"

// maxUpwardSearchLevels limits how far up the directory tree to search.
const maxUpwardSearchLevels = 10

// Sources records which files contributed to a loaded configuration.
type Sources struct {
	ConfigFile string // metrics_first.yml or the explicit config file
	DbtProject string // dbt_project.yml, set only when it carried a settings block
}

// LoadProjectLayers merges the project file layers into k, lowest priority
// first: the dbt_metrics_first vars of dbt_project.yml in root, then the
// explicit config file or the metrics_first.yml found in root.
func LoadProjectLayers(k *koanf.Koanf, root, explicit string) (Sources, error) {
	var src Sources

	dbtPath := filepath.Join(root, DbtProjectFile)
	if _, err := os.Stat(dbtPath); err == nil {
		ok, err := loadDbtVars(k, dbtPath)
		if err != nil {
			return src, err
		}
		if ok {
			src.DbtProject = dbtPath
		}
	}

	cfgPath := explicit
	if cfgPath == "" {
		cfgPath = FindConfigFile(root)
	}
	if cfgPath != "" {
		if err := k.Load(file.Provider(cfgPath), yaml.Parser()); err != nil {
			return src, fmt.Errorf("error reading config file %s: %w", cfgPath, err)
		}
		src.ConfigFile = cfgPath
	}

	return src, nil
}

// loadDbtVars merges the dbt_metrics_first block of a dbt project file.
// It reports whether the block was present.
func loadDbtVars(k *koanf.Koanf, path string) (bool, error) {
	dk := koanf.New(".")
	if err := dk.Load(file.Provider(path), yaml.Parser()); err != nil {
		return false, fmt.Errorf("error reading dbt project file %s: %w", path, err)
	}
	if !dk.Exists(DbtVarsKey) {
		return false, nil
	}
	if err := k.Merge(dk.Cut(DbtVarsKey)); err != nil {
		return false, fmt.Errorf("error merging %s from %s: %w", DbtVarsKey, path, err)
	}
	return true, nil
}

// LoadFromDir loads a ProjectConfig from the given directory with defaults
// applied. A directory without any config source yields the defaults.
func LoadFromDir(dir string) (*ProjectConfig, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, err
	}

	if _, err := LoadProjectLayers(k, dir, ""); err != nil {
		return nil, err
	}

	var cfg ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)

	return &cfg, nil
}

// FindConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func FindConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// IsProjectDir reports whether dir holds a metrics-first config file or a
// dbt project file.
func IsProjectDir(dir string) bool {
	if FindConfigFile(dir) != "" {
		return true
	}
	_, err := os.Stat(filepath.Join(dir, DbtProjectFile))
	return err == nil
}

// FindProjectRoot walks up from the given directory to find a project
// directory. Returns empty string if not found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if IsProjectDir(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
	return ""
}
