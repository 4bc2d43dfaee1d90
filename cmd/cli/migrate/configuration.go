package migrate

import "fmt"

const (
	manifestConfigurationKeySuffixConstant    = "manifest"
	cacheRootConfigurationKeySuffixConstant   = "cache_root"
	scratchRootConfigurationKeySuffixConstant = "scratch_root"
	configurationKeyTemplateConstant          = "%s.%s"
	defaultCacheRootConstant                  = "~/.reposync/cache"
)

// CommandConfiguration stores the persisted settings of the migrate command.
type CommandConfiguration struct {
	ManifestPath string `mapstructure:"manifest"`
	CacheRoot    string `mapstructure:"cache_root"`
	ScratchRoot  string `mapstructure:"scratch_root"`
}

// DefaultConfigurationValues returns the configuration defaults keyed beneath
// the provided prefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	return map[string]any{
		fmt.Sprintf(configurationKeyTemplateConstant, configurationPrefix, cacheRootConfigurationKeySuffixConstant): defaultCacheRootConstant,
	}
}
