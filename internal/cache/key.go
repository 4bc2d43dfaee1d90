package cache

import "fmt"

const (
	partialFetchKeyTemplateConstant = "%s:%s %s"
)

// Key derives the deterministic cache key for a remote repository clone. When
// partial fetch is configured the key is prefixed with the configuration path
// and migration identifier so that differently scoped partial clones never
// share state; otherwise the key is the bare URL and every migration of the
// same remote shares one full clone.
func Key(configPath string, migrationIdentifier string, url string, partialFetch bool) string {
	if partialFetch {
		return fmt.Sprintf(partialFetchKeyTemplateConstant, configPath, migrationIdentifier, url)
	}
	return url
}
