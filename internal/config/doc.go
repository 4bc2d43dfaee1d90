// Package config loads and validates migration manifests.
//
// A manifest is a YAML document describing one migration: the origin and
// destination endpoints, authorship policy, origin file scope, and the
// transformation pipeline. Loading discriminates transformation kinds at
// parse time so that configuration mistakes surface before any repository
// is touched, with all validation failures accumulated into one report.
package config
