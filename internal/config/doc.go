// Package config loads the livequotes YAML configuration.
//
// ${VAR} references are expanded from the environment before parsing, and a
// dotenv file can be preloaded with LoadEnvFile. Defaults are applied by
// LoadWithDefaults; LoadAndValidate additionally rejects unusable values.
package config
