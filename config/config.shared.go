// Package config provides the configuration for the launcher.
package config

// DefaultUserFile is the user-editable configuration file, set during the build process using the -ldflags "-X mclauncher/config.DefaultUserFile=..." flag.
var DefaultUserFile = "config.yml"

// EnvPrefix is the prefix of environment variables overriding configuration keys.
const EnvPrefix = "MCL"
