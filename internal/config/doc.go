// Package config holds gridcrop's runtime configuration.
//
// Values come from three places, in increasing priority: the defaults set
// by NewConfig, a YAML file (.gridcrop) with a defaults section and named
// profiles, and command-line flags. The remote remover API key can also be
// supplied through the GRIDCROP_REMOVER_API_KEY environment variable so it
// never has to appear in a file or shell history.
package config
