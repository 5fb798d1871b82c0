// Package config loads the autoagenda process configuration.
//
// Values come from environment variables, can be overridden with command
// line flags (see Config.BindFlags), and the business hours can also be
// kept in a YAML policy file named by POLICY_FILE or --policy-file.
package config
