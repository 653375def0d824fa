// Package config resolves one invocation's configuration: the entry date and
// output path, the template source, the journal start date, and the location
// of the encryption config.
//
// The start date is the only persisted value. It lives in a TOML file under
// the user config directory and is created on first run (interactively or
// defaulting to today) or by an explicit set operation.
package config
