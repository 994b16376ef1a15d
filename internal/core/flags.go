package core

// EnvPrefix is prepended to every environment variable read by the CLI.
const EnvPrefix = "QGEN_"

// Flags are the global flags shared by every command.
type Flags struct {
	LogLevel       string
	ConfigFilePath string
	ProjectRoot    string
}
