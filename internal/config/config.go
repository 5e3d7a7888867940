package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kolah/covenant/contract"
)

const DefaultFile = "covenant.yaml"

type Config struct {
	Definitions              []string       `koanf:"definitions"`
	ScalarsNullableByDefault bool           `koanf:"scalars-nullable-by-default"`
	BasePath                 string         `koanf:"base-path"`
	LogLevel                 string         `koanf:"log-level"`
	Version                  VersionConfig  `koanf:"version"`
	Stub                     StubConfig     `koanf:"stub"`
	OpenAPI                  OpenAPIConfig  `koanf:"openapi"`
	Generate                 GenerateConfig `koanf:"generate"`
}

// VersionConfig selects the contract version of a request: the Header value
// when present, Static otherwise.
type VersionConfig struct {
	Static string `koanf:"static"`
	Header string `koanf:"header"`
}

type StubConfig struct {
	Address string `koanf:"address"`
	Metrics bool   `koanf:"metrics"`
	// Patches maps an endpoint name to a JSON merge patch applied to its
	// served examples. A string value holds the patch as JSON text.
	Patches map[string]any `koanf:"patches"`
}

type OpenAPIConfig struct {
	Title  string `koanf:"title"`
	Output string `koanf:"output"`
}

type GenerateConfig struct {
	OutputDir string `koanf:"output-dir"`
	Package   string `koanf:"package"`
	// Templates is a directory whose templates replace the embedded ones.
	// Templates can call pascalCase, goName, testName, goComment, quote, lower
	// and join.
	Templates string `koanf:"templates"`
}

var defaults = map[string]any{
	"log-level":           "info",
	"stub.address":        ":8080",
	"openapi.title":       "API",
	"generate.output-dir": ".",
	"generate.package":    "contracts",
}

// BindCommonFlags binds the flags shared by every command.
func BindCommonFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: covenant.yaml)")
	flags.StringSliceP("definitions", "d", nil, "Definition file globs")
	flags.Bool("scalars-nullable-by-default", false, "Accept null for every scalar unless nullable: false")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("version-static", "", "Contract version used when no version header is sent")
	flags.String("version-header", "", "Request header carrying the contract version")
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile, _ = cmd.PersistentFlags().GetString("config")
	}
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	getString := func(name string) string {
		if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
			return v
		}
		if v, err := cmd.PersistentFlags().GetString(name); err == nil && v != "" {
			return v
		}
		return ""
	}

	getStringSlice := func(name string) []string {
		if v, err := cmd.Flags().GetStringSlice(name); err == nil && len(v) > 0 {
			return v
		}
		if v, err := cmd.PersistentFlags().GetStringSlice(name); err == nil && len(v) > 0 {
			return v
		}
		return nil
	}

	flagChanged := func(name string) bool {
		return cmd.Flags().Changed(name) || cmd.PersistentFlags().Changed(name)
	}

	getBool := func(name string) bool {
		if v, err := cmd.Flags().GetBool(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetBool(name); err == nil {
			return v
		}
		return false
	}

	if v := getStringSlice("definitions"); len(v) > 0 {
		m["definitions"] = v
	}
	if flagChanged("scalars-nullable-by-default") {
		m["scalars-nullable-by-default"] = getBool("scalars-nullable-by-default")
	}
	if v := getString("log-level"); v != "" {
		m["log-level"] = v
	}
	if v := getString("version-static"); v != "" {
		m["version.static"] = v
	}
	if v := getString("version-header"); v != "" {
		m["version.header"] = v
	}
	if v := getString("base-path"); v != "" {
		m["base-path"] = v
	}

	// Command-specific flags
	if v := getString("address"); v != "" {
		m["stub.address"] = v
	}
	if flagChanged("metrics") {
		m["stub.metrics"] = getBool("metrics")
	}
	if v := getString("title"); v != "" {
		m["openapi.title"] = v
	}
	if v := getString("output"); v != "" {
		m["openapi.output"] = v
	}
	if v := getString("output-dir"); v != "" {
		m["generate.output-dir"] = v
	}
	if v := getString("package"); v != "" {
		m["generate.package"] = v
	}
	if v := getString("templates"); v != "" {
		m["generate.templates"] = v
	}

	return m
}

func (c *Config) Validate() error {
	if len(c.Definitions) == 0 {
		return fmt.Errorf("at least one definitions glob is required")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.Stub.Address == "" {
		return fmt.Errorf("stub address is required")
	}
	for _, name := range c.PatchedEndpoints() {
		if _, err := c.Patch(name); err != nil {
			return err
		}
	}
	if c.Generate.Package == "" {
		return fmt.Errorf("package name is required")
	}
	if c.Generate.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// RequireVersion reports whether requests can be given a contract version.
func (c *Config) RequireVersion() error {
	if c.Version.Static == "" && c.Version.Header == "" {
		return fmt.Errorf("a static version or a version header is required")
	}
	return nil
}

func (c *Config) ContractOptions() contract.Options {
	return contract.Options{ScalarsNullableByDefault: c.ScalarsNullableByDefault}
}

// NewLogger builds a text logger writing to stderr at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// Patch returns the stub merge patch of an endpoint as JSON.
func (c *Config) Patch(name string) ([]byte, error) {
	patch, ok := c.Stub.Patches[name]
	if !ok {
		return nil, fmt.Errorf("no stub patch for %s", name)
	}
	if text, ok := patch.(string); ok {
		if !json.Valid([]byte(text)) {
			return nil, fmt.Errorf("stub patch for %s is not valid JSON", name)
		}
		return []byte(text), nil
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encoding stub patch for %s: %w", name, err)
	}
	return data, nil
}

// PatchedEndpoints lists the endpoint names with a stub patch, sorted.
func (c *Config) PatchedEndpoints() []string {
	names := make([]string, 0, len(c.Stub.Patches))
	for name := range c.Stub.Patches {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
