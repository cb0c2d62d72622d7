package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/darianmavgo/mkxlsx/converters/common"
	"github.com/darianmavgo/mkxlsx/converters/textenc"
)

// Config represents the application configuration.
type Config struct {
	Encoding    string   `hcl:"encoding,optional"`
	Delimiter   string   `hcl:"delimiter,optional"`
	Recursive   bool     `hcl:"recursive,optional"`
	Extensions  []string `hcl:"extensions,optional"`
	SampleSize  int      `hcl:"sample_size,optional"`
	Placeholder string   `hcl:"placeholder,optional"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Encoding:    common.DefaultEncoding,
		Extensions:  []string{".csv"},
		SampleSize:  common.DefaultSampleSize,
		Placeholder: common.DefaultPlaceholder,
	}
}

// Load reads the configuration from the given HCL file.
// Attributes missing from the file keep their default values.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file: %s", diags.Error())
	}

	cfg := DefaultConfig()
	diags = gohcl.DecodeBody(file.Body, nil, cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config: %s", diags.Error())
	}

	return cfg, nil
}

// Validate checks the values and converts them into the converter settings.
func (c *Config) Validate() (*common.ConversionConfig, error) {
	delim, err := common.ParseDelimiter(c.Delimiter)
	if err != nil {
		return nil, err
	}
	if _, err := textenc.Lookup(c.Encoding); err != nil {
		return nil, err
	}
	if c.SampleSize <= 0 || c.SampleSize > common.MaxSampleSize {
		return nil, fmt.Errorf("sample_size must be between 1 and %d, got %d", common.MaxSampleSize, c.SampleSize)
	}
	if len(c.Extensions) == 0 {
		return nil, fmt.Errorf("at least one extension is required")
	}

	return &common.ConversionConfig{
		Delimiter:  delim,
		Encoding:   c.Encoding,
		SampleSize: c.SampleSize,
	}, nil
}

// Export writes the configuration to the specified file in HCL format.
func Export(path string, cfg *Config) error {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	exts := make([]cty.Value, len(cfg.Extensions))
	for i, ext := range cfg.Extensions {
		exts[i] = cty.StringVal(ext)
	}
	extVal := cty.ListValEmpty(cty.String)
	if len(exts) > 0 {
		extVal = cty.ListVal(exts)
	}

	root.SetAttributeValue("encoding", cty.StringVal(cfg.Encoding))
	root.SetAttributeValue("delimiter", cty.StringVal(cfg.Delimiter))
	root.SetAttributeValue("recursive", cty.BoolVal(cfg.Recursive))
	root.SetAttributeValue("extensions", extVal)
	root.SetAttributeValue("sample_size", cty.NumberIntVal(int64(cfg.SampleSize)))
	root.SetAttributeValue("placeholder", cty.StringVal(cfg.Placeholder))

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(f.Bytes())
	if err != nil {
		return fmt.Errorf("failed to write config to file: %w", err)
	}
	return nil
}
