package config

import (
	"bytes"
	_ "embed"
	"text/template"

	cmtconfig "github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/libs/os"
)

// DefaultDirPerm is the default permissions used when creating directories.
const DefaultDirPerm = 0o700

var appTemplate *template.Template

func init() {
	var err error
	if appTemplate, err = template.New("appConfigTemplate").Parse(defaultAppTemplate); err != nil {
		panic(err)
	}
}

// WriteConfigFile writes the CometBFT sections followed by the [app] section.
func WriteConfigFile(configFilePath string, cfg *Config) {
	cmtconfig.WriteConfigFile(configFilePath, cfg.Config)

	var buffer bytes.Buffer
	buffer.Write(os.MustReadFile(configFilePath))
	if err := appTemplate.Execute(&buffer, cfg); err != nil {
		panic(err)
	}
	os.MustWriteFile(configFilePath, buffer.Bytes(), 0o644)
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in AppConfig in config/config.go.
//
//go:embed app.toml.tpl
var defaultAppTemplate string
