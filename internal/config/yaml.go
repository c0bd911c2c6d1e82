package config

import (
	"gopkg.in/yaml.v3"
)

type commandView struct {
	Source  string   `yaml:"source,omitempty"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Timeout string   `yaml:"timeout"`
}

type configView struct {
	Interval  string      `yaml:"interval"`
	LogLevel  string      `yaml:"log_level"`
	ShowText  bool        `yaml:"show_text"`
	Inventory commandView `yaml:"inventory"`
	Audio     commandView `yaml:"audio"`
	Accessory commandView `yaml:"accessory"`
	HTTP      struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
}

// YAML renders the effective config in the file format Load reads
func (c *Config) YAML() ([]byte, error) {
	view := configView{
		Interval:  c.Interval.String(),
		LogLevel:  c.LogLevel,
		ShowText:  c.ShowText,
		Inventory: toView("", c.Inventory),
		Audio:     toView(c.Audio.Source, c.Audio.CommandConfig),
		Accessory: toView(c.Accessory.Source, c.Accessory.CommandConfig),
	}
	view.HTTP.Addr = c.HTTP.Addr
	return yaml.Marshal(view)
}

func toView(source string, cc CommandConfig) commandView {
	return commandView{
		Source:  source,
		Command: cc.Command,
		Args:    cc.Args,
		Timeout: cc.Timeout.String(),
	}
}
