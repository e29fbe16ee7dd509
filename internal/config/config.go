package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string `yaml:"addr"`
	Token          string `yaml:"token"`           // "" - no authorization
	BlockingFactor int    `yaml:"blocking_factor"` // records per host read
	Locale         string `yaml:"locale"`          // collation of variable text keys
	SeedRecords    int    `yaml:"seed_records"`    // 0 - start with no demo files
	File           string `yaml:"file"`
	Debug          bool   `yaml:"debug"`
	ConfigFile     string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		Addr:           "127.0.0.1:3200",
		BlockingFactor: 32,
		Locale:         "und",
		SeedRecords:    100,
		File:           "ITEMS",
	}
}

func NewConfig() (*Config, error) {
	return Parse(os.Args[0], os.Args[1:])
}

// Parse reads args on top of Default. When -CONFIG names a YAML file its
// values replace the defaults, and flags set explicitly override both.
func Parse(name string, args []string) (*Config, error) {
	conf := Default()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	a := fs.String("ADDR", conf.Addr, "host simulator address")
	t := fs.String("TOKEN", conf.Token, "bearer token")
	b := fs.Int("BLOCKING_FACTOR", conf.BlockingFactor, "records per host read")
	l := fs.String("LOCALE", conf.Locale, "collation locale for text keys")
	s := fs.Int("SEED_RECORDS", conf.SeedRecords, "records per demo file")
	f := fs.String("FILE", conf.File, "file to scan")
	d := fs.Bool("DEBUG", conf.Debug, "debug logging")
	c := fs.String("CONFIG", "", "yaml config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *c != "" {
		if err := conf.LoadFile(*c); err != nil {
			return nil, err
		}
		conf.ConfigFile = *c
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "ADDR":
			conf.Addr = *a
		case "TOKEN":
			conf.Token = *t
		case "BLOCKING_FACTOR":
			conf.BlockingFactor = *b
		case "LOCALE":
			conf.Locale = *l
		case "SEED_RECORDS":
			conf.SeedRecords = *s
		case "FILE":
			conf.File = *f
		case "DEBUG":
			conf.Debug = *d
		}
	})

	return conf, nil
}

func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}
