package config

import (
	"os"
	"strconv"

	"github.com/pelletier/go-toml"
	"github.com/xyproto/env/v2"
	"tlog.app/go/errors"

	"github.com/developerfred/Bend-PVM-sub000/compiler/opt"
)

type (
	Config struct {
		Check    Check    `toml:"check"`
		Optimize Optimize `toml:"optimize"`
		Codegen  Codegen  `toml:"codegen"`
		Build    Build    `toml:"build"`
	}

	Check struct {
		FreshPrefix    string `toml:"fresh-prefix"`
		UnifyStepLimit int    `toml:"unify-step-limit"`
	}

	Optimize struct {
		Level         string `toml:"level"`
		MaxIterations int    `toml:"max-iterations"`
	}

	Codegen struct {
		Comments bool `toml:"comments"`
		MaxDepth int  `toml:"max-depth"`
	}

	Build struct {
		Jobs int `toml:"jobs"`
	}
)

const FileName = "bendc.toml"

// Environment overrides.
const (
	EnvOptLevel      = "BENDC_OPT_LEVEL"
	EnvMaxIterations = "BENDC_MAX_ITERATIONS"
	EnvJobs          = "BENDC_JOBS"
	EnvComments      = "BENDC_COMMENTS"
)

func Default() *Config {
	return &Config{
		Check: Check{
			FreshPrefix:    "t",
			UnifyStepLimit: 100000,
		},
		Optimize: Optimize{
			Level:         opt.Standard.String(),
			MaxIterations: opt.DefaultMaxIterations,
		},
		Codegen: Codegen{
			MaxDepth: 512,
		},
		Build: Build{
			Jobs: 4,
		},
	}
}

// Load reads the file over the defaults.
func Load(name string) (*Config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "%v", name)
	}

	return c, nil
}

// Parse decodes TOML data over the defaults. Missing keys keep default values.
func Parse(data []byte) (*Config, error) {
	c := Default()

	err := toml.Unmarshal(data, c)
	if err != nil {
		return nil, errors.Wrap(err, "decode toml")
	}

	err = c.Validate()
	if err != nil {
		return nil, err
	}

	return c, nil
}

// FromEnv applies environment overrides.
func (c *Config) FromEnv() (err error) {
	env.Load()

	if env.Has(EnvOptLevel) {
		c.Optimize.Level = env.Str(EnvOptLevel)
	}

	c.Optimize.MaxIterations, err = envInt(EnvMaxIterations, c.Optimize.MaxIterations)
	if err != nil {
		return err
	}

	c.Build.Jobs, err = envInt(EnvJobs, c.Build.Jobs)
	if err != nil {
		return err
	}

	if env.Has(EnvComments) {
		c.Codegen.Comments = env.Bool(EnvComments)
	}

	return c.Validate()
}

func envInt(name string, def int) (int, error) {
	if !env.Has(name) {
		return def, nil
	}

	v, err := strconv.Atoi(env.Str(name))
	if err != nil {
		return def, errors.Wrap(err, "%v", name)
	}

	return v, nil
}

func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}

	switch {
	case c.Check.FreshPrefix == "":
		return errors.New("check: empty fresh-prefix")
	case c.Check.UnifyStepLimit <= 0:
		return errors.New("check: bad unify-step-limit: %d", c.Check.UnifyStepLimit)
	case c.Optimize.MaxIterations <= 0:
		return errors.New("optimize: bad max-iterations: %d", c.Optimize.MaxIterations)
	case c.Codegen.MaxDepth <= 0:
		return errors.New("codegen: bad max-depth: %d", c.Codegen.MaxDepth)
	case c.Build.Jobs <= 0:
		return errors.New("build: bad jobs: %d", c.Build.Jobs)
	}

	return nil
}

func (c *Config) Level() (opt.Level, error) {
	l, err := opt.ParseLevel(c.Optimize.Level)
	if err != nil {
		return l, errors.Wrap(err, "optimize")
	}

	return l, nil
}

func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(*c)
}
