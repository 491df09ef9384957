package internal

import (
	"mcserve/errors"
	"testing"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)

	// Given an empty environment
	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)

	// Then every default is usable
	req.NoError(config.Validate())
	req.Equal("java", config.ServerCommand)
	req.Equal([]string{"-Xmx1024M", "-Xms1024M", "-jar", "minecraft_server.jar", "nogui"}, config.Args())
	req.Equal("stop", config.StopCommand)
	req.Equal(100, config.TimelineCapacity)
	req.Equal("0.0.0.0:9999", config.Address())
}

func TestConfig_Overrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("SERVER_COMMAND", "/opt/mc/run.sh")
	t.Setenv("SERVER_ARGS", "-jar  paper.jar   nogui")
	t.Setenv("STOP_TIMEOUT", "0")
	t.Setenv("PORT", "8080")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)

	req.NoError(config.Validate())
	req.Equal("/opt/mc/run.sh", config.ServerCommand)
	req.Equal([]string{"-jar", "paper.jar", "nogui"}, config.Args())
	req.Zero(config.StopTimeout)
	req.Equal(8080, config.Port)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		var config Config
		_, err := env.UnmarshalFromEnviron(&config)
		require.NoError(t, err)
		return config
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "Port out of range", mutate: func(c *Config) { c.Port = 70000 }},
		{name: "Unknown log level", mutate: func(c *Config) { c.LogLevel = "TRACE" }},
		{name: "No command", mutate: func(c *Config) { c.ServerCommand = "" }},
		{name: "Empty timeline", mutate: func(c *Config) { c.TimelineCapacity = 0 }},
		{name: "Several replacement characters", mutate: func(c *Config) { c.CharReplacement = "**" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(&config)
			require.ErrorIs(t, config.Validate(), errors.ErrInvalidConfig)
		})
	}
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("#")
	req.NoError(err)
	req.Equal('#', r)

	_, err = CharacterRune("")
	req.ErrorIs(err, errors.ErrInvalidConfig)
}
