package internal

import (
	"fmt"
	"mcserve/errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Config struct {
	ServerCommand     string        `env:"SERVER_COMMAND,default=java" validate:"required"`
	ServerArgs        string        `env:"SERVER_ARGS,default=-Xmx1024M -Xms1024M -jar minecraft_server.jar nogui"`
	ServerDir         string        `env:"SERVER_DIR"`
	StopCommand       string        `env:"STOP_COMMAND,default=stop" validate:"required"`
	StopTimeout       time.Duration `env:"STOP_TIMEOUT,default=30s" validate:"gte=0"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	HealthInterval    time.Duration `env:"HEALTH_INTERVAL,default=30s" validate:"gte=0"`
	TimelineCapacity  int           `env:"TIMELINE_CAPACITY,default=100" validate:"gt=0"`
	BufferSize        int           `env:"BUFFER_SIZE,default=256" validate:"gt=0"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	Host              string        `env:"HOST,default=0.0.0.0" validate:"required"`
	Port              int           `env:"PORT,default=9999" validate:"gte=1,lte=65535"`
	GrpcPort          int           `env:"GRPC_PORT,default=0" validate:"gte=0,lte=65535"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH"`
	JournalPageSize   int           `env:"JOURNAL_PAGE_SIZE,default=50" validate:"gt=0"`
	DebugPort         int           `env:"DEBUG_PORT,default=8081" validate:"gte=1,lte=65535"`
	EnableSearch      bool          `env:"ENABLE_SEARCH,default=false"`
	SearchFilepath    string        `env:"SEARCH_FILEPATH"`
	CensoredWordsFile string        `env:"CENSORED_WORDS_FILE"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,default=*" validate:"required"`
}

// Validate checks every field and the replacement character.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return err
	}
	return nil
}

// Args splits SERVER_ARGS on white space.
func (c Config) Args() []string {
	return strings.Fields(c.ServerArgs)
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"%w: CHARACTER_REPLACEMENT must be a single character, got %q",
			errors.ErrInvalidConfig, str,
		)
	}
	return r[0], nil
}
