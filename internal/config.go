package internal

import (
	"fmt"
	"time"
)

type Config struct {
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH"`
	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	RejectEmptyBody      bool          `env:"REJECT_EMPTY_BODY,default=true"`
	RejectDuplicateUsers bool          `env:"REJECT_DUPLICATE_USERS,default=true"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	CensoredWords        string        `env:"CENSORED_WORDS"`
	CensoredWordsDir     string        `env:"CENSORED_WORDS_DIR"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
	SearchEnabled        bool          `env:"SEARCH_ENABLED,default=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH"`
	SearchLimit          int           `env:"SEARCH_LIMIT,default=20"`
	DebugInspect         bool          `env:"DEBUG_INSPECT,default=false"`
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
