package testlog

import (
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var configureOnce sync.Once

// Start configures quiet structured logging for one test. Set
// MINITEL_TEST_LOG=debug to see component logs while debugging.
func Start(t *testing.T) {
	t.Helper()
	configureOnce.Do(func() {
		level := zerolog.WarnLevel
		if os.Getenv("MINITEL_TEST_LOG") == "debug" {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	})
	log.Debug().Str("test", t.Name()).Msg("test started")
}
