package moderation

import (
	"log/slog"
	"mcserve/errors"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestFilter_Reload(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	filter := NewFilter('#', log)

	// Given no word list
	req.False(filter.Enabled())
	req.Equal("creeper ahead", filter.Censor("creeper ahead"))

	// When a list is loaded
	req.NoError(filter.Reload([]string{"creeper"}))

	// Then chat is censored
	req.True(filter.Enabled())
	req.Equal("####### ahead", filter.Censor("creeper ahead"))

	// When a broken list is loaded, the previous one is kept
	req.ErrorIs(filter.Reload(nil), errors.ErrEmptyWords)
	req.Equal("####### ahead", filter.Censor("creeper ahead"))

	// When another list replaces it
	req.NoError(filter.Reload([]string{"ahead"}))
	req.Equal("creeper #####", filter.Censor("creeper ahead"))
}
