package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestMonthMatches(t *testing.T) {
	target := date(2026, time.September, 10)

	require.True(t, monthMatches(target, "Septiembre 2026"))
	require.True(t, monthMatches(target, "septiembre 2026"))
	require.True(t, monthMatches(target, "SEPTIEMBRE"))
	require.False(t, monthMatches(target, "Octubre 2026"))
	require.False(t, monthMatches(target, ""))

	// "Junio" must not match inside "Julio" and vice versa
	require.True(t, monthMatches(date(2026, time.June, 1), "Junio 2026"))
	require.False(t, monthMatches(date(2026, time.June, 1), "Julio 2026"))
	require.False(t, monthMatches(date(2026, time.July, 1), "Junio 2026"))
}

func TestExactDay(t *testing.T) {
	one := exactDay(1)
	require.True(t, one.MatchString("1"))
	require.True(t, one.MatchString(" 1 "))
	require.False(t, one.MatchString("11"))
	require.False(t, one.MatchString("21"))

	eleven := exactDay(11)
	require.True(t, eleven.MatchString("11"))
	require.False(t, eleven.MatchString("1"))
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.True(t, config.Headless)
	require.Equal(t, "es-ES", config.Locale)
	require.Equal(t, 1280, config.ViewportWidth)
	require.Equal(t, 720, config.ViewportHeight)
	require.Equal(t, DefaultHomeURL, config.HomeURL)
}

func TestNewRunnerFillsDefaults(t *testing.T) {
	runner := NewRunner(Config{Headless: true})
	require.Equal(t, DefaultHomeURL, runner.config.HomeURL)
	require.Equal(t, "es-ES", runner.config.Locale)
}
