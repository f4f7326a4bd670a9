package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLogRegistryLevels(t *testing.T) {
	r, err := NewLogRegistry("Paginator=debug, *=warning")
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, r.GetLogLevel("Paginator"))
	require.Equal(t, logrus.WarnLevel, r.GetLogLevel("SubscriberStore"))

	r, err = NewLogRegistry("")
	require.NoError(t, err)
	require.Equal(t, logrus.InfoLevel, r.GetLogLevel("anything"))
}

func TestLogRegistryRejectsBadConfig(t *testing.T) {
	_, err := NewLogRegistry("Paginator")
	require.Error(t, err)
	_, err = NewLogRegistry("Paginator=loud")
	require.Error(t, err)
	require.Contains(t, err.Error(), `"trace"`)
}

func TestSetLogLevelUpdatesRegisteredLoggers(t *testing.T) {
	r, err := NewLogRegistry("")
	require.NoError(t, err)
	out := &bytes.Buffer{}
	log := MakeLogrusLogFactoryPlain(r, out)("Paginator")

	log.Debug("hidden")
	require.Empty(t, out.String())

	r.SetLogLevel("Paginator", logrus.DebugLevel)
	log.WithField("limit", 5).Debug("shown")
	require.Contains(t, out.String(), "shown")
	require.Contains(t, out.String(), "limit=5")
}
