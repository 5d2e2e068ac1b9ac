package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("production", "debug", &buf)

	log.WithField("room_id", "123456").Info("room created")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "room created", line["msg"])
	assert.Equal(t, "123456", line["room_id"])
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	log := NewWithOutput("development", "loud", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	_, isText := log.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}
