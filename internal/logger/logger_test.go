package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewJSONFieldNames(t *testing.T) {
	l := New("debug", "json")
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.WithField("post_id", "p1").Info("loaded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "loaded", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "p1", line["post_id"])
	assert.Contains(t, line, "timestamp")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestNewFallsBackToInfo(t *testing.T) {
	l := New("nonsense", "text")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestGormTraceReportsErrors(t *testing.T) {
	l := New("debug", "json")
	var buf bytes.Buffer
	l.SetOutput(&buf)

	g := Gorm(l)
	g.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 0
	}, errors.New("boom"))

	assert.Contains(t, buf.String(), "SQL query error")
	assert.Contains(t, buf.String(), "SELECT 1")
}

func TestGormTraceSilent(t *testing.T) {
	l := New("debug", "json")
	var buf bytes.Buffer
	l.SetOutput(&buf)

	g := Gorm(l).LogMode(gormlogger.Silent)
	g.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 0
	}, errors.New("boom"))

	assert.Empty(t, buf.String())
}

func TestGinWriter(t *testing.T) {
	l := New("info", "json")
	var buf bytes.Buffer
	l.SetOutput(&buf)

	n, err := GinWriter(l).Write([]byte("[GIN] 200 GET /api/posts\n"))
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Contains(t, buf.String(), `"source":"gin"`)
}
