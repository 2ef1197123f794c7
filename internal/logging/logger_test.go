package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
)

type recordingLogger struct {
	embedded.Logger
	records []otellog.Record
}

func (r *recordingLogger) Emit(ctx context.Context, record otellog.Record) {
	r.records = append(r.records, record)
}

func (r *recordingLogger) Enabled(ctx context.Context, param otellog.EnabledParameters) bool {
	return true
}

func TestParseLogrusLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogrusLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLogrusLevel("WARNING"))
	assert.Equal(t, logrus.WarnLevel, ParseLogrusLevel("warn"))
	assert.Equal(t, logrus.ErrorLevel, ParseLogrusLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLogrusLevel("unknown"))
	assert.Equal(t, logrus.InfoLevel, ParseLogrusLevel(""))
}

func TestNewLoggerWithOutput_JSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("debug", "production", &buf)

	WithComponent(logger, "opportunity_engine").WithField("clusters", 3).Info("Clustering completed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Clustering completed", entry["msg"])
	assert.Equal(t, "opportunity_engine", entry["component"])
	assert.Equal(t, float64(3), entry["clusters"])
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewLoggerWithOutput_TextInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", "Development", &buf)

	logger.Debug("hidden")
	logger.Info("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=visible")
	_, isText := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}

func TestOTLPHook_Fire(t *testing.T) {
	recorder := &recordingLogger{}
	hook := NewOTLPHook(recorder)

	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", "production", &buf)
	logger.AddHook(hook)

	logger.WithFields(logrus.Fields{
		"signal_count": 7,
		"error":        errors.New("boom"),
	}).Warn("Discovery degraded")

	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.Equal(t, "Discovery degraded", record.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, record.Severity())
	assert.Equal(t, "warning", record.SeverityText())

	attrs := map[string]string{}
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	assert.Equal(t, "7", attrs["signal_count"])
	assert.Equal(t, "boom", attrs["error"])
}

func TestOTLPHook_Levels(t *testing.T) {
	hook := NewOTLPHook(&recordingLogger{})
	assert.Equal(t, logrus.AllLevels, hook.Levels())
}

func TestConvertLogrusLevelToSeverity(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, convertLogrusLevelToSeverity(logrus.DebugLevel))
	assert.Equal(t, otellog.SeverityInfo, convertLogrusLevelToSeverity(logrus.InfoLevel))
	assert.Equal(t, otellog.SeverityError, convertLogrusLevelToSeverity(logrus.ErrorLevel))
	assert.Equal(t, otellog.SeverityFatal, convertLogrusLevelToSeverity(logrus.PanicLevel))
}
