package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcodelab/substance-mapper/pkg/errors"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ServerPortOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidate_ServerModeInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Mode = "production"
	assert.Error(t, cfg.Validate())
}

func TestValidate_DatabaseHostRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_RedisAddrRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Addr = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_KafkaBrokersRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Brokers = nil
	assert.Error(t, cfg.Validate())
}

func TestValidate_VocabularySourceInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Vocabulary.Source = "ftp"
	assert.Error(t, cfg.Validate())
}

func TestValidate_VocabularyURLRequiredForHTTP(t *testing.T) {
	cfg := validConfig()
	cfg.Vocabulary.Source = "http"
	cfg.Vocabulary.URL = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_LogLevelInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestMatcherValidate_ThresholdBounds(t *testing.T) {
	cases := []struct {
		name      string
		threshold float64
		wantErr   bool
	}{
		{"zero", 0, true},
		{"negative", -0.1, true},
		{"above one", 1.01, true},
		{"lower edge", 0.01, false},
		{"upper edge", 1.0, false},
		{"typical", 0.8, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			m := MatcherConfig{
				Threshold:     tc.threshold,
				MaxPerMatchID: 1,
				Workers:       1,
			}
			err := m.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrCodeThresholdInvalid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatcherValidate_MaxPerMatchID(t *testing.T) {
	m := MatcherConfig{Threshold: 0.8, MaxPerMatchID: 0, Workers: 1}
	err := m.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMaxPerMatchIDInvalid))

	m.MaxPerMatchID = -3
	err = m.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMaxPerMatchIDInvalid))

	m.MaxPerMatchID = 1
	assert.NoError(t, m.Validate())
}

func TestMatcherValidate_SplitPattern(t *testing.T) {
	m := MatcherConfig{Threshold: 0.8, MaxPerMatchID: 1, Workers: 1}

	m.SplitPattern = `[,+;]|\bund\b`
	assert.NoError(t, m.Validate())

	m.SplitPattern = `[unclosed`
	err := m.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSplitPatternInvalid))

	// Empty selects the built-in default.
	m.SplitPattern = ""
	assert.NoError(t, m.Validate())
}

func TestMatcherValidate_ErrorsAreConfiguration(t *testing.T) {
	m := MatcherConfig{Threshold: 2, MaxPerMatchID: 1, Workers: 1}
	err := m.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}
