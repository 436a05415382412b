package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalJSON(t *testing.T) {
	var cfg struct {
		Timeout Duration `json:"timeout"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"timeout":"5s"}`), &cfg))
	assert.Equal(t, Duration(5*time.Second), cfg.Timeout)

	require.NoError(t, json.Unmarshal([]byte(`{"timeout":1000}`), &cfg))
	assert.Equal(t, Duration(time.Microsecond), cfg.Timeout)

	err := json.Unmarshal([]byte(`{"timeout":"soon"}`), &cfg)
	require.ErrorIs(t, err, errInvalidDuration)

	err = json.Unmarshal([]byte(`{"timeout":true}`), &cfg)
	require.ErrorIs(t, err, errInvalidDuration)
}

func TestDurationMarshalJSON(t *testing.T) {
	data, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.JSONEq(t, `"1m30s"`, string(data))
}
