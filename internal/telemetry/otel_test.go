package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repodigest/internal/config"
)

func TestParseHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"Authorization": "Basic abc", "x-team": "core"},
		parseHeaders("Authorization=Basic abc, x-team=core,broken"))
	assert.Empty(t, parseHeaders(""))
}

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	tel, err := Setup(context.Background(), config.OTelConfig{})
	require.NoError(t, err)
	assert.Nil(t, tel)
	assert.NoError(t, tel.Shutdown(context.Background()))
}
