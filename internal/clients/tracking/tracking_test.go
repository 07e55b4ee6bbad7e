package tracking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPointsAtSubmitEndpoint(t *testing.T) {
	out, err := Render(Params{ClientName: "Acme", PublicID: "a1b2c3d4", APIBaseURL: "https://api.example.com/"})
	require.NoError(t, err)

	assert.Contains(t, out, "tracking script for Acme")
	assert.Contains(t, out, "var CLIENT_ID = 'a1b2c3d4';")
	assert.Contains(t, out, "'https://api.example.com/api/v1/submit/' + CLIENT_ID")
	assert.Contains(t, out, "_lead_score_factors")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</script>"))
}

func TestRenderEscapesClientName(t *testing.T) {
	out, err := Render(Params{ClientName: "Bad --> <script>alert(1)</script>", PublicID: "00000000", APIBaseURL: "http://localhost:8080"})
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>alert(1)")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderEscapesScriptValues(t *testing.T) {
	out, err := Render(Params{ClientName: "x", PublicID: "a'b", APIBaseURL: "http://h"})
	require.NoError(t, err)

	assert.NotContains(t, out, "'a'b'")
	assert.Contains(t, out, `a\'b`)
}
