package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
)

func TestNoopNotifier(t *testing.T) {
	var n Notifier = NoopNotifier{}
	require.NoError(t, n.PackagePublished(context.Background(), &PackagePublished{}))
	require.NoError(t, n.Close())
}

func TestEncode(t *testing.T) {
	data, err := Encode(&PackagePublished{
		RunID:     "r1",
		Reference: "cppunix/1.0.0@npm-mas-mas/testing",
		PackageID: "abc",
		Libs:      []string{"cppunix"},
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "cppunix/1.0.0@npm-mas-mas/testing", decoded["reference"])
	require.Equal(t, []any{"cppunix"}, decoded["libs"])
	require.Contains(t, decoded, "run_id")
}

func TestNewNATSNotifier_ConnectFailure(t *testing.T) {
	_, err := NewNATSNotifier(Options{URL: "nats://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotify))
}
