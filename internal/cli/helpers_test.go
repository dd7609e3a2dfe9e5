package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/OybekDeveloper/leora/internal/app"
	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/fixture"
	"github.com/OybekDeveloper/leora/internal/ident"
	"github.com/OybekDeveloper/leora/internal/testutil"
)

// testOptions points the commands at a temp database with a fixed day and
// sequential IDs.
func testOptions(t *testing.T, today string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:   "text",
		DB:       filepath.Join(t.TempDir(), "leora.db"),
		Timezone: "UTC",
		AppOptions: []app.Option{
			app.WithClock(testutil.NewClock(date.MustParse(today))),
			app.WithIDs(ident.NewSequence("id")),
		},
	}
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// withApp opens the test database directly.
func withApp(t *testing.T, opts *RootOptions, fn func(ctx context.Context, a *app.App)) {
	t.Helper()
	a, err := openApp(opts)
	require.NoError(t, err)
	defer a.Close()
	fn(context.Background(), a)
}

func seedDB(t *testing.T, opts *RootOptions, seed fixture.Seed) {
	t.Helper()
	checked, err := seed.Check()
	require.NoError(t, err)
	withApp(t, opts, func(ctx context.Context, a *app.App) {
		require.NoError(t, checked.Apply(ctx, a))
	})
}

// decodeData unwraps the data field of a JSON response into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}
