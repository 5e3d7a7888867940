package registry

import (
	"os"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/kolah/covenant/contract"
)

const userShow = `
name: user_show
route: /users/:id
method: GET
definitions:
  - versions: ["1.0"]
    schema:
      type: object
      properties:
        name: {type: string}
    examples:
      - name: Jane
`

const userList = `
name: user_list
route: /users
method: GET
definitions:
  - versions: ["1.0"]
    schema: {type: array, items: {type: string}}
    examples:
      - [Jane]
`

func TestReload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user_show.yml"), []byte(userShow), 0o644))

	logger, hook := logtest.NewNullLogger()
	r, err := New([]string{filepath.Join(dir, "*.yml")}, contract.Options{}, logger)
	require.NoError(t, err)
	require.Len(t, r.Endpoints(), 1)
	require.Equal(t, "definitions loaded", hook.LastEntry().Message)
	require.Equal(t, 1, hook.LastEntry().Data["endpoints"])

	var source contract.Source = r
	first := r.Snapshot()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "user_list.yml"), []byte(userList), 0o644))
	require.NoError(t, r.Reload())
	require.Len(t, source.Endpoints(), 2)
	require.NotSame(t, first, r.Snapshot())
	require.Len(t, r.Snapshot().Files, 2)

	_, ok := r.Endpoints().FindEndpoint("GET", "/users")
	require.True(t, ok)
}

func TestReloadFailureKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user_show.yml")
	require.NoError(t, os.WriteFile(path, []byte(userShow), 0o644))

	logger, _ := logtest.NewNullLogger()
	r, err := New([]string{filepath.Join(dir, "*.yml")}, contract.Options{}, logger)
	require.NoError(t, err)
	before := r.Snapshot()

	require.NoError(t, os.WriteFile(path, []byte("name: broken\nroute: /x\n"), 0o644))
	err = r.Reload()
	require.ErrorContains(t, err, "building endpoints")
	require.Same(t, before, r.Snapshot())

	require.NoError(t, os.WriteFile(path, []byte("name: ["), 0o644))
	err = r.Reload()
	require.ErrorContains(t, err, "loading definitions")
	require.Same(t, before, r.Snapshot())
}

func TestNewFails(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	_, err := New([]string{filepath.Join(t.TempDir(), "missing.yml")}, contract.Options{}, logger)
	require.Error(t, err)
}
