package install

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/shadowblip/handycon-setup/internal/journal"
	"github.com/shadowblip/handycon-setup/internal/manifest"
	"github.com/shadowblip/handycon-setup/internal/sysstate"
)

const testUnit = "handycon.service"

// testAssets returns one asset per default manifest entry, with content derived from its name.
func testAssets() fstest.MapFS {
	assets := fstest.MapFS{}
	for _, entry := range manifest.Default().Entries {
		assets[entry.Asset] = &fstest.MapFile{Data: assetContent(entry.Asset), Mode: 0o644}
	}
	return assets
}

func assetContent(name string) []byte {
	return []byte("# " + name + "\nline two\n")
}

type testEnv struct {
	store *sysstate.MemStore
	out   *bytes.Buffer
	opts  Options
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := sysstate.NewMemStore()
	out := &bytes.Buffer{}
	return &testEnv{
		store: store,
		out:   out,
		opts: Options{
			Store:    store,
			Assets:   testAssets(),
			Manifest: manifest.Default(),
			Service:  manifest.ServiceRef{Name: manifest.DefaultServiceName},
			Out:      out,
			Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
	}
}

func (e *testEnv) withJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j := journal.New(t.TempDir(), 10)
	e.opts.Journal = j
	return j
}

func requireFile(t *testing.T, store *sysstate.MemStore, path string, want []byte) {
	t.Helper()
	got, _, ok := store.File(path)
	if !ok {
		t.Fatalf("expected %s to exist", path)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("%s content = %q, want %q", path, got, want)
	}
}

func requireAbsent(t *testing.T, store *sysstate.MemStore, path string) {
	t.Helper()
	if _, _, ok := store.File(path); ok {
		t.Fatalf("expected %s to be absent", path)
	}
}
