package composition

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/testutil"
)

var (
	idE = ir.GroupCompositionIDFrom("e")
	idI = ir.GroupCompositionIDFrom("i")
	idX = ir.GroupCompositionIDFrom("x")
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLayer(opts ...Option) *Layer {
	return New(append([]Option{WithLogger(quietLogger())}, opts...)...)
}

// wiredLayer registers the exporter E and importer I and connects them.
func wiredLayer(t *testing.T, opts ...Option) *Layer {
	t.Helper()
	l := newTestLayer(opts...)
	require.NoError(t, l.Add(idE, testutil.ExporterGroup()))
	require.NoError(t, l.Add(idI, testutil.ImporterGroup()))
	require.NoError(t, l.Connect(testutil.TableConnection(idI, idE)))
	return l
}

// requirePartition checks that satisfied and unsatisfied imports of every
// group split its declared imports exactly.
func requirePartition(t require.TestingT, l *Layer) {
	for id := range l.Groups() {
		def, err := l.Group(id)
		require.NoError(t, err)
		sat, err := l.SatisfiedImports(id)
		require.NoError(t, err)
		unsat, err := l.UnsatisfiedImports(id)
		require.NoError(t, err)

		seen := make(map[string]bool)
		for _, s := range sat {
			require.False(t, seen[s.Import.Contract], "overlap on %s", s.Import.Contract)
			seen[s.Import.Contract] = true
			require.True(t, l.Contains(s.Exporter), "satisfied by unregistered %s", s.Exporter)
		}
		for _, u := range unsat {
			require.False(t, seen[u.Contract], "overlap on %s", u.Contract)
			seen[u.Contract] = true
		}
		require.Len(t, seen, len(def.GroupImports))
		for _, imp := range def.GroupImports {
			require.True(t, seen[imp.Contract])
		}
	}
	for _, conn := range l.Connections() {
		require.True(t, l.Contains(conn.Importer), "orphaned edge importer %s", conn.Importer)
		require.True(t, l.Contains(conn.Exporter), "orphaned edge exporter %s", conn.Exporter)
	}
}
