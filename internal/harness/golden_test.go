package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"pipeline_build", "pipeline_undo", "relay_cycle"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestSnapshot_Deterministic(t *testing.T) {
	first := runScenario(t, "testdata/scenarios/pipeline_build.yaml")
	second := runScenario(t, "testdata/scenarios/pipeline_build.yaml")

	a, err := first.Snapshot.MarshalCanonical()
	require.NoError(t, err)
	b, err := second.Snapshot.MarshalCanonical()
	require.NoError(t, err)
	require.Equal(t, string(a), string(b))
}

func TestSnapshot_EmptyLayer(t *testing.T) {
	s := &Snapshot{Groups: []GroupSnapshot{}, Connections: []ConnectionSnapshot{}, Order: []string{}}
	data, err := s.MarshalCanonical()
	require.NoError(t, err)
	require.Equal(t, `{"connections":[],"distinct_definitions":0,"groups":[],"order":[],"steps":[]}`, string(data))
}
