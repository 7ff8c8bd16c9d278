package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// fakeClock replaces nowFunc with a sequence of fixed instants so a
// Collector's elapsed time is deterministic, restoring the real clock
// on cleanup.
func fakeClock(t *testing.T, instants ...time.Time) {
	t.Helper()
	orig := nowFunc
	i := 0
	nowFunc = func() time.Time {
		cur := instants[i]
		if i < len(instants)-1 {
			i++
		}
		return cur
	}
	t.Cleanup(func() { nowFunc = orig })
}

func TestCollectorFinishPopulatesRecord(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fakeClock(t, start, start.Add(10*time.Second))

	c := NewCollector()
	c.AddVerificationTime(2 * time.Second)
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()

	rec := c.Finish("run-1", "list-sum", "h", "Realizable", 4)
	require.Equal(t, "run-1", rec.RunID)
	require.Equal(t, "list-sum", rec.Problem)
	require.Equal(t, 4, rec.RefinementSteps)
	require.Equal(t, 2, rec.CacheHits)
	require.Equal(t, 1, rec.CacheMisses)
	require.Equal(t, 2*time.Second, rec.VerificationTime)
	require.Equal(t, 10*time.Second, rec.Elapsed)
}

func TestWriteJSONRoundTrips(t *testing.T) {
	rec := Record{RunID: "r1", Problem: "bst", Hole: "h", Outcome: "Realizable", RefinementSteps: 3}
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, Write(path, rec, FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Record
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, rec, got)
}

func TestWriteProtoEncodesAsStructpbStruct(t *testing.T) {
	rec := Record{RunID: "r2", Problem: "cpar", Hole: "g", Outcome: "Unrealizable", RefinementSteps: 1}
	path := filepath.Join(t.TempDir(), "stats.pb")
	require.NoError(t, Write(path, rec, FormatProto))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var s structpb.Struct
	require.NoError(t, proto.Unmarshal(data, &s))
	require.Equal(t, "r2", s.Fields["run_id"].GetStringValue())
	require.Equal(t, "Unrealizable", s.Fields["outcome"].GetStringValue())
	require.Equal(t, float64(1), s.Fields["refinement_steps"].GetNumberValue())
}
