package jobctl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAssignsSmallestUnusedID(t *testing.T) {
	table := NewTable()
	id1 := table.Add(&Job{Command: "sleep 1", Background: true})
	id2 := table.Add(&Job{Command: "sleep 2", Background: true})
	require.Equal(t, 1, id1)
	require.Equal(t, 2, id2)

	table.Remove(id1)
	id3 := table.Add(&Job{Command: "sleep 3", Background: true})
	require.Equal(t, 1, id3)
}

func TestCurrentAndPreviousTrackMostRecentlyAdded(t *testing.T) {
	table := NewTable()
	table.Add(&Job{Command: "a"})
	second := &Job{Command: "b"}
	table.Add(second)

	require.Equal(t, second, table.Current())
	require.Equal(t, "a", table.Previous().Command)
}

func TestRemoveFallsBackToPreviousAsCurrent(t *testing.T) {
	table := NewTable()
	table.Add(&Job{Command: "a"})
	idB := table.Add(&Job{Command: "b"})

	table.Remove(idB)
	require.Equal(t, "a", table.Current().Command)
	require.Nil(t, table.Previous())
}

func TestAllReturnsJobsSortedByID(t *testing.T) {
	table := NewTable()
	table.Add(&Job{Command: "a"})
	table.Add(&Job{Command: "b"})
	table.Add(&Job{Command: "c"})
	table.Remove(2)
	table.Add(&Job{Command: "d"})

	all := table.All()
	ids := make([]int, len(all))
	for i, j := range all {
		ids[i] = j.ID
	}
	require.Equal(t, []int{1, 2, 3}, ids)
}

func TestAllDoneRequiresEveryProcessDone(t *testing.T) {
	j := &Job{Processes: []*Process{{Done: true}, {Done: false}}}
	require.False(t, j.AllDone())
	j.Processes[1].Done = true
	require.True(t, j.AllDone())
}

func TestExitCodeReflectsLastProcess(t *testing.T) {
	j := &Job{Processes: []*Process{{ExitCode: 1}, {ExitCode: 0}, {ExitCode: 7}}}
	require.Equal(t, 7, j.ExitCode())
}

func TestExitCodeOnEmptyJobIsZero(t *testing.T) {
	j := &Job{}
	require.Equal(t, 0, j.ExitCode())
}

func TestStateStringValues(t *testing.T) {
	require.Equal(t, "Running", Running.String())
	require.Equal(t, "Stopped", Stopped.String())
	require.Equal(t, "Done", Done.String())
}

func TestNotifyLineFormatsJobStateChange(t *testing.T) {
	j := &Job{ID: 1, State: Done, Command: "sleep 5"}
	line := NotifyLine(j, '+')
	require.Equal(t, "[1]+  Done     sleep 5", line)
}
