//go:build race

package guard

// raceEnabled reports whether the race detector is active. The unsafe
// counter test is skipped under -race because the demonstration is itself
// a data race.
const raceEnabled = true
