package params

import "strings"

// Step identifies which rule of the fallback chain produced a resolution.
type Step int

const (
	// NoMatch means no entry matched and the defaults were used.
	NoMatch Step = iota
	MatchSampleName
	MatchRunID
	MatchSampleAndRun
	MatchRunPrefix
	MatchSubstring
)

var stepNames = map[Step]string{
	NoMatch:           "defaults",
	MatchSampleName:   "sample_name",
	MatchRunID:        "run_id",
	MatchSampleAndRun: "sample_run",
	MatchRunPrefix:    "run_prefix",
	MatchSubstring:    "substring",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// Resolution is the outcome of Resolve: the config plus how it was chosen.
type Resolution struct {
	Config TrimConfig
	Key    string
	Step   Step
}

// Candidates returns the exact-match keys tried for a sample, in priority
// order: sample name, run id, "<sample>_<run>", and the run id up to its
// first underscore.
func Candidates(sampleName, runID string) []string {
	prefix, _, _ := strings.Cut(runID, "_")
	return []string{
		sampleName,
		runID,
		sampleName + "_" + runID,
		prefix,
	}
}

// Resolve maps a sample to its trimming configuration. It is a pure
// function of its arguments.
func Resolve(t *Table, sampleName, runID string, d Defaults) Resolution {
	candidates := Candidates(sampleName, runID)
	exactSteps := []Step{MatchSampleName, MatchRunID, MatchSampleAndRun, MatchRunPrefix}

	for i, key := range candidates {
		if key == "" {
			continue
		}
		if p, ok := t.Lookup(key); ok {
			return Resolution{Config: Merge(d, p), Key: key, Step: exactSteps[i]}
		}
	}

	for _, key := range t.Keys() {
		for _, c := range candidates {
			if c != "" && strings.Contains(key, c) {
				p, _ := t.Lookup(key)
				return Resolution{Config: Merge(d, p), Key: key, Step: MatchSubstring}
			}
		}
	}

	return Resolution{Config: d.Config(), Step: NoMatch}
}
