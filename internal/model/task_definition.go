package model

import "time"

// TaskDefinition is an immutable, versioned execution template (spec §3).
//
// Creating a new version of an existing name atomically flips the
// predecessor's IsLatest to false; the (Name, Version) pair is unique.
type TaskDefinition struct {
	ID            int64
	Name          string
	Version       int64
	Description   string
	Image         string
	Command       []string // ordered token list, optional
	Args          string   // comma-joined, optional
	Env           string   // comma-joined KEY=VALUE, optional
	MemoryLimitMB *int
	CPUShares     *int
	Enabled       bool
	IsLatest      bool
	CreatedAt     time.Time
}

// EnvPairs splits Env into non-empty "KEY=VALUE" entries, skipping blanks so
// empty env entries are never forwarded to the container runtime (spec §8
// boundary behavior).
func (t *TaskDefinition) EnvPairs() []string {
	return splitNonEmpty(t.Env)
}

// ArgTokens splits Args into non-empty tokens.
func (t *TaskDefinition) ArgTokens() []string {
	return splitNonEmpty(t.Args)
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			if tok := csv[start:i]; tok != "" {
				out = append(out, tok)
			}
			start = i + 1
		}
	}
	return out
}
