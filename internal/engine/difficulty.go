package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Difficulty labels understood by ParseDifficulty.
const (
	LabelEasy     = "easy"
	LabelModerate = "moderate"
	LabelHard     = "hard"
	LabelExternal = "stockfish"
)

const (
	// DefaultDepth is used for unknown labels and for fallback searches.
	DefaultDepth = 3
	// DefaultSkill is used for an external label without a level.
	DefaultSkill = 10
	// MaxSkill is the top of the external engine's skill range.
	MaxSkill = 20
)

// Strength is a difficulty decided once at the boundary: either a Local
// search depth or an External engine skill level.
type Strength interface {
	// Budget is the time the request is expected to take.
	Budget() time.Duration
	String() string
	isStrength()
}

// Local searches with the built-in engine to a fixed depth.
type Local struct {
	Depth int
}

func (Local) isStrength() {}

// Budget grows with depth. It is advisory: local searches are never cut short.
func (l Local) Budget() time.Duration {
	switch {
	case l.Depth <= 2:
		return time.Second
	case l.Depth == 3:
		return 3 * time.Second
	}
	return 10 * time.Second
}

func (l Local) String() string { return fmt.Sprintf("local(depth %d)", l.Depth) }

// External delegates to a UCI engine at the given skill level.
type External struct {
	Skill int
}

func (External) isStrength() {}

// Budget is the move time the engine is given.
func (x External) Budget() time.Duration { return ExternalLimits(x.Skill).MoveTime }

func (x External) String() string { return fmt.Sprintf("external(skill %d)", x.Skill) }

// ParseDifficulty maps a caller's label to a Strength. It never fails:
// unknown labels get a moderate local search.
//
//	easy, moderate|medium, hard   local depth 2, 3, 4
//	stockfish, external           external at DefaultSkill
//	stockfish_N, external-N       external at N, clamped to 0..MaxSkill
//
// Any other label, including a malformed external one, is local at
// DefaultDepth.
func ParseDifficulty(label string) Strength {
	l := strings.ToLower(strings.TrimSpace(label))
	for _, prefix := range []string{"stockfish", "external"} {
		rest, ok := strings.CutPrefix(l, prefix)
		if !ok {
			continue
		}
		if rest == "" {
			return External{Skill: DefaultSkill}
		}
		if !strings.ContainsRune("_-: ", rune(rest[0])) {
			break
		}
		n, err := strconv.Atoi(rest[1:])
		if err != nil {
			break
		}
		return External{Skill: min(max(n, 0), MaxSkill)}
	}
	return Local{Depth: LocalDepth(l)}
}

// LocalDepth maps a label to a local search depth.
func LocalDepth(label string) int {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case LabelEasy:
		return 2
	case LabelModerate, "medium":
		return 3
	case LabelHard:
		return 4
	}
	return DefaultDepth
}

// Limits bound an external engine search.
type Limits struct {
	Depth    int
	MoveTime time.Duration
}

// ExternalLimits maps a skill level to search limits, rising from depth 3
// in 300ms at skill 0 to depth 20 in 2s at MaxSkill. Both fields are
// non-decreasing in skill.
func ExternalLimits(skill int) Limits {
	s := min(max(skill, 0), MaxSkill)
	return Limits{
		Depth:    3 + (17*s+MaxSkill/2)/MaxSkill,
		MoveTime: time.Duration(300+85*s) * time.Millisecond,
	}
}
