package update

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"
)

// Channel is the prerelease channel of a parsed version.
type Channel string

const (
	ChannelAlpha  Channel = "alpha"
	ChannelBeta   Channel = "beta"
	ChannelStable Channel = "stable"
	// ChannelUnranked marks a string that did not parse, or a prerelease token
	// other than alpha/beta/stable. It ranks with alpha at the bottom of the order.
	ChannelUnranked Channel = "unranked"
)

// Rank orders channels: stable(2) > beta(1) > alpha(0). Unranked shares rank 0.
func (c Channel) Rank() int {
	switch c {
	case ChannelStable:
		return 2
	case ChannelBeta:
		return 1
	default:
		return 0
	}
}

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([A-Za-z]+)\.(\d+))?$`)

// Version is the structured form of a MAJOR.MINOR.PATCH[-Channel.N] string.
type Version struct {
	Major    int
	Minor    int
	Patch    int
	Channel  Channel
	Sequence int
}

// Malformed is the record returned for strings that do not match the version
// pattern. It sorts below every well-formed version except 0.0.0-alpha.0,
// which it ties with.
var Malformed = Version{Channel: ChannelUnranked}

// Parse never fails: anything outside the accepted grammar (including numeric
// fields that overflow int) yields Malformed.
func Parse(s string) Version {
	v, _ := TryParse(s)
	return v
}

// TryParse is Parse with an explicit match result. ok is false exactly when
// the returned record is the Malformed sentinel standing in for s; a
// well-formed "0.0.0-alpha.0" compares equal to Malformed but reports ok.
func TryParse(s string) (v Version, ok bool) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Malformed, false
	}

	var nums [4]int
	for i, field := range []string{m[1], m[2], m[3], m[5]} {
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return Malformed, false
		}
		nums[i] = n
	}

	return Version{
		Major:    nums[0],
		Minor:    nums[1],
		Patch:    nums[2],
		Channel:  channelFromToken(m[4]),
		Sequence: nums[3],
	}, true
}

func channelFromToken(tok string) Channel {
	switch strings.ToLower(tok) {
	case "":
		return ChannelStable
	case "alpha":
		return ChannelAlpha
	case "beta":
		return ChannelBeta
	case "stable":
		return ChannelStable
	default:
		return ChannelUnranked
	}
}

// CompareVersions orders newer-first: negative when a is newer than b,
// positive when b is newer, zero when all five fields tie on rank.
func CompareVersions(a, b Version) int {
	if c := cmp.Compare(b.Major, a.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Minor, a.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Patch, a.Patch); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Channel.Rank(), a.Channel.Rank()); c != 0 {
		return c
	}
	return cmp.Compare(b.Sequence, a.Sequence)
}

// Compare parses both strings and orders them newer-first (see CompareVersions).
func Compare(a, b string) int {
	return CompareVersions(Parse(a), Parse(b))
}

// Candidate is one version string offered by a source, such as an npm dist-tag.
type Candidate struct {
	Source  string
	Version string
}

// Pick describes what SelectBest did with a candidate.
type Pick string

const (
	PickSeed  Pick = "seed"  // first candidate, initial running best
	PickNewer Pick = "newer" // displaced the running best
	PickKept  Pick = "kept"  // not newer than the running best
)

// Step is reported once per examined candidate. Previous is the running best
// before this candidate was considered (empty for the seed).
type Step struct {
	Candidate Candidate
	Pick      Pick
	Previous  string
}

// SelectBest reduces candidates left to right, replacing the running best only
// when a later candidate is strictly newer. report may be nil.
// ok is false when candidates is empty.
func SelectBest(candidates []Candidate, report func(Step)) (best Candidate, ok bool) {
	for i, c := range candidates {
		step := Step{Candidate: c, Pick: PickKept, Previous: best.Version}
		switch {
		case i == 0:
			best = c
			step.Pick = PickSeed
		case Compare(best.Version, c.Version) > 0:
			best = c
			step.Pick = PickNewer
		}
		if report != nil {
			report(step)
		}
	}
	return best, len(candidates) > 0
}
