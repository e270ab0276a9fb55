package matching

// Match score constants for path matching.
const (
	// ScorePathExact is the score for an exact path match. It outranks every
	// named-param match, however many literal segments that template has.
	ScorePathExact = 1000

	// ScorePathNamedParams is the base score for a path with named parameters match.
	// Each literal segment adds ScoreLiteralSegment on top of it.
	ScorePathNamedParams = 12

	// ScoreLiteralSegment is added per literal segment in a named-param match,
	// so that more specific templates win over looser ones.
	ScoreLiteralSegment = 1
)
