package classifier

// DefaultNames is the curated list of known AI/robot characters across the
// corpus and related screenplay datasets. Matching is case-insensitive and
// exact on the display name.
var DefaultNames = []string{
	// Cornell movie-dialogs corpus
	"HAL",
	"HAL 9000",
	"Bishop",
	"Data",
	"Borg Queen",
	"C-3PO",
	"R2-D2",
	"Terminator",
	"Leeloo",
	"Agent Smith",
	"Agent Jones",
	"Oracle",
	"Simone/Viktor",

	// Other screenplay sources
	"Batty",
	"Pris",
	"Rachael",
	"Sonny",
	"Marvin",
	"Ava",
	"Jarvis",
	"TARS",
	"CASE",
	"GERTY",
	"Samantha",
	"Joshua",
	"Call",
	"Fembot",
	"STEM",
	"AUTO",
	"WALL-E",
	"Dot Matrix",
	"David",
	"Walter",
	"Bomb #20",
}

// DefaultKeywords are robot-indicator substrings matched against a
// speaker's description metadata, case-insensitive. Short tokens like "ai"
// are deliberately absent: as substrings they match far too much English.
var DefaultKeywords = []string{
	"robot",
	"android",
	"droid",
	"cyborg",
	"replicant",
	"automaton",
	"artificial intelligence",
	"a.i.",
	"mainframe",
	"machine intelligence",
	"synthetic human",
}
