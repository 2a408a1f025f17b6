package paraphrase

import "regexp"

// Static lookup tables for the paraphrase rules. Loaded once at init and
// never mutated afterwards.

var synonymTable = map[string][]string{
	"help":     {"assist", "aid"},
	"reset":    {"restore", "recover"},
	"change":   {"modify", "update"},
	"create":   {"make", "set up"},
	"delete":   {"remove", "erase"},
	"find":     {"locate", "discover"},
	"return":   {"send back", "give back"},
	"policy":   {"rules", "guidelines"},
	"password": {"passcode", "login credentials"},
	"account":  {"profile", "user account"},
	"problem":  {"issue", "trouble"},
	"question": {"query", "inquiry"},
	"start":    {"begin", "initiate"},
	"stop":     {"end", "cancel"},
	"buy":      {"purchase", "order"},
	"price":    {"cost", "fee"},
	"ship":     {"deliver", "send"},
	"contact":  {"reach", "get in touch with"},
}

// formal on the left, informal on the right
var registerTable = map[string]string{
	"assist":    "help out",
	"purchase":  "buy",
	"obtain":    "get",
	"require":   "need",
	"inquire":   "ask",
	"utilize":   "use",
	"commence":  "start",
	"terminate": "end",
	"provide":   "give",
	"receive":   "get",
}

// expanded form on the left, contracted on the right
var contractionTable = map[string]string{
	"do not":   "don't",
	"does not": "doesn't",
	"cannot":   "can't",
	"can not":  "can't",
	"will not": "won't",
	"it is":    "it's",
	"that is":  "that's",
	"what is":  "what's",
	"i am":     "i'm",
	"you are":  "you're",
	"we are":   "we're",
	"is not":   "isn't",
	"are not":  "aren't",
	"have not": "haven't",
}

var pronounShiftTable = map[string]string{
	"i":      "you",
	"my":     "your",
	"me":     "you",
	"mine":   "yours",
	"myself": "yourself",
}

var openerRewrites = []struct {
	Prefix      string
	Replacement string
}{
	{"how do i", "what is the way to"},
	{"how do you", "what is the way to"},
	{"how can i", "what is the way to"},
	{"what is", "could you describe"},
	{"what are", "could you describe"},
	{"can i", "is it possible to"},
	{"where", "in what place"},
}

var interrogatives = map[string]bool{
	"what":  true,
	"how":   true,
	"why":   true,
	"where": true,
	"when":  true,
	"which": true,
	"who":   true,
}

var intensifiers = []string{"exactly", "really", "actually", "specifically"}

var framingPhrases = []string{
	"Quick question:",
	"I was wondering,",
	"Just curious,",
}

var wordBoundaryCache = map[string]*regexp.Regexp{}

func init() {
	for word := range synonymTable {
		wordBoundaryCache[word] = compileWordPattern(word)
	}
	for formal, informal := range registerTable {
		wordBoundaryCache[formal] = compileWordPattern(formal)
		wordBoundaryCache[informal] = compileWordPattern(informal)
	}
	for expanded, contracted := range contractionTable {
		wordBoundaryCache[expanded] = compileWordPattern(expanded)
		wordBoundaryCache[contracted] = compileWordPattern(contracted)
	}
	for from, to := range pronounShiftTable {
		wordBoundaryCache[from] = compileWordPattern(from)
		wordBoundaryCache[to] = compileWordPattern(to)
	}
}

func compileWordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}

func wordPattern(word string) *regexp.Regexp {
	if re, ok := wordBoundaryCache[word]; ok {
		return re
	}
	return compileWordPattern(word)
}
