package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/synthmob/synthmob/pkg/models"
)

// MaxPatternLength is the hard cap on pattern code length.
const MaxPatternLength = 560

// callStart matches a pattern's required opening shape: an identifier
// immediately followed by an opening paren.
var callStart = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\(`)

// bannedConstructs are host-language shapes that would allow sandbox escape
// or runtime mutation. Matched against the raw code, quotes included — a
// string-level scan, so a sample literally named "eval()" is rejected too.
var bannedConstructs = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`\beval\s*\(`), "eval"},
	{regexp.MustCompile(`\bFunction\s*\(`), "Function constructor"},
	{regexp.MustCompile(`\brequire\s*\(`), "require"},
	{regexp.MustCompile(`\bimport\b`), "import"},
	{regexp.MustCompile(`\bfetch\s*\(`), "fetch"},
	{regexp.MustCompile(`\bXMLHttpRequest\b`), "XMLHttpRequest"},
	{regexp.MustCompile(`\bWebSocket\b`), "WebSocket"},
	{regexp.MustCompile(`\bwindow\b`), "window"},
	{regexp.MustCompile(`\bglobalThis\b`), "globalThis"},
	{regexp.MustCompile(`\bdocument\b`), "document"},
	{regexp.MustCompile(`__proto__`), "__proto__"},
	{regexp.MustCompile(`\bprototype\b`), "prototype"},
	{regexp.MustCompile(`=>`), "arrow function"},
	{regexp.MustCompile(`\bfunction\b`), "function keyword"},
	{regexp.MustCompile(`\bclass\b`), "class"},
	{regexp.MustCompile(`\bnew\b`), "new"},
	{regexp.MustCompile(`\bthis\b`), "this"},
	{regexp.MustCompile(`\b(?:var|let|const)\b`), "variable declaration"},
	{regexp.MustCompile(`\b(?:if|for|while|switch)\s*\(`), "control flow"},
	{regexp.MustCompile(`\breturn\b`), "return"},
}

// hardBanned functions have no runtime at all.
var hardBanned = regexp.MustCompile(`\b(voicings|samples|soundAlias)\s*\(`)

// unsupportedReplacements maps functions the runtime dropped to their
// working replacement. The error message names the replacement.
var unsupportedReplacements = map[string]string{
	"space":    "room",
	"feedback": "delayfeedback",
	"reverb":   "room",
}

var unsupportedCall = regexp.MustCompile(`\b(space|feedback|reverb)\s*\(`)

// signalCall matches a direct call of a signal identifier. Signals are
// values (e.g. .pan(sine)), never callables.
var signalCall = regexp.MustCompile(`\b(sine|cosine|saw|square|tri|rand|irand)\s*\(`)

// In-quote mini-grammar shapes.
var (
	emptyParens   = regexp.MustCompile(`\(\s*\)`)
	fractionTuple = regexp.MustCompile(`\(\s*\d+\s*/\s*\d+\s*,`)
	decimalTuple  = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\(\s*-?\d*\.\d+\s*(?:,\s*-?\d*\.\d+\s*)+\)`)
	bracketCommas = regexp.MustCompile(`\[[^\]]*,[^\]]*\]`)
	pitchedToken  = regexp.MustCompile(`\b([a-gA-G])([#b]?)(-?\d)\b`)
)

// midiRanges are the comfortable registers per slot type; notes outside only
// warn, they never reject.
var midiRanges = map[models.SlotType]struct {
	lo, hi int
	label  string
}{
	models.SlotTypeBass:   {24, 48, "C1-C3"},
	models.SlotTypeChords: {48, 72, "C3-C5"},
	models.SlotTypeMelody: {60, 96, "C4-C7"},
}

// ValidatePatternCode checks pattern code against the dialect rules, plus
// the register rules of the slot type it is destined for. Pass an empty
// slot type for placements and session patterns, which have no register.
func ValidatePatternCode(code string, slotType models.SlotType) Result {
	var r Result
	trimmed := strings.TrimSpace(code)

	if trimmed == "" {
		r.errorf("pattern is empty")
		return r.finalize()
	}
	if len(code) > MaxPatternLength {
		r.errorf("pattern exceeds %d characters (got %d)", MaxPatternLength, len(code))
	}
	if !callStart.MatchString(trimmed) {
		r.errorf(`pattern must start with a function call such as s("...") or note("...")`)
	}

	if ok, which := balancedQuoteAware(trimmed); !ok {
		r.errorf("unbalanced %s", which)
	}

	for _, b := range bannedConstructs {
		if b.re.MatchString(trimmed) {
			r.errorf("%s is not allowed in patterns", b.name)
		}
	}
	for _, m := range dedupe(hardBanned.FindAllStringSubmatch(trimmed, -1)) {
		r.errorf("%s() is not available", m)
	}
	for _, m := range dedupe(unsupportedCall.FindAllStringSubmatch(trimmed, -1)) {
		r.errorf("%s() is not supported; use %s() instead", m, unsupportedReplacements[m])
	}
	for _, m := range dedupe(signalCall.FindAllStringSubmatch(trimmed, -1)) {
		r.errorf("%s is a signal value and cannot be called; use it without parentheses", m)
	}

	checkCallArguments(trimmed, &r)
	checkSlotRegister(trimmed, slotType, &r)

	return r.finalize()
}

// balancedQuoteAware verifies parens balance outside quotes and that every
// quote opened is closed. Returns the offending category on failure.
func balancedQuoteAware(code string) (bool, string) {
	depth := 0
	var quote byte
	for i := 0; i < len(code); i++ {
		c := code[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false, "parentheses"
			}
		}
	}
	if quote != 0 {
		return false, "quotes"
	}
	if depth != 0 {
		return false, "parentheses"
	}
	return true, ""
}

// patternCall is one occurrence of s(...), note(...) or n(...) with its
// first argument classified.
type patternCall struct {
	fn      string
	arg     string // first argument text, quotes stripped when quoted
	quoted  bool
	numeric bool
}

var callSites = regexp.MustCompile(`\b(s|note|n)\s*\(`)

// findPatternCalls locates every s/note/n call and extracts its first
// argument. Calls inside quoted strings are skipped.
func findPatternCalls(code string) []patternCall {
	var calls []patternCall
	for _, loc := range callSites.FindAllStringSubmatchIndex(code, -1) {
		if insideQuotes(code, loc[0]) {
			continue
		}
		fn := code[loc[2]:loc[3]]
		rest := code[loc[1]:] // just past the opening paren
		call := patternCall{fn: fn}

		j := 0
		for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
			j++
		}
		if j >= len(rest) {
			continue
		}
		switch c := rest[j]; {
		case c == '"' || c == '\'':
			call.quoted = true
			call.arg = readQuoted(rest[j:])
		case c == '-' || c == '.' || (c >= '0' && c <= '9'):
			call.numeric = true
			end := j
			for end < len(rest) && rest[end] != ',' && rest[end] != ')' {
				end++
			}
			call.arg = strings.TrimSpace(rest[j:end])
		default:
			end := j
			depth := 0
			for end < len(rest) {
				if rest[end] == '(' {
					depth++
				}
				if rest[end] == ')' {
					if depth == 0 {
						break
					}
					depth--
				}
				if rest[end] == ',' && depth == 0 {
					break
				}
				end++
			}
			call.arg = strings.TrimSpace(rest[j:end])
		}
		calls = append(calls, call)
	}
	return calls
}

// insideQuotes reports whether position pos falls within a quoted region.
func insideQuotes(code string, pos int) bool {
	var quote byte
	for i := 0; i < pos && i < len(code); i++ {
		c := code[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
		}
	}
	return quote != 0
}

// readQuoted returns the contents of the quoted literal starting at s[0].
func readQuoted(s string) string {
	if len(s) < 2 {
		return ""
	}
	q := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == q {
			return s[1:i]
		}
	}
	return s[1:]
}

// checkCallArguments enforces the quoting rule and the in-quote mini-grammar
// for every s/note/n call.
func checkCallArguments(code string, r *Result) {
	for _, call := range findPatternCalls(code) {
		if !call.quoted && !call.numeric {
			r.errorf("%s(%s): non-numeric argument must be quoted", call.fn, call.arg)
			continue
		}
		if !call.quoted {
			continue
		}
		arg := call.arg
		if emptyParens.MatchString(arg) {
			r.errorf("%s(...): empty () group in pattern string", call.fn)
		}
		if ok, _ := balancedQuoteAware(arg); !ok {
			r.errorf("%s(...): unbalanced parentheses in pattern string", call.fn)
		}
		if fractionTuple.MatchString(arg) {
			r.errorf("%s(...): comma-separated fraction groups like (1/4,1/8) are not supported", call.fn)
		}
		// Decimal tuples such as fm(0.5,0.2) read as sound-design calls the
		// runtime cannot resolve inside s(...). This check can false-positive
		// on legitimately nested numeric tuples; known limitation.
		if call.fn == "s" && decimalTuple.MatchString(arg) {
			r.errorf("s(...): function-style decimal tuples are not supported inside sample patterns")
		}
		if bracketCommas.MatchString(arg) {
			r.errorf("%s(...): comma groups inside [...] are not supported; use spaces", call.fn)
		}
		if (call.fn == "note" || call.fn == "n") && strings.Contains(arg, ",") {
			r.errorf("%s(...): commas are not supported in note strings; use spaces", call.fn)
		}
	}
}

// checkSlotRegister applies the per-slot-type note rules: drums reject
// pitched note() material outright, melodic slots warn outside their
// register.
func checkSlotRegister(code string, slotType models.SlotType, r *Result) {
	if slotType == "" || slotType == models.SlotTypeWild {
		return
	}

	var pitched []string
	for _, call := range findPatternCalls(code) {
		if call.fn != "note" && call.fn != "n" {
			continue
		}
		if !call.quoted {
			continue
		}
		for _, m := range pitchedToken.FindAllStringSubmatch(call.arg, -1) {
			pitched = append(pitched, m[0])
		}
	}
	if len(pitched) == 0 {
		return
	}

	if slotType == models.SlotTypeDrums {
		r.errorf("drums slots cannot use pitched note() patterns (found %s)", pitched[0])
		return
	}

	rng, ok := midiRanges[slotType]
	if !ok {
		return
	}
	for _, tok := range pitched {
		midi, ok := noteToMIDI(tok)
		if !ok {
			continue
		}
		if midi < rng.lo || midi > rng.hi {
			r.warnf("note %s is outside the %s range %s", tok, slotType, rng.label)
		}
	}
}

var semitones = map[byte]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}

// noteToMIDI converts a letter+accidental+octave token to a MIDI number
// (C4 = 60).
func noteToMIDI(tok string) (int, bool) {
	m := pitchedToken.FindStringSubmatch(tok)
	if m == nil {
		return 0, false
	}
	base, ok := semitones[m[1][0]|0x20]
	if !ok {
		return 0, false
	}
	switch m[2] {
	case "#":
		base++
	case "b":
		base--
	}
	var octave int
	if _, err := fmt.Sscanf(m[3], "%d", &octave); err != nil {
		return 0, false
	}
	return (octave+1)*12 + base, true
}

// dedupe extracts the first capture group of every match, dropping repeats
// so an offender reported twice stays one error.
func dedupe(matches [][]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range matches {
		if len(m) < 2 || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		out = append(out, m[1])
	}
	return out
}
