// Package sentiment scores comment text with a small weighted lexicon.
// Scores are in [-1, 1]; zero means neutral or no signal.
package sentiment

import (
	"math"
	"strings"
	"unicode"
)

// normalization controls how quickly the raw sum saturates towards ±1
const normalization = 15.0

// negationWindow is how many following tokens a negation flips
const negationWindow = 3

var lexicon = map[string]float64{
	"amazing": 3, "awesome": 3, "excellent": 3, "fantastic": 3, "love": 3, "perfect": 3,
	"great": 2.5, "thanks": 2, "thank": 2, "good": 2, "nice": 2, "helpful": 2, "clean": 1.5,
	"works": 1.5, "fixed": 1.5, "glad": 2, "appreciate": 2.5, "happy": 2.5, "lgtm": 2,
	"elegant": 2.5, "solid": 1.5, "useful": 2, "cool": 1.5, "welcome": 1.5, "+1": 1.5,
	"bad": -2, "broken": -2.5, "bug": -1, "crash": -2.5, "crashes": -2.5, "error": -1.5,
	"fail": -2, "fails": -2, "failing": -2, "failed": -2, "wrong": -2, "annoying": -2.5,
	"terrible": -3, "horrible": -3, "awful": -3, "hate": -3, "useless": -3, "ugly": -2,
	"slow": -1.5, "confusing": -2, "frustrating": -2.5, "regression": -2, "worse": -2.5,
	"worst": -3, "disappointed": -2.5, "unusable": -3, "problem": -1.5, "issue": -0.5,
	"sorry": -0.5, "stuck": -1.5, "ridiculous": -2.5, "-1": -1.5,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "isn't": {}, "doesn't": {}, "don't": {}, "didn't": {},
	"won't": {}, "can't": {}, "cannot": {}, "wasn't": {}, "aren't": {}, "nothing": {},
}

var intensifiers = map[string]float64{
	"very": 1.5, "really": 1.4, "extremely": 1.8, "so": 1.3, "super": 1.5, "totally": 1.4,
	"slightly": 0.6, "somewhat": 0.7, "barely": 0.5,
}

// Score returns the sentiment of text
func Score(text string) float64 {
	tokens := tokenize(text)

	var sum float64
	negateFor := 0
	boost := 1.0
	for _, token := range tokens {
		if _, ok := negations[token]; ok {
			negateFor = negationWindow
			continue
		}
		if factor, ok := intensifiers[token]; ok {
			boost *= factor
			continue
		}

		if weight, ok := lexicon[token]; ok {
			value := weight * boost
			if negateFor > 0 {
				value *= -0.75
			}
			sum += value
		}

		boost = 1.0
		if negateFor > 0 {
			negateFor--
		}
	}

	if sum == 0 {
		return 0
	}
	return sum / math.Sqrt(sum*sum+normalization)
}

// tokenize lowercases text and splits it into words, keeping apostrophes and
// the +1/-1 reactions
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '+' && r != '-'
	})
}
