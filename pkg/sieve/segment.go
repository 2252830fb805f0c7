package sieve

import (
	"regexp"
	"unicode/utf8"
)

// A sentence starts at a letter, quote or '@' and keeps extending while
// another letter follows, stepping over inline <tags>, {braces}, single
// line breaks, ellipses and hyphens. Trailing punctuation is kept.
var sentencePattern = regexp.MustCompile(
	`["'@A-Za-zÀ-ÿ](?:[^<>{};.?!]*(?:<[^>]*>|\{[^}]*\})*[ \n\r]?(?:\.{3} *|[-.])*["'@A-Za-zÀ-ÿ])+[^<>(){} \r\n]*`)

// A word is two or more letters, optionally joined by apostrophes or hyphens.
var wordPattern = regexp.MustCompile(
	`(?:[A-Za-zÀ-ÿ]['-]?)*(?:[A-ZÀ-Þa-zß-ÿ]+[a-zß-ÿ]*)+(?:['’-]?[A-Za-zÀ-ÿ]'?)+`)

// Token is a word match inside a sentence, positioned in runes.
type Token struct {
	Word  string
	Start int
}

// SplitSentences returns the sentence candidates found in text, in order.
func SplitSentences(text string) []string {
	return sentencePattern.FindAllString(text, -1)
}

// SplitWords tokenizes one sentence.
func SplitWords(sentence string) []Token {
	locs := wordPattern.FindAllStringIndex(sentence, -1)
	if len(locs) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(locs))
	lastByte, lastRune := 0, 0
	for _, loc := range locs {
		lastRune += utf8.RuneCountInString(sentence[lastByte:loc[0]])
		lastByte = loc[0]
		tokens = append(tokens, Token{Word: sentence[loc[0]:loc[1]], Start: lastRune})
	}
	return tokens
}

func isUpper(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'À' && r <= 'Þ')
}

func hasUppercase(s string) bool {
	for _, r := range s {
		if isUpper(r) {
			return true
		}
	}
	return false
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// caseOr merges two case variants of the same word rune by rune so the
// result keeps a lowercase letter wherever either side had one. Runes past
// the end of b are kept from a.
func caseOr(a, b string) string {
	ar, br := []rune(a), []rune(b)
	for i := range ar {
		if i >= len(br) {
			break
		}
		ar[i] |= br[i]
	}
	return string(ar)
}

func dropLast(s string, n int) string {
	r := []rune(s)
	if n >= len(r) {
		return ""
	}
	return string(r[:len(r)-n])
}
