package extractor

import (
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// japanese covers the scripts AtCoder's Japanese statement is written in.
var japanese = []*unicode.RangeTable{unicode.Hiragana, unicode.Katakana, unicode.Han}

// ContainsScript reports whether any rune of s belongs to one of tables.
func ContainsScript(s string, tables ...*unicode.RangeTable) bool {
	for _, r := range s {
		if unicode.IsOneOf(tables, r) {
			return true
		}
	}
	return false
}

// HasJapanese reports whether s contains kana or kanji.
func HasJapanese(s string) bool {
	return ContainsScript(s, japanese...)
}

// NotJapanese is a Filter rejecting elements whose text contains Japanese.
func NotJapanese(s *goquery.Selection) bool {
	return !HasJapanese(s.Text())
}
