package ranking

import "strings"

const minTokenLength = 3

// 常见英文停用词,够用即可
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "has": {}, "have": {}, "was": {},
	"with": {}, "this": {}, "that": {}, "from": {}, "they": {}, "will": {},
	"what": {}, "when": {}, "how": {}, "why": {}, "your": {}, "its": {},
	"about": {}, "into": {}, "more": {}, "other": {}, "some": {}, "than": {},
	"then": {}, "them": {}, "these": {}, "their": {}, "there": {}, "here": {},
	"over": {}, "after": {}, "been": {}, "being": {}, "just": {}, "also": {},
	"new": {}, "now": {}, "out": {}, "our": {}, "via": {},
}

// Tokenize 把标题/正文切成小写字母数字词,过滤停用词和短词
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minTokenLength {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenSet 去重后的词集合
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokenize(text) {
		set[t] = struct{}{}
	}
	return set
}
