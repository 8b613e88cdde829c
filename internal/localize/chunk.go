package localize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chunk splits text into pieces of at most limit characters, breaking between
// sentences where possible. A sentence longer than limit is cut at the last
// space that fits, or at limit when there is none.
func Chunk(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, s := range sentences(text) {
		n := utf8.RuneCountInString(s)
		if n > limit {
			flush()
			pieces := hardSplit(s, limit)
			chunks = append(chunks, pieces[:len(pieces)-1]...)
			last := pieces[len(pieces)-1]
			cur.WriteString(last)
			curLen = utf8.RuneCountInString(last)
			continue
		}
		if curLen > 0 && curLen+1+n > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(s)
		curLen += n
	}
	flush()
	return chunks
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '।':
		return true
	}
	return false
}

// sentences splits after a terminator that is followed by whitespace.
func sentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i, r := range runes {
		if !isTerminator(r) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func hardSplit(s string, limit int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimSpace(string(runes[:cut])))
		runes = []rune(strings.TrimLeftFunc(string(runes[cut:]), unicode.IsSpace))
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
