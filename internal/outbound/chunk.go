package outbound

import "strings"

// SplitText splits text into pieces of at most limit bytes, preferring to
// break at a newline, then at a space, before cutting mid-word. Provider
// plugins use it as their default chunker.
func SplitText(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := limit
		if i := strings.LastIndexByte(text[:limit], '\n'); i > 0 {
			cut = i
		} else if i := strings.LastIndexByte(text[:limit], ' '); i > 0 {
			cut = i
		}
		chunk := strings.TrimRight(text[:cut], " \n")
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = strings.TrimLeft(text[cut:], " \n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
