package translate

import "regexp"

var wordPattern = regexp.MustCompile(`\S+`)

// firstWords returns text cut after its first n words.
func firstWords(text string, n int) string {
	words := wordPattern.FindAllStringIndex(text, n+1)
	if len(words) <= n {
		return text
	}
	return text[:words[n-1][1]]
}

// splitWords cuts text into chunks of at most n words. Whitespace inside a
// chunk is kept as is; whitespace between chunks is dropped.
func splitWords(text string, n int) []string {
	words := wordPattern.FindAllStringIndex(text, -1)
	if len(words) <= n {
		return []string{text}
	}

	chunks := make([]string, 0, len(words)/n+1)
	for start := 0; start < len(words); start += n {
		end := start + n
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, text[words[start][0]:words[end-1][1]])
	}
	return chunks
}
