package text

import (
	"regexp"
	"strings"
)

// MaxChunkLength is the default per-chunk character limit.
const MaxChunkLength = 300

// abbreviations suppress sentence splits after titles and latinisms.
var abbreviations = [...]string{
	"Dr.", "Mr.", "Mrs.", "Ms.", "Prof.", "Sr.", "Jr.",
	"St.", "Ave.", "Rd.", "Blvd.", "Dept.", "Inc.", "Ltd.",
	"Co.", "Corp.", "etc.", "vs.", "i.e.", "e.g.", "Ph.D.",
}

var (
	paragraphPattern = regexp.MustCompile(`\n\s*\n`)
	sentenceBoundary = regexp.MustCompile(`([.!?])\s+`)
)

// Chunk splits text into synthesis units of at most maxLen characters,
// preferring paragraph, then sentence, then comma, then word boundaries.
// Words are never split, so a chunk may exceed maxLen when a single word
// does. maxLen <= 0 selects MaxChunkLength. Chunk order is synthesis order.
// Empty input yields a single empty chunk.
func Chunk(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = MaxChunkLength
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return []string{""}
	}

	var chunks []string

	for _, para := range paragraphPattern.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) <= maxLen {
			chunks = append(chunks, para)
			continue
		}

		chunks = appendSentenceChunks(chunks, para, maxLen)
	}

	if len(chunks) == 0 {
		return []string{""}
	}

	return chunks
}

// appendSentenceChunks greedily packs the paragraph's sentences into chunks,
// flushing whenever the next sentence (plus a separating space) would exceed
// maxLen. Oversized sentences fall through to comma and word splitting.
func appendSentenceChunks(chunks []string, para string, maxLen int) []string {
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}
	}

	for _, sentence := range splitSentences(para) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		sentenceLen := len(sentence)
		if sentenceLen > maxLen {
			flush()

			for _, part := range strings.Split(sentence, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}

				partLen := len(part)
				if partLen > maxLen {
					flush()
					chunks = appendWordChunks(chunks, part, maxLen)
					continue
				}

				if currentLen+partLen+1 > maxLen && current.Len() > 0 {
					flush()
				}

				if current.Len() > 0 {
					current.WriteString(", ")
					currentLen += 2
				}
				current.WriteString(part)
				currentLen += partLen
			}

			continue
		}

		if currentLen+sentenceLen+1 > maxLen && current.Len() > 0 {
			flush()
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(sentence)
		currentLen += sentenceLen
	}

	flush()

	return chunks
}

// appendWordChunks is the last-resort split on whitespace. A word longer than
// maxLen is emitted as its own oversized chunk rather than broken mid-word.
func appendWordChunks(chunks []string, part string, maxLen int) []string {
	var current strings.Builder
	currentLen := 0

	for _, word := range strings.Fields(part) {
		wordLen := len(word)
		if currentLen+wordLen+1 > maxLen && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += wordLen
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}

// splitSentences splits on [.!?] followed by whitespace, keeping the
// terminator with its sentence and suppressing boundaries that belong to a
// known abbreviation.
func splitSentences(text string) []string {
	matches := sentenceBoundary.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	var sentences []string
	lastEnd := 0

	for _, m := range matches {
		before := strings.TrimSpace(text[lastEnd:m[0]]) + text[m[0]:m[0]+1]

		isAbbrev := false
		for _, abbrev := range abbreviations {
			if strings.HasSuffix(before, abbrev) {
				isAbbrev = true
				break
			}
		}

		if !isAbbrev {
			sentences = append(sentences, text[lastEnd:m[1]])
			lastEnd = m[1]
		}
	}

	if lastEnd < len(text) {
		sentences = append(sentences, text[lastEnd:])
	}

	if len(sentences) == 0 {
		return []string{text}
	}

	return sentences
}
