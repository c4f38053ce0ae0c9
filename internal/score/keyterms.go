package score

import (
	"sort"
	"strings"

	"github.com/signalhound/signalhound/internal/models"
)

// stopWords is the filter list for key-term extraction: function words,
// pronouns, and verbs too common in social posts to carry topical signal.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "shall": {}, "can": {},
	"need": {}, "dare": {}, "i": {}, "you": {}, "he": {}, "she": {}, "it": {},
	"we": {}, "they": {}, "me": {}, "him": {}, "her": {}, "us": {}, "them": {},
	"my": {}, "your": {}, "his": {}, "its": {}, "our": {}, "their": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "am": {}, "and": {},
	"or": {}, "but": {}, "if": {}, "because": {}, "as": {}, "until": {},
	"while": {}, "of": {}, "at": {}, "by": {}, "for": {}, "with": {},
	"about": {}, "against": {}, "between": {}, "into": {}, "through": {},
	"during": {}, "before": {}, "after": {}, "above": {}, "below": {},
	"to": {}, "from": {}, "up": {}, "down": {}, "in": {}, "out": {},
	"on": {}, "off": {}, "over": {}, "under": {}, "again": {}, "further": {},
	"then": {}, "once": {}, "here": {}, "there": {}, "when": {}, "where": {},
	"why": {}, "how": {}, "all": {}, "any": {}, "both": {}, "each": {},
	"few": {}, "more": {}, "most": {}, "other": {}, "some": {}, "such": {},
	"no": {}, "nor": {}, "not": {}, "only": {}, "own": {}, "same": {},
	"so": {}, "than": {}, "too": {}, "very": {}, "just": {}, "also": {},
	"now": {}, "what": {}, "which": {}, "who": {}, "whom": {}, "like": {},
	"get": {}, "got": {}, "getting": {}, "go": {}, "goes": {}, "going": {},
	"want": {}, "wants": {}, "make": {}, "makes": {}, "use": {}, "uses": {},
	"using": {}, "see": {}, "seen": {}, "saw": {}, "think": {}, "thinks": {},
	"thinking": {},
}

// ExtractKeyTerms returns the post's five most frequent content words.
// Words are lowercased, stripped to alphanumerics, and must be at least
// three characters after cleaning. Ties break by first occurrence so the
// result is deterministic.
func ExtractKeyTerms(post models.Post) []string {
	content := strings.ToLower(post.Content())

	freq := make(map[string]int)
	order := make(map[string]int)
	next := 0
	for _, word := range strings.Fields(content) {
		cleaned := cleanWord(word)
		if len(cleaned) < 3 {
			continue
		}
		if _, stop := stopWords[cleaned]; stop {
			continue
		}
		if _, seen := freq[cleaned]; !seen {
			order[cleaned] = next
			next++
		}
		freq[cleaned]++
	}

	terms := make([]string, 0, len(freq))
	for word := range freq {
		terms = append(terms, word)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return order[terms[i]] < order[terms[j]]
	})

	if len(terms) > 5 {
		terms = terms[:5]
	}
	return terms
}

func cleanWord(word string) string {
	var b strings.Builder
	for _, r := range word {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
