package internal

import "strings"

// FindSimilarStrings finds strings from candidates that are similar to target.
// Returns up to maxSuggestions suggestions, sorted by similarity (closest first).
// Uses Levenshtein distance with a maximum distance threshold.
func FindSimilarStrings(target string, candidates []string, maxSuggestions int) []string {
	if len(candidates) == 0 || maxSuggestions <= 0 {
		return nil
	}

	// Maximum distance to consider a candidate as similar
	maxDistance := len(target) / 2
	if maxDistance < 2 {
		maxDistance = 2
	}

	type scored struct {
		str      string
		distance int
	}

	var similar []scored
	targetLower := strings.ToLower(target)

	for _, candidate := range candidates {
		dist := levenshteinDistance(targetLower, strings.ToLower(candidate))
		if dist <= maxDistance {
			similar = append(similar, scored{str: candidate, distance: dist})
		}
	}

	// Sort by distance (ascending)
	for i := 0; i < len(similar)-1; i++ {
		for j := i + 1; j < len(similar); j++ {
			if similar[j].distance < similar[i].distance {
				similar[i], similar[j] = similar[j], similar[i]
			}
		}
	}

	result := make([]string, 0, maxSuggestions)
	for i := 0; i < len(similar) && i < maxSuggestions; i++ {
		result = append(result, similar[i].str)
	}

	return result
}

// levenshteinDistance calculates the Levenshtein distance between two strings.
// This is the minimum number of single-character edits (insertions, deletions,
// or substitutions) required to change one string into the other.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// We only need two rows at a time to save memory
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i

		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[j] = minOf3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func minOf3(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}

// FormatSuggestions formats a list of suggestions as a human-readable string.
// Example output: "Did you mean 'name', 'names' or 'named'?"
func FormatSuggestions(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}

	if len(suggestions) == 1 {
		return "Did you mean '" + suggestions[0] + "'?"
	}

	var sb strings.Builder
	sb.WriteString("Did you mean ")

	for i, s := range suggestions {
		if i > 0 {
			if i == len(suggestions)-1 {
				sb.WriteString(" or ")
			} else {
				sb.WriteString(", ")
			}
		}
		sb.WriteByte('\'')
		sb.WriteString(s)
		sb.WriteByte('\'')
	}

	sb.WriteByte('?')
	return sb.String()
}
