package bot

import (
	"strings"

	"github.com/pathakanu/vitalTrack/internal/model"
)

// resolveSymptomType maps free text such as "Stomach Pain", "passing gas" or
// "chest_pain_left" to a vocabulary key. It returns "" when nothing matches.
func resolveSymptomType(text string) string {
	needle := normalizeLabel(text)
	if needle == "" {
		return ""
	}
	for _, st := range model.SymptomVocabulary() {
		if needle == st.Key || needle == normalizeLabel(st.DisplayName) {
			return st.Key
		}
	}
	return ""
}

// findSymptomType looks for any vocabulary entry mentioned inside a sentence,
// preferring the longest match so "chest pain left" wins over "pain".
func findSymptomType(sentence string) string {
	haystack := "_" + normalizeLabel(sentence) + "_"
	best, bestLen := "", 0
	for _, st := range model.SymptomVocabulary() {
		for _, candidate := range []string{st.Key, normalizeLabel(st.DisplayName)} {
			if strings.Contains(haystack, "_"+candidate+"_") && len(candidate) > bestLen {
				best, bestLen = st.Key, len(candidate)
			}
		}
	}
	return best
}

func normalizeLabel(text string) string {
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}

func displayName(symptomType string) string {
	for _, st := range model.SymptomVocabulary() {
		if st.Key == symptomType {
			return strings.ToLower(st.DisplayName)
		}
	}
	return strings.ReplaceAll(symptomType, "_", " ")
}

func vocabularyHint() string {
	keys := make([]string, 0)
	for _, st := range model.SymptomVocabulary() {
		keys = append(keys, st.Key)
	}
	return "Known symptoms: " + strings.Join(keys, ", ")
}
