package translate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const detectSystemPrompt = "You are a language detector. " +
	"Respond only with the ISO 639-3 code of the language of the text provided by the user: " +
	"exactly three lowercase letters, for example eng, pol or por. " +
	"Do not add any other words, punctuation or explanation."

const translateSystemPrompt = "You are a language translator. " +
	"Translate the text provided by the user into %s. " +
	"Convert every fragment written in any other language into %s and preserve the meaning. " +
	"Keep untranslatable tokens such as proper nouns, numbers, URLs and markup unchanged. " +
	"Respond only with the translated text, don't write additional messages like \"This is the translated text\"."

const markupInstruction = " The text is an HTML fragment: translate only the text between tags " +
	"and return every tag and attribute exactly as given."

const countLanguagesSystemPrompt = "You count the languages used in the text provided by the user. " +
	"Respond only with the number of distinct languages as digits, for example 1 or 2. " +
	"Do not add any other words."

var languageCodePattern = regexp.MustCompile(`^[a-z]{3}$`)

func detectPrompt(text string) Prompt {
	return Prompt{
		System: detectSystemPrompt,
		User:   text,
	}
}

func translatePrompt(text string, target string, markup bool) Prompt {
	label := languageLabel(target)
	system := fmt.Sprintf(translateSystemPrompt, label, label)
	if markup {
		system += markupInstruction
	}
	return Prompt{
		System: system,
		User:   fmt.Sprintf("Target language: %s\n\n%s", target, text),
	}
}

func countLanguagesPrompt(text string) Prompt {
	return Prompt{
		System: countLanguagesSystemPrompt,
		User:   text,
	}
}

// LanguageName returns the English name of an ISO 639-3 code, or "" when x/text does not know it.
func LanguageName(code string) string {
	base, err := language.ParseBase(code)
	if err != nil {
		return ""
	}
	return display.English.Languages().Name(base)
}

// languageLabel renders "English (eng)", or the bare code when x/text has no name for it.
func languageLabel(code string) string {
	name := LanguageName(code)
	if name == "" {
		return code
	}
	return fmt.Sprintf("%s (%s)", name, code)
}

// NormalizeCode lowercases and checks a caller supplied ISO 639-3 code.
func NormalizeCode(code string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if !languageCodePattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid target language %q: ISO 639-3 code expected", code)
	}
	return normalized, nil
}

func parseLanguageCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if !languageCodePattern.MatchString(code) {
		return "", &MalformedResponseError{
			Response: raw,
			Reason:   "expected an ISO 639-3 code of three lowercase letters",
		}
	}
	return code, nil
}

func parseTranslation(raw string) string {
	return strings.TrimSpace(raw)
}

func parseLanguageCount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, &MalformedResponseError{
			Response: raw,
			Reason:   "expected a positive number of languages",
		}
	}
	return n, nil
}
