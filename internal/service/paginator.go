package service

import "strings"

// pageWordThreshold - мягкий порог размера страницы в словах.
const pageWordThreshold = 100

// Paginate разбивает сгенерированный текст истории на страницы.
// Абзацы (разделённые пустыми строками) не рвутся: абзацы накапливаются,
// пока добавление следующего не превысит порог. Абзац длиннее порога
// становится отдельной страницей. Функция чистая и детерминированная.
func Paginate(text string) []string {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentWords := 0

	for _, p := range paragraphs {
		words := countWords(p)
		if len(current) > 0 && currentWords+words > pageWordThreshold {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = current[:0]
			currentWords = 0
		}
		current = append(current, p)
		currentWords += words
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}

	return chunks
}

// splitParagraphs разделяет текст на абзацы по пустым строкам.
func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	var paragraphs []string
	var lines []string
	flush := func() {
		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, "\n"))
			lines = nil
		}
	}

	for _, line := range strings.Split(normalized, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		lines = append(lines, trimmed)
	}
	flush()

	return paragraphs
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
