package app

import "strings"

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func firstN(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func joinOr(list []string, sep, fallback string) string {
	if len(list) == 0 {
		return fallback
	}
	return strings.Join(list, sep)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
