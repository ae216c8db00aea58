package helpers

import (
	"fmt"
	"strings"

	"github.com/schollz/closestmatch"
)

// Suggest returns the candidate that most resembles input, or "" when no
// candidate shares a bigram with it. Matching ignores case.
func Suggest(input string, candidates []string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || len(candidates) == 0 {
		return ""
	}

	byLower := make(map[string]string, len(candidates))
	keys := make([]string, 0, len(candidates))
	for _, c := range candidates {
		k := strings.ToLower(c)
		if _, ok := byLower[k]; ok {
			continue
		}
		byLower[k] = c
		keys = append(keys, k)
	}

	cm := closestmatch.New(keys, []int{2})
	return byLower[cm.Closest(input)]
}

// NotFoundMessage formats "<kind> "<ref>" not found", adding a hint when one
// of the candidates is close.
func NotFoundMessage(kind, ref string, candidates []string) string {
	msg := fmt.Sprintf("%s %q not found", kind, ref)
	if s := Suggest(ref, candidates); s != "" {
		msg += fmt.Sprintf(", did you mean %q?", s)
	}
	return msg
}
