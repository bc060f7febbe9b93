package validator

import (
	"fmt"
	"slices"
	"strings"
)

func All(errors ...error) error {
	for _, err := range errors {
		if err != nil {
			return err
		}
	}
	return nil
}

func Map[T any](items []T, f func(T, string) error, description string) error {
	for i, item := range items {
		if err := f(item, fmt.Sprintf("%s[%d]", description, i)); err != nil {
			return err
		}
	}
	return nil
}

func NotEmpty(field, description string) error {
	if strings.TrimSpace(field) == "" {
		return fmt.Errorf("%s must not be empty", description)
	}
	return nil
}

func NoDuplicates[T comparable](slice []T, description string) error {
	seen := make(map[T]struct{})
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%s contains duplicate value: %v", description, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// NoDuplicatesFold is NoDuplicates for names compared case-insensitively.
func NoDuplicatesFold(slice []string, description string) error {
	lowered := make([]string, len(slice))
	for i, s := range slice {
		lowered[i] = strings.ToLower(s)
	}
	return NoDuplicates(lowered, description)
}

func MatchesAllowed[T comparable](field T, allowed []T, description string) error {
	if !slices.Contains(allowed, field) {
		return fmt.Errorf("%s must be one of %v, got %v", description, allowed, field)
	}
	return nil
}

// Satisfies fails when pred rejects field. requirement completes the sentence
// "<description> must be ...".
func Satisfies[T any](field T, pred func(T) bool, description, requirement string) error {
	if !pred(field) {
		return fmt.Errorf("%s must be %s, got %v", description, requirement, field)
	}
	return nil
}

// Positive fails for zero or negative values.
func Positive(field int, description string) error {
	if field <= 0 {
		return fmt.Errorf("%s must be positive, got %d", description, field)
	}
	return nil
}
