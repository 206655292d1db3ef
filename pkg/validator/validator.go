// Package validator holds small combinators for checking decoded
// configuration. Each check returns nil or an error naming the field.
package validator

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// All returns the first non-nil error.
func All(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Map applies f to every item; f receives a description such as
// "roots[2]".
func Map[T any](items []T, f func(T, string) error, description string) error {
	for i, item := range items {
		if err := f(item, fmt.Sprintf("%s[%d]", description, i)); err != nil {
			return err
		}
	}
	return nil
}

// MapDict applies f to every entry in key order so the reported error is
// stable.
func MapDict[T any](items map[string]T, f func(string, T) error, description string) error {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := f(k, items[k]); err != nil {
			return fmt.Errorf("%s[%q]: %w", description, k, err)
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

func NoDuplicates[T comparable](items []T, description string) error {
	seen := make(map[T]struct{}, len(items))
	for _, v := range items {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%s contains duplicate value: %v", description, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// HasNoTemplateTags rejects values that contain template delimiters, for
// fields that are used verbatim.
func HasNoTemplateTags(field, description string) error {
	for _, delim := range []string{"{{", "{%", "{#"} {
		if strings.Contains(field, delim) {
			return fmt.Errorf("%s must not contain template tags", description)
		}
	}
	return nil
}

func DirExists(path, description string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %s is not a directory", description, path)
	}
	return nil
}

func FileExists(path, description string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %s is a directory", description, path)
	}
	return nil
}
