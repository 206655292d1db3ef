package tmpl

import "fmt"

// String is template source held inline, e.g. in a configuration file.
type String string

// Validate compiles s with e, reporting syntax errors and missing parents.
func (s String) Validate(e *Engine) error {
	if _, err := e.FromString(string(s), ""); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	return nil
}

// Render compiles s with e and renders it with data.
func (s String) Render(e *Engine, data map[string]any) (string, error) {
	t, err := e.FromString(string(s), "")
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	return t.Render(data)
}
