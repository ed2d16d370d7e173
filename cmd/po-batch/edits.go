package main

import (
	"fmt"
	"strconv"
	"strings"
)

// edit is one -set ROW:FIELD=VALUE correction.
type edit struct {
	row   int
	field string
	value string
}

// editList implements flag.Value so -set can repeat.
type editList []edit

func (l *editList) String() string {
	parts := make([]string, len(*l))
	for i, e := range *l {
		parts[i] = fmt.Sprintf("%d:%s=%s", e.row, e.field, e.value)
	}
	return strings.Join(parts, ",")
}

func (l *editList) Set(s string) error {
	e, err := parseEdit(s)
	if err != nil {
		return err
	}
	*l = append(*l, e)
	return nil
}

func parseEdit(s string) (edit, error) {
	rowPart, rest, ok := strings.Cut(s, ":")
	if !ok {
		return edit{}, fmt.Errorf("want ROW:FIELD=VALUE, got %q", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowPart))
	if err != nil || row < 1 {
		return edit{}, fmt.Errorf("row must be a positive number, got %q", rowPart)
	}
	field, value, ok := strings.Cut(rest, "=")
	if !ok || strings.TrimSpace(field) == "" {
		return edit{}, fmt.Errorf("want ROW:FIELD=VALUE, got %q", s)
	}
	return edit{row: row, field: strings.TrimSpace(field), value: value}, nil
}
