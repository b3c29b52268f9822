package forms

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"
)

// ItemType discriminates the answer a form item expects.
type ItemType string

const (
	ItemString ItemType = "string"
	ItemInt    ItemType = "int"
	ItemChoose ItemType = "choose"
	ItemFile   ItemType = "file"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemString, ItemInt, ItemChoose, ItemFile:
		return true
	}
	return false
}

// Item is one question on a form. The pointer fields are per-type
// constraints; nil means unconstrained.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        ItemType `json:"type"`
	Required    bool     `json:"required"`
	MinLength   *int     `json:"min_length,omitempty"`
	MaxLength   *int     `json:"max_length,omitempty"`
	Min         *int64   `json:"min,omitempty"`
	Max         *int64   `json:"max,omitempty"`
	Options     []string `json:"options,omitempty"`
	FileLimit   *int     `json:"file_limit,omitempty"`
}

// Validate checks the item definition itself.
func (it Item) Validate() error {
	if it.ID == "" {
		return errors.New("item id is required")
	}
	if it.Title == "" {
		return fmt.Errorf("item %s: title is required", it.ID)
	}
	if !it.Type.Valid() {
		return fmt.Errorf("item %s: unknown type %q", it.ID, it.Type)
	}
	if it.Type == ItemChoose && len(it.Options) == 0 {
		return fmt.Errorf("item %s: choose item needs options", it.ID)
	}
	if it.MinLength != nil && it.MaxLength != nil && *it.MinLength > *it.MaxLength {
		return fmt.Errorf("item %s: min_length exceeds max_length", it.ID)
	}
	if it.Min != nil && it.Max != nil && *it.Min > *it.Max {
		return fmt.Errorf("item %s: min exceeds max", it.ID)
	}
	return nil
}

// AnswerValue is one submitted answer. Exactly one of the value fields is
// set, matching the item type.
type AnswerValue struct {
	ItemID  string   `json:"item_id"`
	String  *string  `json:"string,omitempty"`
	Int     *int64   `json:"int,omitempty"`
	Choice  *string  `json:"choice,omitempty"`
	FileIDs []string `json:"file_ids,omitempty"`
}

// CheckAnswer validates a submitted value against the item's constraints.
func (it Item) CheckAnswer(v AnswerValue) error {
	switch it.Type {
	case ItemString:
		if v.String == nil {
			return fmt.Errorf("item %s: expected a string answer", it.ID)
		}
		n := utf8.RuneCountInString(*v.String)
		if it.Required && n == 0 {
			return fmt.Errorf("item %s: answer is required", it.ID)
		}
		if it.MinLength != nil && n < *it.MinLength {
			return fmt.Errorf("item %s: answer shorter than %d characters", it.ID, *it.MinLength)
		}
		if it.MaxLength != nil && n > *it.MaxLength {
			return fmt.Errorf("item %s: answer longer than %d characters", it.ID, *it.MaxLength)
		}
	case ItemInt:
		if v.Int == nil {
			return fmt.Errorf("item %s: expected an integer answer", it.ID)
		}
		if it.Min != nil && *v.Int < *it.Min {
			return fmt.Errorf("item %s: answer below %d", it.ID, *it.Min)
		}
		if it.Max != nil && *v.Int > *it.Max {
			return fmt.Errorf("item %s: answer above %d", it.ID, *it.Max)
		}
	case ItemChoose:
		if v.Choice == nil {
			return fmt.Errorf("item %s: expected a choice", it.ID)
		}
		if !slices.Contains(it.Options, *v.Choice) {
			return fmt.Errorf("item %s: %q is not an option", it.ID, *v.Choice)
		}
	case ItemFile:
		if it.Required && len(v.FileIDs) == 0 {
			return fmt.Errorf("item %s: a file is required", it.ID)
		}
		if it.FileLimit != nil && len(v.FileIDs) > *it.FileLimit {
			return fmt.Errorf("item %s: at most %d files allowed", it.ID, *it.FileLimit)
		}
	default:
		return fmt.Errorf("item %s: unknown type %q", it.ID, it.Type)
	}
	return nil
}

// ValidateAnswers checks a full submission: no unknown items, no duplicate
// answers, every required item answered, every value within constraints.
func (f Form) ValidateAnswers(values []AnswerValue) error {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		it, ok := f.Item(v.ItemID)
		if !ok {
			return fmt.Errorf("unknown item %s", v.ItemID)
		}
		if seen[v.ItemID] {
			return fmt.Errorf("item %s: answered twice", v.ItemID)
		}
		seen[v.ItemID] = true
		if err := it.CheckAnswer(v); err != nil {
			return err
		}
	}
	for _, it := range f.Items {
		if it.Required && !seen[it.ID] {
			return fmt.Errorf("item %s: answer is required", it.ID)
		}
	}
	return nil
}
