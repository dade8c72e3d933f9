package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "flashcard",
		Description: "A single study flashcard",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"front":      map[string]any{"type": "string", "minLength": 1},
				"back":       map[string]any{"type": "string"},
				"difficulty": map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard"}},
				"tags":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []any{"front", "back"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"minimal", `{"front":"ATP","back":"energy currency"}`, false},
		{"all fields", `{"front":"ATP","back":"energy currency","difficulty":"easy","tags":["bio"]}`, false},
		{"missing back", `{"front":"ATP"}`, true},
		{"empty front", `{"front":"","back":"x"}`, true},
		{"wrong type", `{"front":"ATP","back":7}`, true},
		{"bad enum", `{"front":"ATP","back":"x","difficulty":"brutal"}`, true},
		{"bad item type", `{"front":"ATP","back":"x","tags":[1]}`, true},
		{"malformed", `{"front":`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(testSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var inv *ErrInvalidResponse
			if assert.ErrorAs(t, err, &inv) {
				assert.Equal(t, tt.raw, string(inv.Content))
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	assert.NoError(t, validateResponse(nil, json.RawMessage(`not json`)))
}

func TestValidateResponse_NestedArray(t *testing.T) {
	deck := &Schema{
		Name: "flashcard-deck",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"cards": map[string]any{"type": "array", "items": testSchema().Definition},
			},
			"required": []any{"cards"},
		},
	}

	assert.NoError(t, validateResponse(deck, json.RawMessage(`{"cards":[{"front":"a","back":"b"}]}`)))
	assert.Error(t, validateResponse(deck, json.RawMessage(`{"cards":[{"front":"a"}]}`)))
}

func TestValidateResponse_Location(t *testing.T) {
	deck := &Schema{
		Name: "deck-locations",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"cards": map[string]any{"type": "array", "items": testSchema().Definition},
			},
			"required": []any{"cards"},
		},
	}

	tests := []struct {
		name string
		raw  string
		loc  string
	}{
		{"wrong type in second card", `{"cards":[{"front":"a","back":"b"},{"front":"c","back":3}]}`, "/cards/1/back"},
		{"missing field", `{"cards":[{"front":"a"}]}`, "/cards/0"},
		{"missing root field", `{"deck":[]}`, "/"},
		{"not json", `FRONT: a`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(deck, json.RawMessage(tt.raw))
			var inv *ErrInvalidResponse
			if assert.ErrorAs(t, err, &inv) {
				assert.Equal(t, "deck-locations", inv.Schema)
				assert.Equal(t, tt.loc, inv.Location)
				assert.Equal(t, tt.raw, string(inv.Content))
			}
		})
	}
}

func TestErrInvalidResponse_MessageNamesLocation(t *testing.T) {
	err := &ErrInvalidResponse{Location: "/flashcards/2/back", Err: assert.AnError}
	assert.Contains(t, err.Error(), "/flashcards/2/back")
	assert.Contains(t, (&ErrInvalidResponse{Err: assert.AnError}).Error(), "invalid LLM response: ")
}
