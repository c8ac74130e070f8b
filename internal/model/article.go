package model

import "encoding/json"

// Article is a raw input document. The core never mutates it.
type Article struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"` // File path or URL the article was loaded from
}

// Sentence is a segment of an article's text
type Sentence struct {
	Text  string
	Index int // Position among the article's kept sentences (0-based)
}

// MarshalJSON encodes a sentence as its bare text
func (s Sentence) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

// UnmarshalJSON accepts the bare text form written by MarshalJSON
func (s *Sentence) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &s.Text)
}

// Texts returns the text of each sentence in order
func Texts(sentences []Sentence) []string {
	out := make([]string, len(sentences))
	for i, s := range sentences {
		out[i] = s.Text
	}
	return out
}
