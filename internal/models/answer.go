package models

import "time"

// Citation maps a numbered evidence marker in an answer back to its source.
type Citation struct {
	Label      int     `json:"label"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Page       int     `json:"page"`
	Score      float64 `json:"score"`
}

// Answer is the result of one question against a session. Grounded is false
// when no retrieved evidence cleared the similarity threshold; in that case
// Citations is empty and the model was told to answer without fabricating
// sources.
type Answer struct {
	SessionID string     `json:"session_id"`
	Question  string     `json:"question"`
	Text      string     `json:"text"`
	Grounded  bool       `json:"grounded"`
	Citations []Citation `json:"citations"`
}

// Turn is one question/answer pair in a session's conversation history.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}
