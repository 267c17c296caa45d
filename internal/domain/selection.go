package domain

// Selection is the outcome of looking identifiers up in a table. A miss is a
// normal value with Found=false and a message for the user.
type Selection struct {
	Requested []string        `json:"requested"`
	Records   []StudentRecord `json:"records"`
	Missing   []string        `json:"missing,omitempty"`
	Multi     bool            `json:"multi"`
	Found     bool            `json:"found"`
	Message   string          `json:"message,omitempty"`
}
