package managesearchhistory

const (
	ActionRecord = "record"
	ActionList   = "list"
	ActionClear  = "clear"
)

type Input struct {
	Action string `json:"action"`
	Query  string `json:"query,omitempty"`
}

type Output struct {
	Action  string   `json:"action"`
	History []string `json:"history"`
}
