package scanner

// Item is a named batch of words to scan, such as the columns of one table.
type Item struct {
	Source string   `json:"source"`
	Words  []string `json:"words"`
}
