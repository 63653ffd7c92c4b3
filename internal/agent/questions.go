// In file: internal/agent/questions.go
package agent

import "fmt"

// FetchQuestion is the opening request that loads a zip code.
func FetchQuestion(zip string) string {
	return fmt.Sprintf("Fetch FEMA data for zip code %s.", zip)
}

// DefaultQuestions are asked after the data is loaded, one per summary.
var DefaultQuestions = []string{
	"What is the total building damage amount?",
	"What is the average contents damage amount?",
	"What is the most recent date of loss?",
	"How many policies are there by flood zone?",
	"What is the total number of claims?",
	"What is the total sum of building and contents damage amounts?",
}
