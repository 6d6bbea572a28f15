// Package llm routes model calls by task and instruments them.
package llm

// Task names the purpose of a completion.
type Task string

// Known tasks.
const (
	TaskSlots   Task = "slots"
	TaskCompose Task = "compose"
	TaskAnswer  Task = "answer"
)

// Router maps tasks to model tiers.
type Router struct {
	Small string
	Mid   string
	Large string
}

// ModelFor returns the model serving task: slots use the small tier,
// composition the mid tier and anything else the large tier.
func (r Router) ModelFor(task Task) string {
	switch task {
	case TaskSlots:
		return r.Small
	case TaskCompose:
		return r.Mid
	default:
		return r.Large
	}
}
