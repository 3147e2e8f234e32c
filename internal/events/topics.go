package events

// Topic names used across the agent runtime.
const (
	TopicMutations = "dom.mutations"  // observe.Batch, structural additions under the feed root
	TopicReinject  = "agent.reinject" // struct{}, re-run the injection sweep
	TopicPageTask  = "page.task"      // func(), page access serialized onto the dispatch goroutine
)
