package pipeline

// UpdateMemory records the finished exchange on the state. The
// conversation length counts the incoming history plus the current
// user/assistant pair.
func UpdateMemory(state *State) {
	state.Memory = MemoryRecord{
		LastUserMessage:       state.UserMessage,
		LastAssistantResponse: state.Response,
		ConversationLength:    len(state.History) + 2,
	}
	state.CurrentStep = StepMemoryUpdated
}
