package generator

// topics holds the canned line pools, keyed by topic. Pools are consumed in
// shuffled order before any line is reused.
var topics = map[string][]string{
	"product launch": {
		"Let's walk through the timeline for the product launch.",
		"Marketing needs at least two weeks for the campaign.",
		"What about the technical requirements?",
		"We should be ready for beta testing next week.",
		"I'm still worried about the user interface changes.",
		"Those are minor tweaks, they shouldn't delay us.",
		"Have we thought about the international markets?",
		"Yes, localization is already underway.",
		"What's the contingency plan if we slip?",
		"There's a buffer built into the schedule.",
	},
	"team meeting": {
		"Good morning everyone, let's get started.",
		"First up, last week's progress.",
		"I finished the API integration as planned.",
		"Great! Any blockers we should talk about?",
		"I'm still waiting on design specs for the dashboard.",
		"I'll get those over to you by end of day.",
		"How is testing going?",
		"Found a few edge cases, nothing critical.",
		"Let's schedule a follow-up for Friday.",
		"Works for me, same time.",
	},
	"technical debugging": {
		"The system is throwing timeout errors again.",
		"When did that start?",
		"About an hour ago, right after the deploy.",
		"Did anything change in the configuration?",
		"Just the connection pool size.",
		"That could be it. Let's pull up the logs.",
		"I'm seeing a lot of connection refused errors.",
		"Try rolling the config change back.",
		"Okay, reverting now.",
		"Errors stopped. That was definitely it.",
	},
	"project planning": {
		"We need to pin down our Q2 objectives.",
		"I'd focus on performance improvements first.",
		"What about the features customers asked for?",
		"We can do both with the right prioritization.",
		"Let's list everything out and score the complexity.",
		"Good idea, I'll start a planning document.",
		"Technical debt should be on the list too.",
		"Agreed, parts of the codebase need refactoring.",
		"How many engineers can we put on this?",
		"Three full-time, plus some part-time support.",
	},
}

// speakerNames is the pool speaker names are sampled from, without
// replacement, at generation time.
var speakerNames = []string{
	"Alice", "Bob", "Charlie", "Diana", "Emma",
	"Frank", "Grace", "Henry", "Iris", "Jack",
}

// transitions prefix reused lines once a topic's canned pool is exhausted, so
// repeats read as a change of direction rather than a verbatim echo.
var transitions = []string{
	"By the way,",
	"Speaking of which,",
	"That reminds me,",
	"Also,",
	"On another note,",
	"Quick question -",
	"Before I forget,",
	"One more thing,",
}
