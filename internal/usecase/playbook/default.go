package playbook

import (
	"github.com/google/uuid"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
)

// defaultDefinitionID is stable so sessions created against the
// built-in fallback stay joinable across restarts.
var defaultDefinitionID = uuid.MustParse("6f1d2c5a-9b3e-4f70-8a21-0c4de5b7a901")

// DefaultDefinition is the built-in discovery methodology used when no
// stored playbook is available.
func DefaultDefinition() *entities.PlaybookDefinition {
	return &entities.PlaybookDefinition{
		ID:        defaultDefinitionID,
		Name:      "Standard Discovery",
		IsDefault: true,
		Items: []entities.PlaybookItem{
			{
				ID:          "pain",
				Label:       "Identify pain points",
				Description: "Surface the concrete problem the customer is trying to solve",
				Keywords:    []string{"problem", "pain", "struggle", "challenge", "frustrat", "issue", "bottleneck"},
				Questions:   []string{"What's the biggest challenge your team is facing right now?"},
				Status:      entities.ItemMissing,
			},
			{
				ID:          "budget",
				Label:       "Qualify budget",
				Description: "Establish whether budget exists for solving this problem",
				Keywords:    []string{"budget", "spend", "cost", "price", "invest", "afford"},
				Questions:   []string{"Do you have budget allocated for solving this?"},
				Status:      entities.ItemMissing,
			},
			{
				ID:          "authority",
				Label:       "Identify decision maker",
				Description: "Establish who signs off on the purchase",
				Keywords:    []string{"decision", "approve", "sign off", "sign-off", "boss", "committee", "stakeholder"},
				Questions:   []string{"Who else would be involved in making this decision?"},
				Status:      entities.ItemMissing,
			},
			{
				ID:          "timeline",
				Label:       "Establish timeline",
				Description: "Establish when the customer needs a solution in place",
				Keywords:    []string{"timeline", "deadline", "quarter", "by when", "this year", "next month", "urgency"},
				Questions:   []string{"When do you need this up and running?"},
				Status:      entities.ItemMissing,
			},
			{
				ID:          "current_solution",
				Label:       "Understand current solution",
				Description: "Learn what the customer uses today and where it falls short",
				Keywords:    []string{"currently", "today we", "right now we", "existing", "in place", "we use"},
				Questions:   []string{"How are you handling this today?"},
				Status:      entities.ItemMissing,
			},
			{
				ID:          "next_steps",
				Label:       "Agree next steps",
				Description: "Leave the call with a concrete, mutually agreed follow-up",
				Keywords:    []string{"next step", "follow up", "follow-up", "schedule", "send over", "demo", "proposal"},
				Questions:   []string{"What would be a good next step from your side?"},
				Status:      entities.ItemMissing,
			},
		},
	}
}
