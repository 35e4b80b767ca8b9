package workflow

// Templates returns the built-in template catalog. A fresh copy is built on every call so
// callers may modify the result freely.
func Templates() []Template {
	return []Template{
		{
			Name:        "School ERP Demo Flow",
			Description: "Standard workflow for School ERP product demonstration",
			Category:    "Education",
			StartNode:   "mainMenu",
			Tags:        []string{"erp", "school", "demo"},
			Nodes: map[string]Node{
				"mainMenu": {
					ID:          "mainMenu",
					Title:       "Main Menu",
					Type:        NodeTypeStart,
					Message:     "Welcome to our School ERP! How can I help you today?",
					Connections: []string{"features", "demo", "pricing"},
					Position:    Position{X: 400, Y: 100},
				},
				"features": {
					ID:          "features",
					Title:       "Features",
					Type:        NodeTypeCategory,
					Message:     "Here are our key features...",
					Connections: []string{"demo"},
					Position:    Position{X: 200, Y: 300},
				},
				"demo": {
					ID:          "demo",
					Title:       "Schedule Demo",
					Type:        NodeTypeAction,
					Message:     "Let's schedule your demo!",
					Connections: []string{},
					Position:    Position{X: 400, Y: 500},
					Metadata:    &NodeMetadata{CollectContact: true},
				},
				"pricing": {
					ID:          "pricing",
					Title:       "Pricing",
					Type:        NodeTypeCategory,
					Message:     "Here's our pricing information...",
					Connections: []string{"demo"},
					Position:    Position{X: 600, Y: 300},
				},
			},
		},
		{
			Name:        "Support Ticket Flow",
			Description: "Customer support ticket routing workflow",
			Category:    "Support",
			StartNode:   "welcome",
			Tags:        []string{"support", "tickets", "routing"},
			Nodes: map[string]Node{
				"welcome": {
					ID:          "welcome",
					Title:       "Welcome",
					Type:        NodeTypeStart,
					Message:     "How can I help you with your support request?",
					Connections: []string{"technical", "billing", "general"},
					Position:    Position{X: 400, Y: 100},
				},
				"technical": {
					ID:          "technical",
					Title:       "Technical Issue",
					Type:        NodeTypeCategory,
					Message:     "Let me connect you with technical support...",
					Connections: []string{"escalate"},
					Position:    Position{X: 200, Y: 300},
				},
				"billing": {
					ID:          "billing",
					Title:       "Billing Question",
					Type:        NodeTypeCategory,
					Message:     "Let me help with your billing inquiry...",
					Connections: []string{"collect_info"},
					Position:    Position{X: 400, Y: 300},
				},
				"general": {
					ID:          "general",
					Title:       "General Question",
					Type:        NodeTypeCategory,
					Message:     "I'd be happy to help with your question...",
					Connections: []string{"collect_info"},
					Position:    Position{X: 600, Y: 300},
				},
				"escalate": {
					ID:          "escalate",
					Title:       "Escalate",
					Type:        NodeTypeAction,
					Message:     "Creating ticket for technical team...",
					Connections: []string{},
					Position:    Position{X: 200, Y: 500},
				},
				"collect_info": {
					ID:          "collect_info",
					Title:       "Collect Information",
					Type:        NodeTypeAction,
					Message:     "Please provide more details...",
					Connections: []string{},
					Position:    Position{X: 500, Y: 500},
				},
			},
		},
		{
			Name:        "Lead Qualification Flow",
			Description: "Qualify and route sales leads automatically",
			Category:    "Sales",
			StartNode:   "intro",
			Tags:        []string{"sales", "leads", "qualification"},
			Nodes: map[string]Node{
				"intro": {
					ID:          "intro",
					Title:       "Introduction",
					Type:        NodeTypeStart,
					Message:     "Thanks for your interest! Let me learn more about your needs.",
					Connections: []string{"company_size"},
					Position:    Position{X: 400, Y: 100},
				},
				"company_size": {
					ID:          "company_size",
					Title:       "Company Size",
					Type:        NodeTypeCondition,
					Message:     "How many students does your school have?",
					Connections: []string{"small_school", "large_school"},
					Position:    Position{X: 400, Y: 250},
					Conditions: []Condition{
						{Field: "students", Operator: OperatorLess, Value: "500"},
					},
				},
				"small_school": {
					ID:          "small_school",
					Title:       "Small School",
					Type:        NodeTypeCategory,
					Message:     "Perfect! Our basic package would be ideal for you.",
					Connections: []string{"schedule_demo"},
					Position:    Position{X: 200, Y: 400},
				},
				"large_school": {
					ID:          "large_school",
					Title:       "Large School",
					Type:        NodeTypeCategory,
					Message:     "Great! You'll need our enterprise solution.",
					Connections: []string{"schedule_demo"},
					Position:    Position{X: 600, Y: 400},
				},
				"schedule_demo": {
					ID:          "schedule_demo",
					Title:       "Schedule Demo",
					Type:        NodeTypeAction,
					Message:     "Let's schedule a personalized demo for you!",
					Connections: []string{},
					Position:    Position{X: 400, Y: 550},
					Metadata:    &NodeMetadata{CollectContact: true},
				},
			},
		},
	}
}

// FindTemplate looks a template up by its name.
func FindTemplate(name string) (Template, bool) {
	for _, t := range Templates() {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}
