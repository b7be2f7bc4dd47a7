package config

// DefaultThemes is the built-in complaint-theme vocabulary.
func DefaultThemes() []Theme {
	return []Theme{
		{Name: "billing", Keywords: []string{"bill", "charge", "fee", "payment", "billing"}},
		{Name: "service", Keywords: []string{"service", "support", "call", "wait", "representative"}},
		{Name: "fraud", Keywords: []string{"fraud", "unauthorized", "theft", "scam"}},
		{Name: "late", Keywords: []string{"late", "delay", "overdue", "penalty"}},
		{Name: "error", Keywords: []string{"error", "mistake", "incorrect", "wrong"}},
		{Name: "interest", Keywords: []string{"interest", "rate", "apr", "finance charge"}},
	}
}

// DefaultCannedTopics are served when no index is available. The entry with
// an empty Match is the generic answer. "{query}" and "{topic}" placeholders
// are replaced by the query and its first word.
func DefaultCannedTopics() []CannedTopic {
	return []CannedTopic{
		{
			Match: "credit card",
			Answer: "**Credit Card Complaint Analysis:**\n\nThe most common issues are:\n" +
				"• Unauthorized transactions and fraud\n" +
				"• Billing errors and incorrect charges\n" +
				"• High interest rates and hidden fees\n" +
				"• Poor customer service response times",
			Chunks: []string{
				"Customer reported unauthorized charges of $500 on their credit card statement dated XX/XX/XXXX.",
				"Complaint about billing error where interest was calculated incorrectly for 3 months.",
				"Issue with customer service taking over 2 weeks to respond to fraud claim.",
			},
			Metadata: []map[string]string{
				{"product_category": "Credit Card", "issue": "Unauthorized transaction"},
				{"product_category": "Credit Card", "issue": "Billing error"},
				{"product_category": "Credit Card", "issue": "Customer service"},
			},
		},
		{
			Match: "billing",
			Answer: "**Billing Issues Analysis:**\n\nCommon billing problems include:\n" +
				"• Incorrect charge amounts\n" +
				"• Double billing for single transactions\n" +
				"• Late fees applied incorrectly\n" +
				"• Difficulty disputing charges",
			Chunks: []string{
				"Customer was charged twice for the same purchase on XX/XX/XXXX.",
				"Late fee applied despite payment being made on time according to bank records.",
				"Billing dispute unresolved for 45 days despite multiple calls.",
			},
			Metadata: []map[string]string{
				{"product_category": "Credit Card", "issue": "Double billing"},
				{"product_category": "Credit Card", "issue": "Late fee"},
				{"product_category": "Credit Card", "issue": "Billing dispute"},
			},
		},
		{
			Match: "service",
			Answer: "**Customer Service Analysis:**\n\nKey service complaints:\n" +
				"• Long wait times on phone support\n" +
				"• Unhelpful or untrained representatives\n" +
				"• Issues not resolved after multiple contacts\n" +
				"• Lack of follow-up on promised solutions",
			Chunks: []string{
				"Waited 45 minutes on hold before speaking to a representative.",
				"Representative could not access account details or provide useful information.",
				"Promised callback within 24 hours never received.",
			},
			Metadata: []map[string]string{
				{"product_category": "Credit Card", "issue": "Wait time"},
				{"product_category": "Credit Card", "issue": "Representative knowledge"},
				{"product_category": "Credit Card", "issue": "Follow-up"},
			},
		},
		{
			Match: "",
			Answer: "**Analysis of '{query}':**\n\nBased on complaint database patterns, common issues include " +
				"billing accuracy, service responsiveness, and fee transparency. " +
				"Review specific complaint excerpts for detailed insights.",
			Chunks: []string{
				"Relevant complaint about {topic} issues.",
				"Additional customer feedback shows consistent patterns across similar cases.",
				"Historical complaint data indicates recurring themes in this category.",
			},
			Metadata: []map[string]string{
				{"product_category": "Credit Card", "issue": "General complaint"},
				{"product_category": "Multiple", "issue": "Pattern analysis"},
				{"product_category": "Various", "issue": "Historical data"},
			},
		},
	}
}
