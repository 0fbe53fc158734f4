package scoring

// Reference returns the production scoring table. Each call builds a fresh
// value, so callers may modify it (for example in tests) without affecting
// other engines.
func Reference() *Config {
	return &Config{
		Schema:     SchemaVersion,
		Name:       "BookOfH_ProfileScoringEngine",
		Version:    "2.0.0",
		ScoreRange: Range{Min: 0, Max: 100},
		Bands: []Band{
			{Name: "Beginner", Min: 0, Max: 39},
			{Name: "Engaged", Min: 40, Max: 69},
			{Name: "Insider", Min: 70, Max: 100},
		},
		Categories: map[string]Category{
			"spend_12mo":       {Label: "Total Spend (12 months)", Weight: 30},
			"sa_loyalty":       {Label: "Sales Associate Loyalty", Weight: 20},
			"purchase_mix":     {Label: "Purchase Mix", Weight: 20},
			"visit_engagement": {Label: "Visit & Engagement", Weight: 15},
			"behavior":         {Label: "Behavior & Demeanor", Weight: 15},
		},
		Questions: map[string]Question{
			"q_spend_12mo": {
				Category: "spend_12mo",
				Points: map[string]int{
					"no_shops":    0,
					"lt_5000":     0,
					"5000_15000":  10,
					"15000_40000": 20,
					"40000_plus":  30,
				},
				MaxPoints: 30,
			},
			"q_sa_tenure": {
				Category: "sa_loyalty",
				Points: map[string]int{
					"no_sa":        0,
					"lt_6_months":  0,
					"6_24_months":  10,
					"2_plus_years": 15,
				},
				MaxPoints: 15,
			},
			"q_sa_switches": {
				Category: "sa_loyalty",
				Points: map[string]int{
					"no_switches":     5,
					"1_2_switches":    0,
					"3_plus_switches": -5,
				},
				MaxPoints: 5,
			},
			// Multi-select: every selected item adds its points.
			"q_purchase_mix": {
				Category: "purchase_mix",
				Points: map[string]int{
					"accessories_slgs":       2,
					"leather_goods":          5,
					"rtw_shoes":              3,
					"fine_jewellery_watches": 5,
					"home":                   2,
					"equestrian":             3,
				},
				MaxPoints: 20,
			},
			"q_visit_frequency": {
				Category: "visit_engagement",
				Points: map[string]int{
					"1_2_per_year": 0,
					"few_per_year": 5,
					"monthly":      10,
					"weekly_plus":  15,
				},
				MaxPoints: 15,
			},
			"q_wishlist_active": {
				Category:  "visit_engagement",
				Points:    map[string]int{"wishlist_yes": 5, "wishlist_no": 0},
				MaxPoints: 5,
			},
			"q_tester_bag": {
				Category:  "visit_engagement",
				Points:    map[string]int{"tester_yes": 5, "tester_no": 0},
				MaxPoints: 5,
			},
			"q_store_vibe": {
				Category: "behavior",
				Points: map[string]int{
					"direct_transactional": 0,
					"friendly_chatty":      5,
					"patient_engaged":      10,
				},
				MaxPoints: 10,
			},
			"q_cancellations": {
				Category:  "behavior",
				Points:    map[string]int{"ask_cancellations_yes": 5, "ask_cancellations_no": 0},
				MaxPoints: 5,
			},
		},
	}
}
