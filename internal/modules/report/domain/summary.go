package domain

// WordCount is one entry of the frequent words ranking
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Summary holds the aggregates a daily digest is rendered from
type Summary struct {
	PostCount   int         `json:"post_count"`
	TotalViews  int64       `json:"total_views"`
	AvgLength   int         `json:"avg_length"`
	AvgWords    int         `json:"avg_words"`
	TotalEmojis int         `json:"total_emojis"`
	TotalLinks  int         `json:"total_links"`
	TopWords    []WordCount `json:"top_words"`
}
