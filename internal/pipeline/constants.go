package pipeline

// Payload bounds for model calls. These exist to keep token usage down, not
// to shape the recommendations themselves.
const (
	// maxTransactionsInPrompt caps how many normalized transactions a
	// recommendation request embeds.
	maxTransactionsInPrompt = 10

	// maxProductsInPrompt caps how many catalog entries a recommendation
	// request embeds.
	maxProductsInPrompt = 5

	// maxRecommendations caps the identifier list accepted from the model.
	maxRecommendations = 3

	// maxTagsPerMonth caps the behavioral tags accepted per monthly summary.
	maxTagsPerMonth = 2
)
