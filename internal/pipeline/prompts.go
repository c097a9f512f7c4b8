package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-recommender/internal/domain"
)

// jsonOutputRules is appended to every instruction so the model returns bare
// JSON instead of a fenced Markdown block.
const jsonOutputRules = "Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n"

// recommendationSystemPrompt returns the fixed instruction for one product
// category. Every category asks for the same JSON shape so the responses can
// share one decoder.
func recommendationSystemPrompt(kind domain.ProductKind) string {
	var intro, considerations string

	switch kind {
	case domain.KindCoupon:
		intro = "You are a coupon recommendation agent. Analyze the user's transaction history " +
			"and recommend the top 3 coupons that best match their spending patterns.\n"
		considerations = "Consider:\n" +
			"- User's most frequent spending categories\n" +
			"- Merchant preferences\n" +
			"- Transaction amounts and frequency\n" +
			"- Financial goals if provided\n"
	case domain.KindLoan:
		intro = "You are a loan recommendation agent. Analyze the user's financial profile " +
			"and recommend the top 3 loans that best suit their needs.\n"
		considerations = "Consider:\n" +
			"- User's income and spending patterns\n" +
			"- Debt-to-income ratio\n" +
			"- Credit utilization patterns\n" +
			"- Financial goals and loan purpose\n" +
			"- Risk assessment based on transaction history\n"
	case domain.KindCreditCard:
		intro = "You are a credit card recommendation agent. Analyze the user's spending patterns " +
			"and recommend 3 credit cards that best match their lifestyle.\n"
		considerations = "Consider:\n" +
			"- Primary spending categories\n" +
			"- Monthly spending volume\n" +
			"- Reward preferences (cashback, points, miles)\n" +
			"- Credit profile and financial goals\n" +
			"- Exclude cards the user already owns\n"
	case domain.KindSavings:
		intro = "You are a high-yield savings account recommendation agent. Analyze the user's " +
			"financial behavior and recommend suitable savings options.\n"
		considerations = "Consider:\n" +
			"- User's income and spending patterns\n" +
			"- Savings potential based on transaction history\n" +
			"- Current savings goals and financial objectives\n" +
			"- Risk tolerance and liquidity needs\n" +
			"- Interest rates and account features\n"
	}

	def := domain.Defaults[kind]
	example := fmt.Sprintf(`{"recommendations": [%q, %q, %q], "email_subject": "..."}`,
		def.IDs[0], def.IDs[1], def.IDs[2])

	return intro + "\n" + considerations + "\n" +
		"Return a JSON object with exactly two keys:\n" +
		"- \"recommendations\": an array of the top 3 product IDs, highest confidence first\n" +
		"- \"email_subject\": a short marketing subject line for these picks (under 60 characters)\n\n" +
		"Example: " + example + "\n\n" +
		jsonOutputRules
}

// summarySystemPrompt is the fixed instruction for the per-month financial
// summary call.
func summarySystemPrompt() string {
	var b strings.Builder

	b.WriteString("You are a financial summary agent. Generate a comprehensive monthly summary of the " +
		"user's spending behavior and provide actionable suggestions to achieve their financial goals.\n\n")

	b.WriteString("Analyze the monthly transaction data and return a JSON object with the following structure:\n" +
		"{\n" +
		"    \"month\": \"01\",\n" +
		"    \"year\": \"2023\",\n" +
		"    \"ai_summary\": \"Brief AI-generated summary of spending patterns and recommendations\",\n" +
		"    \"tags\": [\"Foodie\", \"Saver\"],\n" +
		"    \"categories_expenses\": {\n" +
		"        \"total_income\": \"dollar_amount\",\n" +
		"        \"food\": \"dollar_amount\",\n" +
		"        \"food_%\": \"percentage_of_income\",\n" +
		"        \"transportation\": \"dollar_amount\",\n" +
		"        \"transportation_%\": \"percentage_of_income\",\n" +
		"        \"entertainment\": \"dollar_amount\",\n" +
		"        \"entertainment_%\": \"percentage_of_income\",\n" +
		"        \"total_spending\": \"dollar_amount\",\n" +
		"        \"total_spending_%\": \"percentage_of_income\"\n" +
		"    }\n" +
		"}\n\n")

	b.WriteString("Consider:\n" +
		"- Calculate income from INCOME_WAGES transactions (negative amounts are income)\n" +
		"- Group expenses by major categories (Food, Transportation, Entertainment, etc.)\n" +
		"- Calculate percentages relative to total income\n" +
		"- Provide insights on spending patterns and goal progress\n" +
		"- Suggest budget optimization opportunities\n" +
		"- Write the summary as if speaking directly to the user, for example: " +
		"\"You are spending this much in this category. You need to minimize this spending.\"\n" +
		"- Keep the summary short and informative so the user does not lose interest reading it.\n\n")

	b.WriteString("The \"tags\" array must contain exactly two short labels describing the month's dominant " +
		"spending behavior. Prefer one of: ")
	b.WriteString(strings.Join(domain.SuggestedTags, ", "))
	b.WriteString(". Invent a short label only if none of these fit.\n\n")

	b.WriteString(jsonOutputRules)
	return b.String()
}

// emailSubjectSystemPrompt is the fixed instruction for the final subject-line
// synthesis call.
func emailSubjectSystemPrompt() string {
	return "You are a creative email marketing agent specialized in personalized financial notifications.\n" +
		"Generate compelling, contextual email subject lines based on the user's profile and specific " +
		"product recommendations.\n\n" +
		"CRITICAL REQUIREMENTS:\n" +
		"1. Create email subjects that reference SPECIFIC product details (merchant names, exact rates, specific benefits)\n" +
		"2. Create a monthly summary email that highlights KEY insights from spending patterns with specific dollar amounts or percentages\n" +
		"3. Subject should be made up of two short sentences, not more, because longer subjects get cut off for mobile users\n" +
		"4. Make them personalized, actionable, and urgency-driven\n" +
		"5. Use the user's first name when appropriate for personalization\n" +
		"6. Reference specific financial goals from the user profile where relevant\n" +
		"7. Tone should be very funny (but not offensive), personal, catchy, creative, informative, short, and impactful\n\n" +
		"CONTEXT AWARENESS:\n" +
		"- Consider the user's financial goals (emergency fund, debt payoff, investment, etc.)\n" +
		"- Factor in the user's spending patterns (high dining, travel, shopping, etc.)\n" +
		"- Match urgency to product expiration dates or limited-time offers\n" +
		"- Reference the user's credit score tier for appropriate products\n\n" +
		"Return a JSON object with this exact format:\n" +
		"{\n" +
		"    \"spending_summary_email\": \"\",\n" +
		"    \"coupons_email\": \"\",\n" +
		"    \"loans_email\": \"\",\n" +
		"    \"credit_cards_email\": \"\",\n" +
		"    \"savings_email\": \"\"\n" +
		"}\n\n" +
		"Use the provided product data to extract specific details for each top recommendation.\n" +
		"For the monthly summary, analyze spending patterns and highlight actionable insights.\n\n" +
		jsonOutputRules
}

// buildRecommendationContext serializes the user, a bounded slice of their
// transactions, and a bounded slice of the category's catalog into the
// per-call instruction body.
func buildRecommendationContext(user domain.UserInfo, txns []domain.NormalizedTransaction, products []domain.Product) (string, error) {
	userJSON, err := json.MarshalIndent(user.Raw, "", "  ")
	if err != nil {
		return "", fmt.Errorf("buildRecommendationContext: marshal user info: %w", err)
	}

	if len(txns) > maxTransactionsInPrompt {
		txns = txns[:maxTransactionsInPrompt]
	}
	txnJSON, err := json.MarshalIndent(txns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("buildRecommendationContext: marshal transactions: %w", err)
	}

	if len(products) > maxProductsInPrompt {
		products = products[:maxProductsInPrompt]
	}
	fields := make([]map[string]string, 0, len(products))
	for _, p := range products {
		fields = append(fields, p.Fields)
	}
	productJSON, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("buildRecommendationContext: marshal products: %w", err)
	}

	var b strings.Builder
	b.WriteString("User Information: ")
	b.Write(userJSON)
	b.WriteString("\nTransaction Data: ")
	b.Write(txnJSON)
	b.WriteString("\nAvailable Products: ")
	b.Write(productJSON)
	b.WriteString("\n\nPlease analyze the user's financial behavior and recommend suitable products.\n")
	return b.String(), nil
}

// buildSummaryContext serializes the user and one month's full transaction set.
func buildSummaryContext(user domain.UserInfo, monthTxns []domain.NormalizedTransaction) (string, error) {
	userJSON, err := json.MarshalIndent(user.Raw, "", "  ")
	if err != nil {
		return "", fmt.Errorf("buildSummaryContext: marshal user info: %w", err)
	}
	txnJSON, err := json.MarshalIndent(monthTxns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("buildSummaryContext: marshal transactions: %w", err)
	}

	var b strings.Builder
	b.WriteString("User Information: ")
	b.Write(userJSON)
	b.WriteString("\nTransaction Data: ")
	b.Write(txnJSON)
	b.WriteString("\n\nPlease summarize this month's financial activity.\n")
	return b.String(), nil
}

// buildEmailContext serializes the full synthesis context (profile, insights,
// top picks, summaries, product details) for the subject-line call.
func buildEmailContext(ctxData map[string]any) (string, error) {
	payload, err := json.MarshalIndent(ctxData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("buildEmailContext: marshal context: %w", err)
	}

	var b strings.Builder
	b.WriteString("Context: ")
	b.Write(payload)
	b.WriteString("\n\nPlease generate the five email subject lines.\n")
	return b.String(), nil
}
