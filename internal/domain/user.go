package domain

import "strconv"

// UserInfo holds one user's demographic and financial attributes, sourced
// from the user table. Raw keeps the original column names and values so the
// final report can embed the row verbatim; the typed fields are parsed once
// at load time for the components that need them.
type UserInfo struct {
	ID             string
	Name           string
	Age            int
	CreditScore    int
	FinancialGoals string
	Email          string

	Raw map[string]string
}

// UserInfoFromRecord builds a UserInfo from a decoded CSV record.
// Unparseable numeric fields fall back to zero; the row itself is kept as-is.
func UserInfoFromRecord(rec map[string]string) UserInfo {
	age, _ := strconv.Atoi(rec["Age"])
	score, _ := strconv.Atoi(rec["Credit_score"])

	return UserInfo{
		ID:             rec["User_id"],
		Name:           rec["User_name"],
		Age:            age,
		CreditScore:    score,
		FinancialGoals: rec["Financial_goals"],
		Email:          rec["Email"],
		Raw:            rec,
	}
}

// FirstName returns the leading word of the display name, used for
// personalized email subjects.
func (u UserInfo) FirstName() string {
	for i, r := range u.Name {
		if r == ' ' {
			return u.Name[:i]
		}
	}
	return u.Name
}
