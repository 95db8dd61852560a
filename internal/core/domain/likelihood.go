package domain

// Likelihood is a coarse spam-likelihood category.
type Likelihood string

const (
	LikelihoodLow      Likelihood = "Low"
	LikelihoodMedium   Likelihood = "Medium"
	LikelihoodHigh     Likelihood = "High"
	LikelihoodVeryHigh Likelihood = "Very High"
)

// LikelihoodFromCount maps a raw spam report count onto a category.
func LikelihoodFromCount(count int) Likelihood {
	switch {
	case count > 5:
		return LikelihoodVeryHigh
	case count > 2:
		return LikelihoodHigh
	case count > 0:
		return LikelihoodMedium
	default:
		return LikelihoodLow
	}
}
