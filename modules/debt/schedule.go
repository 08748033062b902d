package debt

import "math"

// Payment is one year of debt service.
type Payment struct {
	Year      int     `cty:"year"`
	Principal float64 `cty:"principal"`
	Interest  float64 `cty:"interest"`
}

// Schedule is the debt service of one issuance.
type Schedule struct {
	IssueYear int
	Par       float64
	Payments  []Payment
}

// Amortize returns the level debt service schedule of par borrowed at rate
// for term years. The first payment falls in startYear.
func Amortize(par, rate float64, startYear, term int) []Payment {
	payments := make([]Payment, 0, term)
	if rate == 0 {
		equal := par / float64(term)
		for i := 0; i < term; i++ {
			payments = append(payments, Payment{Year: startYear + i, Principal: equal})
		}
		return payments
	}

	annual := par * rate / (1 - math.Pow(1+rate, -float64(term)))
	remaining := par
	for i := 0; i < term; i++ {
		interest := remaining * rate
		principal := annual - interest
		payments = append(payments, Payment{Year: startYear + i, Principal: principal, Interest: interest})
		remaining -= principal
	}
	return payments
}

func sumForYear(payments []Payment, year int) (principal, interest float64) {
	for _, p := range payments {
		if p.Year == year {
			principal += p.Principal
			interest += p.Interest
		}
	}
	return principal, interest
}

func outstandingAfter(payments []Payment, year int) float64 {
	total := 0.0
	for _, p := range payments {
		if p.Year > year {
			total += p.Principal
		}
	}
	return total
}
