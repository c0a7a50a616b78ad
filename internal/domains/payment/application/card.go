package application

import (
	"strconv"
	"strings"
)

// Card carries the checkout card form. All values arrive as strings and are
// validated here rather than at the transport layer so every entry point
// shares the same rules.
type Card struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Month  string `json:"month"`
	Year   string `json:"year"`
	Code   string `json:"code"`
}

// Validate returns a field-to-message map, empty when the card is
// acceptable. The number must be all digits with an even length and must
// not end in zero.
func (c Card) Validate() map[string]string {
	problems := map[string]string{}
	if strings.TrimSpace(c.Name) == "" {
		problems["name"] = "cardholder name is required"
	}

	number := strings.TrimSpace(c.Number)
	switch {
	case number == "":
		problems["number"] = "card number is required"
	case !allDigits(number):
		problems["number"] = "card number must contain only digits"
	case len(number)%2 != 0:
		problems["number"] = "card number must have an even number of digits"
	case number[len(number)-1] == '0':
		problems["number"] = "card number must not end in zero"
	}

	if month, err := strconv.Atoi(strings.TrimSpace(c.Month)); err != nil || month < 1 || month > 12 {
		problems["month"] = "month must be a number between 1 and 12"
	}
	if year, err := strconv.Atoi(strings.TrimSpace(c.Year)); err != nil || year < 2000 || year > 3000 {
		problems["year"] = "year must be a number between 2000 and 3000"
	}
	if code := strings.TrimSpace(c.Code); code == "" || !allDigits(code) {
		problems["code"] = "security code must contain only digits"
	}
	return problems
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
