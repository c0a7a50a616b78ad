package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCard() Card {
	return Card{
		Name:   "ALICE COOPER",
		Number: "12345678",
		Month:  "12",
		Year:   "2026",
		Code:   "123",
	}
}

func TestCardValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Card)
		field  string
	}{
		{"valid card", func(c *Card) {}, ""},
		{"missing name", func(c *Card) { c.Name = " " }, "name"},
		{"empty number", func(c *Card) { c.Number = "" }, "number"},
		{"number with letters", func(c *Card) { c.Number = "1234abcd" }, "number"},
		{"odd length number", func(c *Card) { c.Number = "1234567" }, "number"},
		{"number ends in zero", func(c *Card) { c.Number = "12345670" }, "number"},
		{"month zero", func(c *Card) { c.Month = "0" }, "month"},
		{"month thirteen", func(c *Card) { c.Month = "13" }, "month"},
		{"month not a number", func(c *Card) { c.Month = "xx" }, "month"},
		{"year too early", func(c *Card) { c.Year = "1999" }, "year"},
		{"year too late", func(c *Card) { c.Year = "3001" }, "year"},
		{"empty code", func(c *Card) { c.Code = "" }, "code"},
		{"code with letters", func(c *Card) { c.Code = "12a" }, "code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := validCard()
			tt.mutate(&card)
			problems := card.Validate()
			if tt.field == "" {
				assert.Empty(t, problems)
			} else {
				assert.Contains(t, problems, tt.field)
			}
		})
	}
}

func TestCardValidate_BoundaryValues(t *testing.T) {
	card := validCard()
	card.Month = "1"
	card.Year = "2000"
	assert.Empty(t, card.Validate())

	card.Year = "3000"
	assert.Empty(t, card.Validate())
}
